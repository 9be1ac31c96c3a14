package engine

import (
	"errors"
	"fmt"
)

// ValidationError 结构化输出不符合 schema（解析失败或校验失败）。
// 只有这类错误会触发重试；传输错误直接失败。
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("output validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RetryPolicy 显式重试策略：次数上限 + 可重试判定。
// 把校验失败和传输错误的重试资格分开表达。
type RetryPolicy struct {
	MaxAttempts int
	Retryable   func(error) bool
}

// DefaultRetryPolicy dict 模式固定 3 次尝试，顺序执行、无退避，
// 仅对校验失败重试。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Retryable:   IsValidationError,
	}
}

// IsValidationError 判断错误链里是否为输出校验失败
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
