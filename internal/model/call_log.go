package model

// CallLog 一次生成调用的持久化记录（成功或失败都会写入）
type CallLog struct {
	ID           int64        `json:"id"`
	Timestamp    string       `json:"timestamp"`
	Model        string       `json:"model"`
	Prompt       string       `json:"prompt"`
	Response     any          `json:"response"`
	DurationMs   float64      `json:"duration_ms"`
	Error        *string      `json:"error"`
	Metadata     CallMetadata `json:"metadata"`
	ResponseMeta any          `json:"response_meta"`
	Locked       bool         `json:"locked"`
	Tag          *string      `json:"tag"`
}

// CallMetadata 调用的元信息：输出格式与原始 schema 字符串
type CallMetadata struct {
	Format string  `json:"format"` // text | dict
	Schema *string `json:"schema"`
}

// Pagination 分页信息
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// CallLogListResponse 日志列表响应
type CallLogListResponse struct {
	Data       []CallLog  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// SetLockedRequest 锁定状态切换请求
type SetLockedRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// PurgeResponse 清理结果
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}
