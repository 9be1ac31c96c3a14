// Package engine 编排一次 LLM 调用：纯文本或 schema 约束的结构化输出，
// 含校验失败重试，并把原始结果拆成 data 与 response_meta。
//
// 引擎本身不落库也不写日志记录——持久化是调用方（service 层）的职责。
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"llmrelay/internal/llm"
	"llmrelay/internal/model"
	"llmrelay/internal/provider"
	"llmrelay/internal/schema"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	systemPrompt = "You are a helpful assistant."

	// tools 模式下强制模型调用的函数名
	emitFunctionName = "emit_result"
)

// ErrEmptyPrompt 空 prompt 是调用方错误，分发前拒绝
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// Request 一次生成请求
type Request struct {
	Model     string
	Prompt    string
	Format    string // text | dict
	Schema    string
	Mode      string // auto | json | tools
	Providers model.ProviderMap
}

// Result 生成结果。ResponseMeta 为 nil 表示没有旁路元数据（响应中省略）。
type Result struct {
	Data         any
	ResponseMeta map[string]any
}

// Engine 生成引擎。除网络调用外无副作用。
type Engine struct {
	factory llm.Factory
	policy  RetryPolicy
}

func New(factory llm.Factory) *Engine {
	return &Engine{
		factory: factory,
		policy:  DefaultRetryPolicy(),
	}
}

// Generate 执行一次调用。
//
// 流程：解析提供商 -> （dict 模式）编译 schema -> 调用上游
// -> （dict 模式）校验失败时重试，最多 policy.MaxAttempts 次。
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	res, err := provider.Resolve(req.Model, req.Providers)
	if err != nil {
		return nil, err
	}
	client := e.factory(res)

	if req.Format != model.FormatDict || req.Schema == "" {
		return e.generateText(ctx, client, res.Model, req.Prompt)
	}

	desc, err := schema.Compile(req.Schema)
	if err != nil {
		// 编译失败不接触上游
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		result, err := e.attemptStructured(ctx, client, res.Model, req, desc)
		if err == nil {
			return result, nil
		}
		if !e.policy.Retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("structured output failed after %d attempts: %w", e.policy.MaxAttempts, lastErr)
}

// generateText 纯文本模式：单次调用，传输错误不重试
func (e *Engine) generateText(ctx context.Context, client llm.ChatCompleter, modelName, prompt string) (*Result, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("provider call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("provider returned no choices")
	}

	return &Result{Data: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}

// attemptStructured dict 模式的一次尝试，按 mode 选择提取策略
func (e *Engine) attemptStructured(ctx context.Context, client llm.ChatCompleter, modelName string, req Request, desc *schema.Descriptor) (*Result, error) {
	var (
		raw string
		err error
		usg openai.Usage
	)

	switch req.Mode {
	case model.ModeJSON:
		raw, usg, err = e.callInlineJSON(ctx, client, modelName, req.Prompt, desc)
	default:
		// auto 与 tools 走同一条默认路径
		raw, usg, err = e.callToolFunction(ctx, client, modelName, req.Prompt, desc)
	}
	if err != nil {
		return nil, err
	}

	data, meta, err := splitPayload(raw, desc)
	if err != nil {
		return nil, err
	}

	if usg.TotalTokens != 0 || usg.PromptTokens != 0 || usg.CompletionTokens != 0 {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["usage"] = map[string]any{
			"prompt_tokens":     usg.PromptTokens,
			"completion_tokens": usg.CompletionTokens,
			"total_tokens":      usg.TotalTokens,
		}
	}

	return &Result{Data: data, ResponseMeta: meta}, nil
}

// callToolFunction 通过强制 function call 提取结构化输出
func (e *Engine) callToolFunction(ctx context.Context, client llm.ChatCompleter, modelName, prompt string, desc *schema.Descriptor) (string, openai.Usage, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        emitFunctionName,
					Description: "Emit the extraction result matching the requested shape.",
					Parameters:  desc.JSONSchema(),
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: emitFunctionName},
		},
	})
	if err != nil {
		return "", openai.Usage{}, fmt.Errorf("provider call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", openai.Usage{}, errors.New("provider returned no choices")
	}

	msg := resp.Choices[0].Message
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == emitFunctionName {
			return tc.Function.Arguments, resp.Usage, nil
		}
	}

	// 模型没走 function call 时退回解析正文
	return msg.Content, resp.Usage, nil
}

// callInlineJSON 通过提示词要求模型内联输出 JSON
func (e *Engine) callInlineJSON(ctx context.Context, client llm.ChatCompleter, modelName, prompt string, desc *schema.Descriptor) (string, openai.Usage, error) {
	system := systemPrompt + "\nYou must respond with a valid JSON object matching this schema: " + desc.String()
	user := prompt + "\nRespond ONLY with the JSON."

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", openai.Usage{}, fmt.Errorf("provider call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", openai.Usage{}, errors.New("provider returned no choices")
	}

	return resp.Choices[0].Message.Content, resp.Usage, nil
}

// splitPayload 解析并校验模型输出，把声明的字段放进 data，
// 未声明的旁路字段放进 meta。两者并起来不丢失任何信息。
func splitPayload(raw string, desc *schema.Descriptor) (map[string]any, map[string]any, error) {
	cleaned := extractJSON(raw)
	if !gjson.Valid(cleaned) {
		return nil, nil, &ValidationError{Err: fmt.Errorf("output is not valid JSON: %.120s", raw)}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, nil, &ValidationError{Err: fmt.Errorf("output is not a JSON object: %w", err)}
	}

	if err := desc.Validate(parsed); err != nil {
		return nil, nil, &ValidationError{Err: err}
	}

	data := make(map[string]any, len(desc.Fields))
	metaRaw := cleaned
	for _, name := range desc.FieldNames() {
		if v, ok := parsed[name]; ok {
			data[name] = v
		}
		metaRaw, _ = sjson.Delete(metaRaw, name)
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil || len(meta) == 0 {
		meta = nil
	}

	return data, meta, nil
}

// extractJSON 清理围栏代码块并截取最外层 JSON 对象
func extractJSON(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if gjson.Valid(s) {
		return s
	}

	// 模型有时会在 JSON 前后夹带说明文字
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
