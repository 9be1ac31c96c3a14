// Package llm 构造 OpenAI 兼容 API 的传输客户端。
// 所有受支持的提供商（OpenRouter、Ollama、自定义端点）都走同一套
// chat/completions 协议，差别只在 BaseURL、凭证和附加头。
package llm

import (
	"context"
	"net/http"
	"time"

	"llmrelay/internal/provider"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter 引擎依赖的最小传输接口，*openai.Client 天然满足。
// 测试里用假实现替换。
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Factory 按解析结果构造客户端
type Factory func(res provider.Resolved) ChatCompleter

// NewClient 基于解析出的端点配置创建客户端。
// 支持自定义 BaseURL（Ollama、自托管端点等）。
func NewClient(res provider.Resolved) *openai.Client {
	cfg := openai.DefaultConfig(res.APIKey)
	if res.BaseURL != "" {
		cfg.BaseURL = res.BaseURL
	}

	httpClient := &http.Client{Timeout: 120 * time.Second}
	if res.Provider == provider.ProviderOpenRouter {
		httpClient.Transport = &openRouterTransport{base: http.DefaultTransport}
	}
	cfg.HTTPClient = httpClient

	return openai.NewClientWithConfig(cfg)
}

// DefaultFactory 生产环境的客户端工厂
func DefaultFactory(res provider.Resolved) ChatCompleter {
	return NewClient(res)
}

// openRouterTransport 为 OpenRouter 请求附加归因头
type openRouterTransport struct {
	base http.RoundTripper
}

func (t *openRouterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("HTTP-Referer", "http://localhost:31160")
	clone.Header.Set("X-Title", "llmrelay")
	return t.base.RoundTrip(clone)
}
