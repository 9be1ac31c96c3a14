// Package provider 负责把 model 标识解析为具体的端点配置。
//
// model 标识形如 provider:model_name 或裸 model_name，
// 前缀只有在命中已知提供商时才会被切掉，其余部分原样传给上游
// （例如 ollama:qwen3:8b -> 模型名 qwen3:8b）。
package provider

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"llmrelay/internal/model"
)

const (
	// DefaultProvider 未命中任何前缀时的默认提供商
	DefaultProvider = "openrouter"

	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"

	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"

	// 本地端点不校验 key，但 SDK 要求非空
	localPlaceholderKey = "ollama"
)

// ErrMissingCredential 非本地提供商缺少 API key
var ErrMissingCredential = errors.New("missing api key")

// Resolved 解析结果
type Resolved struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Local    bool
}

// Resolve 纯函数：不发起网络调用，只做选择。
// 解析状态机：无前缀 / 已知前缀 / 本地免 key / 缺 key 失败。
func Resolve(modelID string, providers model.ProviderMap) (Resolved, error) {
	name, rest := splitModelID(modelID, providers)

	settings, ok := providers[name]
	if !ok && name != ProviderOllama {
		// 未配置的提供商回退到 openrouter 的配置
		settings = providers[ProviderOpenRouter]
	}

	baseURL := settings.BaseURL
	if baseURL == "" {
		switch name {
		case ProviderOllama:
			baseURL = ollamaBaseURL
		default:
			baseURL = openRouterBaseURL
		}
	}

	res := Resolved{
		Provider: name,
		Model:    rest,
		BaseURL:  baseURL,
		Local:    isLocal(name, baseURL),
	}

	// key 解析顺序：显式配置 -> 环境变量（仅 openrouter）-> 本地占位 / 报错
	res.APIKey = settings.APIKey
	if res.APIKey == "" && name == ProviderOpenRouter {
		res.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if res.APIKey == "" {
		if !res.Local {
			return Resolved{}, fmt.Errorf("provider %s: %w", name, ErrMissingCredential)
		}
		res.APIKey = localPlaceholderKey
	}

	return res, nil
}

// splitModelID 按第一个 ':' 切分，前缀必须命中已知提供商才生效
func splitModelID(modelID string, providers model.ProviderMap) (name, rest string) {
	if idx := strings.Index(modelID, ":"); idx > 0 {
		prefix := strings.ToLower(modelID[:idx])
		if knownProvider(prefix, providers) {
			return prefix, modelID[idx+1:]
		}
	}
	return DefaultProvider, modelID
}

func knownProvider(name string, providers model.ProviderMap) bool {
	if name == ProviderOpenRouter || name == ProviderOllama {
		return true
	}
	_, ok := providers[name]
	return ok
}

func isLocal(name, baseURL string) bool {
	if name == ProviderOllama {
		return true
	}
	return strings.Contains(baseURL, "localhost") || strings.Contains(baseURL, "127.0.0.1")
}
