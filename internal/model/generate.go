package model

// ProviderSettings 单个提供商的凭证与端点
type ProviderSettings struct {
	APIKey  string `json:"api_key,omitempty" yaml:"api_key"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url"`
}

// ProviderMap 提供商名称 -> 配置
type ProviderMap map[string]ProviderSettings

// 输出格式
const (
	FormatText = "text"
	FormatDict = "dict"
)

// 结构化提取策略
const (
	ModeAuto  = "auto"
	ModeJSON  = "json"
	ModeTools = "tools"
)

// GenerateRequest 生成请求体
type GenerateRequest struct {
	Model          string      `json:"model"`
	Prompt         string      `json:"prompt"`
	ResponseFormat string      `json:"response_format"`
	Schema         string      `json:"schema"`
	Mode           string      `json:"mode"`
	Tag            string      `json:"tag"`
	Providers      ProviderMap `json:"providers"`
}

// GenerateResponse 生成响应体。
// ResponseMeta 用具体 map 类型：nil map 装进 interface 后 omitempty 不再生效，
// 会序列化出 "response_meta":null 而不是省略该键。
type GenerateResponse struct {
	Status       string         `json:"status"`
	Data         any            `json:"data"`
	ResponseMeta map[string]any `json:"response_meta,omitempty"`
}
