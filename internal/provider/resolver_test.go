package provider

import (
	"errors"
	"testing"

	"llmrelay/internal/model"
)

func TestResolveOllamaKeepsColonInModelName(t *testing.T) {
	res, err := Resolve("ollama:qwen3:8b", model.ProviderMap{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "ollama" {
		t.Errorf("expected provider ollama, got %s", res.Provider)
	}
	if res.Model != "qwen3:8b" {
		t.Errorf("expected model qwen3:8b, got %s", res.Model)
	}
	if !res.Local {
		t.Error("ollama must resolve as local")
	}
	if res.APIKey == "" {
		t.Error("local provider should get a placeholder key")
	}
}

func TestResolveUnknownPrefixFallsBackToOpenRouter(t *testing.T) {
	res, err := Resolve("unknownprefix:modelX", model.ProviderMap{
		"openrouter": {APIKey: "sk-or-test"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "openrouter" {
		t.Errorf("expected provider openrouter, got %s", res.Provider)
	}
	if res.Model != "unknownprefix:modelX" {
		t.Errorf("model id must pass through unchanged, got %s", res.Model)
	}
	if res.Local {
		t.Error("openrouter must not be local")
	}
}

func TestResolveBareModelUsesDefaultProvider(t *testing.T) {
	res, err := Resolve("gpt-4o-mini", model.ProviderMap{
		"openrouter": {APIKey: "sk-or-test"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "openrouter" || res.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if res.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("unexpected base url %s", res.BaseURL)
	}
}

func TestResolveMissingCredential(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := Resolve("some-model", model.ProviderMap{})
	if err == nil {
		t.Fatal("expected missing credential error")
	}
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestResolveEnvFallbackForOpenRouter(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-env")

	res, err := Resolve("some-model", model.ProviderMap{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.APIKey != "sk-env" {
		t.Errorf("expected env key, got %s", res.APIKey)
	}
}

func TestResolveCustomProviderFromConfig(t *testing.T) {
	providers := model.ProviderMap{
		"groq": {APIKey: "gsk-test", BaseURL: "https://api.groq.com/openai/v1"},
	}

	res, err := Resolve("groq:llama-3.1-8b", providers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "groq" || res.Model != "llama-3.1-8b" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if res.BaseURL != "https://api.groq.com/openai/v1" || res.APIKey != "gsk-test" {
		t.Fatalf("config endpoint not used: %+v", res)
	}
}

func TestResolveLoopbackBaseURLIsLocal(t *testing.T) {
	providers := model.ProviderMap{
		"lmstudio": {BaseURL: "http://127.0.0.1:1234/v1"},
	}

	res, err := Resolve("lmstudio:local-model", providers)
	if err != nil {
		t.Fatalf("loopback endpoint without key should resolve: %v", err)
	}
	if !res.Local {
		t.Error("127.0.0.1 base url must be local")
	}
	if res.APIKey == "" {
		t.Error("local provider should get a placeholder key")
	}
}

func TestResolveOllamaCustomBaseURL(t *testing.T) {
	providers := model.ProviderMap{
		"ollama": {BaseURL: "http://localhost:11434/v1"},
	}

	res, err := Resolve("ollama:llama3", providers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("unexpected base url %s", res.BaseURL)
	}
}
