package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProvidersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  openrouter:
    api_key: sk-or-test
  ollama:
    base_url: http://localhost:11434/v1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	providers, err := loadProvidersFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if providers["openrouter"].APIKey != "sk-or-test" {
		t.Errorf("api_key not loaded: %+v", providers["openrouter"])
	}
	if providers["ollama"].BaseURL != "http://localhost:11434/v1" {
		t.Errorf("base_url not loaded: %+v", providers["ollama"])
	}
}

func TestLoadProvidersFileInvalidBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  custom:
    base_url: not-a-url
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadProvidersFile(path); err == nil {
		t.Fatal("expected validation error for non-http base_url")
	}
}

func TestLoadProvidersFileMissing(t *testing.T) {
	if _, err := loadProvidersFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
