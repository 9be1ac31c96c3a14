package config

import (
	"fmt"
	"os"
	"strings"

	"llmrelay/internal/model"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort    string
	DatabasePath  string
	ProvidersFile string

	// Providers 服务端默认提供商配置（providers.yaml），
	// 请求体里的 providers 会覆盖同名条目
	Providers model.ProviderMap
}

var cfg *Config

func Load() (*Config, error) {
	cfg = &Config{
		ServerPort:    getEnv("SERVER_PORT", "31160"),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/llmrelay.db"),
		ProvidersFile: getEnv("PROVIDERS_FILE", ""),
		Providers:     model.ProviderMap{},
	}

	if cfg.ProvidersFile != "" {
		providers, err := loadProvidersFile(cfg.ProvidersFile)
		if err != nil {
			return nil, err
		}
		cfg.Providers = providers
	}

	return cfg, nil
}

func Get() *Config {
	return cfg
}

// loadProvidersFile 读取并校验 YAML 提供商配置文件
func loadProvidersFile(path string) (model.ProviderMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file %q: %w", path, err)
	}

	var raw struct {
		Providers model.ProviderMap `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse providers file %q: %w", path, err)
	}

	for name, p := range raw.Providers {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("providers file %q: provider name must not be empty", path)
		}
		if p.BaseURL != "" && !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
			return nil, fmt.Errorf("providers file %q: provider %s: base_url must be an http(s) URL", path, name)
		}
	}

	if raw.Providers == nil {
		raw.Providers = model.ProviderMap{}
	}
	return raw.Providers, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
