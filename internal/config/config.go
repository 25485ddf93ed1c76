// Package config provides configuration loading for InsightPDF.
// Supports YAML files, environment variable overrides, and the process-wide
// model configuration store.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/insightpdf/insightpdf/internal/domain"
)

// Config holds all configuration for the service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Providers     map[string]Provider `yaml:"providers"`
	DefaultModel  string              `yaml:"default_provider"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// PipelineConfig holds extraction pipeline settings.
type PipelineConfig struct {
	MaxFileSizeMB  int           `yaml:"max_file_size_mb"`
	ImageQuality   int           `yaml:"image_quality"` // JPEG quality 1-100
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
}

// Provider holds one LLM provider's endpoint settings.
type Provider struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// MaxFileSizeBytes returns the upload size limit in bytes.
func (p PipelineConfig) MaxFileSizeBytes() int64 {
	return int64(p.MaxFileSizeMB) * 1024 * 1024
}

// Load reads configuration from a YAML file and applies environment overrides.
// An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
// Provider endpoints mirror the upstream OpenAI and DashScope compatible-mode APIs.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      5 * time.Minute,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Pipeline: PipelineConfig{
			MaxFileSizeMB:  50,
			ImageQuality:   85,
			RequestTimeout: 5 * time.Minute,
			MaxAttempts:    3,
		},
		Providers: map[string]Provider{
			"openai": {
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o",
			},
			"qwen": {
				BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
				Model:   "qwen-vl-max",
			},
		},
		DefaultModel: "openai",
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Pipeline.ImageQuality < 1 || c.Pipeline.ImageQuality > 100 {
		return fmt.Errorf("image quality must be between 1 and 100, got %d", c.Pipeline.ImageQuality)
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.Pipeline.MaxAttempts)
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	if _, ok := c.Providers[c.DefaultModel]; !ok {
		return fmt.Errorf("default provider %q is not configured", c.DefaultModel)
	}
	return nil
}

// ModelConfigFor builds the ModelConfig for a named provider.
func (c *Config) ModelConfigFor(provider string) (domain.ModelConfig, error) {
	p, ok := c.Providers[provider]
	if !ok {
		return domain.ModelConfig{}, domain.UnknownProviderError(provider)
	}
	return domain.ModelConfig{
		Provider:    provider,
		Model:       p.Model,
		BaseURL:     p.BaseURL,
		APIKey:      p.APIKey,
		Timeout:     c.Pipeline.RequestTimeout,
		MaxAttempts: c.Pipeline.MaxAttempts,
	}, nil
}

// ProviderNames lists the configured provider identifiers.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	return names
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INSIGHTPDF_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("INSIGHTPDF_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("INSIGHTPDF_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("INSIGHTPDF_DEFAULT_PROVIDER"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		setProviderKey(cfg, "openai", v)
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		setProviderURL(cfg, "openai", v)
	}
	if v := os.Getenv("QWEN_API_KEY"); v != "" {
		setProviderKey(cfg, "qwen", v)
	}
	if v := os.Getenv("QWEN_BASE_URL"); v != "" {
		setProviderURL(cfg, "qwen", v)
	}
}

func setProviderKey(cfg *Config, name, key string) {
	p := cfg.Providers[name]
	p.APIKey = key
	cfg.Providers[name] = p
}

func setProviderURL(cfg *Config, name, url string) {
	p := cfg.Providers[name]
	p.BaseURL = url
	cfg.Providers[name] = p
}
