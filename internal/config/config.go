package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jhaveripatric/webagents/internal/logger"
	"github.com/jhaveripatric/webagents/internal/manifest"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Site: SiteConfig{
			Port:         8080,
			ManifestPath: "webagents.md",
			ServePath:    manifest.DefaultPath,
		},
		Agent: AgentConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			MaxTurns:  10,
			MaxTokens: 4096,
			Timeout:   30 * time.Second,
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  30 * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "webagents",
			Queue:    "webagents.sandbox",
		},
		Log: logger.DefaultConfig(),
	}
	return cfg
}

// Load reads and parses the configuration file. Values absent from the
// file keep their defaults; ${VAR} references are expanded from the
// environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when set, the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, validate(cfg)
	}
	return Load(path)
}

func validate(cfg *Config) error {
	if cfg.Site.Port == 0 {
		cfg.Site.Port = 8080
	}
	if cfg.Site.Port < 1 || cfg.Site.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Site.Port)
	}
	if cfg.Site.ServePath == "" {
		cfg.Site.ServePath = manifest.DefaultPath
	}
	if cfg.Site.ServePath[0] != '/' {
		return fmt.Errorf("serve_path must start with '/': %s", cfg.Site.ServePath)
	}
	if jwt := cfg.Site.Auth.JWT; jwt != nil && len(jwt.Keys) == 0 {
		return fmt.Errorf("site.auth.jwt requires at least one key")
	}

	switch cfg.Agent.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported provider: %s", cfg.Agent.Provider)
	}
	if cfg.Agent.APIKey == "" {
		cfg.Agent.APIKey = apiKeyFromEnv(cfg.Agent.Provider)
	}
	if cfg.Agent.MaxTurns <= 0 {
		return fmt.Errorf("invalid max_turns: %d", cfg.Agent.MaxTurns)
	}

	if cfg.Browser.Remote && cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("browser.remote requires rabbitmq.url")
	}
	return nil
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}
