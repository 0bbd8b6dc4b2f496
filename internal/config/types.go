package config

import (
	"time"

	"github.com/jhaveripatric/webagents/internal/logger"
)

// Config holds all webagents configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Agent    AgentConfig    `yaml:"agent"`
	Browser  BrowserConfig  `yaml:"browser"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Log      logger.Config  `yaml:"log"`
}

// SiteConfig holds the publisher server settings.
type SiteConfig struct {
	Port         int        `yaml:"port"`
	ManifestPath string     `yaml:"manifest_path"`
	ServePath    string     `yaml:"serve_path"`
	PageTitle    string     `yaml:"page_title"`
	Watch        bool       `yaml:"watch"`
	CORS         CORSConfig `yaml:"cors"`
	Auth         AuthConfig `yaml:"auth"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuthConfig guards the manifest endpoints with bearer JWTs.
type AuthConfig struct {
	JWT *JWTConfig `yaml:"jwt,omitempty"`
}

// JWTConfig holds JWT validation settings.
type JWTConfig struct {
	Issuer   string            `yaml:"issuer"`
	Audience string            `yaml:"audience"`
	Keys     map[string]string `yaml:"keys"` // kid -> PEM public key path
}

// AgentConfig holds the LLM loop settings.
type AgentConfig struct {
	Provider    string        `yaml:"provider"` // openai, anthropic
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	MaxTurns    int           `yaml:"max_turns"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	BearerToken string        `yaml:"bearer_token"` // sent when fetching manifests
}

// BrowserConfig holds the execution sandbox settings.
type BrowserConfig struct {
	Remote     bool          `yaml:"remote"` // execute through RabbitMQ workers
	Headless   bool          `yaml:"headless"`
	NoSandbox  bool          `yaml:"no_sandbox"`
	ChromePath string        `yaml:"chrome_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RabbitMQConfig holds the remote sandbox transport settings.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}
