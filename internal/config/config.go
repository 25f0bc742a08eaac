// Package config provides configuration loading and structs for the
// ContractGuard server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. Credentials never live
// in the YAML file; they are read from the environment by Load.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the summary search index.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	SummaryIndexPath string `yaml:"summary_index_path"`
}

// LLMConfig holds completion-endpoint settings. APIKey comes from the
// OPENAI_API_KEY environment variable, never from the file.
type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	APIKey         string `yaml:"-"`
}

// AnalysisConfig holds chunking and prompt settings.
type AnalysisConfig struct {
	ChunkBudget int    `yaml:"chunk_budget"`
	MaxPayload  int    `yaml:"max_payload"`
	Instruction string `yaml:"instruction"`
}

// PaymentConfig holds the Stripe product settings. SecretKey and
// WebhookSecret come from STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET.
type PaymentConfig struct {
	ProductName   string `yaml:"product_name"`
	PriceCents    int64  `yaml:"price_cents"`
	Currency      string `yaml:"currency"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
	SecretKey     string `yaml:"-"`
	WebhookSecret string `yaml:"-"`
}

// WatchConfig holds drop-folder ingestion settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies
// defaults, and pulls credentials from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.SummaryIndexPath = expandPath(cfg.Storage.SummaryIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Payment.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Payment.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	return &cfg, nil
}

// ValidateCredentials reports all missing required credentials in one error.
// The server refuses to start without them; there is no degraded mode where
// analysis runs unauthenticated or payments go unverified.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Payment.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.Payment.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
