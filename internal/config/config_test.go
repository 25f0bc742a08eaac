package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_appliesDefaults(t *testing.T) {
	path := writeConfig(t, "debug: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug not parsed")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Analysis.ChunkBudget != 12000 {
		t.Errorf("chunk budget = %d", cfg.Analysis.ChunkBudget)
	}
	if cfg.Analysis.MaxPayload != 8000 {
		t.Errorf("max payload = %d", cfg.Analysis.MaxPayload)
	}
	if cfg.Payment.PriceCents != 500 || cfg.Payment.Currency != "usd" {
		t.Errorf("payment defaults = %d %s", cfg.Payment.PriceCents, cfg.Payment.Currency)
	}
	if cfg.LLM.Model != "gpt-4" || cfg.LLM.TimeoutSeconds != 60 {
		t.Errorf("llm defaults = %s %d", cfg.LLM.Model, cfg.LLM.TimeoutSeconds)
	}
}

func TestLoad_overridesAndRelativePaths(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: ./data/contracts.db
  summary_index_path: ./data/summaries.bleve
analysis:
  chunk_budget: 6000
payment:
  price_cents: 999
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Analysis.ChunkBudget != 6000 {
		t.Errorf("chunk budget = %d", cfg.Analysis.ChunkBudget)
	}
	if cfg.Payment.PriceCents != 999 {
		t.Errorf("price = %d", cfg.Payment.PriceCents)
	}
	wantDB := filepath.Join(filepath.Dir(path), "data/contracts.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database path = %q, want %q", cfg.Storage.DatabasePath, wantDB)
	}
	if !filepath.IsAbs(cfg.Storage.SummaryIndexPath) {
		t.Errorf("index path not expanded: %q", cfg.Storage.SummaryIndexPath)
	}
}

func TestLoad_credentialsFromEnvOnly(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	path := writeConfig(t, "debug: false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
	if cfg.Payment.SecretKey != "sk_test" || cfg.Payment.WebhookSecret != "whsec_test" {
		t.Errorf("stripe creds = %q %q", cfg.Payment.SecretKey, cfg.Payment.WebhookSecret)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		t.Errorf("ValidateCredentials: %v", err)
	}
}

func TestValidateCredentials_listsAllMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	path := writeConfig(t, "debug: false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = cfg.ValidateCredentials()
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	msg := err.Error()
	for _, want := range []string{"OPENAI_API_KEY", "STRIPE_SECRET_KEY"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
	if strings.Contains(msg, "STRIPE_WEBHOOK_SECRET") {
		t.Errorf("error %q names a credential that is set", msg)
	}
}

func TestRecursiveOrDefault(t *testing.T) {
	w := WatchConfig{}
	if !w.RecursiveOrDefault() {
		t.Error("unset recursive should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false must be respected")
	}
}
