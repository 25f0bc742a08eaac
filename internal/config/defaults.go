package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/contractguard/data/db/contractguard.db"
	}
	if cfg.Storage.SummaryIndexPath == "" {
		cfg.Storage.SummaryIndexPath = "/usr/local/var/contractguard/data/indices/summaries.bleve"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 60
	}
	if cfg.Analysis.ChunkBudget == 0 {
		cfg.Analysis.ChunkBudget = 12000
	}
	if cfg.Analysis.MaxPayload == 0 {
		cfg.Analysis.MaxPayload = 8000
	}
	if cfg.Payment.ProductName == "" {
		cfg.Payment.ProductName = "Contract Analysis"
	}
	if cfg.Payment.PriceCents == 0 {
		cfg.Payment.PriceCents = 500
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "usd"
	}
	if cfg.Payment.SuccessURL == "" {
		cfg.Payment.SuccessURL = "http://localhost:8080/payment/success"
	}
	if cfg.Payment.CancelURL == "" {
		cfg.Payment.CancelURL = "http://localhost:8080/payment/canceled"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
