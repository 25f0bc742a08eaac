// Package main is the ContractGuard CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/contractguard/contractguard/internal/cli"
	"github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/extract"
	"github.com/contractguard/contractguard/internal/index"
	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/internal/payment"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/internal/server"
	"github.com/contractguard/contractguard/internal/storage"
	"github.com/contractguard/contractguard/internal/summarize"
	"github.com/contractguard/contractguard/internal/watcher"
	"github.com/contractguard/contractguard/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/contractguard/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// parseOutputFormat maps the -output flag value to a cli format.
func parseOutputFormat(v string) (cli.OutputFormat, error) {
	switch v {
	case "", "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", v)
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("contractguard version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	// The server will not start without credentials: analysis must be
	// authenticated and payments must be verifiable.
	if err := cfg.ValidateCredentials(); err != nil {
		logger.Fatal("Refusing to start", zap.Error(err))
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) { ingestDroppedFile(components.Pipeline, logger, path) },
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Storage,
		components.Gate,
		components.Gateway,
		components.Index,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// ingestDroppedFile runs one dropped file through the pipeline. A
// needs_payment outcome is expected for new documents and logged at info.
func ingestDroppedFile(p *pipeline.Pipeline, logger *zap.Logger, path string) {
	mimeType := extract.MIMEForPath(path)
	if mimeType == "" {
		logger.Debug("skipping file with unsupported extension", zap.String("path", path))
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read dropped file", zap.String("path", path), zap.Error(err))
		return
	}
	ctx := context.Background()
	fp, text, err := p.Ingest(ctx, content, mimeType)
	if err != nil {
		logger.Warn("failed to ingest dropped file", zap.String("path", path), zap.Error(err))
		return
	}
	outcome := p.Process(ctx, fp, text)
	logger.Info("dropped file processed",
		zap.String("path", path),
		zap.String("fingerprint", fp),
		zap.String("status", string(outcome.Status)))
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: contractguard analyze [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.LLM.APIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is required for analyze")
		os.Exit(1)
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	mimeType := extract.MIMEForPath(path)
	if mimeType == "" {
		fmt.Fprintf(os.Stderr, "Unsupported file type: %s\n", path)
		os.Exit(1)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	fp, text, err := components.Pipeline.Ingest(ctx, content, mimeType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	outcome := components.Pipeline.Process(ctx, fp, text)
	if err := cli.WriteOutcome(os.Stdout, fp, outcome, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if outcome.Status == pipeline.StatusFailed {
		os.Exit(1)
	}
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Documents      int64  `json:"documents"`
	Summaries      int64  `json:"summaries"`
	Payments       int64  `json:"payments"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		ctx := context.Background()
		if status.Documents, err = store.CountRawTexts(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		if status.Summaries, err = store.CountSummaries(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Count summaries failed: %v\n", err)
			os.Exit(1)
		}
		if status.Payments, err = store.CountPayments(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Count payments failed: %v\n", err)
			os.Exit(1)
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.SummaryIndexPath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:         %d   # uploaded documents\n", status.Documents)
		fmt.Printf("summaries:         %d   # cached analyses\n", status.Summaries)
		fmt.Printf("payments:          %d   # recorded payments\n", status.Payments)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:  %d   # database + index on disk\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Index    *index.SummaryIndex
	Gate     *payment.Gate
	Gateway  *payment.Gateway
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	idx, err := index.NewSummaryIndex(cfg.Storage.SummaryIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize summary index: %w", err)
	}

	client, err := llm.NewOpenAIClient(
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
	)
	if err != nil {
		_ = store.Close()
		_ = idx.Close()
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}

	summarizer := summarize.NewSummarizer(client,
		summarize.WithInstruction(cfg.Analysis.Instruction),
		summarize.WithChunkBudget(cfg.Analysis.ChunkBudget),
		summarize.WithMaxPayload(cfg.Analysis.MaxPayload),
		summarize.WithLogger(logger),
	)

	gate := payment.NewGate(store, logger)
	gateway := payment.NewGateway(payment.GatewayConfig{
		SecretKey:     cfg.Payment.SecretKey,
		WebhookSecret: cfg.Payment.WebhookSecret,
		ProductName:   cfg.Payment.ProductName,
		PriceCents:    cfg.Payment.PriceCents,
		Currency:      cfg.Payment.Currency,
		SuccessURL:    cfg.Payment.SuccessURL,
		CancelURL:     cfg.Payment.CancelURL,
	})

	p := pipeline.New(store, gate, summarizer, extract.NewExtractor(),
		pipeline.WithLogger(logger),
		pipeline.WithIndex(idx),
	)

	return &Components{
		Storage:  store,
		Index:    idx,
		Gate:     gate,
		Gateway:  gateway,
		Pipeline: p,
	}, nil
}

func printUsage() {
	fmt.Println(`contractguard - payment-gated contract analysis service

Usage:
  contractguard server [flags]          Start the HTTP server
  contractguard analyze [flags] <file>  Analyze a document locally
  contractguard status [flags]          Show document/summary/payment counts
  contractguard version                 Show version
  contractguard help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/contractguard/config.yaml)
  --debug            Enable debug logging

Analyze Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Required environment variables (server):
  OPENAI_API_KEY          completion API key
  STRIPE_SECRET_KEY       Stripe API key
  STRIPE_WEBHOOK_SECRET   Stripe webhook signing secret

Examples:
  contractguard server
  contractguard analyze contract.pdf
  contractguard analyze --output json contract.docx
  contractguard status --output json`)
}
