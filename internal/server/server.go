// Package server provides the HTTP API for ContractGuard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/index"
	"github.com/contractguard/contractguard/internal/payment"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/internal/storage"
)

// maxUploadBytes caps document uploads.
const maxUploadBytes = 32 << 20

// maxWebhookBytes caps webhook payloads; Stripe events are small.
const maxWebhookBytes = 64 << 10

// Server is the HTTP server for the ContractGuard API.
type Server struct {
	pipeline *pipeline.Pipeline
	store    storage.Storage
	gate     *payment.Gate
	gateway  *payment.Gateway
	index    *index.SummaryIndex
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. index may be nil
// when summary search is disabled.
func NewServer(
	p *pipeline.Pipeline,
	store storage.Storage,
	gate *payment.Gate,
	gateway *payment.Gateway,
	idx *index.SummaryIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: p,
		store:    store,
		gate:     gate,
		gateway:  gateway,
		index:    idx,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleUploadDocument)
	r.Get("/api/v1/documents/{fingerprint}", s.handleGetDocument)
	r.Get("/api/v1/documents/{fingerprint}/analysis", s.handleGetAnalysis)
	r.Post("/api/v1/documents/{fingerprint}/analysis/refresh", s.handleRefreshAnalysis)
	r.Post("/api/v1/documents/{fingerprint}/checkout", s.handleCreateCheckout)
	r.Post("/api/v1/stripe/webhook", s.handleStripeWebhook)
	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Get("/payment/success", s.handlePaymentSuccess)
	r.Get("/payment/canceled", s.handlePaymentCanceled)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
