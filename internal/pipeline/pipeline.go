// Package pipeline orchestrates the document flow: extract, fingerprint,
// cache check, payment gate, summarize, persist. It owns the caching and
// idempotency rules; the collaborators stay policy-free.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/contractguard/contractguard/internal/extract"
	"github.com/contractguard/contractguard/internal/fingerprint"
	"github.com/contractguard/contractguard/internal/index"
	"github.com/contractguard/contractguard/internal/payment"
	"github.com/contractguard/contractguard/internal/storage"
	"github.com/contractguard/contractguard/internal/summarize"
)

// ErrStore marks persistence failures so callers can map them to a
// service-unavailable response rather than a client error.
var ErrStore = errors.New("store unavailable")

// Status is the terminal state of one Process run.
type Status string

const (
	// StatusCached: a summary already existed; no model call, no charge check.
	StatusCached Status = "cached"
	// StatusNeedsPayment: no summary and no payment record for the fingerprint.
	StatusNeedsPayment Status = "needs_payment"
	// StatusComputed: a fresh summary was produced and persisted.
	StatusComputed Status = "computed"
	// StatusFailed: analysis ran and failed; nothing was cached.
	StatusFailed Status = "failed"
)

// Outcome is the result of processing one document.
type Outcome struct {
	Status  Status `json:"status"`
	Summary string `json:"summary,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Pipeline wires the collaborators together.
type Pipeline struct {
	store      storage.Storage
	gate       *payment.Gate
	summarizer *summarize.Summarizer
	extractor  *extract.Extractor
	index      *index.SummaryIndex
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIndex enables summary search indexing. Index failures never fail the
// pipeline; the summary of record lives in the store.
func WithIndex(idx *index.SummaryIndex) Option {
	return func(p *Pipeline) {
		p.index = idx
	}
}

// New creates a Pipeline.
func New(store storage.Storage, gate *payment.Gate, summarizer *summarize.Summarizer, extractor *extract.Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      store,
		gate:       gate,
		summarizer: summarizer,
		extractor:  extractor,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest extracts text from raw content, fingerprints it, and stores the
// extracted text. The fingerprint is taken over the raw bytes, so the same
// upload always lands on the same record; the text write is first-write-wins.
func (p *Pipeline) Ingest(ctx context.Context, content []byte, mimeType string) (string, string, error) {
	text, err := p.extractor.Extract(content, mimeType)
	if err != nil {
		return "", "", err
	}
	fp := fingerprint.Hash(content)
	if err := p.store.UpsertRawText(ctx, fp, text); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	p.logger.Debug("document ingested",
		zap.String("fingerprint", fp),
		zap.Int("bytes", len(content)),
		zap.Int("chars", len(text)))
	return fp, text, nil
}

// Process runs the gated analysis for a fingerprint. Order matters: the cache
// check comes before the payment check, so a document analyzed once is served
// from cache forever, even if the payment record were lost.
func (p *Pipeline) Process(ctx context.Context, fp, text string) Outcome {
	if existing, err := p.store.GetSummary(ctx, fp); err == nil {
		p.logger.Debug("serving cached analysis", zap.String("fingerprint", fp))
		return Outcome{Status: StatusCached, Summary: existing.Summary}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("summary lookup failed: %v", err)}
	}

	authorized, err := p.gate.IsAuthorized(ctx, fp)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("payment check failed: %v", err)}
	}
	if !authorized {
		return Outcome{Status: StatusNeedsPayment}
	}

	return p.computeAndPersist(ctx, fp, text)
}

// Refresh recomputes the analysis for an already-paid document from its
// stored text, overwriting the cached summary. On failure the old summary is
// left in place.
func (p *Pipeline) Refresh(ctx context.Context, fp string) Outcome {
	authorized, err := p.gate.IsAuthorized(ctx, fp)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("payment check failed: %v", err)}
	}
	if !authorized {
		return Outcome{Status: StatusNeedsPayment}
	}

	raw, err := p.store.GetRawText(ctx, fp)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("raw text lookup failed: %v", err)}
	}
	return p.computeAndPersist(ctx, fp, raw.Text)
}

func (p *Pipeline) computeAndPersist(ctx context.Context, fp, text string) Outcome {
	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		p.logger.Warn("analysis failed",
			zap.String("fingerprint", fp),
			zap.Error(err))
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
	if err := p.store.UpsertSummary(ctx, fp, summary); err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("failed to persist summary: %v", err)}
	}
	if p.index != nil {
		if err := p.index.IndexSummary(fp, summary); err != nil {
			p.logger.Warn("failed to index summary",
				zap.String("fingerprint", fp),
				zap.Error(err))
		}
	}
	p.logger.Info("analysis computed", zap.String("fingerprint", fp))
	return Outcome{Status: StatusComputed, Summary: summary}
}
