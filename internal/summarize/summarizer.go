package summarize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/pkg/utils"
)

// DefaultInstruction is the analysis prompt prefixed to every completion call.
const DefaultInstruction = "You are a contract analyst. Review the following contract text and produce a structured summary with: key clauses, obligations for each party, payment and termination terms, and red flags that deserve legal attention. Be specific and quote the relevant language where it matters."

// DefaultChunkBudget bounds the characters per chunk sent to the model.
const DefaultChunkBudget = 12000

// DefaultMaxPayload caps the body of a single prompt after the instruction.
const DefaultMaxPayload = 8000

// Summarizer produces one analysis for a document using map-reduce over
// paragraph chunks: short documents take a single completion call, longer
// ones take one call per chunk plus a final reduce call over the partials.
type Summarizer struct {
	client      llm.Client
	instruction string
	chunkBudget int
	maxPayload  int
	logger      *zap.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithInstruction overrides the analysis prompt.
func WithInstruction(instruction string) Option {
	return func(s *Summarizer) {
		if instruction != "" {
			s.instruction = instruction
		}
	}
}

// WithChunkBudget overrides the per-chunk character budget.
func WithChunkBudget(budget int) Option {
	return func(s *Summarizer) {
		if budget > 0 {
			s.chunkBudget = budget
		}
	}
}

// WithMaxPayload overrides the per-call payload cap.
func WithMaxPayload(max int) Option {
	return func(s *Summarizer) {
		if max > 0 {
			s.maxPayload = max
		}
	}
}

// WithLogger attaches a logger for per-call progress.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSummarizer creates a Summarizer with default prompt and budgets.
func NewSummarizer(client llm.Client, opts ...Option) *Summarizer {
	s := &Summarizer{
		client:      client,
		instruction: DefaultInstruction,
		chunkBudget: DefaultChunkBudget,
		maxPayload:  DefaultMaxPayload,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize analyzes text and returns the final summary. A document that fits
// in one chunk costs exactly one completion call; N chunks cost N+1 calls.
// Any failed call aborts the whole run.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	chunks := SplitChunks(text, s.chunkBudget)
	if len(chunks) == 1 {
		s.logger.Debug("summarizing in a single call", zap.Int("chars", len(text)))
		return s.complete(ctx, chunks[0])
	}

	s.logger.Debug("summarizing with map-reduce",
		zap.Int("chars", len(text)),
		zap.Int("chunks", len(chunks)))

	partials := make([]string, len(chunks))
	for i, chunk := range chunks {
		partial, err := s.complete(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		partials[i] = partial
	}

	merged, err := s.complete(ctx, strings.Join(partials, paragraphSep))
	if err != nil {
		return "", fmt.Errorf("reduce step: %w", err)
	}
	return merged, nil
}

// complete issues one call: instruction, blank line, payload capped at
// maxPayload characters.
func (s *Summarizer) complete(ctx context.Context, body string) (string, error) {
	prompt := s.instruction + paragraphSep + utils.Truncate(body, s.maxPayload)
	out, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return out, nil
}
