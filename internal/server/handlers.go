package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/contractguard/contractguard/internal/extract"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/internal/storage"
	"github.com/contractguard/contractguard/pkg/utils"
)

// previewChars limits how much raw text the document endpoint returns.
const previewChars = 1000

type documentResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Summary     string `json:"summary,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// handleUploadDocument accepts a document as multipart form data (field
// "file") or as a raw body with a Content-Type header, ingests it, and runs
// the gated analysis.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	content, mimeType, err := readUpload(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(content) == 0 {
		s.respondError(w, http.StatusBadRequest, "empty document")
		return
	}

	fp, text, err := s.pipeline.Ingest(r.Context(), content, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			s.respondError(w, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, pipeline.ErrStore):
			s.logger.Error("ingest failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		default:
			s.respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	outcome := s.pipeline.Process(r.Context(), fp, text)
	s.respondOutcome(w, fp, outcome)
}

// readUpload pulls document bytes and MIME type from either a multipart form
// or the raw body.
func readUpload(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("multipart upload requires a 'file' field")
		}
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			return nil, "", err
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = extract.MIMEForPath(header.Filename)
		}
		return content, mimeType, nil
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	return content, r.Header.Get("Content-Type"), nil
}

// respondOutcome maps a pipeline outcome to an HTTP response.
func (s *Server) respondOutcome(w http.ResponseWriter, fp string, outcome pipeline.Outcome) {
	resp := documentResponse{
		Fingerprint: fp,
		Status:      string(outcome.Status),
		Summary:     outcome.Summary,
		Reason:      outcome.Reason,
	}
	switch outcome.Status {
	case pipeline.StatusCached, pipeline.StatusComputed:
		s.respondJSON(w, http.StatusOK, resp)
	case pipeline.StatusNeedsPayment:
		s.respondJSON(w, http.StatusPaymentRequired, resp)
	default:
		s.respondJSON(w, http.StatusBadGateway, resp)
	}
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	raw, err := s.store.GetRawText(r.Context(), fp)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	resp := map[string]interface{}{
		"fingerprint": raw.Fingerprint,
		"preview":     utils.Truncate(raw.Text, previewChars),
		"chars":       len(raw.Text),
		"created_at":  raw.CreatedAt,
		"paid":        false,
	}
	pay, err := s.store.GetPayment(r.Context(), fp)
	switch {
	case err == nil:
		resp["paid"] = true
		resp["paid_at"] = pay.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	summary, err := s.store.GetSummary(r.Context(), fp)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "no analysis for this document")
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRefreshAnalysis(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	if _, err := s.store.GetRawText(r.Context(), fp); err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.logger.Debug("refresh request", zap.String("fingerprint", fp))
	s.respondOutcome(w, fp, s.pipeline.Refresh(r.Context(), fp))
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	ctx := r.Context()

	if _, err := s.store.GetRawText(ctx, fp); err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	if _, err := s.store.GetSummary(ctx, fp); err == nil {
		s.respondError(w, http.StatusConflict, "document already analyzed")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	paid, err := s.gate.IsAuthorized(ctx, fp)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if paid {
		s.respondError(w, http.StatusConflict, "document already paid for")
		return
	}

	url, err := s.gateway.CreateSession(ctx, fp)
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("fingerprint", fp), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "failed to create checkout session")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleStripeWebhook records payments. Only signature-verified
// checkout.session.completed events ever write a payment record; the success
// redirect page below is display-only.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	completed, err := s.gateway.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.logger.Warn("webhook rejected", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, "invalid signature")
		return
	}
	if completed == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := s.gate.RecordPayment(r.Context(), completed.Fingerprint, completed.Email); err != nil {
		s.logger.Error("failed to record payment", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to record payment")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.respondError(w, http.StatusNotImplemented, "summary search not enabled")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	hits, err := s.index.Search(query, limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": query, "hits": hits})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountRawTexts(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summaryCount, err := s.store.CountSummaries(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	paymentCount, err := s.store.CountPayments(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"documents": docCount,
		"summaries": summaryCount,
		"payments":  paymentCount,
	}
	if s.index != nil {
		indexed, err := s.index.Count()
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["indexed_summaries"] = indexed
	}
	if diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.SummaryIndexPath,
	); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePaymentSuccess is the post-checkout landing page. It only displays;
// the webhook is the sole writer of payment state, so a forged redirect URL
// unlocks nothing.
func (s *Server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	fp := r.URL.Query().Get("fingerprint")
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":      "payment received",
		"fingerprint": fp,
		"next":        "re-upload the document or call POST /api/v1/documents to get your analysis",
	})
}

func (s *Server) handlePaymentCanceled(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "payment canceled"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
