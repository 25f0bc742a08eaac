// Package cli provides CLI output utilities for ContractGuard.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/contractguard/contractguard/internal/pipeline"
)

// OutputFormat is the format for analysis output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// outcomeEnvelope is the JSON shape for a printed outcome.
type outcomeEnvelope struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	Summary     string `json:"summary,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// WriteOutcome writes an analysis outcome to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteOutcome(w io.Writer, fingerprint string, outcome pipeline.Outcome, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomeEnvelope{
			Fingerprint: fingerprint,
			Status:      string(outcome.Status),
			Summary:     outcome.Summary,
			Reason:      outcome.Reason,
		})
	default:
		writeOutcomeText(w, fingerprint, outcome)
		return nil
	}
}

func writeOutcomeText(w io.Writer, fingerprint string, outcome pipeline.Outcome) {
	fmt.Fprintf(w, "Fingerprint: %s\n", fingerprint)
	switch outcome.Status {
	case pipeline.StatusCached:
		fmt.Fprintf(w, "Status: cached (previously analyzed)\n\n%s\n", outcome.Summary)
	case pipeline.StatusComputed:
		fmt.Fprintf(w, "Status: computed\n\n%s\n", outcome.Summary)
	case pipeline.StatusNeedsPayment:
		fmt.Fprintln(w, "Status: needs payment")
		fmt.Fprintln(w, "This document has no payment record. Create a checkout session via the API to unlock analysis.")
	default:
		fmt.Fprintf(w, "Status: failed\nReason: %s\n", outcome.Reason)
	}
}
