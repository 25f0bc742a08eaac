package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/contractguard/contractguard/internal/pipeline"
)

func TestWriteOutcome_JSON(t *testing.T) {
	var buf bytes.Buffer
	outcome := pipeline.Outcome{Status: pipeline.StatusComputed, Summary: "Key clauses: ..."}

	if err := WriteOutcome(&buf, "abc123", outcome, OutputJSON); err != nil {
		t.Fatalf("WriteOutcome(json): %v", err)
	}
	var decoded struct {
		Fingerprint string `json:"fingerprint"`
		Status      string `json:"status"`
		Summary     string `json:"summary"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Fingerprint != "abc123" || decoded.Status != "computed" || decoded.Summary != "Key clauses: ..." {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteOutcome_text(t *testing.T) {
	tests := []struct {
		name    string
		outcome pipeline.Outcome
		want    []string
	}{
		{"computed", pipeline.Outcome{Status: pipeline.StatusComputed, Summary: "the analysis"},
			[]string{"abc123", "computed", "the analysis"}},
		{"cached", pipeline.Outcome{Status: pipeline.StatusCached, Summary: "old analysis"},
			[]string{"cached", "old analysis"}},
		{"needs payment", pipeline.Outcome{Status: pipeline.StatusNeedsPayment},
			[]string{"needs payment"}},
		{"failed", pipeline.Outcome{Status: pipeline.StatusFailed, Reason: "model down"},
			[]string{"failed", "model down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOutcome(&buf, "abc123", tt.outcome, OutputText); err != nil {
				t.Fatalf("WriteOutcome: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}
