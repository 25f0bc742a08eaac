// Package models defines the persisted record types of the analysis pipeline.
// All three records are keyed by the document fingerprint.
package models

import "time"

// RawText is the extracted plain-text representation of a document.
// Written once on first sighting of a fingerprint, read-only afterwards.
type RawText struct {
	Fingerprint string    `json:"fingerprint" db:"fingerprint"`
	Text        string    `json:"text" db:"text"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Summary is the generated analysis result for a document.
// Written on first successful computation; a refresh overwrites it in place.
type Summary struct {
	Fingerprint string    `json:"fingerprint" db:"fingerprint"`
	Summary     string    `json:"summary" db:"summary"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Payment marks a fingerprint as authorized for analysis. Existence alone is
// the signal; rows are never deleted or mutated.
type Payment struct {
	ID          string    `json:"id" db:"id"`
	Fingerprint string    `json:"fingerprint" db:"fingerprint"`
	Email       string    `json:"email,omitempty" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
