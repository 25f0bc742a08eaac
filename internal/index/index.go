// Package index provides a Bleve full-text index over cached analysis
// summaries, so past analyses are searchable by clause language.
package index

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// Hit is one search result: the document fingerprint and its relevance score.
type Hit struct {
	Fingerprint string  `json:"fingerprint"`
	Score       float64 `json:"score"`
}

// indexedSummary is the shape stored in Bleve, keyed by fingerprint.
type indexedSummary struct {
	Summary string `json:"summary"`
}

// SummaryIndex indexes analysis summaries for keyword search.
type SummaryIndex struct {
	index bleve.Index
}

// NewSummaryIndex creates or opens a Bleve index at path. An existing index
// is opened and reused; re-indexing a fingerprint replaces its entry. If the
// mapping changes in code, remove the index directory to force a rebuild.
func NewSummaryIndex(path string) (*SummaryIndex, error) {
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open summary index: %w", openErr)
		}
		return &SummaryIndex{index: idx}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so legal terms
	// like "indemnification" match only as typed.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("summary", textFieldMapping)
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create summary index: %w", err)
	}
	return &SummaryIndex{index: idx}, nil
}

// IndexSummary adds or replaces the summary for a fingerprint.
func (s *SummaryIndex) IndexSummary(fingerprint, summary string) error {
	if err := s.index.Index(fingerprint, indexedSummary{Summary: summary}); err != nil {
		return fmt.Errorf("failed to index summary %s: %w", fingerprint, err)
	}
	return nil
}

// Search runs a match query over summaries and returns up to limit hits,
// best score first.
func (s *SummaryIndex) Search(query string, limit int) ([]Hit, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("summary search failed: %w", err)
	}
	hits := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		hits[i] = Hit{Fingerprint: hit.ID, Score: hit.Score}
	}
	return hits, nil
}

// Count returns the number of indexed summaries.
func (s *SummaryIndex) Count() (uint64, error) {
	return s.index.DocCount()
}

// Close closes the underlying index.
func (s *SummaryIndex) Close() error {
	return s.index.Close()
}
