// Package mock provides scripted relevance scorers for tests.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/maturit/relevance"
)

// Scorer is a scripted relevance scorer. Scores are looked up by document
// text; unmapped documents receive Fallback. Setting an invalid Fallback
// (NaN, out of range) is useful for exercising ranking exclusions.
type Scorer struct {
	mu       sync.RWMutex
	byText   map[string]float64
	Fallback float64
	Err      error
}

var _ relevance.Scorer = (*Scorer)(nil)

// NewScorer creates a scripted scorer with no mappings and a zero fallback.
func NewScorer() *Scorer {
	return &Scorer{byText: make(map[string]float64)}
}

// Set maps a document text to a fixed relevance score.
func (s *Scorer) Set(text string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byText[text] = score
}

// Score returns the scripted value for text, or Fallback when unmapped.
func (s *Scorer) Score(ctx context.Context, query, text string) (float64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.byText[text]; ok {
		return v, nil
	}
	return s.Fallback, nil
}
