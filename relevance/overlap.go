package relevance

import (
	"context"
	"strings"
)

// TokenOverlapScorer scores relevance as the fraction of distinct query
// tokens that also occur in the document, after stop-word filtering.
// It is pure and needs no external services.
type TokenOverlapScorer struct{}

var _ Scorer = (*TokenOverlapScorer)(nil)

// NewTokenOverlapScorer creates a token-overlap relevance scorer.
func NewTokenOverlapScorer() *TokenOverlapScorer {
	return &TokenOverlapScorer{}
}

// Score returns |query tokens ∩ doc tokens| / |query tokens|.
// An empty query or empty document scores 0.
func (s *TokenOverlapScorer) Score(ctx context.Context, query, text string) (float64, error) {
	queryTokens := distinctTokens(query)
	if len(queryTokens) == 0 {
		return 0, nil
	}

	docTokens := distinctTokens(text)
	if len(docTokens) == 0 {
		return 0, nil
	}

	shared := 0
	for tok := range queryTokens {
		if docTokens[tok] {
			shared++
		}
	}

	return float64(shared) / float64(len(queryTokens)), nil
}

// Stop words to filter during overlap computation
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

func distinctTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			tokens[cleaned] = true
		}
	}
	return tokens
}
