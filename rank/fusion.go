package rank

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/relevance"
)

// DefaultAlpha is the default lexical weight in the fused score.
const DefaultAlpha = 0.6

// Exclusion reports a candidate dropped from ranking because one of its
// scorers returned an invalid value. Exclusions are returned to the caller,
// never silently swallowed.
type Exclusion struct {
	DocId  string
	Signal string
	Value  float64
	Reason string
}

// Ranker fuses lexical and relevance signals into a deterministic ranked list.
//
// fused = alpha*minmax(lexical) + (1-alpha)*relevance
//
// The output order is the strict tie-break chain (fused desc, lexical desc,
// relevance desc, doc id asc), so identical inputs produce identical output
// regardless of candidate iteration order.
type Ranker struct {
	lexical   *LexicalScorer
	relevance relevance.Scorer
	alpha     float64
	logger    *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithAlpha sets the default lexical weight. Must be in [0,1].
func WithAlpha(alpha float64) Option {
	return func(r *Ranker) error {
		if err := validateAlpha(alpha); err != nil {
			return err
		}
		r.alpha = alpha
		return nil
	}
}

// WithLexicalParams sets the term-frequency saturation and length
// normalization parameters of the lexical scorer.
func WithLexicalParams(k1, b float64) Option {
	return func(r *Ranker) error {
		r.lexical = NewLexicalScorer(k1, b)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a new fusion ranker.
func NewRanker(rel relevance.Scorer, opts ...Option) (*Ranker, error) {
	if rel == nil {
		return nil, ErrRelevanceScorerRequired
	}

	r := &Ranker{
		lexical:   NewLexicalScorer(DefaultK1, DefaultB),
		relevance: rel,
		alpha:     DefaultAlpha,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Rank ranks candidates against the query using the configured alpha.
func (r *Ranker) Rank(ctx context.Context, query string, candidates []Candidate) ([]core.RankedResult, []Exclusion, error) {
	return r.RankAlpha(ctx, query, candidates, r.alpha)
}

// RankAlpha ranks candidates against the query with an explicit lexical
// weight. It returns the full sorted list; callers truncate with TopK after
// sorting so mid-list ties can never silently drop a late winner.
func (r *Ranker) RankAlpha(ctx context.Context, query string, candidates []Candidate, alpha float64) ([]core.RankedResult, []Exclusion, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return []core.RankedResult{}, nil, nil
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.DocId] {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateDocID, c.DocId)
		}
		seen[c.DocId] = true
	}

	// Fixed iteration order
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].DocId < ordered[j].DocId })

	lexScores := r.lexical.Score(query, ordered)

	var exclusions []Exclusion
	type scored struct {
		docID    string
		lexical  float64
		relScore float64
	}
	valid := make([]scored, 0, len(ordered))

	for _, c := range ordered {
		lex := lexScores[c.DocId]
		if !isValidScore(lex, math.Inf(1)) {
			exclusions = append(exclusions, Exclusion{DocId: c.DocId, Signal: "lexical", Value: lex, Reason: "invalid lexical score"})
			continue
		}

		rel, err := r.relevance.Score(ctx, query, c.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("relevance scoring failed for %q: %w", c.DocId, err)
		}
		if !isValidScore(rel, 1) {
			exclusions = append(exclusions, Exclusion{DocId: c.DocId, Signal: "relevance", Value: rel, Reason: "relevance score outside [0,1]"})
			continue
		}

		valid = append(valid, scored{docID: c.DocId, lexical: lex, relScore: rel})
	}

	if len(exclusions) > 0 {
		r.logger.Warn("candidates excluded from ranking", "query", query, "excluded", len(exclusions))
	}

	// Min-max normalization of lexical scores over the surviving candidate set.
	// A flat set maps to 1 unless every score is zero.
	var minLex, maxLex float64
	if len(valid) > 0 {
		minLex, maxLex = valid[0].lexical, valid[0].lexical
		for _, v := range valid[1:] {
			minLex = math.Min(minLex, v.lexical)
			maxLex = math.Max(maxLex, v.lexical)
		}
	}
	normalize := func(lex float64) float64 {
		if maxLex == minLex {
			if maxLex == 0 {
				return 0
			}
			return 1
		}
		return (lex - minLex) / (maxLex - minLex)
	}

	results := make([]core.RankedResult, 0, len(valid))
	for _, v := range valid {
		results = append(results, core.RankedResult{
			DocId:          v.docID,
			LexicalScore:   v.lexical,
			RelevanceScore: v.relScore,
			FusedScore:     alpha*normalize(v.lexical) + (1-alpha)*v.relScore,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		if a.LexicalScore != b.LexicalScore {
			return a.LexicalScore > b.LexicalScore
		}
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.DocId < b.DocId
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	return results, exclusions, nil
}

// TopK truncates a fully sorted ranking to its first k entries.
func TopK(results []core.RankedResult, k int) []core.RankedResult {
	if k < 0 {
		k = 0
	}
	if len(results) > k {
		return results[:k]
	}
	return results
}

func validateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidAlpha, alpha)
	}
	return nil
}

// isValidScore reports whether v is a finite score in [0, max].
func isValidScore(v, max float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= max
}
