package rank

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/relevance"
	"github.com/poiesic/maturit/relevance/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func climateCorpus() []Candidate {
	return []Candidate{
		{DocId: "doc-1", Text: "climate change mitigation strategy with interim targets"},
		{DocId: "doc-2", Text: "employee wellbeing and safety program"},
		{DocId: "doc-3", Text: "climate adaptation and resilience planning"},
		{DocId: "doc-4", Text: "supplier code of conduct"},
		{DocId: "doc-5", Text: "net zero climate commitment validated externally"},
	}
}

func TestNewRanker(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		ranker, err := NewRanker(relevance.NewTokenOverlapScorer())
		require.NoError(t, err)
		assert.NotNil(t, ranker)
	})

	t.Run("nil scorer", func(t *testing.T) {
		_, err := NewRanker(nil)
		assert.Equal(t, ErrRelevanceScorerRequired, err)
	})

	t.Run("alpha out of range", func(t *testing.T) {
		_, err := NewRanker(relevance.NewTokenOverlapScorer(), WithAlpha(1.5))
		assert.ErrorIs(t, err, ErrInvalidAlpha)
	})
}

func TestRank_DeterministicAcrossRepeatedCalls(t *testing.T) {
	// 5-document corpus, query "climate", alpha 0.6, 10 repeated calls
	ranker, err := NewRanker(relevance.NewTokenOverlapScorer(), WithAlpha(0.6))
	require.NoError(t, err)

	ctx := context.Background()
	first, _, err := ranker.Rank(ctx, "climate", climateCorpus())
	require.NoError(t, err)
	require.Len(t, first, 5)

	for i := 0; i < 9; i++ {
		again, _, err := ranker.Rank(ctx, "climate", climateCorpus())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRank_DeterministicAcrossConcurrentCalls(t *testing.T) {
	ranker, err := NewRanker(relevance.NewTokenOverlapScorer(), WithAlpha(0.6))
	require.NoError(t, err)

	ctx := context.Background()
	first, _, err := ranker.Rank(ctx, "climate", climateCorpus())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]core.RankedResult, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, _, err := ranker.Rank(ctx, "climate", climateCorpus())
			require.NoError(t, err)
			results[n] = got
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, first, got)
	}
}

func TestRank_DeterministicAcrossInputOrder(t *testing.T) {
	ranker, err := NewRanker(relevance.NewTokenOverlapScorer())
	require.NoError(t, err)

	ctx := context.Background()
	corpus := climateCorpus()
	reversed := make([]Candidate, len(corpus))
	for i, c := range corpus {
		reversed[len(corpus)-1-i] = c
	}

	a, _, err := ranker.Rank(ctx, "climate", corpus)
	require.NoError(t, err)
	b, _, err := ranker.Rank(ctx, "climate", reversed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRank_TieBreakChain(t *testing.T) {
	// All relevance scores identical and no lexical matches: every fused
	// score ties, so order falls through to doc id ascending.
	scorer := mock.NewScorer()
	scorer.Fallback = 0.5

	ranker, err := NewRanker(scorer)
	require.NoError(t, err)

	candidates := []Candidate{
		{DocId: "zz", Text: "beta"},
		{DocId: "aa", Text: "gamma"},
		{DocId: "mm", Text: "delta"},
	}

	results, _, err := ranker.Rank(context.Background(), "unmatched-term", candidates)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "aa", results[0].DocId)
	assert.Equal(t, "mm", results[1].DocId)
	assert.Equal(t, "zz", results[2].DocId)
	assert.Equal(t, []int{1, 2, 3}, []int{results[0].Rank, results[1].Rank, results[2].Rank})
}

func TestRank_TieBreakPrefersLexical(t *testing.T) {
	// Equal fused scores with differing components: higher lexical wins.
	scorer := mock.NewScorer()

	ranker, err := NewRanker(scorer, WithAlpha(0.5))
	require.NoError(t, err)

	// doc-a: lexical match (normalized 1.0), relevance 0 -> fused 0.5
	// doc-b: no lexical (normalized 0), relevance 1.0  -> fused 0.5
	scorer.Set("climate report", 0.0)
	scorer.Set("governance handbook", 1.0)
	candidates := []Candidate{
		{DocId: "doc-b", Text: "governance handbook"},
		{DocId: "doc-a", Text: "climate report"},
	}

	results, _, err := ranker.Rank(context.Background(), "climate", candidates)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.InDelta(t, results[0].FusedScore, results[1].FusedScore, 1e-12)
	assert.Equal(t, "doc-a", results[0].DocId, "equal fused score resolves by higher lexical score")
}

func TestRank_ExcludesInvalidRelevance(t *testing.T) {
	scorer := mock.NewScorer()
	scorer.Set("good doc", 0.8)
	scorer.Set("nan doc", math.NaN())
	scorer.Set("oob doc", 1.7)

	ranker, err := NewRanker(scorer)
	require.NoError(t, err)

	candidates := []Candidate{
		{DocId: "a", Text: "good doc"},
		{DocId: "b", Text: "nan doc"},
		{DocId: "c", Text: "oob doc"},
	}

	results, exclusions, err := ranker.Rank(context.Background(), "query", candidates)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].DocId)

	require.Len(t, exclusions, 2)
	excluded := map[string]string{}
	for _, e := range exclusions {
		excluded[e.DocId] = e.Signal
	}
	assert.Equal(t, "relevance", excluded["b"])
	assert.Equal(t, "relevance", excluded["c"])
}

func TestRank_EmptyCandidates(t *testing.T) {
	ranker, err := NewRanker(relevance.NewTokenOverlapScorer())
	require.NoError(t, err)

	results, exclusions, err := ranker.Rank(context.Background(), "climate", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, exclusions)
}

func TestRank_DuplicateDocID(t *testing.T) {
	ranker, err := NewRanker(relevance.NewTokenOverlapScorer())
	require.NoError(t, err)

	_, _, err = ranker.Rank(context.Background(), "climate", []Candidate{
		{DocId: "a", Text: "one"},
		{DocId: "a", Text: "two"},
	})
	assert.ErrorIs(t, err, ErrDuplicateDocID)
}

func TestRankAlpha_Validation(t *testing.T) {
	ranker, err := NewRanker(relevance.NewTokenOverlapScorer())
	require.NoError(t, err)

	_, _, err = ranker.RankAlpha(context.Background(), "q", climateCorpus(), -0.1)
	assert.ErrorIs(t, err, ErrInvalidAlpha)

	_, _, err = ranker.RankAlpha(context.Background(), "q", climateCorpus(), math.NaN())
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}

func TestRank_AlphaWeighting(t *testing.T) {
	scorer := mock.NewScorer()
	scorer.Set("pure relevance winner", 1.0)
	scorer.Set("climate climate climate", 0.0)

	candidates := []Candidate{
		{DocId: "rel", Text: "pure relevance winner"},
		{DocId: "lex", Text: "climate climate climate"},
	}

	ctx := context.Background()

	t.Run("alpha 1 ranks by lexical only", func(t *testing.T) {
		ranker, err := NewRanker(scorer)
		require.NoError(t, err)
		results, _, err := ranker.RankAlpha(ctx, "climate", candidates, 1.0)
		require.NoError(t, err)
		assert.Equal(t, "lex", results[0].DocId)
	})

	t.Run("alpha 0 ranks by relevance only", func(t *testing.T) {
		ranker, err := NewRanker(scorer)
		require.NoError(t, err)
		results, _, err := ranker.RankAlpha(ctx, "climate", candidates, 0.0)
		require.NoError(t, err)
		assert.Equal(t, "rel", results[0].DocId)
	})
}

func TestTopK(t *testing.T) {
	results := []core.RankedResult{
		{DocId: "a", Rank: 1},
		{DocId: "b", Rank: 2},
		{DocId: "c", Rank: 3},
	}

	assert.Len(t, TopK(results, 2), 2)
	assert.Len(t, TopK(results, 10), 3)
	assert.Empty(t, TopK(results, 0))
	assert.Empty(t, TopK(results, -1))
}
