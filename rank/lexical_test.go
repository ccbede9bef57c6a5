package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicalScorer_EmptyCorpus(t *testing.T) {
	scorer := NewLexicalScorer(DefaultK1, DefaultB)
	scores := scorer.Score("climate", nil)
	assert.Empty(t, scores)
}

func TestLexicalScorer_EmptyQuery(t *testing.T) {
	scorer := NewLexicalScorer(DefaultK1, DefaultB)
	candidates := []Candidate{
		{DocId: "a", Text: "climate targets"},
		{DocId: "b", Text: "water stewardship"},
	}

	scores := scorer.Score("", candidates)
	require.Len(t, scores, 2)
	assert.Equal(t, 0.0, scores["a"])
	assert.Equal(t, 0.0, scores["b"])
}

func TestLexicalScorer_MatchingDocScoresHigher(t *testing.T) {
	scorer := NewLexicalScorer(DefaultK1, DefaultB)
	candidates := []Candidate{
		{DocId: "a", Text: "climate change mitigation and climate adaptation"},
		{DocId: "b", Text: "board governance and executive compensation"},
	}

	scores := scorer.Score("climate", candidates)
	assert.Greater(t, scores["a"], scores["b"])
	assert.Equal(t, 0.0, scores["b"])
}

func TestLexicalScorer_TermFrequencySaturates(t *testing.T) {
	scorer := NewLexicalScorer(DefaultK1, DefaultB)
	once := []Candidate{
		{DocId: "a", Text: "climate policy overview document text here"},
		{DocId: "b", Text: "climate climate climate climate climate here"},
		{DocId: "c", Text: "unrelated filler content words padding here"},
	}

	scores := scorer.Score("climate", once)
	require.Greater(t, scores["b"], scores["a"])
	// Five occurrences must not score five times higher than one
	assert.Less(t, scores["b"], 5*scores["a"])
}

func TestLexicalScorer_DeterministicAcrossInputOrder(t *testing.T) {
	scorer := NewLexicalScorer(DefaultK1, DefaultB)
	forward := []Candidate{
		{DocId: "a", Text: "climate risk disclosure"},
		{DocId: "b", Text: "climate transition plan"},
		{DocId: "c", Text: "biodiversity baseline study"},
	}
	reversed := []Candidate{forward[2], forward[1], forward[0]}

	first := scorer.Score("climate plan", forward)
	second := scorer.Score("climate plan", reversed)
	assert.Equal(t, first, second)
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The Climate, of it all!")
	assert.Equal(t, []string{"climate", "all"}, tokens)
}
