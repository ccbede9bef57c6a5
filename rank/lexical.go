package rank

import (
	"math"
	"sort"
)

// Default term-frequency saturation and length-normalization parameters.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Candidate is one document offered to the ranker.
type Candidate struct {
	DocId string
	Text  string
}

// LexicalScorer computes saturating term-frequency, length-normalized scores
// using corpus-wide document frequency and average document length.
// Scoring is deterministic: identical corpus and query yield bit-identical
// scores because aggregation always runs in sorted doc-id order.
type LexicalScorer struct {
	k1 float64
	b  float64
}

// NewLexicalScorer creates a scorer with the given saturation (k1) and
// length-normalization (b) parameters. Non-positive k1 or a b outside [0,1]
// fall back to the defaults.
func NewLexicalScorer(k1, b float64) *LexicalScorer {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b < 0 || b > 1 {
		b = DefaultB
	}
	return &LexicalScorer{k1: k1, b: b}
}

// Score computes lexical scores for every candidate against the query.
// The returned map has one entry per candidate. An empty corpus yields an
// empty map; an empty query yields a zero score for every document.
func (s *LexicalScorer) Score(query string, candidates []Candidate) map[string]float64 {
	scores := make(map[string]float64, len(candidates))
	if len(candidates) == 0 {
		return scores
	}

	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		for _, c := range candidates {
			scores[c.DocId] = 0
		}
		return scores
	}

	// Fixed iteration order over the corpus
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].DocId < ordered[j].DocId })

	// Corpus statistics: per-doc term frequencies, document frequency, average length
	docTerms := make([]map[string]int, len(ordered))
	docLens := make([]int, len(ordered))
	df := make(map[string]int)
	var totalLen int

	for i, c := range ordered {
		tokens := Tokenize(c.Text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			df[tok]++
		}
		docTerms[i] = tf
		docLens[i] = len(tokens)
		totalLen += len(tokens)
	}
	avgLen := float64(totalLen) / float64(len(ordered))

	n := float64(len(ordered))
	for i, c := range ordered {
		var score float64
		for _, term := range queryTerms {
			tf := float64(docTerms[i][term])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[term])+0.5)/(float64(df[term])+0.5))
			var norm float64
			if avgLen > 0 {
				norm = 1 - s.b + s.b*float64(docLens[i])/avgLen
			} else {
				norm = 1
			}
			score += idf * tf * (s.k1 + 1) / (tf + s.k1*norm)
		}
		scores[c.DocId] = score
	}

	return scores
}
