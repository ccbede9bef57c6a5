// Package relevance provides pluggable pairwise relevance scoring.
//
// The Scorer interface is a capability boundary: the token-overlap variant is
// pure and self-contained, while the embedding variant calls an
// OpenAI-compatible embedding service. Variants are selected by
// configuration and must be deterministic for fixed inputs, which the fusion
// ranker depends on.
package relevance
