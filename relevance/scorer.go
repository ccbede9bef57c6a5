package relevance

import (
	"context"
	"fmt"
)

// Scorer expresses fine-grained query/document relevance independent of
// corpus statistics. Implementations return a score in [0,1] and must be
// deterministic for fixed parameters and inputs.
// Implementations must be thread-safe for concurrent use.
type Scorer interface {
	// Score returns the relevance of text to query, in [0,1].
	Score(ctx context.Context, query, text string) (float64, error)
}

// Variant names accepted by Config.
const (
	VariantOverlap   = "overlap"
	VariantEmbedding = "embedding"
)

// Config selects and configures a relevance scorer variant.
type Config struct {
	// Variant is the scorer implementation: "overlap" or "embedding".
	Variant string

	// Host is the base URL of the OpenAI-compatible embedding service.
	// Used by the embedding variant only.
	// Example: "http://localhost:11434/v1"
	Host string

	// Model is the embedding model identifier.
	// Used by the embedding variant only.
	Model string
}

// DefaultConfig returns a Config for the pure token-overlap scorer, which
// needs no external services.
func DefaultConfig() *Config {
	return &Config{Variant: VariantOverlap}
}

// FromConfig builds the scorer variant named by the configuration.
func FromConfig(cfg *Config) (Scorer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	switch cfg.Variant {
	case VariantOverlap, "":
		return NewTokenOverlapScorer(), nil
	case VariantEmbedding:
		return NewEmbeddingScorer(cfg.Host, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, cfg.Variant)
	}
}
