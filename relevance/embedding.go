package relevance

import (
	"context"
	"log/slog"
	"math"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// EmbeddingScorer scores relevance as the cosine similarity of query and
// document embeddings, clamped to [0,1]. With a fixed embedding model the
// scorer is deterministic for fixed inputs.
type EmbeddingScorer struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ Scorer = (*EmbeddingScorer)(nil)

// NewEmbeddingScorer creates a scorer backed by an OpenAI-compatible
// embedding service.
func NewEmbeddingScorer(host, model string) (*EmbeddingScorer, error) {
	if host == "" {
		return nil, ErrEmbeddingHostRequired
	}
	if model == "" {
		return nil, ErrEmbeddingModelRequired
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &EmbeddingScorer{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedding-scorer"),
	}, nil
}

// Score embeds both texts and returns their cosine similarity clamped to [0,1].
func (s *EmbeddingScorer) Score(ctx context.Context, query, text string) (float64, error) {
	vectors, err := s.embedder.EmbedDocuments(ctx, []string{query, text})
	if err != nil {
		s.logger.Error("failed to generate embeddings", "err", err)
		return 0, err
	}
	if len(vectors) < 2 {
		s.logger.Warn("embedder returned incomplete result", "count", len(vectors))
		return 0, ErrEmptyEmbedding
	}

	sim := cosineSimilarity(vectors[0], vectors[1])
	if math.IsNaN(sim) {
		return 0, ErrEmptyEmbedding
	}
	return math.Min(1, math.Max(0, sim)), nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
