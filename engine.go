// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package maturit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/normalize"
	"github.com/poiesic/maturit/parity"
	"github.com/poiesic/maturit/pipeline"
	"github.com/poiesic/maturit/rank"
	"github.com/poiesic/maturit/relevance"
	"github.com/poiesic/maturit/rubric"
	"github.com/poiesic/maturit/storage"
	badgerstore "github.com/poiesic/maturit/storage/badger"
)

const DefaultTopK = 10

// Engine is the top-level facade over the retrieval and scoring
// pipeline: Bronze ingestion, Silver normalization, hybrid ranking,
// rubric scoring, and parity auditing, all over one partitioned store.
type Engine interface {
	// Ingest appends a batch of raw evidence records under snapshot.
	Ingest(ctx context.Context, records []*core.EvidenceRecord, snapshot uint64) (int, error)

	// Rank fuses lexical and relevance signals over candidates using
	// the engine's configured signal weight.
	Rank(ctx context.Context, query string, candidates []rank.Candidate) ([]core.RankedResult, []rank.Exclusion, error)

	// RankAlpha is Rank with an explicit lexical weight in [0, 1].
	RankAlpha(ctx context.Context, query string, candidates []rank.Candidate, alpha float64) ([]core.RankedResult, []rank.Exclusion, error)

	// Normalize derives a partition's Silver layer from its Bronze
	// records. Concurrent runs on one partition return
	// storage.ErrConflict.
	Normalize(ctx context.Context, partition core.Partition) (*normalize.Result, error)

	// Score ranks a partition's canonical evidence against the theme
	// query, scores it under rubric, persists the result, and returns
	// it. A withheld stage is a valid result, not an error.
	Score(ctx context.Context, partition core.Partition, query string, themeRubric *core.ThemeRubric) (*core.Score, error)

	// RunBatch normalizes and scores every requested partition over a
	// worker pool, one outcome per request.
	RunBatch(ctx context.Context, requests []pipeline.Request) (*pipeline.Manifest, []pipeline.Outcome, error)

	// CheckParity verifies a score's citations against ranked results.
	CheckParity(score *core.Score, ranked []core.RankedResult) parity.Result

	// Audit re-ranks a partition's current Silver evidence and
	// validates its latest persisted score against the fresh ranking.
	Audit(ctx context.Context, partition core.Partition, query string) (parity.Result, error)

	// LatestScore returns a partition's most recent persisted score.
	LatestScore(ctx context.Context, partition core.Partition) (*core.Score, error)

	// ScoreHistory returns every persisted score for a partition in
	// append order.
	ScoreHistory(ctx context.Context, partition core.Partition) ([]*core.Score, error)

	Close() error
}

type engine struct {
	backend    *badgerstore.Backend
	evidence   storage.EvidenceStore
	scores     storage.ScoreStore
	ranker     *rank.Ranker
	normalizer *normalize.Normalizer
	scorer     *rubric.Scorer
	topK       int
	workers    int
	logger     *slog.Logger
}

type Option func(*config) error

type config struct {
	filePath  string
	inMemory  bool
	relevance relevance.Scorer
	alpha     float64
	topK      int
	workers   int
	decay     normalize.DecayPolicy
	logger    *slog.Logger
}

// WithFilePath sets the on-disk store location.
func WithFilePath(path string) Option {
	return func(c *config) error {
		c.filePath = path
		return nil
	}
}

// WithInMemory keeps all state in memory. Intended for tests.
func WithInMemory() Option {
	return func(c *config) error {
		c.inMemory = true
		return nil
	}
}

// WithRelevanceScorer overrides the pairwise relevance signal. The
// default is the token-overlap scorer, which needs no external service.
func WithRelevanceScorer(scorer relevance.Scorer) Option {
	return func(c *config) error {
		if scorer == nil {
			return fmt.Errorf("relevance scorer is nil")
		}
		c.relevance = scorer
		return nil
	}
}

// WithAlpha sets the default lexical weight used by Rank.
func WithAlpha(alpha float64) Option {
	return func(c *config) error {
		c.alpha = alpha
		return nil
	}
}

// WithTopK sets how many ranked results feed the scorer and audits.
func WithTopK(k int) Option {
	return func(c *config) error {
		if k < 1 {
			return fmt.Errorf("top-k must be >= 1, got %d", k)
		}
		c.topK = k
		return nil
	}
}

// WithWorkers sets the batch worker pool size.
func WithWorkers(workers int) Option {
	return func(c *config) error {
		if workers < 1 {
			return pipeline.ErrInvalidWorkerCount
		}
		c.workers = workers
		return nil
	}
}

// WithDecayPolicy sets the freshness decay curve used by Normalize.
func WithDecayPolicy(policy normalize.DecayPolicy) Option {
	return func(c *config) error {
		if err := normalize.ValidatePolicy(policy); err != nil {
			return err
		}
		c.decay = policy
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// New opens the store and wires the pipeline components together.
func New(opts ...Option) (Engine, error) {
	cfg := config{
		relevance: relevance.NewTokenOverlapScorer(),
		alpha:     rank.DefaultAlpha,
		topK:      DefaultTopK,
		workers:   pipeline.DefaultWorkers,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if !cfg.inMemory && cfg.filePath == "" {
		return nil, fmt.Errorf("a file path or in-memory mode is required")
	}

	backend, err := badgerstore.OpenBackend(cfg.filePath, cfg.inMemory)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	evidence := badgerstore.NewEvidenceStore(backend)
	scores, err := badgerstore.NewScoreStore(backend)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("opening score store: %w", err)
	}

	ranker, err := rank.NewRanker(cfg.relevance,
		rank.WithAlpha(cfg.alpha),
		rank.WithLogger(cfg.logger))
	if err != nil {
		scores.Close()
		backend.Close()
		return nil, err
	}

	normalizerOpts := []normalize.Option{normalize.WithLogger(cfg.logger)}
	if cfg.decay != nil {
		normalizerOpts = append(normalizerOpts, normalize.WithDecayPolicy(cfg.decay))
	}
	normalizer, err := normalize.NewNormalizer(evidence, normalizerOpts...)
	if err != nil {
		scores.Close()
		backend.Close()
		return nil, err
	}

	scorer, err := rubric.NewScorer(rubric.WithLogger(cfg.logger))
	if err != nil {
		scores.Close()
		backend.Close()
		return nil, err
	}

	return &engine{
		backend:    backend,
		evidence:   evidence,
		scores:     scores,
		ranker:     ranker,
		normalizer: normalizer,
		scorer:     scorer,
		topK:       cfg.topK,
		workers:    cfg.workers,
		logger:     cfg.logger,
	}, nil
}

func (e *engine) Ingest(ctx context.Context, records []*core.EvidenceRecord, snapshot uint64) (int, error) {
	for _, record := range records {
		if record.ContentHash == "" {
			record.ContentHash = core.HashContent(record.Extract)
		}
		if err := core.ValidateRecord(record); err != nil {
			return 0, err
		}
	}
	return e.evidence.WriteBatch(ctx, records, snapshot)
}

func (e *engine) Rank(ctx context.Context, query string, candidates []rank.Candidate) ([]core.RankedResult, []rank.Exclusion, error) {
	return e.ranker.Rank(ctx, query, candidates)
}

func (e *engine) RankAlpha(ctx context.Context, query string, candidates []rank.Candidate, alpha float64) ([]core.RankedResult, []rank.Exclusion, error) {
	return e.ranker.RankAlpha(ctx, query, candidates, alpha)
}

func (e *engine) Normalize(ctx context.Context, partition core.Partition) (*normalize.Result, error) {
	return e.normalizer.Run(ctx, partition)
}

func (e *engine) Score(ctx context.Context, partition core.Partition, query string, themeRubric *core.ThemeRubric) (*core.Score, error) {
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}

	silver, snapshot, err := e.evidence.ReadSilver(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("reading silver for %s: %w", partition.Key(), err)
	}

	topK, err := e.rankSilver(ctx, query, silver)
	if err != nil {
		return nil, err
	}

	score, err := e.scorer.Score(partition, themeRubric, silver, topK, snapshot)
	if err != nil {
		return nil, err
	}
	if err := e.scores.AppendScore(ctx, score); err != nil {
		return nil, fmt.Errorf("persisting score for %s: %w", partition.Key(), err)
	}
	return score, nil
}

func (e *engine) RunBatch(ctx context.Context, requests []pipeline.Request) (*pipeline.Manifest, []pipeline.Outcome, error) {
	runner, err := pipeline.NewRunner(e.runPartition,
		pipeline.WithWorkers(e.workers),
		pipeline.WithLogger(e.logger))
	if err != nil {
		return nil, nil, err
	}
	defer runner.Release()
	return runner.Run(ctx, requests)
}

// runPartition is the per-partition batch pipeline: normalize, then
// rank and score the fresh Silver view.
func (e *engine) runPartition(ctx context.Context, request pipeline.Request) (*core.Score, error) {
	if _, err := e.normalizer.Run(ctx, request.Partition); err != nil {
		return nil, err
	}
	return e.Score(ctx, request.Partition, request.Query, request.Rubric)
}

func (e *engine) CheckParity(score *core.Score, ranked []core.RankedResult) parity.Result {
	return parity.Audit(score, ranked)
}

func (e *engine) Audit(ctx context.Context, partition core.Partition, query string) (parity.Result, error) {
	if err := core.ValidateQuery(query); err != nil {
		return parity.Result{}, err
	}

	score, err := e.scores.LatestScore(ctx, partition)
	if err != nil {
		return parity.Result{}, fmt.Errorf("loading latest score for %s: %w", partition.Key(), err)
	}

	silver, _, err := e.evidence.ReadSilver(ctx, partition)
	if err != nil {
		return parity.Result{}, fmt.Errorf("reading silver for %s: %w", partition.Key(), err)
	}
	topK, err := e.rankSilver(ctx, query, silver)
	if err != nil {
		return parity.Result{}, err
	}
	return parity.Audit(score, topK), nil
}

func (e *engine) LatestScore(ctx context.Context, partition core.Partition) (*core.Score, error) {
	return e.scores.LatestScore(ctx, partition)
}

func (e *engine) ScoreHistory(ctx context.Context, partition core.Partition) ([]*core.Score, error) {
	return e.scores.ScoreHistory(ctx, partition)
}

// rankSilver ranks a partition's most-recent Silver records against
// the theme query and returns the top-k.
func (e *engine) rankSilver(ctx context.Context, query string, silver []*core.EvidenceRecord) ([]core.RankedResult, error) {
	var candidates []rank.Candidate
	for _, record := range silver {
		if !record.IsMostRecent {
			continue
		}
		candidates = append(candidates, rank.Candidate{
			DocId: record.Id.DocID(),
			Text:  record.Extract,
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked, excluded, err := e.ranker.Rank(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	if len(excluded) > 0 {
		e.logger.Warn("candidates excluded from ranking", "count", len(excluded))
	}
	return rank.TopK(ranked, e.topK), nil
}

func (e *engine) Close() error {
	start := time.Now()
	var firstErr error
	if err := e.scores.Close(); err != nil {
		firstErr = err
	}
	if err := e.evidence.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	e.logger.Debug("engine closed", "duration", time.Since(start))
	return firstErr
}
