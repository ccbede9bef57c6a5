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

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/storage"
)

const (
	DefaultWorkers     = 4
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
)

// Request asks for one partition to be normalized and scored.
type Request struct {
	Partition core.Partition
	Query     string
	Rubric    *core.ThemeRubric
}

type Status string

const (
	// StatusScored means the partition produced a staged score.
	StatusScored Status = "SCORED"
	// StatusNoScore means a precondition withheld the stage; the
	// null-stage score carries the reason.
	StatusNoScore Status = "NO_SCORE"
	// StatusError means the partition failed outright.
	StatusError Status = "ERROR"
)

// Outcome is the per-partition result of a batch run.
type Outcome struct {
	Partition core.Partition
	Status    Status
	Score     *core.Score
	Err       error
}

// PartitionFunc runs the full pipeline for one partition and returns
// its score. Implementations surface storage.ErrConflict when a
// concurrent normalizer holds the partition lock; the runner retries
// those with backoff.
type PartitionFunc func(ctx context.Context, request Request) (*core.Score, error)

// Runner fans partition requests out over a worker pool. Partitions
// are independent, so one failure never aborts the batch; each request
// gets its own Outcome. Cancellation is cooperative and checked
// between submissions.
type Runner struct {
	fn          PartitionFunc
	pool        *ants.Pool
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

type Option func(*runnerConfig) error

type runnerConfig struct {
	workers     int
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// WithWorkers sets the worker pool size.
func WithWorkers(workers int) Option {
	return func(c *runnerConfig) error {
		if workers < 1 {
			return ErrInvalidWorkerCount
		}
		c.workers = workers
		return nil
	}
}

// WithRetry tunes the lock-conflict retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *runnerConfig) error {
		if maxAttempts < 1 {
			return storage.ErrInvalidMaxAttempts
		}
		c.maxAttempts = maxAttempts
		c.baseDelay = baseDelay
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *runnerConfig) error {
		c.logger = logger
		return nil
	}
}

func NewRunner(fn PartitionFunc, opts ...Option) (*Runner, error) {
	if fn == nil {
		return nil, ErrPartitionFuncRequired
	}
	config := runnerConfig{
		workers:     DefaultWorkers,
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(config.workers)
	if err != nil {
		return nil, err
	}
	return &Runner{
		fn:          fn,
		pool:        pool,
		logger:      config.logger,
		maxAttempts: config.maxAttempts,
		baseDelay:   config.baseDelay,
	}, nil
}

// Run processes every request and returns the batch manifest plus one
// outcome per request, in request order.
func (r *Runner) Run(ctx context.Context, requests []Request) (*Manifest, []Outcome, error) {
	manifest := newManifest(len(requests))
	outcomes := make([]Outcome, len(requests))

	var wg sync.WaitGroup
	for i, request := range requests {
		select {
		case <-ctx.Done():
			// Unsubmitted partitions are marked cancelled; already
			// running ones finish on their own.
			for j := i; j < len(requests); j++ {
				outcomes[j] = Outcome{Partition: requests[j].Partition, Status: StatusError, Err: ctx.Err()}
			}
			wg.Wait()
			manifest.finish(outcomes)
			return manifest, outcomes, ctx.Err()
		default:
		}

		wg.Add(1)
		index, req := i, request
		if err := r.pool.Submit(func() {
			defer wg.Done()
			outcomes[index] = r.runOne(ctx, req)
		}); err != nil {
			wg.Done()
			outcomes[index] = Outcome{Partition: req.Partition, Status: StatusError, Err: err}
		}
	}
	wg.Wait()

	manifest.finish(outcomes)
	r.logger.Info("batch run complete",
		"run_id", manifest.RunId,
		"requested", manifest.Requested,
		"scored", manifest.Scored,
		"no_score", manifest.NoScore,
		"failed", manifest.Failed)

	return manifest, outcomes, nil
}

func (r *Runner) runOne(ctx context.Context, request Request) Outcome {
	var score *core.Score
	var terminal error

	// Only partition lock conflicts are worth retrying; anything else
	// ends the attempt loop immediately.
	operation := func() error {
		s, err := r.fn(ctx, request)
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return err
			}
			terminal = err
			return nil
		}
		score = s
		return nil
	}

	err := storage.RetryWithBackoff(ctx, operation, r.maxAttempts, r.baseDelay)
	if err == nil {
		err = terminal
	}
	if err != nil {
		r.logger.Error("partition failed",
			"partition", request.Partition.Key(),
			"error", err)
		return Outcome{Partition: request.Partition, Status: StatusError, Err: err}
	}

	status := StatusScored
	if score.Stage == nil {
		status = StatusNoScore
	}
	return Outcome{Partition: request.Partition, Status: status, Score: score}
}

// Release shuts the worker pool down. The runner must not be used
// afterwards.
func (r *Runner) Release() {
	r.pool.Release()
}
