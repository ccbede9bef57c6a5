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

package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/storage"
)

const hoursPerMonth = 24 * 30.4375

// Result summarizes one normalization run.
type Result struct {
	// Count is the number of Silver records written.
	Count int
	// SnapshotId is the latest Bronze snapshot folded into this run.
	SnapshotId uint64
}

// Normalizer derives a partition's Silver layer from its Bronze
// records: records are grouped by content hash, the copy from the
// latest snapshot in each group is marked most recent, and every copy
// gets an age-adjusted confidence. Each run fully replaces the
// partition's previous Silver output.
type Normalizer struct {
	store  storage.EvidenceStore
	decay  DecayPolicy
	logger *slog.Logger
}

type Option func(*Normalizer) error

// WithDecayPolicy overrides the freshness decay curve. The policy is
// validated before it is accepted.
func WithDecayPolicy(policy DecayPolicy) Option {
	return func(n *Normalizer) error {
		if err := ValidatePolicy(policy); err != nil {
			return err
		}
		n.decay = policy
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		n.logger = logger
		return nil
	}
}

func NewNormalizer(store storage.EvidenceStore, opts ...Option) (*Normalizer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	n := &Normalizer{
		store:  store,
		decay:  DefaultDecay(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Run normalizes one partition under its advisory lock. Concurrent
// runs against the same partition surface storage.ErrConflict; the
// caller decides whether to retry. Re-running over unchanged Bronze
// input produces identical Silver output: record age is measured
// against the newest ingestion time in the partition rather than the
// wall clock, so the transform is a pure function of the Bronze rows.
func (n *Normalizer) Run(ctx context.Context, partition core.Partition) (*Result, error) {
	if err := core.ValidatePartition(partition); err != nil {
		return nil, err
	}

	var result *Result
	err := n.store.WithPartitionLock(ctx, partition, func(ctx context.Context) error {
		var runErr error
		result, runErr = n.run(ctx, partition)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (n *Normalizer) run(ctx context.Context, partition core.Partition) (*Result, error) {
	var records []*core.EvidenceRecord
	for record, err := range n.store.ReadPartition(ctx, partition) {
		if err != nil {
			return nil, fmt.Errorf("reading partition %s: %w", partition.Key(), err)
		}
		records = append(records, record)
	}

	snapshot, err := n.store.LatestSnapshot(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("resolving latest snapshot for %s: %w", partition.Key(), err)
	}

	silver := n.transform(records)
	count, err := n.store.ReplaceSilver(ctx, partition, silver, snapshot)
	if err != nil {
		return nil, fmt.Errorf("replacing silver for %s: %w", partition.Key(), err)
	}

	n.logger.Info("normalized partition",
		"partition", partition.Key(),
		"bronze_count", len(records),
		"silver_count", count,
		"snapshot_id", snapshot)

	return &Result{Count: count, SnapshotId: snapshot}, nil
}

// transform orders records by (content hash asc, snapshot desc, id
// asc), flags the first record of each hash group as most recent, and
// decays every record's confidence by its age relative to the newest
// ingestion time in the partition.
func (n *Normalizer) transform(records []*core.EvidenceRecord) []*core.EvidenceRecord {
	if len(records) == 0 {
		return nil
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ContentHash != b.ContentHash {
			return a.ContentHash < b.ContentHash
		}
		if a.SnapshotId != b.SnapshotId {
			return a.SnapshotId > b.SnapshotId
		}
		return a.Id < b.Id
	})

	var newest time.Time
	for _, record := range records {
		if record.IngestedAt.After(newest) {
			newest = record.IngestedAt
		}
	}

	prevHash := ""
	for i, record := range records {
		record.IsMostRecent = i == 0 || record.ContentHash != prevHash
		prevHash = record.ContentHash

		age := newest.Sub(record.IngestedAt).Hours() / hoursPerMonth
		if age < 0 {
			age = 0
		}
		record.AdjustedConfidence = record.Confidence * n.decay.Factor(age)
	}
	return records
}
