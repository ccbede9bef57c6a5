package storage

import (
	"context"
	"iter"

	"github.com/poiesic/maturit/core"
)

// EvidenceStore provides partitioned persistence for evidence records in two
// logical layers: Bronze (raw, append-only) and Silver (canonical,
// replaced wholesale per normalizer run).
// Implementations must be thread-safe and support concurrent access to
// different partitions; the partition lock serializes access within one.
type EvidenceStore interface {
	// WriteBatch appends Bronze records tagged with the snapshot id.
	// Records are never updated or deleted in place; corrections arrive as
	// new snapshots. Returns the number of records written.
	WriteBatch(ctx context.Context, records []*core.EvidenceRecord, snapshotID uint64) (int, error)

	// ReadPartition returns a lazy, restartable sequence over the Bronze
	// records of a partition. The sequence is finite and carries no ordering
	// guarantee; ranging over it again re-reads the partition.
	ReadPartition(ctx context.Context, p core.Partition) iter.Seq2[*core.EvidenceRecord, error]

	// LatestSnapshot returns the highest snapshot id written to the
	// partition's Bronze layer, or 0 when the partition is empty.
	LatestSnapshot(ctx context.Context, p core.Partition) (uint64, error)

	// ReplaceSilver atomically replaces the partition's Silver layer with the
	// given records, recording snapshotID as the layer's snapshot. Records
	// are persisted in the order given; ReadSilver returns them in that
	// order. Returns the number of records written.
	ReplaceSilver(ctx context.Context, p core.Partition, records []*core.EvidenceRecord, snapshotID uint64) (int, error)

	// ReadSilver returns the partition's Silver records in their persisted
	// order, along with the snapshot id recorded at the last replacement.
	// An empty partition yields no records and snapshot 0.
	ReadSilver(ctx context.Context, p core.Partition) ([]*core.EvidenceRecord, uint64, error)

	// WithPartitionLock runs fn while holding the partition's advisory lock.
	// A second concurrent holder fails with ErrConflict (retryable). The
	// lock is released when fn returns.
	WithPartitionLock(ctx context.Context, p core.Partition, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ScoreStore provides append-only persistence for scores, keyed like
// evidence partitions. The latest appended score defines the current view.
type ScoreStore interface {
	// AppendScore appends a score to the partition's history.
	AppendScore(ctx context.Context, score *core.Score) error

	// LatestScore returns the most recently appended score for a partition.
	// Returns ErrNotFound when no score has been recorded.
	LatestScore(ctx context.Context, p core.Partition) (*core.Score, error)

	// ScoreHistory returns all scores for a partition, oldest first.
	ScoreHistory(ctx context.Context, p core.Partition) ([]*core.Score, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
