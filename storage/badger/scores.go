package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/storage"
)

// ScoreStore implements storage.ScoreStore for BadgerDB.
type ScoreStore struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.ScoreStore = (*ScoreStore)(nil)

// NewScoreStore creates a new ScoreStore.
//
// Returns the storage.ScoreStore interface to enforce abstraction.
func NewScoreStore(backend *Backend) (storage.ScoreStore, error) {
	seq, err := backend.GetSequence(scoreIDSeq)
	if err != nil {
		return nil, err
	}
	return &ScoreStore{backend: backend, seq: seq}, nil
}

// AppendScore appends a score to the partition's history.
// Scores are never updated in place; a re-score appends a new entry.
func (s *ScoreStore) AppendScore(ctx context.Context, score *core.Score) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	next, err := s.seq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		next, err = s.seq.Next()
		if err != nil {
			return err
		}
	}

	if score.ScoredAt.IsZero() {
		score.ScoredAt = time.Now().UTC()
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeScoreKey(score.Partition(), next)
		if err := tx.Set(key, storage.MarshalScore(score)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return mapBadgerError(err)
}

// LatestScore returns the most recently appended score for a partition.
func (s *ScoreStore) LatestScore(ctx context.Context, p core.Partition) (*core.Score, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var result *core.Score
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeScorePartitionPrefix(p)

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := tx.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible key for this partition
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		it.Seek(seekKey)
		if !it.Valid() || !bytes.HasPrefix(it.Item().Key(), prefix) {
			return storage.ErrNotFound
		}

		return it.Item().Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalScore(val)
			return unmarshalErr
		})
	}, false)

	if err != nil {
		return nil, mapBadgerError(err)
	}
	return result, nil
}

// ScoreHistory returns all scores for a partition, oldest first.
func (s *ScoreStore) ScoreHistory(ctx context.Context, p core.Partition) ([]*core.Score, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var results []*core.Score
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScorePartitionPrefix(p)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var score *core.Score
			err := it.Item().Value(func(val []byte) error {
				var unmarshalErr error
				score, unmarshalErr = storage.UnmarshalScore(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, score)
		}
		return nil
	}, false)

	if err != nil {
		return nil, mapBadgerError(err)
	}
	return results, nil
}

// Close releases the score sequence.
func (s *ScoreStore) Close() error {
	return s.seq.Release()
}
