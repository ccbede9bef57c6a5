package badger

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/storage"
)

// errStopIteration signals that the consumer of a record sequence stopped early.
var errStopIteration = errors.New("stop iteration")

// EvidenceStore implements storage.EvidenceStore for BadgerDB.
type EvidenceStore struct {
	backend *Backend
}

var _ storage.EvidenceStore = (*EvidenceStore)(nil)

// NewEvidenceStore creates a new EvidenceStore.
//
// Returns the storage.EvidenceStore interface to enforce abstraction.
func NewEvidenceStore(backend *Backend) storage.EvidenceStore {
	return &EvidenceStore{backend: backend}
}

// WriteBatch appends Bronze records tagged with the snapshot id.
// Derived fields are populated before the write: ContentHash from the
// extract, Id from record provenance, IngestedAt when unset.
func (s *EvidenceStore) WriteBatch(ctx context.Context, records []*core.EvidenceRecord, snapshotID uint64) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	// Highest snapshot per partition touched by this batch
	maxSnapshots := make(map[core.Partition]uint64)

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			record.SnapshotId = snapshotID
			if record.ContentHash == "" {
				record.ContentHash = core.HashContent(record.Extract)
			}
			record.Id = record.Identity()
			if record.IngestedAt.IsZero() {
				record.IngestedAt = time.Now().UTC()
			}
			// Bronze carries no derived Silver state
			record.IsMostRecent = false
			record.AdjustedConfidence = 0

			if err := tx.Set(makeBronzeKey(record), storage.MarshalRecord(record)); err != nil {
				return err
			}

			p := record.Partition()
			if snapshotID > maxSnapshots[p] {
				maxSnapshots[p] = snapshotID
			}
		}

		for p, snap := range maxSnapshots {
			key := makeBronzeMetaKey(p)
			prev, err := readUint64(tx, key)
			if err != nil {
				return err
			}
			if snap > prev {
				if err := tx.Set(key, encodeUint64(snap)); err != nil {
					return err
				}
			}
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return 0, mapBadgerError(err)
	}
	return len(records), nil
}

// ReadPartition returns a lazy sequence over a partition's Bronze records.
// Each range over the sequence opens a fresh read transaction, so the
// sequence is restartable.
func (s *EvidenceStore) ReadPartition(ctx context.Context, p core.Partition) iter.Seq2[*core.EvidenceRecord, error] {
	prefix := makeBronzePartitionPrefix(p)

	return func(yield func(*core.EvidenceRecord, error) bool) {
		if err := checkContext(ctx); err != nil {
			yield(nil, err)
			return
		}

		err := s.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := tx.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				var record *core.EvidenceRecord
				err := it.Item().Value(func(val []byte) error {
					var unmarshalErr error
					record, unmarshalErr = storage.UnmarshalRecord(val)
					return unmarshalErr
				})
				if err != nil {
					if !yield(nil, err) {
						return errStopIteration
					}
					continue
				}
				if !yield(record, nil) {
					return errStopIteration
				}
			}
			return nil
		}, false)

		if err != nil && !errors.Is(err, errStopIteration) {
			yield(nil, mapBadgerError(err))
		}
	}
}

// LatestSnapshot returns the highest snapshot id in the partition's Bronze
// layer, or 0 when the partition is empty.
func (s *EvidenceStore) LatestSnapshot(ctx context.Context, p core.Partition) (uint64, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	var snapshot uint64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		snapshot, err = readUint64(tx, makeBronzeMetaKey(p))
		return err
	}, false)
	if err != nil {
		return 0, mapBadgerError(err)
	}
	return snapshot, nil
}

// ReplaceSilver atomically replaces a partition's Silver layer. The delete
// of the previous layer and the write of the new one commit in a single
// transaction, so readers never observe a partially replaced partition.
func (s *EvidenceStore) ReplaceSilver(ctx context.Context, p core.Partition, records []*core.EvidenceRecord, snapshotID uint64) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		// Collect and delete the previous layer
		prefix := makeSilverPartitionPrefix(p)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		for i, record := range records {
			if err := tx.Set(makeSilverKey(p, i), storage.MarshalRecord(record)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeSilverMetaKey(p), encodeUint64(snapshotID)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return 0, mapBadgerError(err)
	}
	return len(records), nil
}

// ReadSilver returns a partition's Silver records in persisted order along
// with the snapshot id recorded at the last replacement.
func (s *EvidenceStore) ReadSilver(ctx context.Context, p core.Partition) ([]*core.EvidenceRecord, uint64, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}

	var (
		records  []*core.EvidenceRecord
		snapshot uint64
	)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSilverPartitionPrefix(p)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record *core.EvidenceRecord
			err := it.Item().Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalRecord(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}

		var err error
		snapshot, err = readUint64(tx, makeSilverMetaKey(p))
		return err
	}, false)

	if err != nil {
		return nil, 0, mapBadgerError(err)
	}
	return records, snapshot, nil
}

// WithPartitionLock runs fn while holding the partition's advisory lock.
// Acquisition is a read-check-set transaction; BadgerDB's conflict detection
// makes two concurrent acquirers fail on commit, surfaced as
// storage.ErrConflict.
func (s *EvidenceStore) WithPartitionLock(ctx context.Context, p core.Partition, fn func(ctx context.Context) error) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	key := makeLockKey(p)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrConflict
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		if err := tx.Set(key, []byte{1}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return mapBadgerError(err)
	}

	defer func() {
		releaseErr := s.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Delete(key); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if releaseErr != nil {
			s.backend.logger.Error("failed to release partition lock", "partition", p.Key(), "err", releaseErr)
		}
	}()

	return fn(ctx)
}

// Close closes the store. The shared backend is closed by its owner.
func (s *EvidenceStore) Close() error {
	return nil
}

// readUint64 reads a BigEndian uint64 value, returning 0 when the key is absent.
func readUint64(tx *badger.Txn, key []byte) (uint64, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}
	var v uint64
	err = item.Value(func(val []byte) error {
		v = decodeUint64(val)
		return nil
	})
	return v, err
}

// mapBadgerError maps BadgerDB errors onto the storage error taxonomy.
func mapBadgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return storage.ErrConflict
	case errors.Is(err, badger.ErrDBClosed):
		return storage.ErrStorageClosed
	default:
		return err
	}
}
