package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPartition() core.Partition {
	return core.Partition{OrgId: "acme", FiscalYear: 2025, ThemeCode: "climate"}
}

func testRecord(extract string, snapshot uint64) *core.EvidenceRecord {
	return &core.EvidenceRecord{
		OrgId:       "acme",
		FiscalYear:  2025,
		ThemeCode:   "climate",
		SourceDocId: "doc-1",
		PageNo:      1,
		SpanStart:   0,
		SpanEnd:     len(extract),
		Extract:     extract,
		Confidence:  0.8,
		SnapshotId:  snapshot,
		IngestedAt:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestWriteBatch_PopulatesDerivedFields(t *testing.T) {
	store, scoreStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		scoreStore.Close()
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	record := testRecord("net zero target validated", 0)
	count, err := store.WriteBatch(ctx, []*core.EvidenceRecord{record}, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, uint64(7), record.SnapshotId)
	assert.Equal(t, core.HashContent("net zero target validated"), record.ContentHash)
	assert.Equal(t, record.Identity(), record.Id)
	assert.False(t, record.IngestedAt.IsZero())
}

func TestWriteBatch_Empty(t *testing.T) {
	store, scoreStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		scoreStore.Close()
		store.Close()
		backend.Close()
	}()

	count, err := store.WriteBatch(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReadPartition(t *testing.T) {
	store, scoreStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		scoreStore.Close()
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	records := []*core.EvidenceRecord{
		testRecord("first extract about climate", 1),
		testRecord("second extract about targets", 1),
	}
	_, err = store.WriteBatch(ctx, records, 1)
	require.NoError(t, err)

	// Records in another partition must not leak in
	other := testRecord("unrelated governance text", 1)
	other.ThemeCode = "governance"
	_, err = store.WriteBatch(ctx, []*core.EvidenceRecord{other}, 1)
	require.NoError(t, err)

	var got []*core.EvidenceRecord
	for record, err := range store.ReadPartition(ctx, testPartition()) {
		require.NoError(t, err)
		got = append(got, record)
	}
	require.Len(t, got, 2)

	t.Run("restartable", func(t *testing.T) {
		count := 0
		seq := store.ReadPartition(ctx, testPartition())
		for range seq {
			count++
		}
		for range seq {
			count++
		}
		assert.Equal(t, 4, count)
	})

	t.Run("early stop", func(t *testing.T) {
		count := 0
		for range store.ReadPartition(ctx, testPartition()) {
			count++
			break
		}
		assert.Equal(t, 1, count)
	})
}

func TestReadPartition_Empty(t *testing.T) {
	store, scoreStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		scoreStore.Close()
		store.Close()
		backend.Close()
	}()

	count := 0
	for _, err := range store.ReadPartition(context.Background(), testPartition()) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

func TestLatestSnapshot(t *testing.T) {
	store, scoreStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		scoreStore.Close()
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()

	snapshot, err := store.LatestSnapshot(ctx, testPartition())
	require.NoError(t, err)
	assert.Zero(t, snapshot)

	_, err = store.WriteBatch(ctx, []*core.EvidenceRecord{testRecord("one", 0)}, 10)
	require.NoError(t, err)
	_, err = store.WriteBatch(ctx, []*core.EvidenceRecord{testRecord("two", 0)}, 30)
	require.NoError(t, err)
	_, err = store.WriteBatch(ctx, []*core.EvidenceRecord{testRecord("three", 0)}, 20)
	require.NoError(t, err)

	snapshot, err = store.LatestSnapshot(ctx, testPartition())
	require.NoError(t, err)
	assert.Equal(t, uint64(30), snapshot)
}

func TestReplaceSilver(t *testing.T) {
	store, scoreStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		scoreStore.Close()
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	p := testPartition()

	first := testRecord("silver one", 1)
	first.ContentHash = core.HashContent(first.Extract)
	first.Id = first.Identity()
	second := testRecord("silver two", 1)
	second.ContentHash = core.HashContent(second.Extract)
	second.Id = second.Identity()

	count, err := store.ReplaceSilver(ctx, p, []*core.EvidenceRecord{first, second}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, snapshot, err := store.ReadSilver(ctx, p)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(1), snapshot)
	assert.Equal(t, first.Id, records[0].Id)
	assert.Equal(t, second.Id, records[1].Id)

	t.Run("full replacement drops stale rows", func(t *testing.T) {
		count, err := store.ReplaceSilver(ctx, p, []*core.EvidenceRecord{second}, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		records, snapshot, err := store.ReadSilver(ctx, p)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, uint64(2), snapshot)
		assert.Equal(t, second.Id, records[0].Id)
	})

	t.Run("empty replacement clears partition", func(t *testing.T) {
		_, err := store.ReplaceSilver(ctx, p, nil, 3)
		require.NoError(t, err)

		records, snapshot, err := store.ReadSilver(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Equal(t, uint64(3), snapshot)
	})
}

func TestWithPartitionLock(t *testing.T) {
	store, scoreStore, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer func() {
		scoreStore.Close()
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	p := testPartition()

	t.Run("runs fn under lock", func(t *testing.T) {
		ran := false
		err := store.WithPartitionLock(ctx, p, func(ctx context.Context) error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("second holder conflicts", func(t *testing.T) {
		err := store.WithPartitionLock(ctx, p, func(ctx context.Context) error {
			return store.WithPartitionLock(ctx, p, func(ctx context.Context) error {
				t.Fatal("nested lock acquisition must not run")
				return nil
			})
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("lock released after fn returns", func(t *testing.T) {
		require.NoError(t, store.WithPartitionLock(ctx, p, func(ctx context.Context) error { return nil }))
		require.NoError(t, store.WithPartitionLock(ctx, p, func(ctx context.Context) error { return nil }))
	})

	t.Run("independent partitions do not contend", func(t *testing.T) {
		other := core.Partition{OrgId: "acme", FiscalYear: 2025, ThemeCode: "water"}
		err := store.WithPartitionLock(ctx, p, func(ctx context.Context) error {
			return store.WithPartitionLock(ctx, other, func(ctx context.Context) error { return nil })
		})
		require.NoError(t, err)
	})
}
