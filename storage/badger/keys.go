package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/maturit/core"
)

// Key prefixes for different data types
const (
	bronzePrefix     = "brz"
	bronzeMetaPrefix = "brzmeta"
	silverPrefix     = "slv"
	silverMetaPrefix = "slvmeta"
	scorePrefix      = "sco"
	scoreIDSeq       = "scoseq"
	lockPrefix       = "plk"
)

// makeBronzeKey generates a key for a Bronze record.
// Format: prefix:partition:contentHash:snapshot:id — zero-padded numeric
// components so lexicographic iteration order matches numeric order.
func makeBronzeKey(r *core.EvidenceRecord) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:%020d:%016x",
		bronzePrefix, r.Partition().Key(), r.ContentHash, r.SnapshotId, uint64(r.Id)))
}

// makeBronzePartitionPrefix generates the iteration prefix for a partition's
// Bronze records.
func makeBronzePartitionPrefix(p core.Partition) []byte {
	return []byte(fmt.Sprintf("%s:%s:", bronzePrefix, p.Key()))
}

// makeBronzeMetaKey generates the key holding a partition's highest Bronze
// snapshot id.
func makeBronzeMetaKey(p core.Partition) []byte {
	return []byte(fmt.Sprintf("%s:%s", bronzeMetaPrefix, p.Key()))
}

// makeSilverKey generates a key for a Silver record at a position.
// Positions preserve the normalizer's output order across reads.
func makeSilverKey(p core.Partition, position int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%08d", silverPrefix, p.Key(), position))
}

// makeSilverPartitionPrefix generates the iteration prefix for a partition's
// Silver records.
func makeSilverPartitionPrefix(p core.Partition) []byte {
	return []byte(fmt.Sprintf("%s:%s:", silverPrefix, p.Key()))
}

// makeSilverMetaKey generates the key holding a partition's Silver snapshot id.
func makeSilverMetaKey(p core.Partition) []byte {
	return []byte(fmt.Sprintf("%s:%s", silverMetaPrefix, p.Key()))
}

// makeScoreKey generates a key for a score history entry.
func makeScoreKey(p core.Partition, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s:%s:%020d", scorePrefix, p.Key(), seq))
}

// makeScorePartitionPrefix generates the iteration prefix for a partition's
// score history.
func makeScorePartitionPrefix(p core.Partition) []byte {
	return []byte(fmt.Sprintf("%s:%s:", scorePrefix, p.Key()))
}

// makeLockKey generates the advisory lock key for a partition.
func makeLockKey(p core.Partition) []byte {
	return []byte(fmt.Sprintf("%s:%s", lockPrefix, p.Key()))
}

// encodeUint64 encodes a uint64 meta value in BigEndian order.
func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// decodeUint64 decodes a BigEndian uint64 meta value.
func decodeUint64(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}
