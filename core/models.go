package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for evidence records.
// It is derived from record provenance via content-based hashing, so the same
// extract at the same location in the same snapshot always gets the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocID returns the ranking document identifier for this ID.
// Fixed-width hex so that lexicographic order equals numeric order, which the
// ranked-result tie-break chain relies on.
func (id ID) DocID() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ParseDocID converts a ranking document identifier back into an ID.
func ParseDocID(docID string) (ID, error) {
	v, err := strconv.ParseUint(docID, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDocID, docID)
	}
	return ID(v), nil
}

// HashContent returns the hex-encoded BLAKE2b-256 hash of an evidence extract.
// The content hash is the deduplication identity of a record: two records with
// the same hash are the same piece of evidence observed at different snapshots.
func HashContent(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Partition identifies an independent unit of storage and scoring.
// All pipeline stages operate on one partition at a time.
type Partition struct {
	OrgId      string
	FiscalYear int
	ThemeCode  string
}

// Key returns the canonical string form of the partition, used in storage keys
// and log fields.
func (p Partition) Key() string {
	return fmt.Sprintf("%s:%04d:%s", p.OrgId, p.FiscalYear, p.ThemeCode)
}

// EvidenceRecord is a quoted span extracted from a source document that
// supports a theme assessment. Bronze records are immutable once ingested;
// the normalizer derives Silver records with IsMostRecent and
// AdjustedConfidence populated.
type EvidenceRecord struct {
	Id          ID
	OrgId       string
	FiscalYear  int
	ThemeCode   string
	SourceDocId string
	PageNo      int
	SpanStart   int
	SpanEnd     int
	Extract     string
	ContentHash string
	Confidence  float64
	SnapshotId  uint64
	IngestedAt  time.Time

	// Populated by the normalizer on Silver records only.
	IsMostRecent       bool
	AdjustedConfidence float64
}

// Partition returns the partition this record belongs to.
func (r *EvidenceRecord) Partition() Partition {
	return Partition{OrgId: r.OrgId, FiscalYear: r.FiscalYear, ThemeCode: r.ThemeCode}
}

// Identity computes the content-derived record ID from provenance fields.
// Two ingestions of the same extract at the same location in the same
// snapshot yield the same ID; a later snapshot of the same extract gets a
// distinct ID.
func (r *EvidenceRecord) Identity() ID {
	key := fmt.Sprintf("%s|%d|%d|%d|%s|%d", r.SourceDocId, r.PageNo, r.SpanStart, r.SpanEnd, r.ContentHash, r.SnapshotId)
	return IDFromContent(key)
}

// StageDescriptor describes one ordinal maturity level of a theme rubric.
type StageDescriptor struct {
	Stage       int
	Description string
}

// FrameworkRule maps a standards framework to the score boost it grants when
// detected in evidence. Detection requires a confirmatory cue phrase within a
// bounded window of the framework acronym, never a bare substring match.
type FrameworkRule struct {
	Framework       string
	Acronym         string
	Cues            []string
	StageDelta      int
	ConfidenceDelta float64
}

// ThemeRubric defines how evidence for one theme converts into a stage score.
type ThemeRubric struct {
	ThemeCode        string
	Name             string
	Stages           []StageDescriptor
	MinEvidenceCount int
	BoostRules       []FrameworkRule
}

// MaxStage returns the highest stage defined by the rubric.
func (r *ThemeRubric) MaxStage() int {
	return len(r.Stages) - 1
}

// Reason values recorded on a Score.
const (
	// ReasonScored marks a score produced from sufficient, parity-checked evidence.
	ReasonScored = "scored"
	// ReasonInsufficientEvidence marks a null-stage score below the evidence minimum.
	ReasonInsufficientEvidence = "insufficient_evidence"
	// ReasonParityViolation marks a null-stage score whose evidence fell outside
	// the ranked top-k for the theme query.
	ReasonParityViolation = "parity_violation"
)

// Score is the auditable output of the rubric scorer for one partition.
// Stage is nil when the evidence-sufficiency or parity precondition failed;
// Reason distinguishes the two. Scores are append-only in storage.
type Score struct {
	OrgId        string
	FiscalYear   int
	ThemeCode    string
	Stage        *int
	Confidence   float64
	EvidenceIds  []ID
	Frameworks   []string
	BoostApplied bool
	Reason       string
	SnapshotId   uint64
	ScoredAt     time.Time
}

// Partition returns the partition this score belongs to.
func (s *Score) Partition() Partition {
	return Partition{OrgId: s.OrgId, FiscalYear: s.FiscalYear, ThemeCode: s.ThemeCode}
}

// RankedResult is one entry of a fused ranking. The total order over results
// is (FusedScore desc, LexicalScore desc, RelevanceScore desc, DocId asc),
// a strict deterministic tie-break chain.
type RankedResult struct {
	DocId          string
	LexicalScore   float64
	RelevanceScore float64
	FusedScore     float64
	Rank           int
}
