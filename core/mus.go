package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the storage wire format.
// Field order is the wire contract: append new fields at the end only.
// Timestamps are encoded as Unix microseconds.

type idMUS struct{}

// IDMUS serializes ID values.
var IDMUS = idMUS{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type evidenceRecordMUS struct{}

// EvidenceRecordMUS serializes EvidenceRecord values.
var EvidenceRecordMUS = evidenceRecordMUS{}

func (evidenceRecordMUS) Marshal(r EvidenceRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(r.Id), bs)
	n += ord.String.Marshal(r.OrgId, bs[n:])
	n += varint.Int.Marshal(r.FiscalYear, bs[n:])
	n += ord.String.Marshal(r.ThemeCode, bs[n:])
	n += ord.String.Marshal(r.SourceDocId, bs[n:])
	n += varint.Int.Marshal(r.PageNo, bs[n:])
	n += varint.Int.Marshal(r.SpanStart, bs[n:])
	n += varint.Int.Marshal(r.SpanEnd, bs[n:])
	n += ord.String.Marshal(r.Extract, bs[n:])
	n += ord.String.Marshal(r.ContentHash, bs[n:])
	n += raw.Float64.Marshal(r.Confidence, bs[n:])
	n += varint.Uint64.Marshal(r.SnapshotId, bs[n:])
	n += varint.Int64.Marshal(r.IngestedAt.UnixMicro(), bs[n:])
	n += ord.Bool.Marshal(r.IsMostRecent, bs[n:])
	n += raw.Float64.Marshal(r.AdjustedConfidence, bs[n:])
	return n
}

func (evidenceRecordMUS) Unmarshal(bs []byte) (r EvidenceRecord, n int, err error) {
	var (
		m  int
		id uint64
		ts int64
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	r.Id = ID(id)
	if r.OrgId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.FiscalYear, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.ThemeCode, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.SourceDocId, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.PageNo, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.SpanStart, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.SpanEnd, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Extract, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.ContentHash, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Confidence, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.SnapshotId, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	r.IngestedAt = time.UnixMicro(ts).UTC()
	if r.IsMostRecent, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.AdjustedConfidence, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

func (evidenceRecordMUS) Size(r EvidenceRecord) (size int) {
	size = varint.Uint64.Size(uint64(r.Id))
	size += ord.String.Size(r.OrgId)
	size += varint.Int.Size(r.FiscalYear)
	size += ord.String.Size(r.ThemeCode)
	size += ord.String.Size(r.SourceDocId)
	size += varint.Int.Size(r.PageNo)
	size += varint.Int.Size(r.SpanStart)
	size += varint.Int.Size(r.SpanEnd)
	size += ord.String.Size(r.Extract)
	size += ord.String.Size(r.ContentHash)
	size += raw.Float64.Size(r.Confidence)
	size += varint.Uint64.Size(r.SnapshotId)
	size += varint.Int64.Size(r.IngestedAt.UnixMicro())
	size += ord.Bool.Size(r.IsMostRecent)
	size += raw.Float64.Size(r.AdjustedConfidence)
	return size
}

type scoreMUS struct{}

// ScoreMUS serializes Score values.
var ScoreMUS = scoreMUS{}

func (scoreMUS) Marshal(s Score, bs []byte) (n int) {
	n = ord.String.Marshal(s.OrgId, bs)
	n += varint.Int.Marshal(s.FiscalYear, bs[n:])
	n += ord.String.Marshal(s.ThemeCode, bs[n:])
	n += ord.Bool.Marshal(s.Stage != nil, bs[n:])
	if s.Stage != nil {
		n += varint.Int.Marshal(*s.Stage, bs[n:])
	}
	n += raw.Float64.Marshal(s.Confidence, bs[n:])
	n += varint.Int.Marshal(len(s.EvidenceIds), bs[n:])
	for _, id := range s.EvidenceIds {
		n += varint.Uint64.Marshal(uint64(id), bs[n:])
	}
	n += varint.Int.Marshal(len(s.Frameworks), bs[n:])
	for _, f := range s.Frameworks {
		n += ord.String.Marshal(f, bs[n:])
	}
	n += ord.Bool.Marshal(s.BoostApplied, bs[n:])
	n += ord.String.Marshal(s.Reason, bs[n:])
	n += varint.Uint64.Marshal(s.SnapshotId, bs[n:])
	n += varint.Int64.Marshal(s.ScoredAt.UnixMicro(), bs[n:])
	return n
}

func (scoreMUS) Unmarshal(bs []byte) (s Score, n int, err error) {
	var (
		m        int
		hasStage bool
		count    int
		ts       int64
	)
	if s.OrgId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if s.FiscalYear, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if s.ThemeCode, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if hasStage, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if hasStage {
		var stage int
		if stage, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
		s.Stage = &stage
	}
	if s.Confidence, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if count, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if count > 0 {
		s.EvidenceIds = make([]ID, count)
		for i := 0; i < count; i++ {
			var id uint64
			if id, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += m
			s.EvidenceIds[i] = ID(id)
		}
	}
	if count, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if count > 0 {
		s.Frameworks = make([]string, count)
		for i := 0; i < count; i++ {
			if s.Frameworks[i], m, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += m
		}
	}
	if s.BoostApplied, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if s.Reason, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if s.SnapshotId, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	s.ScoredAt = time.UnixMicro(ts).UTC()
	return
}

func (scoreMUS) Size(s Score) (size int) {
	size = ord.String.Size(s.OrgId)
	size += varint.Int.Size(s.FiscalYear)
	size += ord.String.Size(s.ThemeCode)
	size += ord.Bool.Size(s.Stage != nil)
	if s.Stage != nil {
		size += varint.Int.Size(*s.Stage)
	}
	size += raw.Float64.Size(s.Confidence)
	size += varint.Int.Size(len(s.EvidenceIds))
	for _, id := range s.EvidenceIds {
		size += varint.Uint64.Size(uint64(id))
	}
	size += varint.Int.Size(len(s.Frameworks))
	for _, f := range s.Frameworks {
		size += ord.String.Size(f)
	}
	size += ord.Bool.Size(s.BoostApplied)
	size += ord.String.Size(s.Reason)
	size += varint.Uint64.Size(s.SnapshotId)
	size += varint.Int64.Size(s.ScoredAt.UnixMicro())
	return size
}
