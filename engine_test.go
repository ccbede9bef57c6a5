package maturit

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/pipeline"
	"github.com/poiesic/maturit/rank"
	"github.com/poiesic/maturit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) Engine {
	t.Helper()
	engine, err := New(append([]Option{WithInMemory()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func enginePartition(theme string) core.Partition {
	return core.Partition{OrgId: "acme", FiscalYear: 2025, ThemeCode: theme}
}

func evidenceFor(theme, docId, extract string) *core.EvidenceRecord {
	return &core.EvidenceRecord{
		OrgId:       "acme",
		FiscalYear:  2025,
		ThemeCode:   theme,
		SourceDocId: docId,
		PageNo:      1,
		SpanStart:   0,
		SpanEnd:     len(extract),
		Extract:     extract,
		Confidence:  0.8,
		IngestedAt:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func engineRubric(minEvidence int) *core.ThemeRubric {
	return &core.ThemeRubric{
		ThemeCode: "climate",
		Name:      "Climate maturity",
		Stages: []core.StageDescriptor{
			{Stage: 0, Description: "no activity"},
			{Stage: 1, Description: "awareness"},
			{Stage: 2, Description: "evidence present"},
			{Stage: 3, Description: "framework aligned"},
		},
		MinEvidenceCount: minEvidence,
		BoostRules: []core.FrameworkRule{{
			Framework:  "SBTi",
			Acronym:    "SBTi",
			Cues:       []string{"targets validated", "science-based targets"},
			StageDelta: 1,
		}},
	}
}

func TestEngine_EndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	partition := enginePartition("climate")

	records := []*core.EvidenceRecord{
		evidenceFor("climate", "report-2025", "emission reduction targets validated by SBTi in the reporting period"),
		evidenceFor("climate", "report-2025", "renewable electricity reached forty percent of total consumption"),
	}
	count, err := engine.Ingest(ctx, records, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	result, err := engine.Normalize(ctx, partition)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, uint64(1), result.SnapshotId)

	score, err := engine.Score(ctx, partition, "climate targets emission", engineRubric(2))
	require.NoError(t, err)
	require.NotNil(t, score.Stage)
	assert.Equal(t, 3, *score.Stage)
	assert.Equal(t, []string{"SBTi"}, score.Frameworks)
	assert.Equal(t, core.ReasonScored, score.Reason)
	assert.Len(t, score.EvidenceIds, 2)

	latest, err := engine.LatestScore(ctx, partition)
	require.NoError(t, err)
	assert.Equal(t, score.SnapshotId, latest.SnapshotId)

	audit, err := engine.Audit(ctx, partition, "climate targets emission")
	require.NoError(t, err)
	assert.True(t, audit.Pass)
}

func TestEngine_ScoreWithoutEvidence(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	partition := enginePartition("climate")

	score, err := engine.Score(ctx, partition, "climate targets", engineRubric(2))
	require.NoError(t, err)
	assert.Nil(t, score.Stage)
	assert.Equal(t, core.ReasonInsufficientEvidence, score.Reason)

	history, err := engine.ScoreHistory(ctx, partition)
	require.NoError(t, err)
	assert.Len(t, history, 1, "withheld scores are persisted too")
}

func TestEngine_IngestRejectsInvalidRecords(t *testing.T) {
	engine := newTestEngine(t)

	bad := evidenceFor("climate", "report-2025", "")
	_, err := engine.Ingest(context.Background(), []*core.EvidenceRecord{bad}, 1)
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
}

func TestEngine_Rank(t *testing.T) {
	engine := newTestEngine(t)

	candidates := []rank.Candidate{
		{DocId: "000000000000000a", Text: "climate transition plan approved"},
		{DocId: "000000000000000b", Text: "unrelated payroll process note"},
	}
	ranked, excluded, err := engine.Rank(context.Background(), "climate transition", candidates)
	require.NoError(t, err)
	assert.Empty(t, excluded)
	require.Len(t, ranked, 2)
	assert.Equal(t, "000000000000000a", ranked[0].DocId)

	_, _, err = engine.RankAlpha(context.Background(), "climate", candidates, 1.5)
	assert.ErrorIs(t, err, rank.ErrInvalidAlpha)
}

func TestEngine_RunBatch(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	records := []*core.EvidenceRecord{
		evidenceFor("climate", "report-2025", "science-based targets validated by SBTi this year"),
		evidenceFor("climate", "report-2025", "fleet electrification program launched across three regions"),
	}
	_, err := engine.Ingest(ctx, records, 1)
	require.NoError(t, err)

	requests := []pipeline.Request{
		{Partition: enginePartition("climate"), Query: "climate targets", Rubric: engineRubric(2)},
		{Partition: enginePartition("water"), Query: "water stewardship", Rubric: waterRubric()},
	}
	manifest, outcomes, err := engine.RunBatch(ctx, requests)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, pipeline.StatusScored, outcomes[0].Status)
	assert.Equal(t, pipeline.StatusNoScore, outcomes[1].Status, "empty partition yields a withheld score")
	assert.Equal(t, 1, manifest.Scored)
	assert.Equal(t, 1, manifest.NoScore)
	assert.Zero(t, manifest.Failed)
}

func waterRubric() *core.ThemeRubric {
	return &core.ThemeRubric{
		ThemeCode:        "water",
		Name:             "Water stewardship",
		MinEvidenceCount: 1,
		Stages: []core.StageDescriptor{
			{Stage: 0, Description: "no activity"},
			{Stage: 1, Description: "monitored"},
			{Stage: 2, Description: "managed"},
		},
	}
}

func TestEngine_AuditDetectsDrift(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	partition := enginePartition("climate")

	records := []*core.EvidenceRecord{
		evidenceFor("climate", "report-2025", "emission targets validated by SBTi"),
		evidenceFor("climate", "report-2025", "board reviews climate risk quarterly"),
	}
	_, err := engine.Ingest(ctx, records, 1)
	require.NoError(t, err)
	_, err = engine.Normalize(ctx, partition)
	require.NoError(t, err)
	_, err = engine.Score(ctx, partition, "climate targets", engineRubric(2))
	require.NoError(t, err)

	audit, err := engine.Audit(ctx, partition, "climate targets")
	require.NoError(t, err)
	assert.True(t, audit.Pass)

	// A newer snapshot of the same fact supersedes the cited copy;
	// after renormalization the old evidence id drops out of the
	// most-recent ranking.
	replacement := evidenceFor("climate", "report-2025", "emission targets validated by SBTi")
	_, err = engine.Ingest(ctx, []*core.EvidenceRecord{replacement}, 2)
	require.NoError(t, err)
	_, err = engine.Normalize(ctx, partition)
	require.NoError(t, err)

	audit, err = engine.Audit(ctx, partition, "climate targets")
	require.NoError(t, err)
	assert.False(t, audit.Pass)
	assert.Len(t, audit.Violations, 1)
}

func TestEngine_AuditWithoutScore(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Audit(context.Background(), enginePartition("climate"), "climate")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNew_Validation(t *testing.T) {
	_, err := New()
	assert.Error(t, err, "a file path or in-memory mode is required")

	_, err = New(WithInMemory(), WithTopK(0))
	assert.Error(t, err)

	_, err = New(WithInMemory(), WithAlpha(2))
	assert.ErrorIs(t, err, rank.ErrInvalidAlpha)
}
