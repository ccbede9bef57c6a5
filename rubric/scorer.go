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

package rubric

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/maturit/core"
)

const (
	// BaselineStage is granted once the evidence preconditions hold,
	// before any framework boost.
	BaselineStage = 2
	// BaseConfidence anchors the confidence of every scored result.
	BaseConfidence = 0.70
	// FrameworkConfidenceStep is added per distinct detected framework.
	FrameworkConfidenceStep = 0.05
	// MaxConfidence caps the final confidence.
	MaxConfidence = 0.95
)

// Scorer converts a partition's canonical evidence into a maturity
// Score. Scoring is gated by two preconditions evaluated before any
// rubric work: the partition must hold at least MinEvidenceCount
// most-recent records, and the records used must all appear in the
// ranked top-k for the theme query. A failed precondition is a valid
// terminal Score with a nil stage, not an error; errors are reserved
// for malformed rubrics and theme mismatches.
type Scorer struct {
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Scorer) error

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) error {
		s.logger = logger
		return nil
	}
}

// WithClock fixes the timestamp source. Tests use it to pin ScoredAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) error {
		s.now = now
		return nil
	}
}

func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Score scores one partition. evidence is the partition's Silver view;
// only most-recent records participate. ranked is the fused top-k for
// the theme query; snapshot is the Silver snapshot the evidence came
// from and is stamped onto the Score for audit.
func (s *Scorer) Score(partition core.Partition, rubric *core.ThemeRubric, evidence []*core.EvidenceRecord, ranked []core.RankedResult, snapshot uint64) (*core.Score, error) {
	if err := core.ValidatePartition(partition); err != nil {
		return nil, err
	}
	if err := core.ValidateRubric(rubric); err != nil {
		return nil, err
	}
	if rubric.ThemeCode != partition.ThemeCode {
		return nil, fmt.Errorf("%w: rubric is for %q, partition is %q", core.ErrUnknownTheme, rubric.ThemeCode, partition.ThemeCode)
	}

	detector, err := NewFrameworkDetector(rubric.BoostRules)
	if err != nil {
		return nil, err
	}

	score := &core.Score{
		OrgId:      partition.OrgId,
		FiscalYear: partition.FiscalYear,
		ThemeCode:  partition.ThemeCode,
		SnapshotId: snapshot,
		ScoredAt:   s.now().UTC(),
	}

	canonical := mostRecent(evidence)
	if len(canonical) < rubric.MinEvidenceCount {
		score.Reason = core.ReasonInsufficientEvidence
		s.logger.Info("score withheld",
			"partition", partition.Key(),
			"reason", score.Reason,
			"evidence_count", len(canonical),
			"min_evidence_count", rubric.MinEvidenceCount)
		return score, nil
	}

	// Parity gate: evidence may only be cited if the ranking surfaced
	// it. Records outside the top-k are dropped up front; if too few
	// survive, the outcome is a parity violation rather than a score.
	inTopK := make(map[string]bool, len(ranked))
	for _, result := range ranked {
		inTopK[result.DocId] = true
	}
	var selected []*core.EvidenceRecord
	for _, record := range canonical {
		if inTopK[record.Id.DocID()] {
			selected = append(selected, record)
		}
	}
	if len(selected) < rubric.MinEvidenceCount {
		score.Reason = core.ReasonParityViolation
		s.logger.Info("score withheld",
			"partition", partition.Key(),
			"reason", score.Reason,
			"evidence_count", len(canonical),
			"ranked_count", len(selected))
		return score, nil
	}

	extracts := make([]string, len(selected))
	ids := make([]core.ID, len(selected))
	for i, record := range selected {
		extracts[i] = record.Extract
		ids[i] = record.Id
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	frameworks := detector.DetectAll(extracts)

	stage := BaselineStage
	confidence := BaseConfidence
	for _, framework := range frameworks {
		rule, _ := detector.Rule(framework)
		stage += rule.StageDelta
		confidence += FrameworkConfidenceStep + rule.ConfidenceDelta
	}
	if stage > rubric.MaxStage() {
		stage = rubric.MaxStage()
	}
	if confidence > MaxConfidence {
		confidence = MaxConfidence
	}

	score.Stage = &stage
	score.Confidence = confidence
	score.EvidenceIds = ids
	score.Frameworks = frameworks
	score.BoostApplied = len(frameworks) > 0
	score.Reason = core.ReasonScored

	s.logger.Info("partition scored",
		"partition", partition.Key(),
		"stage", stage,
		"confidence", confidence,
		"frameworks", frameworks,
		"evidence_count", len(ids))

	return score, nil
}

func mostRecent(evidence []*core.EvidenceRecord) []*core.EvidenceRecord {
	var out []*core.EvidenceRecord
	for _, record := range evidence {
		if record.IsMostRecent {
			out = append(out, record)
		}
	}
	return out
}
