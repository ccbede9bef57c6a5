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


package core

import (
	"fmt"
	"strings"
)

// MaxExtractWords bounds the length of an evidence extract.
const MaxExtractWords = 30

// ValidateRecord validates an EvidenceRecord according to domain rules.
//
// Validation rules:
//   - Partition components (OrgId, FiscalYear, ThemeCode) must be set
//   - Extract must be non-empty and at most MaxExtractWords words
//   - ContentHash must match the extract content
//   - Confidence must be in [0,1]
//   - Span must be well-formed (SpanEnd > SpanStart >= 0)
//
// NOT validated (populated by the normalizer):
//   - IsMostRecent, AdjustedConfidence
func ValidateRecord(record *EvidenceRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if err := ValidatePartition(record.Partition()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if record.Extract == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyExtract)
	}
	if n := len(strings.Fields(record.Extract)); n > MaxExtractWords {
		return fmt.Errorf("%w: %w: %d words", ErrInvalidRecord, ErrExtractTooLong, n)
	}

	if record.ContentHash != HashContent(record.Extract) {
		return fmt.Errorf("%w: content hash does not match extract", ErrInvalidRecord)
	}

	if record.Confidence < 0 || record.Confidence > 1 {
		return fmt.Errorf("%w: %w: %v", ErrInvalidRecord, ErrConfidenceOutOfRange, record.Confidence)
	}

	if record.SpanStart < 0 || record.SpanEnd <= record.SpanStart {
		return fmt.Errorf("%w: span [%d,%d) is not well-formed", ErrInvalidRecord, record.SpanStart, record.SpanEnd)
	}

	if record.SourceDocId == "" {
		return fmt.Errorf("%w: source doc id is required", ErrInvalidRecord)
	}

	return nil
}

// ValidatePartition validates that a partition key is complete.
func ValidatePartition(p Partition) error {
	if p.OrgId == "" {
		return fmt.Errorf("%w: org id is required", ErrInvalidPartition)
	}
	if p.FiscalYear <= 0 {
		return fmt.Errorf("%w: fiscal year %d", ErrInvalidPartition, p.FiscalYear)
	}
	if p.ThemeCode == "" {
		return fmt.Errorf("%w: theme code is required", ErrInvalidPartition)
	}
	return nil
}

// ValidateRubric validates a ThemeRubric according to domain rules.
//
// Validation rules:
//   - ThemeCode must be set
//   - Stages must be non-empty and numbered contiguously from 0
//   - MinEvidenceCount must be at least 1
//   - Every boost rule needs a framework name, an acronym, and at least one cue
func ValidateRubric(rubric *ThemeRubric) error {
	if rubric == nil {
		return fmt.Errorf("%w: rubric is nil", ErrInvalidRubric)
	}

	if rubric.ThemeCode == "" {
		return fmt.Errorf("%w: theme code is required", ErrInvalidRubric)
	}

	if len(rubric.Stages) == 0 {
		return fmt.Errorf("%w: at least one stage is required", ErrInvalidRubric)
	}
	for i, stage := range rubric.Stages {
		if stage.Stage != i {
			return fmt.Errorf("%w: stages must be contiguous from 0, got %d at position %d", ErrInvalidRubric, stage.Stage, i)
		}
	}

	if rubric.MinEvidenceCount < 1 {
		return fmt.Errorf("%w: min evidence count must be >= 1, got %d", ErrInvalidRubric, rubric.MinEvidenceCount)
	}

	for _, rule := range rubric.BoostRules {
		if rule.Framework == "" {
			return fmt.Errorf("%w: boost rule framework name is required", ErrInvalidRubric)
		}
		if rule.Acronym == "" {
			return fmt.Errorf("%w: boost rule for %q has no acronym", ErrInvalidRubric, rule.Framework)
		}
		if len(rule.Cues) == 0 {
			return fmt.Errorf("%w: boost rule for %q has no cue phrases", ErrInvalidRubric, rule.Framework)
		}
	}

	return nil
}

// ValidateQuery validates a theme query string.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", ErrInvalidQuery)
	}
	return nil
}
