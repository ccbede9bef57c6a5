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


package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/pipeline"
)

type evidenceFile struct {
	Records []evidenceSpec `yaml:"records"`
}

type evidenceSpec struct {
	OrgId       string    `yaml:"org_id"`
	FiscalYear  int       `yaml:"fiscal_year"`
	ThemeCode   string    `yaml:"theme_code"`
	SourceDocId string    `yaml:"source_doc_id"`
	PageNo      int       `yaml:"page_no"`
	SpanStart   int       `yaml:"span_start"`
	SpanEnd     int       `yaml:"span_end"`
	Extract     string    `yaml:"extract"`
	Confidence  float64   `yaml:"confidence"`
	IngestedAt  time.Time `yaml:"ingested_at"`
}

func loadEvidenceFile(path string) ([]*core.EvidenceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evidence file: %w", err)
	}

	var file evidenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing evidence file: %w", err)
	}
	if len(file.Records) == 0 {
		return nil, fmt.Errorf("evidence file %s contains no records", path)
	}

	records := make([]*core.EvidenceRecord, len(file.Records))
	for i, spec := range file.Records {
		records[i] = &core.EvidenceRecord{
			OrgId:       spec.OrgId,
			FiscalYear:  spec.FiscalYear,
			ThemeCode:   spec.ThemeCode,
			SourceDocId: spec.SourceDocId,
			PageNo:      spec.PageNo,
			SpanStart:   spec.SpanStart,
			SpanEnd:     spec.SpanEnd,
			Extract:     spec.Extract,
			Confidence:  spec.Confidence,
			IngestedAt:  spec.IngestedAt,
		}
	}
	return records, nil
}

type batchFile struct {
	Requests []batchSpec `yaml:"requests"`
}

type batchSpec struct {
	OrgId      string `yaml:"org_id"`
	FiscalYear int    `yaml:"fiscal_year"`
	ThemeCode  string `yaml:"theme_code"`
	Query      string `yaml:"query"`
}

// loadBatchFile resolves each request's rubric by theme code; a
// request for a theme with no rubric is rejected up front rather than
// surfacing later as a partition error.
func loadBatchFile(path string, rubrics map[string]*core.ThemeRubric) ([]pipeline.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}

	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}
	if len(file.Requests) == 0 {
		return nil, fmt.Errorf("batch file %s contains no requests", path)
	}

	requests := make([]pipeline.Request, len(file.Requests))
	for i, spec := range file.Requests {
		themeRubric, ok := rubrics[spec.ThemeCode]
		if !ok {
			return nil, fmt.Errorf("no rubric defined for theme %q", spec.ThemeCode)
		}
		requests[i] = pipeline.Request{
			Partition: core.Partition{
				OrgId:      spec.OrgId,
				FiscalYear: spec.FiscalYear,
				ThemeCode:  spec.ThemeCode,
			},
			Query:  spec.Query,
			Rubric: themeRubric,
		}
	}
	return requests, nil
}
