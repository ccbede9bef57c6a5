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
	"os"

	"github.com/goccy/go-yaml"
	"github.com/poiesic/maturit/core"
)

type rubricFile struct {
	Rubrics []rubricSpec `yaml:"rubrics"`
}

type rubricSpec struct {
	ThemeCode        string      `yaml:"theme_code"`
	Name             string      `yaml:"name"`
	MinEvidenceCount int         `yaml:"min_evidence_count"`
	Stages           []stageSpec `yaml:"stages"`
	BoostRules       []ruleSpec  `yaml:"boost_rules"`
}

type stageSpec struct {
	Stage       int    `yaml:"stage"`
	Description string `yaml:"description"`
}

type ruleSpec struct {
	Framework       string   `yaml:"framework"`
	Acronym         string   `yaml:"acronym"`
	Cues            []string `yaml:"cues"`
	StageDelta      int      `yaml:"stage_delta"`
	ConfidenceDelta float64  `yaml:"confidence_delta"`
}

// LoadRubrics reads a YAML rubric file and returns the validated
// rubrics keyed by theme code.
func LoadRubrics(path string) (map[string]*core.ThemeRubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rubric file: %w", err)
	}
	return ParseRubrics(data)
}

// ParseRubrics parses and validates YAML rubric definitions.
func ParseRubrics(data []byte) (map[string]*core.ThemeRubric, error) {
	var file rubricFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRubric, err)
	}
	if len(file.Rubrics) == 0 {
		return nil, fmt.Errorf("%w: no rubrics defined", core.ErrInvalidRubric)
	}

	rubrics := make(map[string]*core.ThemeRubric, len(file.Rubrics))
	for _, spec := range file.Rubrics {
		rubric := spec.toRubric()
		if err := core.ValidateRubric(rubric); err != nil {
			return nil, fmt.Errorf("rubric %q: %w", spec.ThemeCode, err)
		}
		if _, exists := rubrics[rubric.ThemeCode]; exists {
			return nil, fmt.Errorf("%w: duplicate theme code %q", core.ErrInvalidRubric, rubric.ThemeCode)
		}
		rubrics[rubric.ThemeCode] = rubric
	}
	return rubrics, nil
}

func (s rubricSpec) toRubric() *core.ThemeRubric {
	rubric := &core.ThemeRubric{
		ThemeCode:        s.ThemeCode,
		Name:             s.Name,
		MinEvidenceCount: s.MinEvidenceCount,
	}
	for _, stage := range s.Stages {
		rubric.Stages = append(rubric.Stages, core.StageDescriptor{
			Stage:       stage.Stage,
			Description: stage.Description,
		})
	}
	for _, rule := range s.BoostRules {
		rubric.BoostRules = append(rubric.BoostRules, core.FrameworkRule{
			Framework:       rule.Framework,
			Acronym:         rule.Acronym,
			Cues:            rule.Cues,
			StageDelta:      rule.StageDelta,
			ConfidenceDelta: rule.ConfidenceDelta,
		})
	}
	return rubric
}
