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
	"regexp"
	"strings"

	"github.com/poiesic/maturit/core"
)

// cueWindow bounds how far, in characters, a cue phrase may sit from
// the framework acronym. The window never crosses a sentence boundary.
const cueWindow = 80

// FrameworkDetector matches evidence extracts against framework boost
// rules. A rule fires only when a confirmatory cue phrase appears near
// the framework acronym; the acronym alone is never enough, and bare
// substring matching is deliberately not supported.
type FrameworkDetector struct {
	rules    []core.FrameworkRule
	patterns [][]*regexp.Regexp
}

// NewFrameworkDetector compiles the detection patterns for rules. Each
// rule yields one pattern per cue, matching the cue before or after a
// word-bounded, case-preserving occurrence of the acronym.
func NewFrameworkDetector(rules []core.FrameworkRule) (*FrameworkDetector, error) {
	detector := &FrameworkDetector{
		rules:    rules,
		patterns: make([][]*regexp.Regexp, len(rules)),
	}
	for i, rule := range rules {
		if rule.Acronym == "" || len(rule.Cues) == 0 {
			return nil, fmt.Errorf("%w: rule %q needs an acronym and at least one cue", core.ErrInvalidRubric, rule.Framework)
		}
		for _, cue := range rule.Cues {
			pattern, err := compileCuePattern(rule.Acronym, cue)
			if err != nil {
				return nil, fmt.Errorf("%w: rule %q cue %q: %v", core.ErrInvalidRubric, rule.Framework, cue, err)
			}
			detector.patterns[i] = append(detector.patterns[i], pattern)
		}
	}
	return detector, nil
}

func compileCuePattern(acronym, cue string) (*regexp.Regexp, error) {
	acr := `\b` + regexp.QuoteMeta(acronym) + `\b`
	// Cue phrases match case-insensitively; whitespace in the cue
	// tolerates line wrapping in the source extract.
	cuePart := `(?i:` + strings.ReplaceAll(regexp.QuoteMeta(strings.TrimSpace(cue)), " ", `\s+`) + `)`
	gap := `[^.;]{0,` + fmt.Sprint(cueWindow) + `}?`
	return regexp.Compile(acr + gap + cuePart + `|` + cuePart + gap + acr)
}

// Detect returns the distinct frameworks evidenced by text, in rule
// order. Multiple cues of one rule count once.
func (d *FrameworkDetector) Detect(text string) []string {
	var found []string
	for i, rule := range d.rules {
		for _, pattern := range d.patterns[i] {
			if pattern.MatchString(text) {
				found = append(found, rule.Framework)
				break
			}
		}
	}
	return found
}

// DetectAll scans every extract and merges the hits into one distinct,
// rule-ordered framework list.
func (d *FrameworkDetector) DetectAll(extracts []string) []string {
	hit := make(map[string]bool)
	for _, extract := range extracts {
		for _, framework := range d.Detect(extract) {
			hit[framework] = true
		}
	}
	var found []string
	for _, rule := range d.rules {
		if hit[rule.Framework] {
			found = append(found, rule.Framework)
		}
	}
	return found
}

// Rule returns the rule for a detected framework name.
func (d *FrameworkDetector) Rule(framework string) (core.FrameworkRule, bool) {
	for _, rule := range d.rules {
		if rule.Framework == framework {
			return rule, true
		}
	}
	return core.FrameworkRule{}, false
}
