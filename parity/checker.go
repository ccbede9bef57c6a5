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

package parity

import (
	"sort"

	"github.com/poiesic/maturit/core"
)

// Result is the outcome of a parity check. Violations lists the doc
// ids cited by a score that the ranking did not surface, sorted
// ascending so results are stable across runs.
type Result struct {
	Pass       bool
	Violations []string
}

// Check verifies that every cited doc id appears in the ranked
// results. An empty citation list trivially passes.
func Check(docIds []string, ranked []core.RankedResult) Result {
	inRanking := make(map[string]bool, len(ranked))
	for _, result := range ranked {
		inRanking[result.DocId] = true
	}

	var violations []string
	seen := make(map[string]bool, len(docIds))
	for _, id := range docIds {
		if !inRanking[id] && !seen[id] {
			violations = append(violations, id)
			seen[id] = true
		}
	}
	sort.Strings(violations)

	return Result{Pass: len(violations) == 0, Violations: violations}
}

// Audit re-validates a persisted score against a re-run ranking. It is
// the post-hoc counterpart of the scorer's internal precondition gate:
// a score that passed at scoring time can fail here if the ranking has
// since drifted.
func Audit(score *core.Score, ranked []core.RankedResult) Result {
	docIds := make([]string, len(score.EvidenceIds))
	for i, id := range score.EvidenceIds {
		docIds[i] = id.DocID()
	}
	return Check(docIds, ranked)
}
