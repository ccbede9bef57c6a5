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


// Package rank provides deterministic multi-signal ranking of evidence
// candidates.
//
// The Ranker type fuses two signals:
//   - Lexical scoring with saturating term frequency and length normalization
//   - Pairwise relevance from a pluggable relevance.Scorer
//
// Candidates with invalid scorer output are excluded and reported back to the
// caller. The sorted output follows a strict tie-break chain so ranking is
// reproducible across runs and across concurrent invocations.
package rank
