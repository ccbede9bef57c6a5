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


package rank

import "errors"

var (
	// ErrRelevanceScorerRequired is returned when a relevance scorer is not provided.
	ErrRelevanceScorerRequired = errors.New("relevance scorer required")

	// ErrInvalidAlpha is returned when the lexical weight is outside [0,1].
	ErrInvalidAlpha = errors.New("alpha must be in [0,1]")

	// ErrDuplicateDocID is returned when the candidate set contains the same
	// doc id more than once.
	ErrDuplicateDocID = errors.New("duplicate doc id in candidate set")
)
