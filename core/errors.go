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

import "errors"

// Domain validation errors. These are input errors: callers fail fast on
// them, they are never retried.
var (
	// ErrInvalidRecord indicates an EvidenceRecord failed validation.
	ErrInvalidRecord = errors.New("invalid evidence record")

	// ErrInvalidRubric indicates a ThemeRubric failed validation.
	ErrInvalidRubric = errors.New("invalid theme rubric")

	// ErrInvalidPartition indicates a partition key with missing components.
	ErrInvalidPartition = errors.New("invalid partition")

	// ErrInvalidQuery indicates an unusable theme query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidDocID indicates a ranking document identifier that is not
	// the fixed-width hex form produced by ID.DocID.
	ErrInvalidDocID = errors.New("invalid doc id")

	// ErrEmptyExtract indicates the Extract field is empty.
	ErrEmptyExtract = errors.New("extract cannot be empty")

	// ErrExtractTooLong indicates the Extract exceeds the word bound.
	ErrExtractTooLong = errors.New("extract exceeds word limit")

	// ErrConfidenceOutOfRange indicates a confidence outside [0,1].
	ErrConfidenceOutOfRange = errors.New("confidence must be in [0,1]")

	// ErrUnknownTheme indicates a rubric whose theme code does not match the
	// partition being scored.
	ErrUnknownTheme = errors.New("unknown theme code")
)
