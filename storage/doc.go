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


// Package storage provides the storage abstraction layer for maturit.
//
// This package defines store interfaces that decouple persistence from the
// ranking, normalization, and scoring logic. Evidence lives in two logical
// layers per (org, fiscal year, theme) partition:
//
//   - Bronze: raw, append-only records tagged with an ingestion snapshot id
//   - Silver: the canonical view, fully replaced by each normalizer run
//
// Scores are kept in a separate append-only table keyed the same way; the
// latest entry defines the current view.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces rather
// than concrete types, so alternative backends can be swapped in without
// touching consumers and tests can substitute mocks freely.
//
// The package also carries RetryWithBackoff, the bounded retry helper for
// the store I/O boundary. Only store calls are retried; input errors fail
// fast.
package storage
