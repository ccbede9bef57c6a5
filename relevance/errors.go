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


package relevance

import "errors"

var (
	// ErrUnknownVariant is returned when a config names a scorer variant that
	// does not exist.
	ErrUnknownVariant = errors.New("unknown relevance scorer variant")

	// ErrEmbeddingHostRequired is returned when the embedding variant is
	// configured without a service host.
	ErrEmbeddingHostRequired = errors.New("embedding host required")

	// ErrEmbeddingModelRequired is returned when the embedding variant is
	// configured without a model.
	ErrEmbeddingModelRequired = errors.New("embedding model required")

	// ErrEmptyEmbedding is returned when the embedding service yields an
	// unusable vector.
	ErrEmptyEmbedding = errors.New("empty embedding")
)
