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


package storage

import (
	"github.com/poiesic/maturit/core"
)

// MarshalRecord serializes an EvidenceRecord to bytes.
func MarshalRecord(record *core.EvidenceRecord) []byte {
	buf := make([]byte, core.EvidenceRecordMUS.Size(*record))
	core.EvidenceRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalRecord deserializes an EvidenceRecord from bytes.
func UnmarshalRecord(data []byte) (*core.EvidenceRecord, error) {
	record, _, err := core.EvidenceRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalScore serializes a Score to bytes.
func MarshalScore(score *core.Score) []byte {
	buf := make([]byte, core.ScoreMUS.Size(*score))
	core.ScoreMUS.Marshal(*score, buf)
	return buf
}

// UnmarshalScore deserializes a Score from bytes.
func UnmarshalScore(data []byte) (*core.Score, error) {
	score, _, err := core.ScoreMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &score, nil
}
