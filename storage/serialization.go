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
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/folio/core"
)

var (
	stringSliceMUS = ord.NewSliceSer[string](ord.String)
	turnSliceMUS   = ord.NewSliceSer[core.Turn](core.TurnMUS)
	axiomSliceMUS  = ord.NewSliceSer[core.Axiom](core.AxiomMUS)
)

// SessionRecordMUS serializes session records for the Badger values.
var SessionRecordMUS mus.Serializer[SessionRecord] = sessionRecordMUS{}

type sessionRecordMUS struct{}

func (sessionRecordMUS) Marshal(v SessionRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += core.IDMUS.Marshal(v.DocumentID, bs[n:])
	n += ord.String.Marshal(v.DocumentName, bs[n:])
	n += core.LanguageMUS.Marshal(v.Language, bs[n:])
	n += turnSliceMUS.Marshal(v.History, bs[n:])
	n += stringSliceMUS.Marshal(v.Chunks, bs[n:])
	n += ord.String.Marshal(v.FullText, bs[n:])
	n += axiomSliceMUS.Marshal(v.Axioms, bs[n:])
	n += core.MetadataMUS.Marshal(v.Metadata, bs[n:])
	n += stringSliceMUS.Marshal(v.Snippets, bs[n:])
	n += core.TimeMUS.Marshal(v.CreatedAt, bs[n:])
	n += core.TimeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n + core.TimeMUS.Marshal(v.IngestedAt, bs[n:])
}

func (sessionRecordMUS) Unmarshal(bs []byte) (v SessionRecord, n int, err error) {
	if v.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	var n1 int
	v.DocumentID, n1, err = core.IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocumentName, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Language, n1, err = core.LanguageMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.History, n1, err = turnSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Chunks, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FullText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Axioms, n1, err = axiomSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = core.MetadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Snippets, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = core.TimeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = core.TimeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.IngestedAt, n1, err = core.TimeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (sessionRecordMUS) Size(v SessionRecord) int {
	return ord.String.Size(v.ID) +
		core.IDMUS.Size(v.DocumentID) +
		ord.String.Size(v.DocumentName) +
		core.LanguageMUS.Size(v.Language) +
		turnSliceMUS.Size(v.History) +
		stringSliceMUS.Size(v.Chunks) +
		ord.String.Size(v.FullText) +
		axiomSliceMUS.Size(v.Axioms) +
		core.MetadataMUS.Size(v.Metadata) +
		stringSliceMUS.Size(v.Snippets) +
		core.TimeMUS.Size(v.CreatedAt) +
		core.TimeMUS.Size(v.UpdatedAt) +
		core.TimeMUS.Size(v.IngestedAt)
}

func (sessionRecordMUS) Skip(bs []byte) (n int, err error) {
	skips := []func([]byte) (int, error){
		ord.String.Skip, core.IDMUS.Skip, ord.String.Skip, core.LanguageMUS.Skip,
		turnSliceMUS.Skip, stringSliceMUS.Skip, ord.String.Skip, axiomSliceMUS.Skip,
		core.MetadataMUS.Skip, stringSliceMUS.Skip,
		core.TimeMUS.Skip, core.TimeMUS.Skip, core.TimeMUS.Skip,
	}
	for _, skip := range skips {
		var n1 int
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// MarshalSessionRecord serializes a SessionRecord to bytes.
func MarshalSessionRecord(record *SessionRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", ErrSerializationFailed)
	}
	buf := make([]byte, SessionRecordMUS.Size(*record))
	SessionRecordMUS.Marshal(*record, buf)
	return buf, nil
}

// UnmarshalSessionRecord deserializes a SessionRecord from bytes.
// Trailing bytes are rejected.
func UnmarshalSessionRecord(data []byte) (*SessionRecord, error) {
	record, n, err := SessionRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &record, nil
}
