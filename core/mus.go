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

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored model types. Fields are written in
// declaration order; adding a field changes the wire format.
var (
	IDMUS       mus.Serializer[ID]        = idMUS{}
	TimeMUS     mus.Serializer[time.Time] = timeMUS{}
	TurnMUS     mus.Serializer[Turn]      = turnMUS{}
	AxiomMUS    mus.Serializer[Axiom]     = axiomMUS{}
	MetadataMUS mus.Serializer[Metadata]  = metadataMUS{}
)

// stringMUS adapts ord.String to the named string types.
type stringMUS[T ~string] struct{}

func (stringMUS[T]) Marshal(v T, bs []byte) int { return ord.String.Marshal(string(v), bs) }

func (stringMUS[T]) Unmarshal(bs []byte) (T, int, error) {
	s, n, err := ord.String.Unmarshal(bs)
	return T(s), n, err
}

func (stringMUS[T]) Size(v T) int                { return ord.String.Size(string(v)) }
func (stringMUS[T]) Skip(bs []byte) (int, error) { return ord.String.Skip(bs) }

var (
	roleMUS     = stringMUS[Role]{}
	statusMUS   = stringMUS[TurnStatus]{}
	LanguageMUS = stringMUS[Language]{}
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int { return varint.Uint64.Marshal(uint64(v), bs) }

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int               { return varint.Uint64.Size(uint64(v)) }
func (idMUS) Skip(bs []byte) (int, error) { return varint.Uint64.Skip(bs) }

// timeMUS stores microseconds since the epoch in UTC behind a presence flag,
// so the zero time survives a round trip.
type timeMUS struct{}

func (timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	if v.IsZero() {
		return ord.Bool.Marshal(false, bs)
	}
	n = ord.Bool.Marshal(true, bs)
	return n + varint.Int64.Marshal(v.UnixMicro(), bs[n:])
}

func (timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	us, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func (timeMUS) Size(v time.Time) int {
	if v.IsZero() {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + varint.Int64.Size(v.UnixMicro())
}

func (timeMUS) Skip(bs []byte) (n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	n1, err := varint.Int64.Skip(bs[n:])
	return n + n1, err
}

type turnMUS struct{}

func (turnMUS) Marshal(v Turn, bs []byte) (n int) {
	n = roleMUS.Marshal(v.Role, bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	n += statusMUS.Marshal(v.Status, bs[n:])
	return n + TimeMUS.Marshal(v.At, bs[n:])
}

func (turnMUS) Unmarshal(bs []byte) (v Turn, n int, err error) {
	var n1 int
	if v.Role, n, err = roleMUS.Unmarshal(bs); err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status, n1, err = statusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.At, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (turnMUS) Size(v Turn) int {
	return roleMUS.Size(v.Role) + ord.String.Size(v.Content) +
		statusMUS.Size(v.Status) + TimeMUS.Size(v.At)
}

func (turnMUS) Skip(bs []byte) (int, error) {
	return skipAll(bs, roleMUS.Skip, ord.String.Skip, statusMUS.Skip, TimeMUS.Skip)
}

type axiomMUS struct{}

func (axiomMUS) Marshal(v Axiom, bs []byte) (n int) {
	n = ord.String.Marshal(v.Term, bs)
	n += ord.String.Marshal(v.Definition, bs[n:])
	return n + ord.String.Marshal(v.Significance, bs[n:])
}

func (axiomMUS) Unmarshal(bs []byte) (v Axiom, n int, err error) {
	fields := []*string{&v.Term, &v.Definition, &v.Significance}
	n, err = unmarshalStrings(bs, fields)
	return
}

func (axiomMUS) Size(v Axiom) int {
	return ord.String.Size(v.Term) + ord.String.Size(v.Definition) + ord.String.Size(v.Significance)
}

func (axiomMUS) Skip(bs []byte) (int, error) {
	return skipAll(bs, ord.String.Skip, ord.String.Skip, ord.String.Skip)
}

type metadataMUS struct{}

func (metadataMUS) Marshal(v Metadata, bs []byte) (n int) {
	n = ord.String.Marshal(v.Title, bs)
	n += ord.String.Marshal(v.Author, bs[n:])
	n += ord.String.Marshal(v.Chapters, bs[n:])
	return n + ord.String.Marshal(v.Summary, bs[n:])
}

func (metadataMUS) Unmarshal(bs []byte) (v Metadata, n int, err error) {
	fields := []*string{&v.Title, &v.Author, &v.Chapters, &v.Summary}
	n, err = unmarshalStrings(bs, fields)
	return
}

func (metadataMUS) Size(v Metadata) int {
	return ord.String.Size(v.Title) + ord.String.Size(v.Author) +
		ord.String.Size(v.Chapters) + ord.String.Size(v.Summary)
}

func (metadataMUS) Skip(bs []byte) (int, error) {
	return skipAll(bs, ord.String.Skip, ord.String.Skip, ord.String.Skip, ord.String.Skip)
}

func unmarshalStrings(bs []byte, fields []*string) (n int, err error) {
	for _, f := range fields {
		var n1 int
		*f, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func skipAll(bs []byte, skips ...func([]byte) (int, error)) (n int, err error) {
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
