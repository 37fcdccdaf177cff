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
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/finrag/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, documentMUS.Size(*doc))
	documentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := documentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalIndexEntry serializes an IndexEntry to bytes.
func MarshalIndexEntry(entry *core.IndexEntry) []byte {
	buf := make([]byte, indexEntryMUS.Size(*entry))
	indexEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalIndexEntry deserializes an IndexEntry from bytes.
func UnmarshalIndexEntry(data []byte) (*core.IndexEntry, error) {
	entry, _, err := indexEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(manifest *core.Manifest) []byte {
	buf := make([]byte, manifestMUS.Size(*manifest))
	manifestMUS.Marshal(*manifest, buf)
	return buf
}

// UnmarshalManifest deserializes a Manifest from bytes.
func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	manifest, _, err := manifestMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &manifest, nil
}

var (
	documentMUS   = documentSer{}
	indexEntryMUS = indexEntrySer{}
	manifestMUS   = manifestSer{}
	metadataMUS   = metadataSer{}
	vectorMUS     = vectorSer{}
	timeMUS       = timeSer{}
)

// timeSer stores times as Unix microseconds in UTC.
type timeSer struct{}

func (timeSer) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func (timeSer) Size(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

// lengthOf reads a collection length and checks it against the remaining bytes.
// Every element occupies at least one byte.
func lengthOf(bs []byte) (length, n int, err error) {
	length, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 || length > len(bs)-n {
		err = ErrTruncatedData
	}
	return
}

// vectorSer stores a float32 slice as a length followed by IEEE-754 bits.
type vectorSer struct{}

func (vectorSer) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return
}

func (vectorSer) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := lengthOf(bs)
	if err != nil {
		return
	}
	v = make([]float32, length)
	for i := range v {
		bits, n1, err1 := varint.Uint32.Unmarshal(bs[n:])
		n += n1
		if err1 != nil {
			return nil, n, err1
		}
		v[i] = math.Float32frombits(bits)
	}
	return
}

func (vectorSer) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return
}

// metadataSer stores a string map with keys in sorted order so equal maps
// encode to equal bytes.
type metadataSer struct{}

func (metadataSer) Marshal(v map[string]string, bs []byte) (n int) {
	keys := sortedKeys(v)
	n = varint.Int.Marshal(len(keys), bs)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v[k], bs[n:])
	}
	return
}

func (metadataSer) Unmarshal(bs []byte) (v map[string]string, n int, err error) {
	length, n, err := lengthOf(bs)
	if err != nil {
		return
	}
	v = make(map[string]string, length)
	for range length {
		key, n1, err1 := ord.String.Unmarshal(bs[n:])
		n += n1
		if err1 != nil {
			return nil, n, err1
		}
		val, n2, err2 := ord.String.Unmarshal(bs[n:])
		n += n2
		if err2 != nil {
			return nil, n, err2
		}
		v[key] = val
	}
	return
}

func (metadataSer) Size(v map[string]string) (size int) {
	size = varint.Int.Size(len(v))
	for k, val := range v {
		size += ord.String.Size(k) + ord.String.Size(val)
	}
	return
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type documentSer struct{}

func (documentSer) Marshal(v core.Document, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(string(v.RecordType), bs[n:])
	n += ord.String.Marshal(v.RecordId, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += metadataMUS.Marshal(v.Metadata, bs[n:])
	return
}

func (documentSer) Unmarshal(bs []byte) (v core.Document, n int, err error) {
	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Id = core.ID(id)

	var n1 int
	var recordType string
	recordType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RecordType = core.RecordType(recordType)

	v.RecordId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentSer) Size(v core.Document) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(string(v.RecordType))
	size += ord.String.Size(v.RecordId)
	size += ord.String.Size(v.Text)
	return size + metadataMUS.Size(v.Metadata)
}

type indexEntrySer struct{}

func (indexEntrySer) Marshal(v core.IndexEntry, bs []byte) (n int) {
	n = documentMUS.Marshal(v.Document, bs)
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return
}

func (indexEntrySer) Unmarshal(bs []byte) (v core.IndexEntry, n int, err error) {
	v.Document, n, err = documentMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (indexEntrySer) Size(v core.IndexEntry) int {
	return documentMUS.Size(v.Document) + vectorMUS.Size(v.Vector) + timeMUS.Size(v.InsertedAt)
}

type manifestSer struct{}

func (manifestSer) Marshal(v core.Manifest, bs []byte) (n int) {
	n = ord.String.Marshal(v.BuildId, bs)
	n += varint.Int.Marshal(v.Documents, bs[n:])
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	n += ord.String.Marshal(v.EmbeddingModel, bs[n:])
	n += timeMUS.Marshal(v.BuiltAt, bs[n:])
	return
}

func (manifestSer) Unmarshal(bs []byte) (v core.Manifest, n int, err error) {
	v.BuildId, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Documents, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BuiltAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (manifestSer) Size(v core.Manifest) (size int) {
	size = ord.String.Size(v.BuildId)
	size += varint.Int.Size(v.Documents)
	size += varint.Int.Size(v.Dimension)
	size += ord.String.Size(v.EmbeddingModel)
	return size + timeMUS.Size(v.BuiltAt)
}
