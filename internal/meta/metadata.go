// Package meta provides a bounded string map attached to accounts and
// vouchers, with a deterministic JSON encoding so stored rows and response
// bodies are stable across runs.
package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// Metadata is a small string map with validation and stable JSON encoding.
type Metadata map[string]string

const (
	MaxPairs     = 16
	MaxKeyLen    = 64
	MaxValLen    = 256
	MaxTotalJSON = 4096
)

var (
	errTooManyPairs = errors.New("metadata: too many pairs")
	errBadKey       = errors.New("metadata: key empty or too long")
	errBadValue     = errors.New("metadata: value too long")
	errTooLarge     = errors.New("metadata: encoded size exceeds limit")
)

// New copies m into a Metadata. A nil input yields an empty, usable map.
func New(m map[string]string) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m Metadata) Get(k string) (string, bool) { v, ok := m[k]; return v, ok }

// Set stores k=v when it fits the limits. Oversized pairs are dropped;
// Validate reports them when the caller needs a hard failure.
func (m Metadata) Set(k, v string) {
	if len(m) >= MaxPairs {
		if _, exists := m[k]; !exists {
			return
		}
	}
	if len(k) == 0 || len(k) > MaxKeyLen || len(v) > MaxValLen {
		return
	}
	m[k] = v
}

func (m Metadata) Del(k string) { delete(m, k) }

// Validate checks pair count, key/value lengths and total encoded size.
func (m Metadata) Validate() error {
	if len(m) > MaxPairs {
		return errTooManyPairs
	}
	for k, v := range m {
		if len(k) == 0 || len(k) > MaxKeyLen {
			return errBadKey
		}
		if len(v) > MaxValLen {
			return errBadValue
		}
	}
	b, err := m.MarshalStableJSON()
	if err != nil {
		return err
	}
	if len(b) > MaxTotalJSON {
		return errTooLarge
	}
	return nil
}

// MarshalStableJSON encodes the map with keys in sorted order.
func (m Metadata) MarshalStableJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(m[k])
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON uses the stable encoding.
func (m Metadata) MarshalJSON() ([]byte, error) { return m.MarshalStableJSON() }

func (m *Metadata) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	var tmp map[string]string
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*m = New(tmp)
	return nil
}
