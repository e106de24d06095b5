package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrSchemaMismatch is returned when a unit was written by an incompatible version.
var ErrSchemaMismatch = errors.New("metadata: schema version mismatch")

// Encode writes u as msgpack. The schema version is stamped automatically.
func Encode(w io.Writer, u *Unit) error {
	u.Schema = SchemaVersion
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(u); err != nil {
		return fmt.Errorf("encode unit: %w", err)
	}
	return nil
}

// Decode reads one unit and checks its schema version.
func Decode(r io.Reader) (*Unit, error) {
	var u Unit
	if err := msgpack.NewDecoder(r).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if u.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, u.Schema, SchemaVersion)
	}
	if u.Kind == UnitInvalid {
		return nil, errors.New("decode unit: missing kind")
	}
	return &u, nil
}

// Marshal is Encode into a fresh buffer.
func Marshal(u *Unit) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, u); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal is Decode over a byte slice.
func Unmarshal(data []byte) (*Unit, error) {
	return Decode(bytes.NewReader(data))
}
