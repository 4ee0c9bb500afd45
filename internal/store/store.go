package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when nothing is stored at a path
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidPath is returned for malformed or unsupported paths
	ErrInvalidPath = errors.New("store: invalid path")
)

// Patch maps paths relative to a base path to their new values.
// A nil value deletes the path. The empty key addresses the base itself.
type Patch map[string]any

// TxFunc computes a patch from the current value at a path.
// Returning an error aborts the transaction without writing.
type TxFunc func(current Snapshot) (Patch, error)

// SessionStore is a shared, path-addressable document store with
// push-based change notification. Paths are slash separated,
// e.g. "lobbies/ABC123/players/p1".
type SessionStore interface {
	// WriteFull replaces the whole value at path.
	WriteFull(ctx context.Context, path string, value any) error
	// WritePartial applies every entry of patch relative to path in one batch.
	WritePartial(ctx context.Context, path string, patch Patch) error
	// ReadOnce decodes the value at path into v, or returns ErrNotFound.
	ReadOnce(ctx context.Context, path string, v any) error
	// DeletePath removes the value at path and everything below it.
	DeletePath(ctx context.Context, path string) error
	// Subscribe calls fn with the current value at path and again after
	// every change, until the returned cancel func is called or ctx ends.
	// Each call carries the whole value, never a diff. Intermediate values
	// may be skipped when fn is slower than the writers; the latest value
	// is always delivered.
	Subscribe(ctx context.Context, path string, fn func(Snapshot)) (func(), error)
	// Transact reads the value at path, passes it to fn and applies the
	// returned patch only if the value did not change in between.
	Transact(ctx context.Context, path string, fn TxFunc) error
	// Close releases the backend's resources.
	Close() error
}

// Snapshot is an immutable copy of the value stored at a path
type Snapshot struct {
	path string
	raw  json.RawMessage
}

// NewSnapshot wraps the JSON encoding of a value read at path.
// A nil or "null" raw value means nothing is stored there.
func NewSnapshot(path string, raw []byte) Snapshot {
	return Snapshot{path: path, raw: raw}
}

// Path returns the path the snapshot was taken at
func (s Snapshot) Path() string {
	return s.path
}

// Exists reports whether a value is stored at the path
func (s Snapshot) Exists() bool {
	return len(s.raw) > 0 && string(s.raw) != "null"
}

// Unmarshal decodes the snapshot into v
func (s Snapshot) Unmarshal(v any) error {
	if !s.Exists() {
		return ErrNotFound
	}
	return json.Unmarshal(s.raw, v)
}

// Raw returns the JSON encoding of the value, or "null"
func (s Snapshot) Raw() json.RawMessage {
	if !s.Exists() {
		return json.RawMessage("null")
	}
	return s.raw
}
