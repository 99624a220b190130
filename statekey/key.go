// Package statekey defines the opaque identifiers used throughout the
// state-tree: plain keys, data-typed keys, and channel markers (spec §3.1,
// §3.3).
package statekey

import "fmt"

// Key is an opaque, comparable identifier for a state with no associated
// data. Equality and hashing are by the underlying id string only.
type Key struct {
	id string
}

// New creates a plain Key from an id. Two Keys created from the same id
// compare equal.
func New(id string) Key {
	return Key{id: id}
}

// String returns the key's underlying id.
func (k Key) String() string {
	return k.id
}

// IsZero reports whether k is the zero Key (never registered as a state).
func (k Key) IsZero() bool {
	return k.id == ""
}

// DataKey identifies a state whose instances carry a value of type D. The D
// parameter is a compile-time witness only: two DataKey[D] values compare
// equal iff their underlying Key values are equal, and D never participates
// in that comparison (Go's type system already keeps DataKey[int] and
// DataKey[string] from being used where the other is expected).
type DataKey[D any] struct {
	key Key
}

// NewData creates a DataKey[D] from an id.
func NewData[D any](id string) DataKey[D] {
	return DataKey[D]{key: New(id)}
}

// Untyped erases the data-type witness, returning the underlying Key. This
// is what the builder stores internally; the typed wrapper exists only to
// give callers type-safe handler composition (spec §4.4).
func (k DataKey[D]) Untyped() Key {
	return k.key
}

// String returns the key's underlying id.
func (k DataKey[D]) String() string {
	return k.key.String()
}

// Channel is a compile-time contract tagging a target state with a required
// payload type P (spec §3.3). Channels are declarative metadata, not nodes:
// entering a state "through" a channel obliges the source transition to
// supply a P.
type Channel[P any] struct {
	name string
}

// NewChannel creates a named Channel[P].
func NewChannel[P any](name string) Channel[P] {
	return Channel[P]{name: name}
}

// Name returns the channel's diagnostic name.
func (c Channel[P]) Name() string {
	return c.name
}

func (c Channel[P]) String() string {
	var zero P
	return fmt.Sprintf("channel(%s)<%T>", c.name, zero)
}
