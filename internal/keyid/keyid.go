// Package keyid backs the identity concerns of the state-tree: the reserved
// implicit-root sentinel (spec §6.4) and the small id helper used to default
// diagram labels.
package keyid

import (
	"github.com/aidarkhanov/nanoid/v2"
	"github.com/google/uuid"
)

// RootSentinel is the reserved key used for the implicit root created by
// treebuilder.New. User states may never declare this key.
const RootSentinel = "<_RootState_>"

// labelAlphabet intentionally avoids characters that read awkwardly inside a
// diagram label.
const labelAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// NewLabel mints a short opaque label used to default descriptor.Info.Label
// when the caller didn't supply one, so rendered diagrams never show a blank
// node for an unlabeled handler.
func NewLabel() string {
	label, err := nanoid.GenerateString(labelAlphabet, 8)
	if err != nil {
		// GenerateString only fails on a broken entropy source; fall back to
		// a UUID fragment rather than propagating an error from a label
		// default that the caller never asked to fail on.
		return uuid.New().String()[:8]
	}
	return label
}

