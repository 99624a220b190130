// Package handler implements the fluent descriptor builders described in
// spec §4.4: entry, exit, message, guarded-when, post, schedule,
// update-data, go-to, go-to-self, stay, unhandled, and when-result.
//
// Builders thread three type parameters — M (message), D (this state's
// data), C (caller-supplied context) — through a Context[M, D, C] record,
// replacing the free-floating closures spec §9 calls out ("Function
// closures over context → explicit context structs") with an explicit,
// inspectable struct.
package handler

import (
	"github.com/arborhsm/statetree/statekey"
)

// Context is the live, typed handler context threaded through a builder
// chain. AncestorData carries values reached via on_enter_with_data /
// on_message_with_data (spec §4.2); ChannelData is copied from the raw
// TransitionContext by transition handlers (spec §3.3) and is always nil
// for message handlers.
type Context[M, D, C any] struct {
	Message      M
	Data         D
	AncestorData map[statekey.Key]any
	ChannelData  any
	User         C
}

// Ancestor fetches ancestor data declared via on_*_with_data[DAnc], panicking
// with a clear message if the caller asked for a key that was never
// attached — that would be a builder/executor wiring bug, not a user error,
// so it is not surfaced as a recoverable error.
func Ancestor[DAnc any](ctx interface {
	ancestorData() map[statekey.Key]any
}, key statekey.DataKey[DAnc]) DAnc {
	raw, ok := ctx.ancestorData()[key.Untyped()]
	if !ok {
		panic("handler: no ancestor data registered for key " + key.String())
	}
	value, ok := raw.(DAnc)
	if !ok {
		panic("handler: ancestor data for key " + key.String() + " has the wrong type")
	}
	return value
}

func (c Context[M, D, C]) ancestorData() map[statekey.Key]any {
	return c.AncestorData
}

// ChannelContext is the live handler context for a descriptor built with
// FromChannel: Channel already carries the payload at the static type P the
// caller declared via the statekey.Channel[P] it passed FromChannel, so
// retrieving it is a plain field read rather than the unchecked
// ctx.(P) cast a generic accessor would need (spec §3.3, §4.4's
// on_enter_from_channel[P]).
type ChannelContext[P, D, C any] struct {
	Context[any, D, C]
	Channel P
}
