package tree

import (
	"github.com/arborhsm/statetree/internal/telemetry"
	"github.com/arborhsm/statetree/statebuilder"
	"github.com/arborhsm/statetree/statekey"
)

// Registry is the declared-state table a treebuilder.Builder accumulates
// before materialization (spec §4.1 step 2).
type Registry struct {
	Logger       telemetry.Logger
	RootKey      statekey.Key
	ImplicitRoot bool

	states map[string]*statebuilder.Builder
	order  []string
}

// NewRegistry creates an empty registry rooted at rootKey.
func NewRegistry(logger telemetry.Logger, rootKey statekey.Key, implicitRoot bool) *Registry {
	if logger == nil {
		logger = telemetry.Noop()
	}
	return &Registry{
		Logger:       logger,
		RootKey:      rootKey,
		ImplicitRoot: implicitRoot,
		states:       map[string]*statebuilder.Builder{},
	}
}

// Register adds b to the table, failing eagerly on a duplicate key (spec
// §7: "Duplicate-key errors are raised at declaration time").
func (r *Registry) Register(b *statebuilder.Builder) error {
	key := b.Key().String()
	if _, exists := r.states[key]; exists {
		return fail(r.Logger, CodeDuplicateState, b.Key(), "state %q already declared", key)
	}
	r.states[key] = b
	r.order = append(r.order, key)
	return nil
}

// Lookup returns the builder for key, if declared.
func (r *Registry) Lookup(key statekey.Key) (*statebuilder.Builder, bool) {
	b, ok := r.states[key.String()]
	return b, ok
}

// Order returns declared keys in registration order.
func (r *Registry) Order() []string {
	return r.order
}
