// Package treebuilder implements the top-level registrar named in spec
// §4.1: it accumulates statebuilder.Builder records (one per declared
// state), holds the implicit or explicit root, and performs materialization
// by delegating to internal/tree's validator and node-build protocol.
//
// Unlike the teacher's Define/State/Transition surface, which panics at
// definition time via a traceback helper, every declaration method here
// returns an error: this module's lower layers (statebuilder, internal/tree)
// already settled on error returns, and a builder meant to be embedded in a
// caller's own error-handling flow should not unwind their stack by panic.
package treebuilder

import (
	"fmt"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/internal/keyid"
	"github.com/arborhsm/statetree/internal/telemetry"
	"github.com/arborhsm/statetree/internal/tree"
	"github.com/arborhsm/statetree/statebuilder"
	"github.com/arborhsm/statetree/statekey"
)

// Re-exported error taxonomy (spec §6.5, §7): a single DefinitionError
// family distinguished by Code, with sentinel values for errors.Is checks.
type (
	DefinitionError = tree.DefinitionError
	Code            = tree.Code
)

const (
	CodeDuplicateState                    = tree.CodeDuplicateState
	CodeMissingInitialChild               = tree.CodeMissingInitialChild
	CodeUnknownInitialChild                = tree.CodeUnknownInitialChild
	CodeInitialChildParentMismatch        = tree.CodeInitialChildParentMismatch
	CodeImplicitRootInitialChildHasParent = tree.CodeImplicitRootInitialChildHasParent
	CodeUnknownParent                     = tree.CodeUnknownParent
	CodeUnknownTransitionTarget           = tree.CodeUnknownTransitionTarget
	CodeParentCycle                       = tree.CodeParentCycle
	CodeFinalAsParent                     = tree.CodeFinalAsParent
	CodeMissingMachineDoneHandler         = tree.CodeMissingMachineDoneHandler
)

var (
	ErrDuplicateState                    = tree.ErrDuplicateState
	ErrMissingInitialChild               = tree.ErrMissingInitialChild
	ErrUnknownInitialChild                = tree.ErrUnknownInitialChild
	ErrInitialChildParentMismatch        = tree.ErrInitialChildParentMismatch
	ErrImplicitRootInitialChildHasParent = tree.ErrImplicitRootInitialChildHasParent
	ErrUnknownParent                     = tree.ErrUnknownParent
	ErrUnknownTransitionTarget           = tree.ErrUnknownTransitionTarget
	ErrParentCycle                       = tree.ErrParentCycle
	ErrFinalAsParent                     = tree.ErrFinalAsParent
	ErrMissingMachineDoneHandler         = tree.ErrMissingMachineDoneHandler
)

// BuildContext is the external node-build protocol (spec §6.1), re-exported
// so callers never need to import internal/tree directly.
type BuildContext = tree.BuildContext

// BuildInfo is the materialized description of one state (spec §6.2).
type BuildInfo = tree.BuildInfo

// NodeKind enumerates root/interior/leaf (spec §6.3).
type NodeKind = tree.NodeKind

const (
	Root     = tree.Root
	Interior = tree.Interior
	Leaf     = tree.Leaf
)

// RootSentinel is the reserved key used by the implicit root (spec §6.4).
// User states may never declare this key: every state-registering method
// checks for it before registering and fails with DuplicateState, under an
// implicit or an explicit root alike.
const RootSentinel = keyid.RootSentinel

// StateOption mutates a state's builder at declaration time, covering the
// optional parent= and initial_child= arguments named throughout spec §4.1.
type StateOption func(*statebuilder.Builder)

// WithParent declares the registering state's parent.
func WithParent(parent statekey.Key) StateOption {
	return func(b *statebuilder.Builder) { b.Parent(parent) }
}

// WithInitialChild declares a static initial child for the registering
// state.
func WithInitialChild(key statekey.Key) StateOption {
	return func(b *statebuilder.Builder) { b.InitialChild(key) }
}

// WithInitialChildFunc declares an opaque, runtime-resolved initial child
// (spec §4.1's tie-break policy: not statically validated, but reachable).
func WithInitialChildFunc(fn func(descriptor.TransitionContext) statekey.Key) StateOption {
	return func(b *statebuilder.Builder) { b.InitialChildFunc(fn) }
}

// WithFilters attaches opaque executor pass-through filters (spec §3.2).
func WithFilters(filters ...string) StateOption {
	return func(b *statebuilder.Builder) { b.Filters(filters...) }
}

// WithMetadata attaches an opaque executor pass-through value (spec §3.2).
func WithMetadata(key string, value any) StateOption {
	return func(b *statebuilder.Builder) { b.Metadata(key, value) }
}

// WithCodec attaches an opaque state-data persistence descriptor (spec §3.2).
func WithCodec(codec any) StateOption {
	return func(b *statebuilder.Builder) { b.Codec(codec) }
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithLogger injects a structured logger (spec §9's "log_name" injection
// point), scoped to this builder instance rather than a package global.
func WithLogger(logger telemetry.Logger) Option {
	return func(b *Builder) { b.registry.Logger = logger }
}

// Builder is the top-level registrar (spec §4.1). The zero value is not
// usable; create one with New, NewWithRoot, or NewWithDataRoot.
type Builder struct {
	registry *Registry
}

// Registry is an exported alias of internal/tree.Registry, the table a
// Builder keeps in its unexported registry field.
type Registry = tree.Registry

// New creates a builder with an implicit root whose reserved key is
// RootSentinel and whose initial_child is initialChild (spec §4.1's
// `new(initial_child)`).
func New(initialChild statekey.Key, opts ...Option) *Builder {
	b := &Builder{registry: tree.NewRegistry(telemetry.Default(), statekey.New(RootSentinel), true)}
	for _, opt := range opts {
		opt(b)
	}
	root := statebuilder.New(statekey.New(RootSentinel))
	root.InitialChild(initialChild)
	// A registration error here can only mean RootSentinel was already
	// registered, which is impossible for a fresh registry; ignored like
	// the teacher's own buildCaches pre-conditions that can't fail.
	_ = b.registry.Register(root)
	return b
}

// NewWithRoot creates a builder with an explicit, non-data root (spec
// §4.1's `new_with_root`).
func NewWithRoot(root statekey.Key, initialChild statekey.Key, buildFn func(*statebuilder.Builder), opts ...Option) (*Builder, error) {
	b := &Builder{registry: tree.NewRegistry(telemetry.Default(), root, false)}
	for _, opt := range opts {
		opt(b)
	}
	rb := statebuilder.New(root)
	rb.InitialChild(initialChild)
	if buildFn != nil {
		buildFn(rb)
	}
	if err := b.registry.Register(rb); err != nil {
		return nil, err
	}
	return b, nil
}

// NewWithDataRoot creates a builder with an explicit data-carrying root
// (spec §4.1's `new_with_data_root[D]`).
func NewWithDataRoot[D any](root statekey.DataKey[D], initialData func(descriptor.TransitionContext) D, buildFn func(*statebuilder.Builder), initialChild statekey.Key, opts ...Option) (*Builder, error) {
	b := &Builder{registry: tree.NewRegistry(telemetry.Default(), root.Untyped(), false)}
	for _, opt := range opts {
		opt(b)
	}
	rb := statebuilder.New(root.Untyped())
	statebuilder.WithInitialData(rb, initialData)
	rb.InitialChild(initialChild)
	if buildFn != nil {
		buildFn(rb)
	}
	if err := b.registry.Register(rb); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Builder) guardSentinel(key statekey.Key) error {
	if key.String() == RootSentinel {
		return &DefinitionError{Code: CodeDuplicateState, Key: key, Message: fmt.Sprintf("DuplicateState: %q is the reserved root sentinel", key.String())}
	}
	return nil
}

// State registers a plain state (spec §4.1's `state`).
func (b *Builder) State(key statekey.Key, buildFn func(*statebuilder.Builder), opts ...StateOption) error {
	if err := b.guardSentinel(key); err != nil {
		return err
	}
	sb := statebuilder.New(key)
	for _, opt := range opts {
		opt(sb)
	}
	if buildFn != nil {
		buildFn(sb)
	}
	return b.registry.Register(sb)
}

// DataState registers a state carrying data of type D (spec §4.1's
// `data_state[D]`). A package-level function, not a method, because Go
// methods cannot carry their own type parameters beyond the receiver's.
func DataState[D any](b *Builder, key statekey.DataKey[D], initialData func(descriptor.TransitionContext) D, buildFn func(*statebuilder.Builder), opts ...StateOption) error {
	if err := b.guardSentinel(key.Untyped()); err != nil {
		return err
	}
	sb := statebuilder.New(key.Untyped())
	statebuilder.WithInitialData(sb, initialData)
	for _, opt := range opts {
		opt(sb)
	}
	if buildFn != nil {
		buildFn(sb)
	}
	return b.registry.Register(sb)
}

// FinalState registers a final leaf state (spec §4.1's `final_state`).
func (b *Builder) FinalState(key statekey.Key, buildFn func(*statebuilder.Builder), opts ...StateOption) error {
	if err := b.guardSentinel(key); err != nil {
		return err
	}
	sb := statebuilder.NewFinal(key)
	for _, opt := range opts {
		opt(sb)
	}
	if buildFn != nil {
		buildFn(sb)
	}
	return b.registry.Register(sb)
}

// FinalDataState registers a final leaf state carrying data of type D
// (spec §4.1's `final_data_state[D]`). A final data state may declare
// initial_data but never initial_child (spec §4.1's tie-break policy).
func FinalDataState[D any](b *Builder, key statekey.DataKey[D], initialData func(descriptor.TransitionContext) D, buildFn func(*statebuilder.Builder), opts ...StateOption) error {
	if err := b.guardSentinel(key.Untyped()); err != nil {
		return err
	}
	sb := statebuilder.NewFinal(key.Untyped())
	statebuilder.WithInitialData(sb, initialData)
	for _, opt := range opts {
		opt(sb)
	}
	if buildFn != nil {
		buildFn(sb)
	}
	return b.registry.Register(sb)
}

// SubMachine is the opaque handle a nested machine_state declares against;
// its lifecycle (Dispatch/Snapshot) stays out of scope per spec §1 — only
// the declaration surface (this type plus MachineFactory/MachineDoneCheck)
// belongs to the core (SPEC_FULL.md §4.1 supplement).
type SubMachine interface {
	Dispatch(message any) error
	Snapshot() any
}

// MachineFactory produces the nested SubMachine a machine_state owns.
type MachineFactory func(descriptor.TransitionContext) SubMachine

// MachineDoneCheck reports whether a SubMachine has reached completion,
// at which point the owning state's on_machine_done handler fires.
type MachineDoneCheck func(SubMachine) bool

// MachineState registers a nested-sub-machine state (spec §4.1's
// `machine_state`, filled in by SPEC_FULL.md §4.1). Materialization fails
// with MissingMachineDoneHandler unless buildFn (or a later call against
// the same builder before Materialize) attaches on_machine_done via
// statebuilder.OnMachineDone.
func (b *Builder) MachineState(key statekey.Key, initialMachine MachineFactory, isDone MachineDoneCheck, buildFn func(*statebuilder.Builder), opts ...StateOption) error {
	if err := b.guardSentinel(key); err != nil {
		return err
	}
	sb := statebuilder.NewMachine(key)
	sb.Metadata("machine_factory", initialMachine)
	sb.Metadata("machine_done_check", isDone)
	for _, opt := range opts {
		opt(sb)
	}
	if buildFn != nil {
		buildFn(sb)
	}
	return b.registry.Register(sb)
}

// Materialize runs the validator and, if the declared table is structurally
// sound, emits the root BuildInfo by delegating node construction to ctx
// (spec §4.1's `materialize`, §6.1's node-build protocol).
func (b *Builder) Materialize(ctx BuildContext) (*BuildInfo, error) {
	return tree.Materialize(b.registry, ctx)
}

// Lookup exposes a declared state's builder for callers that need to mutate
// it after initial declaration (spec §3.5: "handlers on a state are
// accumulated monotonically").
func (b *Builder) Lookup(key statekey.Key) (*statebuilder.Builder, bool) {
	return b.registry.Lookup(key)
}
