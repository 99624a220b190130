// Package statebuilder implements the per-state accumulator consumed inside
// a caller's build_fn callback (spec §4.2): parent, initial child, data
// factory, filters, metadata, and the handler map.
package statebuilder

import (
	"reflect"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/statekey"
)

// InitialChildResolver returns the child key to enter when this state
// becomes active. It may be a static key (validated at materialize time) or
// an opaque runtime function (reachable, but not statically validated,
// per spec §4.1's tie-break policy).
type InitialChildResolver struct {
	Static *statekey.Key
	Opaque func(descriptor.TransitionContext) statekey.Key
}

// StaticChild builds a resolver the validator can check eagerly.
func StaticChild(key statekey.Key) InitialChildResolver {
	return InitialChildResolver{Static: &key}
}

// OpaqueChild builds a resolver the validator cannot check statically.
func OpaqueChild(fn func(descriptor.TransitionContext) statekey.Key) InitialChildResolver {
	return InitialChildResolver{Opaque: fn}
}

// Builder is the per-state accumulator. Zero value is not usable; create
// one via New.
type Builder struct {
	key      statekey.Key
	parent   *statekey.Key
	isFinal  bool
	dataType reflect.Type

	initialData  func(descriptor.TransitionContext) (any, error)
	initialChild *InitialChildResolver

	filters  []string
	metadata map[string]any
	codec    any

	onEnter descriptor.Described
	onExit  descriptor.Described

	openHandler     descriptor.Described
	handlersByType  map[reflect.Type]descriptor.Described
	handlersByValue map[string]descriptor.Described

	// machine-state fields (spec §4.1's machine_state, filled in by
	// SPEC_FULL.md §4.1's supplement).
	isMachine     bool
	onMachineDone descriptor.Described
}

// New creates a plain state's builder.
func New(key statekey.Key) *Builder {
	return &Builder{key: key}
}

// NewFinal creates a final leaf state's builder. Final states can carry
// entry/exit-free data but never an initial child (spec invariant 7).
func NewFinal(key statekey.Key) *Builder {
	return &Builder{key: key, isFinal: true}
}

// NewMachine creates a nested-sub-machine state's builder (SPEC_FULL.md
// §4.1 supplement). It must receive an on_machine_done handler before
// materialization or the build fails with MissingMachineDoneHandler.
func NewMachine(key statekey.Key) *Builder {
	return &Builder{key: key, isMachine: true}
}

// Key returns the state's identity.
func (b *Builder) Key() statekey.Key {
	return b.key
}

// IsFinal reports whether this builder was created with NewFinal.
func (b *Builder) IsFinal() bool {
	return b.isFinal
}

// IsMachine reports whether this builder was created with NewMachine.
func (b *Builder) IsMachine() bool {
	return b.isMachine
}

// Parent declares this state's parent (spec §4.1's parent= argument).
func (b *Builder) Parent(parent statekey.Key) *Builder {
	b.parent = &parent
	return b
}

// DeclaredParent returns the declared parent, if any.
func (b *Builder) DeclaredParent() (statekey.Key, bool) {
	if b.parent == nil {
		return statekey.Key{}, false
	}
	return *b.parent, true
}

// WithInitialData attaches a data factory of type D, recording DataType for
// invariant 9 ("a state parameterized by data type D requires
// initial_data").
func WithInitialData[D any](b *Builder, factory func(descriptor.TransitionContext) D) *Builder {
	var zero D
	b.dataType = reflect.TypeOf(zero)
	b.initialData = func(ctx descriptor.TransitionContext) (any, error) {
		return factory(ctx), nil
	}
	return b
}

// DataType returns the declared data type, or nil if this is a plain state.
func (b *Builder) DataType() reflect.Type {
	return b.dataType
}

// HasInitialData reports whether an initial-data factory was attached.
func (b *Builder) HasInitialData() bool {
	return b.initialData != nil
}

// InitialData returns the attached factory function, or nil.
func (b *Builder) InitialData() func(descriptor.TransitionContext) (any, error) {
	return b.initialData
}

// InitialChild declares a static initial child (spec §4.1's initial_child=).
func (b *Builder) InitialChild(key statekey.Key) *Builder {
	resolver := StaticChild(key)
	b.initialChild = &resolver
	return b
}

// InitialChildFunc declares an opaque (runtime-resolved) initial child.
func (b *Builder) InitialChildFunc(fn func(descriptor.TransitionContext) statekey.Key) *Builder {
	resolver := OpaqueChild(fn)
	b.initialChild = &resolver
	return b
}

// DeclaredInitialChild returns the declared resolver, if any.
func (b *Builder) DeclaredInitialChild() *InitialChildResolver {
	return b.initialChild
}

// Filters attaches opaque executor pass-through filters (spec §3.2).
func (b *Builder) Filters(filters ...string) *Builder {
	b.filters = append(b.filters, filters...)
	return b
}

// DeclaredFilters returns the accumulated filters.
func (b *Builder) DeclaredFilters() []string {
	return b.filters
}

// Metadata attaches an opaque executor pass-through value under key (spec
// §3.2).
func (b *Builder) Metadata(key string, value any) *Builder {
	if b.metadata == nil {
		b.metadata = map[string]any{}
	}
	b.metadata[key] = value
	return b
}

// DeclaredMetadata returns the accumulated metadata.
func (b *Builder) DeclaredMetadata() map[string]any {
	return b.metadata
}

// Codec attaches an opaque state-data persistence descriptor (spec §3.2).
func (b *Builder) Codec(codec any) *Builder {
	b.codec = codec
	return b
}

// DeclaredCodec returns the attached codec, if any.
func (b *Builder) DeclaredCodec() any {
	return b.codec
}

// HandleOnEnter replaces the single on_enter slot (later declarations win,
// per spec §3.5's lifecycle rule).
func HandleOnEnter[C any](b *Builder, d *descriptor.TransitionHandlerDescriptor[C]) *Builder {
	b.onEnter = d
	return b
}

// HandleOnExit replaces the single on_exit slot.
func HandleOnExit[C any](b *Builder, d *descriptor.TransitionHandlerDescriptor[C]) *Builder {
	b.onExit = d
	return b
}

// DeclaredOnEnter returns the current on_enter descriptor, if any.
func (b *Builder) DeclaredOnEnter() descriptor.Described {
	return b.onEnter
}

// DeclaredOnExit returns the current on_exit descriptor, if any.
func (b *Builder) DeclaredOnExit() descriptor.Described {
	return b.onExit
}

// OnMachineDone attaches the handler invoked when a nested sub-machine
// reports completion (SPEC_FULL.md §4.1 supplement).
func OnMachineDone[C any](b *Builder, d *descriptor.TransitionHandlerDescriptor[C]) *Builder {
	b.onMachineDone = d
	return b
}

// DeclaredOnMachineDone returns the attached on_machine_done descriptor.
func (b *Builder) DeclaredOnMachineDone() descriptor.Described {
	return b.onMachineDone
}

// OnMessage registers a descriptor keyed by msgType. Registrations for
// different types accumulate; a second registration for the same type
// replaces the first, and no error is reported for it.
func OnMessage[C any](b *Builder, msgType reflect.Type, d *descriptor.MessageHandlerDescriptor[C]) *Builder {
	if b.handlersByType == nil {
		b.handlersByType = map[reflect.Type]descriptor.Described{}
	}
	b.handlersByType[msgType] = d
	return b
}

// OnMessageValue registers a descriptor keyed by value equality against
// value (spec §4.2's on_message_value).
func OnMessageValue[C any](b *Builder, value string, d *descriptor.MessageHandlerDescriptor[C]) *Builder {
	if b.handlersByValue == nil {
		b.handlersByValue = map[string]descriptor.Described{}
	}
	b.handlersByValue[value] = d
	return b
}

// HandleOnMessage installs an open-coded fallthrough handler that is
// mutually exclusive with the keyed map: if both exist, the open-coded
// handler wins and the map is unused (spec §4.2).
func HandleOnMessage[C any](b *Builder, d *descriptor.MessageHandlerDescriptor[C]) *Builder {
	b.openHandler = d
	return b
}

// CompiledHandlers is the dispatch table an executor consumes at runtime:
// value-keyed lookups take precedence over type-keyed ones, and an
// open-coded handler overrides both (spec §4.2's dispatch semantics).
type CompiledHandlers struct {
	Open    descriptor.Described
	ByType  map[reflect.Type]descriptor.Described
	ByValue map[string]descriptor.Described
}

// Compile returns the dispatch table this builder accumulated.
func (b *Builder) Compile() CompiledHandlers {
	return CompiledHandlers{
		Open:    b.openHandler,
		ByType:  b.handlersByType,
		ByValue: b.handlersByValue,
	}
}

// AllDescribed returns every registered descriptor (message and transition)
// for validation purposes (spec §4.1 step 6 scans all of these for go-to
// targets).
func (b *Builder) AllDescribed() []descriptor.Described {
	var all []descriptor.Described
	if b.onEnter != nil {
		all = append(all, b.onEnter)
	}
	if b.onExit != nil {
		all = append(all, b.onExit)
	}
	if b.onMachineDone != nil {
		all = append(all, b.onMachineDone)
	}
	if b.openHandler != nil {
		all = append(all, b.openHandler)
	}
	for _, d := range b.handlersByType {
		all = append(all, d)
	}
	for _, d := range b.handlersByValue {
		all = append(all, d)
	}
	return all
}
