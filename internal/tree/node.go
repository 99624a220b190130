package tree

import (
	"reflect"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/statebuilder"
	"github.com/arborhsm/statetree/statekey"
)

// NodeKind enumerates the three structural roles a materialized node can
// play (spec §3.2, §6.3): root iff it is the registry's declared root key,
// leaf iff it has no children, interior otherwise. A non-root node can still
// have no declared parent (an implicit root's direct children), so root-ness
// is never inferred from parent absence.
type NodeKind int

const (
	Root NodeKind = iota
	Interior
	Leaf
)

func (k NodeKind) String() string {
	switch k {
	case Root:
		return "root"
	case Interior:
		return "interior"
	case Leaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// BuildInfo is the materialized description of one state, matching spec
// §6.2's TreeNodeBuildInfo: everything a node-build protocol (spec §6.1)
// needs to construct an executable node, without this package ever doing
// so itself.
type BuildInfo struct {
	Key      statekey.Key
	Parent   *statekey.Key
	Children []statekey.Key
	Kind     NodeKind
	IsFinal  bool

	DataType    reflect.Type
	InitialData func(descriptor.TransitionContext) (any, error)

	InitialChild *statebuilder.InitialChildResolver

	Filters  []string
	Metadata map[string]any
	Codec    any

	OnEnter descriptor.Described
	OnExit  descriptor.Described

	Handlers statebuilder.CompiledHandlers

	IsMachine     bool
	OnMachineDone descriptor.Described

	// ChildBuilders holds the BuildInfo for this node's children, populated
	// by Materialize in declaration order, letting a BuildContext recurse
	// without a second lookup pass (spec §6.2's child_builders[]).
	ChildBuilders []*BuildInfo
}
