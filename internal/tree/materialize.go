package tree

import (
	"fmt"

	"github.com/arborhsm/statetree/statekey"
)

// BuildContext is the external node-build protocol named in spec §6.1: the
// validator/materializer never constructs an executable node itself, it
// only ever hands a fully-validated BuildInfo to exactly one of these three
// callbacks per node, in a single depth-first pass. A context is expected
// to register each node uniquely by key; a context that rejects a
// duplicate registration should return an error, which Materialize
// propagates unchanged.
type BuildContext interface {
	BuildRoot(info *BuildInfo) (any, error)
	BuildInterior(info *BuildInfo) (any, error)
	BuildLeaf(info *BuildInfo) (any, error)
}

// Materialize runs the full structural validation pass (spec §3.4) and, if
// it passes, walks the declared table bottom-up, emitting one BuildInfo and
// one BuildContext call per state reachable from r.RootKey through child
// lists (spec §4.1's ten-step algorithm). Under an explicit root, a declared
// state with no parent is not reachable and gets no BuildInfo.
func Materialize(r *Registry, ctx BuildContext) (*BuildInfo, error) {
	children, err := r.Validate()
	if err != nil {
		return nil, err
	}
	if _, exists := r.states[r.RootKey.String()]; !exists {
		return nil, fail(r.Logger, CodeUnknownParent, r.RootKey, "root %q is not declared", r.RootKey.String())
	}
	return r.buildNode(children, r.RootKey.String(), ctx)
}

func (r *Registry) buildNode(children map[string][]statekey.Key, key string, ctx BuildContext) (*BuildInfo, error) {
	b := r.states[key]
	childKeys := children[key]

	info := &BuildInfo{
		Key:           b.Key(),
		Children:      childKeys,
		IsFinal:       b.IsFinal(),
		DataType:      b.DataType(),
		InitialData:   b.InitialData(),
		InitialChild:  b.DeclaredInitialChild(),
		Filters:       b.DeclaredFilters(),
		Metadata:      b.DeclaredMetadata(),
		Codec:         b.DeclaredCodec(),
		OnEnter:       b.DeclaredOnEnter(),
		OnExit:        b.DeclaredOnExit(),
		Handlers:      b.Compile(),
		IsMachine:     b.IsMachine(),
		OnMachineDone: b.DeclaredOnMachineDone(),
	}

	parent, hasParent := b.DeclaredParent()
	switch {
	case key == r.RootKey.String():
		info.Kind = Root
	case len(childKeys) == 0:
		info.Kind = Leaf
	default:
		info.Kind = Interior
	}
	if hasParent {
		info.Parent = &parent
	}

	for _, childKey := range childKeys {
		child, err := r.buildNode(children, childKey.String(), ctx)
		if err != nil {
			return nil, err
		}
		info.ChildBuilders = append(info.ChildBuilders, child)
	}

	var node any
	var buildErr error
	switch info.Kind {
	case Root:
		node, buildErr = ctx.BuildRoot(info)
	case Interior:
		node, buildErr = ctx.BuildInterior(info)
	case Leaf:
		node, buildErr = ctx.BuildLeaf(info)
	}
	if buildErr != nil {
		return nil, fmt.Errorf("build context rejected %s %q: %w", info.Kind, key, buildErr)
	}
	_ = node // the context owns node identity/registration; Materialize only threads BuildInfo onward.

	return info, nil
}
