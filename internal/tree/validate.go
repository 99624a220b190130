package tree

import (
	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/statekey"
)

// childMap builds, for every declared key, the list of its declared
// children in registration order — the structure every other check in
// this file walks.
func (r *Registry) childMap() map[string][]statekey.Key {
	children := map[string][]statekey.Key{}
	for _, k := range r.order {
		children[k] = nil
	}
	rootKey := r.RootKey.String()
	for _, k := range r.order {
		if k == rootKey {
			continue
		}
		b := r.states[k]
		parent, ok := b.DeclaredParent()
		if !ok {
			// Under an implicit root the sentinel key isn't something user
			// code can ever name (spec §6.4), so a state declared with no
			// parent at all is a root-level state by construction (spec §4.1
			// step 9's special case; see S1 of spec §8). Under an explicit
			// root, the user has the root key and must name it explicitly
			// (spec §8's S2) — a state with no parent there stays unparented
			// and simply never appears under any BuildInfo.
			if r.ImplicitRoot {
				children[rootKey] = append(children[rootKey], b.Key())
			}
			continue
		}
		children[parent.String()] = append(children[parent.String()], b.Key())
	}
	return children
}

// validateParents enforces invariant 1: every declared parent names a
// declared state.
func (r *Registry) validateParents() error {
	for _, k := range r.order {
		b := r.states[k]
		parent, ok := b.DeclaredParent()
		if !ok {
			continue
		}
		if _, exists := r.states[parent.String()]; !exists {
			return fail(r.Logger, CodeUnknownParent, b.Key(), "parent %q is not declared", parent.String())
		}
	}
	return nil
}

// validateFinalNotParent enforces invariant 7: a final state is never a
// parent.
func (r *Registry) validateFinalNotParent(children map[string][]statekey.Key) error {
	for _, k := range r.order {
		b := r.states[k]
		if b.IsFinal() && len(children[k]) > 0 {
			return fail(r.Logger, CodeFinalAsParent, b.Key(), "final state %q declares children", k)
		}
	}
	return nil
}

// validateInitialChildren enforces invariant 2 (every non-leaf, non-final,
// non-machine state declares an initial_child), invariant 3 (a static
// initial_child names a declared state whose declared parent is the
// referencing state), and the implicit-root special case from spec §4.1
// step 9.
func (r *Registry) validateInitialChildren(children map[string][]statekey.Key) error {
	for _, k := range r.order {
		b := r.states[k]
		isLeaf := len(children[k]) == 0
		isRoot := k == r.RootKey.String()
		isImplicitRootEntry := r.ImplicitRoot && isRoot

		// The root (implicit or explicit) is checked even when no state
		// names it as parent: its initial_child must still resolve to one of
		// its own children.
		if isLeaf && !isRoot {
			continue
		}
		if b.IsFinal() || b.IsMachine() {
			continue
		}

		resolver := b.DeclaredInitialChild()
		if resolver == nil {
			if isImplicitRootEntry {
				return fail(r.Logger, CodeMissingInitialChild, b.Key(), "implicit root has no initial_child")
			}
			return fail(r.Logger, CodeMissingInitialChild, b.Key(), "non-leaf state %q has no initial_child", k)
		}
		if resolver.Static == nil {
			continue // opaque resolvers are not statically checkable (spec §4.1 tie-break policy)
		}

		targetKey := *resolver.Static
		target, exists := r.states[targetKey.String()]
		if !exists {
			return fail(r.Logger, CodeUnknownInitialChild, b.Key(), "initial_child %q is not declared", targetKey.String())
		}
		_, hasParent := target.DeclaredParent()

		if isImplicitRootEntry {
			// The implicit root's sentinel key is never visible to user
			// code (spec §6.4), so its initial_child must be a root-level
			// state that declares no parent at all (spec §7's
			// "ImplicitRootInitialChildHasParent ... initial child must be
			// a root-level state (no declared parent)").
			if hasParent {
				return fail(r.Logger, CodeImplicitRootInitialChildHasParent, b.Key(),
					"initial_child %q of the implicit root declares a parent", targetKey.String())
			}
			continue
		}

		targetParent, _ := target.DeclaredParent()
		if !hasParent || targetParent.String() != k {
			return fail(r.Logger, CodeInitialChildParentMismatch, b.Key(),
				"initial_child %q does not declare %q as its parent", targetKey.String(), k)
		}
	}
	return nil
}

// validateTransitionTargets enforces invariant 5: every go_to target named
// by any registered descriptor, at any nesting depth inside Conditions,
// names a declared state.
func (r *Registry) validateTransitionTargets() error {
	for _, k := range r.order {
		b := r.states[k]
		for _, d := range b.AllDescribed() {
			if err := r.validateInfoTargets(b.Key(), d.DescriptorInfo()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) validateInfoTargets(owner statekey.Key, info descriptor.Info) error {
	if info.GoToTarget != nil {
		if _, exists := r.states[info.GoToTarget.String()]; !exists {
			return fail(r.Logger, CodeUnknownTransitionTarget, owner, "go_to target %q is not declared", info.GoToTarget.String())
		}
	}
	for _, cond := range info.Conditions {
		if err := r.validateInfoTargets(owner, cond.WhenTrue); err != nil {
			return err
		}
	}
	return nil
}

// validateNoParentCycles enforces invariant 6 by walking each state's
// parent chain and failing if it ever revisits a state.
func (r *Registry) validateNoParentCycles() error {
	for _, k := range r.order {
		visited := map[string]bool{}
		cur := k
		for {
			if visited[cur] {
				return fail(r.Logger, CodeParentCycle, r.states[k].Key(), "parent chain from %q cycles back to %q", k, cur)
			}
			visited[cur] = true
			b := r.states[cur]
			parent, ok := b.DeclaredParent()
			if !ok {
				break
			}
			cur = parent.String()
		}
	}
	return nil
}

// validateMachineDoneHandlers enforces the machine_state supplement from
// SPEC_FULL.md §4.1: every machine_state must carry an on_machine_done
// handler before materialization.
func (r *Registry) validateMachineDoneHandlers() error {
	for _, k := range r.order {
		b := r.states[k]
		if b.IsMachine() && b.DeclaredOnMachineDone() == nil {
			return fail(r.Logger, CodeMissingMachineDoneHandler, b.Key(), "machine state %q has no on_machine_done handler", k)
		}
	}
	return nil
}

// Validate runs every structural check in a fixed order and returns the
// first *DefinitionError encountered, or nil if the declared table is
// structurally sound.
func (r *Registry) Validate() (map[string][]statekey.Key, error) {
	if err := r.validateParents(); err != nil {
		return nil, err
	}
	children := r.childMap()
	if err := r.validateFinalNotParent(children); err != nil {
		return nil, err
	}
	if err := r.validateNoParentCycles(); err != nil {
		return nil, err
	}
	if err := r.validateInitialChildren(children); err != nil {
		return nil, err
	}
	if err := r.validateTransitionTargets(); err != nil {
		return nil, err
	}
	if err := r.validateMachineDoneHandlers(); err != nil {
		return nil, err
	}
	return children, nil
}
