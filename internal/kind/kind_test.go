package kind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborhsm/statetree/internal/kind"
)

func TestIsHoldsForSelfAndAncestors(t *testing.T) {
	base := kind.Make()
	derived := kind.Make(base)
	grandchild := kind.Make(derived)

	assert.True(t, kind.Is(base, base))
	assert.True(t, kind.Is(derived, base))
	assert.True(t, kind.Is(grandchild, base))
	assert.True(t, kind.Is(grandchild, derived))
}

func TestIsFalseForUnrelatedKinds(t *testing.T) {
	a := kind.Make()
	b := kind.Make()

	assert.False(t, kind.Is(a, b))
	assert.False(t, kind.Is(b, a))
}

func TestMakeDedupesSharedAncestors(t *testing.T) {
	base := kind.Make()
	left := kind.Make(base)
	right := kind.Make(base)
	merged := kind.Make(left, right)

	assert.True(t, kind.Is(merged, base))
	assert.True(t, kind.Is(merged, left))
	assert.True(t, kind.Is(merged, right))
}
