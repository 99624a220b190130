package keyid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborhsm/statetree/internal/keyid"
)

func TestRootSentinelIsReserved(t *testing.T) {
	assert.Equal(t, "<_RootState_>", keyid.RootSentinel)
}

func TestNewLabelIsNonEmptyAndShort(t *testing.T) {
	label := keyid.NewLabel()
	assert.NotEmpty(t, label)
	assert.LessOrEqual(t, len(label), 8)
}
