package statekey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborhsm/statetree/statekey"
)

func TestKeyEquality(t *testing.T) {
	a := statekey.New("s1")
	b := statekey.New("s1")
	c := statekey.New("s2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "s1", a.String())
}

func TestKeyIsZero(t *testing.T) {
	var zero statekey.Key
	assert.True(t, zero.IsZero())
	assert.False(t, statekey.New("s1").IsZero())
}

func TestDataKeyEqualityIgnoresTypeWitness(t *testing.T) {
	a := statekey.NewData[int]("order")
	b := statekey.NewData[int]("order")

	assert.Equal(t, a, b)
	assert.Equal(t, statekey.New("order"), a.Untyped())
	assert.Equal(t, "order", a.String())
}

func TestChannelName(t *testing.T) {
	ch := statekey.NewChannel[string]("payment")
	assert.Equal(t, "payment", ch.Name())
	assert.Contains(t, ch.String(), "payment")
}
