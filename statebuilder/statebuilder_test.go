package statebuilder_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/statebuilder"
	"github.com/arborhsm/statetree/statekey"
)

type amount struct{ Value int }

func TestNewBuildersHaveExpectedKindFlags(t *testing.T) {
	plain := statebuilder.New(statekey.New("s"))
	assert.False(t, plain.IsFinal())
	assert.False(t, plain.IsMachine())

	final := statebuilder.NewFinal(statekey.New("f"))
	assert.True(t, final.IsFinal())

	machine := statebuilder.NewMachine(statekey.New("m"))
	assert.True(t, machine.IsMachine())
}

func TestParentRoundTrips(t *testing.T) {
	b := statebuilder.New(statekey.New("child"))
	_, ok := b.DeclaredParent()
	assert.False(t, ok)

	parent := statekey.New("parent")
	b.Parent(parent)
	got, ok := b.DeclaredParent()
	require.True(t, ok)
	assert.Equal(t, parent, got)
}

func TestWithInitialDataSetsTypeAndFactory(t *testing.T) {
	b := statebuilder.New(statekey.New("s"))
	assert.False(t, b.HasInitialData())

	statebuilder.WithInitialData(b, func(descriptor.TransitionContext) amount {
		return amount{Value: 7}
	})

	assert.True(t, b.HasInitialData())
	assert.Equal(t, reflect.TypeOf(amount{}), b.DataType())

	value, err := b.InitialData()(descriptor.TransitionContext{})
	require.NoError(t, err)
	assert.Equal(t, amount{Value: 7}, value)
}

func TestInitialChildStaticVsOpaque(t *testing.T) {
	b := statebuilder.New(statekey.New("s"))
	assert.Nil(t, b.DeclaredInitialChild())

	target := statekey.New("child")
	b.InitialChild(target)
	resolver := b.DeclaredInitialChild()
	require.NotNil(t, resolver)
	require.NotNil(t, resolver.Static)
	assert.Equal(t, target, *resolver.Static)
	assert.Nil(t, resolver.Opaque)

	b2 := statebuilder.New(statekey.New("s2"))
	b2.InitialChildFunc(func(descriptor.TransitionContext) statekey.Key { return target })
	resolver2 := b2.DeclaredInitialChild()
	require.NotNil(t, resolver2)
	assert.Nil(t, resolver2.Static)
	require.NotNil(t, resolver2.Opaque)
}

func TestFiltersAccumulateAcrossCalls(t *testing.T) {
	b := statebuilder.New(statekey.New("s"))
	b.Filters("a", "b")
	b.Filters("c")
	assert.Equal(t, []string{"a", "b", "c"}, b.DeclaredFilters())
}

func TestMetadataAccumulatesByKey(t *testing.T) {
	b := statebuilder.New(statekey.New("s"))
	b.Metadata("x", 1)
	b.Metadata("y", 2)
	b.Metadata("x", 3)
	meta := b.DeclaredMetadata()
	assert.Equal(t, 3, meta["x"])
	assert.Equal(t, 2, meta["y"])
}

func TestCodecRoundTrips(t *testing.T) {
	b := statebuilder.New(statekey.New("s"))
	assert.Nil(t, b.DeclaredCodec())
	b.Codec("json")
	assert.Equal(t, "json", b.DeclaredCodec())
}

func TestHandleOnEnterAndOnExitReplaceSingleSlot(t *testing.T) {
	b := statebuilder.New(statekey.New("s"))
	assert.Nil(t, b.DeclaredOnEnter())
	assert.Nil(t, b.DeclaredOnExit())

	first := &descriptor.TransitionHandlerDescriptor[int]{Info: descriptor.Info{Label: "first"}}
	second := &descriptor.TransitionHandlerDescriptor[int]{Info: descriptor.Info{Label: "second"}}

	statebuilder.HandleOnEnter(b, first)
	assert.Equal(t, "first", b.DeclaredOnEnter().DescriptorInfo().Label)

	statebuilder.HandleOnEnter(b, second)
	assert.Equal(t, "second", b.DeclaredOnEnter().DescriptorInfo().Label)

	statebuilder.HandleOnExit(b, first)
	assert.Equal(t, "first", b.DeclaredOnExit().DescriptorInfo().Label)
}

func TestOnMachineDoneRoundTrips(t *testing.T) {
	b := statebuilder.NewMachine(statekey.New("m"))
	assert.Nil(t, b.DeclaredOnMachineDone())

	d := &descriptor.TransitionHandlerDescriptor[int]{Info: descriptor.Info{Label: "done"}}
	statebuilder.OnMachineDone(b, d)
	assert.Equal(t, "done", b.DeclaredOnMachineDone().DescriptorInfo().Label)
}

func TestCompileDispatchTablePrecedence(t *testing.T) {
	b := statebuilder.New(statekey.New("s"))

	byType := &descriptor.MessageHandlerDescriptor[int]{Info: descriptor.Info{Label: "by_type"}}
	byValue := &descriptor.MessageHandlerDescriptor[int]{Info: descriptor.Info{Label: "by_value"}}
	open := &descriptor.MessageHandlerDescriptor[int]{Info: descriptor.Info{Label: "open"}}

	statebuilder.OnMessage(b, reflect.TypeOf(amount{}), byType)
	statebuilder.OnMessageValue(b, "go", byValue)

	compiled := b.Compile()
	assert.Nil(t, compiled.Open)
	assert.Equal(t, byType, compiled.ByType[reflect.TypeOf(amount{})])
	assert.Equal(t, byValue, compiled.ByValue["go"])

	statebuilder.HandleOnMessage(b, open)
	compiled = b.Compile()
	assert.Equal(t, open, compiled.Open)
}

func TestAllDescribedCollectsEveryRegisteredDescriptor(t *testing.T) {
	b := statebuilder.NewMachine(statekey.New("s"))

	statebuilder.HandleOnEnter(b, &descriptor.TransitionHandlerDescriptor[int]{Info: descriptor.Info{Label: "enter"}})
	statebuilder.HandleOnExit(b, &descriptor.TransitionHandlerDescriptor[int]{Info: descriptor.Info{Label: "exit"}})
	statebuilder.OnMachineDone(b, &descriptor.TransitionHandlerDescriptor[int]{Info: descriptor.Info{Label: "done"}})
	statebuilder.OnMessage(b, reflect.TypeOf(amount{}), &descriptor.MessageHandlerDescriptor[int]{Info: descriptor.Info{Label: "by_type"}})
	statebuilder.OnMessageValue(b, "go", &descriptor.MessageHandlerDescriptor[int]{Info: descriptor.Info{Label: "by_value"}})

	all := b.AllDescribed()
	assert.Len(t, all, 5)
}
