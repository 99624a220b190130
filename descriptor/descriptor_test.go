package descriptor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/statekey"
)

func TestWithDefaultLabelOnlyFillsEmpty(t *testing.T) {
	info := descriptor.Info{}.WithDefaultLabel()
	assert.NotEmpty(t, info.Label)

	named := descriptor.Info{Label: "explicit"}.WithDefaultLabel()
	assert.Equal(t, "explicit", named.Label)
}

func TestMessageHandlerTypeString(t *testing.T) {
	cases := map[descriptor.MessageHandlerType]string{
		descriptor.GoTo:            "go_to",
		descriptor.GoToSelf:        "go_to_self",
		descriptor.Stay:            "stay",
		descriptor.Unhandled:       "unhandled",
		descriptor.When:            "when",
		descriptor.WhenWithContext: "when_with_context",
		descriptor.WhenResult:      "when_result",
		descriptor.Opaque:          "handler",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestTransitionHandlerTypeString(t *testing.T) {
	cases := map[descriptor.TransitionHandlerType]string{
		descriptor.Run:                  "run",
		descriptor.Post:                 "post",
		descriptor.Schedule:              "schedule",
		descriptor.UpdateData:           "update_data",
		descriptor.TransitionWhen:       "when",
		descriptor.TransitionWhenResult: "when_result",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestInfoIsGuardedClassifiesFamilies(t *testing.T) {
	terminal := descriptor.Info{MessageKind: descriptor.GoTo}
	guarded := descriptor.Info{MessageKind: descriptor.When}
	transitionGuarded := descriptor.Info{IsTransition: true, TransitionKind: descriptor.TransitionWhen}
	transitionTerminal := descriptor.Info{IsTransition: true, TransitionKind: descriptor.Run}

	assert.False(t, terminal.IsGuarded())
	assert.True(t, guarded.IsGuarded())
	assert.True(t, transitionGuarded.IsGuarded())
	assert.False(t, transitionTerminal.IsGuarded())
}

func TestDescriptorInfoOnMessageHandlerDescriptor(t *testing.T) {
	target := statekey.New("target")
	d := &descriptor.MessageHandlerDescriptor[int]{
		Info: descriptor.Info{MessageKind: descriptor.GoTo, GoToTarget: &target},
	}
	var described descriptor.Described = d
	assert.Equal(t, descriptor.GoTo, described.DescriptorInfo().MessageKind)
	assert.Equal(t, &target, described.DescriptorInfo().GoToTarget)
}

func TestDescriptorInfoOnTransitionHandlerDescriptor(t *testing.T) {
	d := &descriptor.TransitionHandlerDescriptor[int]{
		Info: descriptor.Info{IsTransition: true, TransitionKind: descriptor.Run},
	}
	var described descriptor.Described = d
	assert.True(t, described.DescriptorInfo().IsTransition)
}
