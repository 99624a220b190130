package handler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/futureor"
	"github.com/arborhsm/statetree/handler"
	"github.com/arborhsm/statetree/statekey"
)

type pressed struct{}

func TestGoToSetsTargetAndHandledOutcome(t *testing.T) {
	target := statekey.New("lit")
	var ran bool
	d := handler.OnMessage[pressed, any, any]().
		Label("light_switch").
		Do(func(*handler.Context[pressed, any, any]) { ran = true }).
		GoTo(target)

	assert.Equal(t, descriptor.GoTo, d.Info.MessageKind)
	require.NotNil(t, d.Info.GoToTarget)
	assert.Equal(t, target, *d.Info.GoToTarget)
	assert.Equal(t, "light_switch", d.Info.Label)

	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeHandled, outcome.Get())
	assert.True(t, ran)
}

func TestGoToSelfHasNoTarget(t *testing.T) {
	d := handler.OnMessage[pressed, any, any]().GoToSelf()
	assert.Equal(t, descriptor.GoToSelf, d.Info.MessageKind)
	assert.Nil(t, d.Info.GoToTarget)
}

func TestStayReportsHandled(t *testing.T) {
	d := handler.OnMessage[pressed, any, any]().Stay()
	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeHandled, outcome.Get())
}

func TestUnhandledReportsUnhandled(t *testing.T) {
	d := handler.OnMessage[pressed, any, any]().Unhandled()
	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeUnhandled, outcome.Get())
}

func TestNamedKeysByValueNotType(t *testing.T) {
	d := handler.OnMessage[pressed, any, any]().Named("btn.pressed").GoTo(statekey.New("x"))
	assert.Equal(t, "btn.pressed", d.Info.MessageName)
	assert.Nil(t, d.Info.MessageType)
}

func TestHandlerBuildsOpaqueDescriptorAndRunsActions(t *testing.T) {
	var didRun bool
	d := handler.OnMessage[pressed, any, any]().
		Do(func(*handler.Context[pressed, any, any]) { didRun = true }).
		Handler(func(*handler.Context[pressed, any, any]) descriptor.Outcome {
			return descriptor.OutcomeHandled
		})

	assert.Equal(t, descriptor.Opaque, d.Info.MessageKind)
	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeHandled, outcome.Get())
	assert.True(t, didRun)
}

func TestWhenEvaluatesConditionsInDeclarationOrder(t *testing.T) {
	var order []string
	d := handler.OnMessage[pressed, any, any]().When(
		handler.Condition[pressed, any, any]{
			Label: "first",
			Predicate: func(*handler.Context[pressed, any, any]) futureor.FutureOr[bool] {
				order = append(order, "first")
				return futureor.Immediate(false)
			},
			WhenTrue: handler.OnMessage[pressed, any, any]().Stay(),
		},
		handler.Condition[pressed, any, any]{
			Label: "second",
			Predicate: func(*handler.Context[pressed, any, any]) futureor.FutureOr[bool] {
				order = append(order, "second")
				return futureor.Immediate(true)
			},
			WhenTrue: handler.OnMessage[pressed, any, any]().GoTo(statekey.New("done")),
		},
	)

	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeHandled, outcome.Get())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestWhenReportsUnhandledIfNoConditionMatches(t *testing.T) {
	d := handler.OnMessage[pressed, any, any]().When(
		handler.Condition[pressed, any, any]{
			Predicate: func(*handler.Context[pressed, any, any]) futureor.FutureOr[bool] {
				return futureor.Immediate(false)
			},
			WhenTrue: handler.OnMessage[pressed, any, any]().Stay(),
		},
	)
	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeUnhandled, outcome.Get())
}

func TestWhenInfoRecordsConditionsForDiagramRendering(t *testing.T) {
	target := statekey.New("done")
	d := handler.OnMessage[pressed, any, any]().When(
		handler.Condition[pressed, any, any]{
			Label:    "go",
			WhenTrue: handler.OnMessage[pressed, any, any]().GoTo(target),
			Predicate: func(*handler.Context[pressed, any, any]) futureor.FutureOr[bool] {
				return futureor.Immediate(true)
			},
		},
	)
	require.Len(t, d.Info.Conditions, 1)
	assert.Equal(t, "go", d.Info.Conditions[0].Label)
	require.NotNil(t, d.Info.Conditions[0].WhenTrue.GoToTarget)
	assert.Equal(t, target, *d.Info.Conditions[0].WhenTrue.GoToTarget)
}

func TestWhenResultInvokesSuccessContinuation(t *testing.T) {
	target := statekey.New("ok")
	d := handler.WhenResult[pressed, any, any, int](
		func(*handler.Context[pressed, any, any]) futureor.FutureOr[handler.Result[int]] {
			return futureor.Immediate(handler.Ok(5))
		},
		func(_ *handler.Context[pressed, any, any], v int) *descriptor.MessageHandlerDescriptor[handler.Context[pressed, any, any]] {
			assert.Equal(t, 5, v)
			return handler.OnMessage[pressed, any, any]().GoTo(target)
		},
		nil,
	)
	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeHandled, outcome.Get())
}

func TestWhenResultInvokesErrorContinuationWhenProvided(t *testing.T) {
	var sawErr error
	d := handler.WhenResult[pressed, any, any, int](
		func(*handler.Context[pressed, any, any]) futureor.FutureOr[handler.Result[int]] {
			return futureor.Immediate(handler.Err[int](assertErr))
		},
		func(_ *handler.Context[pressed, any, any], v int) *descriptor.MessageHandlerDescriptor[handler.Context[pressed, any, any]] {
			t.Fatal("onSuccess should not run")
			return nil
		},
		func(_ *handler.Context[pressed, any, any], err error) *descriptor.MessageHandlerDescriptor[handler.Context[pressed, any, any]] {
			sawErr = err
			return handler.OnMessage[pressed, any, any]().Stay()
		},
	)
	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{})
	assert.Equal(t, descriptor.OutcomeHandled, outcome.Get())
	assert.Equal(t, assertErr, sawErr)
}

func TestWhenResultReportsErroredOutcomeWithNoOnError(t *testing.T) {
	d := handler.WhenResult[pressed, any, any, int](
		func(*handler.Context[pressed, any, any]) futureor.FutureOr[handler.Result[int]] {
			return futureor.Immediate(handler.Err[int](assertErr))
		},
		func(_ *handler.Context[pressed, any, any], v int) *descriptor.MessageHandlerDescriptor[handler.Context[pressed, any, any]] {
			t.Fatal("onSuccess should not run")
			return nil
		},
		nil,
	)
	outcome := d.MakeHandler(handler.Context[pressed, any, any]{})(handler.Context[pressed, any, any]{}).Get()
	assert.Equal(t, descriptor.ResultErrored, outcome.Result)
	assert.Equal(t, assertErr, outcome.Err)
}

var assertErr = errStub{}

type errStub struct{}

func (errStub) Error() string { return "stub failure" }
