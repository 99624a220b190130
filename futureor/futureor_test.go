package futureor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborhsm/statetree/futureor"
)

func TestImmediateIsReadyAndGet(t *testing.T) {
	f := futureor.Immediate(42)
	assert.True(t, f.IsReady())
	assert.Equal(t, 42, f.Get())
}

func TestDeferredResolvesThroughChannel(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	close(ch)

	f := futureor.Deferred[int](ch)
	assert.False(t, f.IsReady())
	assert.Equal(t, 7, f.Get())
}

func TestBindSynchronousWhenImmediate(t *testing.T) {
	f := futureor.Immediate(2)
	result := futureor.Bind(f, func(v int) futureor.FutureOr[int] {
		return futureor.Immediate(v * 10)
	})
	assert.True(t, result.IsReady())
	assert.Equal(t, 20, result.Get())
}

func TestBindDeferredContinuation(t *testing.T) {
	ch := make(chan int, 1)
	f := futureor.Deferred[int](ch)

	result := futureor.Bind(f, func(v int) futureor.FutureOr[int] {
		return futureor.Immediate(v + 1)
	})
	assert.False(t, result.IsReady())

	ch <- 4
	close(ch)
	assert.Equal(t, 5, result.Get())
}

func TestMapTransformsImmediateValue(t *testing.T) {
	f := futureor.Immediate("go")
	result := futureor.Map(f, func(s string) int { return len(s) })
	assert.Equal(t, 2, result.Get())
}
