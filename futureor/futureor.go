// Package futureor implements the monadic immediate-or-deferred bind
// described in spec §5: a value chained through the descriptor pipeline may
// already be resolved (continue synchronously) or may complete later
// (chain a continuation). Materialization itself never uses this type; it
// only appears on the execution side of a descriptor's handler.
package futureor

// FutureOr holds either an immediately available value or a channel that
// will deliver one later, mirroring the completion style hsm.go itself uses
// (a closed channel for "already done", an open one for "pending").
type FutureOr[T any] struct {
	ready bool
	value T
	ch    <-chan T
}

// Immediate wraps a value that is already resolved.
func Immediate[T any](value T) FutureOr[T] {
	return FutureOr[T]{ready: true, value: value}
}

// Deferred wraps a channel that will deliver exactly one value.
func Deferred[T any](ch <-chan T) FutureOr[T] {
	return FutureOr[T]{ch: ch}
}

// IsReady reports whether the value is already available without blocking.
func (f FutureOr[T]) IsReady() bool {
	return f.ready
}

// Get blocks (if necessary) and returns the resolved value. Calling Get is
// always safe: an immediate FutureOr returns without touching the channel.
func (f FutureOr[T]) Get() T {
	if f.ready {
		return f.value
	}
	return <-f.ch
}

// Bind chains a continuation over the resolved value. If f is already
// resolved, next runs synchronously and the result is returned wrapped as
// Immediate. Otherwise Bind returns a Deferred FutureOr backed by a new
// channel that runs next once f resolves.
func Bind[T, U any](f FutureOr[T], next func(T) FutureOr[U]) FutureOr[U] {
	if f.ready {
		return next(f.value)
	}
	out := make(chan U, 1)
	go func() {
		defer close(out)
		out <- next(<-f.ch).Get()
	}()
	return Deferred[U](out)
}

// Map is Bind specialized to a pure (non-FutureOr-returning) transform.
func Map[T, U any](f FutureOr[T], fn func(T) U) FutureOr[U] {
	return Bind(f, func(v T) FutureOr[U] {
		return Immediate(fn(v))
	})
}
