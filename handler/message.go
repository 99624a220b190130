package handler

import (
	"reflect"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/futureor"
	"github.com/arborhsm/statetree/statekey"
)

// MessageHandlerBuilder fluently accumulates a message-handler descriptor
// for message type M on a state carrying data D, with caller context C
// (spec §4.2, §4.4).
type MessageHandlerBuilder[M, D, C any] struct {
	label       string
	messageName string
	hasName     bool
	actions     []func(*Context[M, D, C])
	ancestorKey *statekey.Key
}

// OnMessage starts a builder for message type M. The descriptor is keyed by
// M's runtime type unless Named is called, which keys it by value equality
// instead (spec §4.2's on_message(desc_build, message?)).
func OnMessage[M, D, C any]() *MessageHandlerBuilder[M, D, C] {
	return &MessageHandlerBuilder[M, D, C]{}
}

// Named keys this descriptor by value equality against name instead of by
// M's runtime type, mirroring on_message_value (spec §4.2).
func (b *MessageHandlerBuilder[M, D, C]) Named(name string) *MessageHandlerBuilder[M, D, C] {
	b.messageName = name
	b.hasName = true
	return b
}

// Label sets the descriptor's diagram label.
func (b *MessageHandlerBuilder[M, D, C]) Label(label string) *MessageHandlerBuilder[M, D, C] {
	b.label = label
	return b
}

// Do registers a side-effecting action run before the handler resolves.
func (b *MessageHandlerBuilder[M, D, C]) Do(action func(*Context[M, D, C])) *MessageHandlerBuilder[M, D, C] {
	b.actions = append(b.actions, action)
	return b
}

// WithAncestorData obliges the built descriptor to have ancestor data for
// anc available in Context.AncestorData (spec §4.2 on_message_with_data).
func WithAncestorData[M, D, C, DAnc any](b *MessageHandlerBuilder[M, D, C], anc statekey.DataKey[DAnc]) *MessageHandlerBuilder[M, D, C] {
	key := anc.Untyped()
	b.ancestorKey = &key
	return b
}

func (b *MessageHandlerBuilder[M, D, C]) baseInfo(kind descriptor.MessageHandlerType) descriptor.Info {
	info := descriptor.Info{
		Label:       b.label,
		MessageKind: kind,
	}
	if b.hasName {
		info.MessageName = b.messageName
	} else {
		var zero M
		info.MessageType = reflect.TypeOf(zero)
	}
	for _, action := range b.actions {
		info.Actions = append(info.Actions, actionLabel(action))
	}
	if b.ancestorKey != nil {
		info.Metadata = map[string]any{"ancestor": b.ancestorKey.String()}
	}
	return info.WithDefaultLabel()
}

func actionLabel(fn any) string {
	return reflect.ValueOf(fn).Type().String()
}

func (b *MessageHandlerBuilder[M, D, C]) runActions(ctx *Context[M, D, C]) {
	for _, action := range b.actions {
		action(ctx)
	}
}

func (b *MessageHandlerBuilder[M, D, C]) makeContext() func(descriptor.MessageContext) (Context[M, D, C], error) {
	return func(raw descriptor.MessageContext) (Context[M, D, C], error) {
		message, _ := raw.Message.(M)
		data, _ := raw.StateData.(D)
		user, _ := raw.User.(C)
		return Context[M, D, C]{
			Message:      message,
			Data:         data,
			AncestorData: raw.AncestorData,
			ChannelData:  nil,
			User:         user,
		}, nil
	}
}

// GoTo builds a descriptor that transitions to target, running any
// registered Do actions first (spec §4.3's GoTo kind).
func (b *MessageHandlerBuilder[M, D, C]) GoTo(target statekey.Key) *descriptor.MessageHandlerDescriptor[Context[M, D, C]] {
	info := b.baseInfo(descriptor.GoTo)
	info.GoToTarget = &target
	return &descriptor.MessageHandlerDescriptor[Context[M, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[M, D, C]) descriptor.HandlerFunc[Context[M, D, C]] {
			return func(dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
				b.runActions(&dctx)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// GoToSelf builds a descriptor that re-enters the owning state (spec §4.3's
// GoToSelf kind). Its Info carries no GoToTarget: the builder doesn't know
// the owning state's key, and the kind itself names the owning state as
// the target.
func (b *MessageHandlerBuilder[M, D, C]) GoToSelf() *descriptor.MessageHandlerDescriptor[Context[M, D, C]] {
	info := b.baseInfo(descriptor.GoToSelf)
	return &descriptor.MessageHandlerDescriptor[Context[M, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[M, D, C]) descriptor.HandlerFunc[Context[M, D, C]] {
			return func(dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
				b.runActions(&dctx)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// Stay builds a descriptor that handles the message without transitioning
// (spec §4.3's Stay kind).
func (b *MessageHandlerBuilder[M, D, C]) Stay() *descriptor.MessageHandlerDescriptor[Context[M, D, C]] {
	info := b.baseInfo(descriptor.Stay)
	return &descriptor.MessageHandlerDescriptor[Context[M, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[M, D, C]) descriptor.HandlerFunc[Context[M, D, C]] {
			return func(dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
				b.runActions(&dctx)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// Unhandled builds a descriptor that always reports unhandled, so the
// executor escalates to the parent state (spec §4.3's Unhandled kind).
func (b *MessageHandlerBuilder[M, D, C]) Unhandled() *descriptor.MessageHandlerDescriptor[Context[M, D, C]] {
	info := b.baseInfo(descriptor.Unhandled)
	return &descriptor.MessageHandlerDescriptor[Context[M, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[M, D, C]) descriptor.HandlerFunc[Context[M, D, C]] {
			return func(dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
				return futureor.Immediate(descriptor.OutcomeUnhandled)
			}
		},
	}
}

// Handler builds an opaque descriptor from an arbitrary handler function,
// the escape hatch named "handler" in spec §4.3.
func (b *MessageHandlerBuilder[M, D, C]) Handler(fn func(*Context[M, D, C]) descriptor.Outcome) *descriptor.MessageHandlerDescriptor[Context[M, D, C]] {
	info := b.baseInfo(descriptor.Opaque)
	return &descriptor.MessageHandlerDescriptor[Context[M, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[M, D, C]) descriptor.HandlerFunc[Context[M, D, C]] {
			return func(dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
				b.runActions(&dctx)
				return futureor.Immediate(fn(&dctx))
			}
		},
	}
}

// Condition is one guarded alternative in a When chain: Predicate decides
// whether WhenTrue runs. Predicates may be asynchronous (spec §5): wrap a
// deferred computation with futureor.Deferred.
type Condition[M, D, C any] struct {
	Label     string
	Predicate func(*Context[M, D, C]) futureor.FutureOr[bool]
	WhenTrue  *descriptor.MessageHandlerDescriptor[Context[M, D, C]]
}

// When builds a descriptor that evaluates conditions in order and runs the
// first satisfied one's WhenTrue descriptor; if none match, it reports
// unhandled (spec §4.3's guard composition).
func (b *MessageHandlerBuilder[M, D, C]) When(conditions ...Condition[M, D, C]) *descriptor.MessageHandlerDescriptor[Context[M, D, C]] {
	info := b.baseInfo(descriptor.When)
	for _, cond := range conditions {
		info.Conditions = append(info.Conditions, descriptor.Condition{
			Label:    cond.Label,
			WhenTrue: cond.WhenTrue.Info,
		})
	}
	return &descriptor.MessageHandlerDescriptor[Context[M, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[M, D, C]) descriptor.HandlerFunc[Context[M, D, C]] {
			return func(dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
				return evaluateConditions(conditions, dctx)
			}
		},
	}
}

func evaluateConditions[M, D, C any](conditions []Condition[M, D, C], dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
	if len(conditions) == 0 {
		return futureor.Immediate(descriptor.OutcomeUnhandled)
	}
	cond := conditions[0]
	return futureor.Bind(cond.Predicate(&dctx), func(matched bool) futureor.FutureOr[descriptor.Outcome] {
		if !matched {
			return evaluateConditions(conditions[1:], dctx)
		}
		innerHandler := cond.WhenTrue.MakeHandler(dctx)
		return innerHandler(dctx)
	})
}

// Result mirrors an externally defined success|error result used by
// WhenResult (spec §4.3).
type Result[T any] struct {
	Value T
	Err   error
	ok    bool
}

// Ok wraps a successful Result value.
func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value, ok: true}
}

// Err wraps a failed Result.
func Err[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// WhenResult builds a descriptor that evaluates produce and, on success,
// invokes onSuccess with T placed in context; on failure it invokes
// onError if supplied, or else reports descriptor.Errored through the
// returned FutureOr[Outcome] (spec §4.3's WhenResult, spec §7's
// never-recovered-inside-the-core asynchronous error).
func WhenResult[M, D, C, T any](
	produce func(*Context[M, D, C]) futureor.FutureOr[Result[T]],
	onSuccess func(*Context[M, D, C], T) *descriptor.MessageHandlerDescriptor[Context[M, D, C]],
	onError func(*Context[M, D, C], error) *descriptor.MessageHandlerDescriptor[Context[M, D, C]],
) *descriptor.MessageHandlerDescriptor[Context[M, D, C]] {
	info := descriptor.Info{MessageKind: descriptor.WhenResult}.WithDefaultLabel()
	return &descriptor.MessageHandlerDescriptor[Context[M, D, C]]{
		Info: info,
		MakeContext: func(raw descriptor.MessageContext) (Context[M, D, C], error) {
			message, _ := raw.Message.(M)
			data, _ := raw.StateData.(D)
			user, _ := raw.User.(C)
			return Context[M, D, C]{Message: message, Data: data, AncestorData: raw.AncestorData, User: user}, nil
		},
		MakeHandler: func(Context[M, D, C]) descriptor.HandlerFunc[Context[M, D, C]] {
			return func(dctx Context[M, D, C]) futureor.FutureOr[descriptor.Outcome] {
				return futureor.Bind(produce(&dctx), func(result Result[T]) futureor.FutureOr[descriptor.Outcome] {
					if result.ok {
						next := onSuccess(&dctx, result.Value)
						return next.MakeHandler(dctx)(dctx)
					}
					if onError != nil {
						next := onError(&dctx, result.Err)
						return next.MakeHandler(dctx)(dctx)
					}
					return futureor.Immediate(descriptor.Errored(result.Err))
				})
			}
		},
	}
}
