package handler

import (
	"fmt"
	"reflect"
	"time"

	"github.com/arborhsm/statetree/descriptor"
	"github.com/arborhsm/statetree/futureor"
	"github.com/arborhsm/statetree/statekey"
)

// TransitionHandlerBuilder fluently accumulates an on_enter/on_exit
// descriptor for a state carrying data D, with caller context C
// (spec §4.2, §4.4).
type TransitionHandlerBuilder[D, C any] struct {
	label       string
	actions     []func(*Context[any, D, C])
	ancestorKey *statekey.Key
}

// OnTransition starts a transition-handler builder (used for on_enter and
// on_exit).
func OnTransition[D, C any]() *TransitionHandlerBuilder[D, C] {
	return &TransitionHandlerBuilder[D, C]{}
}

// Label sets the descriptor's diagram label.
func (b *TransitionHandlerBuilder[D, C]) Label(label string) *TransitionHandlerBuilder[D, C] {
	b.label = label
	return b
}

// WithAncestorData obliges the built descriptor to observe ancestor data
// (spec §4.2's on_enter_with_data[DAnc]).
func (b *TransitionHandlerBuilder[D, C]) WithAncestorData(key statekey.Key) *TransitionHandlerBuilder[D, C] {
	b.ancestorKey = &key
	return b
}

func (b *TransitionHandlerBuilder[D, C]) baseInfo(kind descriptor.TransitionHandlerType) descriptor.Info {
	info := descriptor.Info{
		Label:          b.label,
		IsTransition:   true,
		TransitionKind: kind,
	}
	for _, action := range b.actions {
		info.Actions = append(info.Actions, actionLabel(action))
	}
	if b.ancestorKey != nil {
		info.Metadata = map[string]any{"ancestor": b.ancestorKey.String()}
	}
	return info.WithDefaultLabel()
}

func (b *TransitionHandlerBuilder[D, C]) makeContext() func(descriptor.TransitionContext) (Context[any, D, C], error) {
	return func(raw descriptor.TransitionContext) (Context[any, D, C], error) {
		data, _ := raw.StateData.(D)
		user, _ := raw.User.(C)
		return Context[any, D, C]{
			Message:      raw.Event,
			Data:         data,
			AncestorData: raw.AncestorData,
			ChannelData:  raw.ChannelData,
			User:         user,
		}, nil
	}
}

// ChannelTransitionHandlerBuilder accumulates an on_enter descriptor obliged
// to consume a channel payload (spec §4.2's on_enter_from_channel[P]):
// unlike a bare TransitionHandlerBuilder, P is fixed by the
// statekey.Channel[P] passed to FromChannel, so every handler built from it
// receives a ChannelContext[P, D, C] whose Channel field is already P.
type ChannelTransitionHandlerBuilder[P, D, C any] struct {
	channel statekey.Channel[P]
	label   string
	actions []func(*ChannelContext[P, D, C])
}

// FromChannel starts a transition-handler builder obliged to consume ch's
// payload type P (spec §4.2's on_enter_from_channel[P]). P flows from ch
// into every handler built from the result, making the channel obligation a
// compile-time guarantee rather than the runtime cast a generic accessor
// would need.
func FromChannel[P, D, C any](ch statekey.Channel[P]) *ChannelTransitionHandlerBuilder[P, D, C] {
	return &ChannelTransitionHandlerBuilder[P, D, C]{channel: ch}
}

// Label sets the descriptor's diagram label.
func (b *ChannelTransitionHandlerBuilder[P, D, C]) Label(label string) *ChannelTransitionHandlerBuilder[P, D, C] {
	b.label = label
	return b
}

func (b *ChannelTransitionHandlerBuilder[P, D, C]) baseInfo(kind descriptor.TransitionHandlerType) descriptor.Info {
	info := descriptor.Info{
		Label:          b.label,
		IsTransition:   true,
		TransitionKind: kind,
		Metadata:       map[string]any{"channel": b.channel.Name()},
	}
	for _, action := range b.actions {
		info.Actions = append(info.Actions, actionLabel(action))
	}
	return info.WithDefaultLabel()
}

func (b *ChannelTransitionHandlerBuilder[P, D, C]) makeContext() func(descriptor.TransitionContext) (ChannelContext[P, D, C], error) {
	return func(raw descriptor.TransitionContext) (ChannelContext[P, D, C], error) {
		data, _ := raw.StateData.(D)
		user, _ := raw.User.(C)
		payload, ok := raw.ChannelData.(P)
		if !ok {
			return ChannelContext[P, D, C]{}, fmt.Errorf("handler: channel %q did not carry a %T payload", b.channel.Name(), payload)
		}
		return ChannelContext[P, D, C]{
			Context: Context[any, D, C]{
				Message:      raw.Event,
				Data:         data,
				AncestorData: raw.AncestorData,
				ChannelData:  raw.ChannelData,
				User:         user,
			},
			Channel: payload,
		}, nil
	}
}

// Run builds a descriptor that executes fn as a plain action, with fn's
// Channel field already typed as P (spec §4.3's Run kind, spec §4.2's
// on_enter_from_channel[P]).
func (b *ChannelTransitionHandlerBuilder[P, D, C]) Run(fn func(*ChannelContext[P, D, C])) *descriptor.TransitionHandlerDescriptor[ChannelContext[P, D, C]] {
	b.actions = append(b.actions, fn)
	info := b.baseInfo(descriptor.Run)
	return &descriptor.TransitionHandlerDescriptor[ChannelContext[P, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(ChannelContext[P, D, C]) descriptor.HandlerFunc[ChannelContext[P, D, C]] {
			return func(dctx ChannelContext[P, D, C]) futureor.FutureOr[descriptor.Outcome] {
				fn(&dctx)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// Run builds a descriptor that executes fn as a plain action (spec §4.3's
// Run kind).
func (b *TransitionHandlerBuilder[D, C]) Run(fn func(*Context[any, D, C])) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]] {
	b.actions = append(b.actions, fn)
	info := b.baseInfo(descriptor.Run)
	return &descriptor.TransitionHandlerDescriptor[Context[any, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[any, D, C]) descriptor.HandlerFunc[Context[any, D, C]] {
			return func(dctx Context[any, D, C]) futureor.FutureOr[descriptor.Outcome] {
				fn(&dctx)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// PostMessage builds a descriptor that hands a message to the executor's
// outgoing queue (spec §4.3's Post kind), given a factory
// and a delivery callback that hands the produced message to the executor.
func (b *TransitionHandlerBuilder[D, C]) PostMessage(produce func(*Context[any, D, C]) any, deliver func(*Context[any, D, C], any)) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]] {
	info := b.baseInfo(descriptor.Post)
	return &descriptor.TransitionHandlerDescriptor[Context[any, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[any, D, C]) descriptor.HandlerFunc[Context[any, D, C]] {
			return func(dctx Context[any, D, C]) futureor.FutureOr[descriptor.Outcome] {
				message := produce(&dctx)
				deliver(&dctx, message)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// Schedule builds a descriptor that asks the executor to post a message
// after duration, implicitly cancelled when the owning state exits
// (spec §4.3's Schedule kind, spec §5's cancellation rule — enforced by the
// executor, not this core).
func (b *TransitionHandlerBuilder[D, C]) Schedule(after func(*Context[any, D, C]) time.Duration, produce func(*Context[any, D, C]) any, deliver func(*Context[any, D, C], any, time.Duration)) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]] {
	info := b.baseInfo(descriptor.Schedule)
	return &descriptor.TransitionHandlerDescriptor[Context[any, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[any, D, C]) descriptor.HandlerFunc[Context[any, D, C]] {
			return func(dctx Context[any, D, C]) futureor.FutureOr[descriptor.Outcome] {
				duration := after(&dctx)
				message := produce(&dctx)
				deliver(&dctx, message, duration)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// UpdateData builds a descriptor that replaces this state's data value
// (spec §4.3's UpdateData kind); UpdateDataType is recorded on Info.
func (b *TransitionHandlerBuilder[D, C]) UpdateData(update func(*Context[any, D, C]) D) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]] {
	info := b.baseInfo(descriptor.UpdateData)
	var zero D
	info.UpdateDataType = reflect.TypeOf(zero)
	return &descriptor.TransitionHandlerDescriptor[Context[any, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[any, D, C]) descriptor.HandlerFunc[Context[any, D, C]] {
			return func(dctx Context[any, D, C]) futureor.FutureOr[descriptor.Outcome] {
				dctx.Data = update(&dctx)
				return futureor.Immediate(descriptor.OutcomeHandled)
			}
		},
	}
}

// TransitionCondition is one guarded alternative for a transition-level
// When chain.
type TransitionCondition[D, C any] struct {
	Label     string
	Predicate func(*Context[any, D, C]) futureor.FutureOr[bool]
	WhenTrue  *descriptor.TransitionHandlerDescriptor[Context[any, D, C]]
}

// When builds a descriptor that evaluates conditions in declaration order,
// running the first satisfied one's WhenTrue (spec §4.3's guard composition,
// transition-handler form).
func (b *TransitionHandlerBuilder[D, C]) When(conditions ...TransitionCondition[D, C]) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]] {
	info := b.baseInfo(descriptor.TransitionWhen)
	for _, cond := range conditions {
		info.Conditions = append(info.Conditions, descriptor.Condition{
			Label:    cond.Label,
			WhenTrue: cond.WhenTrue.Info,
		})
	}
	return &descriptor.TransitionHandlerDescriptor[Context[any, D, C]]{
		Info:        info,
		MakeContext: b.makeContext(),
		MakeHandler: func(Context[any, D, C]) descriptor.HandlerFunc[Context[any, D, C]] {
			return func(dctx Context[any, D, C]) futureor.FutureOr[descriptor.Outcome] {
				return evaluateTransitionConditions(conditions, dctx)
			}
		},
	}
}

func evaluateTransitionConditions[D, C any](conditions []TransitionCondition[D, C], dctx Context[any, D, C]) futureor.FutureOr[descriptor.Outcome] {
	if len(conditions) == 0 {
		return futureor.Immediate(descriptor.OutcomeUnhandled)
	}
	cond := conditions[0]
	return futureor.Bind(cond.Predicate(&dctx), func(matched bool) futureor.FutureOr[descriptor.Outcome] {
		if !matched {
			return evaluateTransitionConditions(conditions[1:], dctx)
		}
		return cond.WhenTrue.MakeHandler(dctx)(dctx)
	})
}

// TransitionWhenResult builds a descriptor that evaluates produce and
// dispatches to onSuccess or onError depending on the result (spec §4.3's
// WhenResult, transition-handler form); with no onError, it reports
// descriptor.Errored through the returned FutureOr[Outcome] instead of
// panicking (spec §7).
func TransitionWhenResult[D, C, T any](
	produce func(*Context[any, D, C]) futureor.FutureOr[Result[T]],
	onSuccess func(*Context[any, D, C], T) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]],
	onError func(*Context[any, D, C], error) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]],
) *descriptor.TransitionHandlerDescriptor[Context[any, D, C]] {
	info := descriptor.Info{IsTransition: true, TransitionKind: descriptor.TransitionWhenResult}.WithDefaultLabel()
	return &descriptor.TransitionHandlerDescriptor[Context[any, D, C]]{
		Info: info,
		MakeContext: func(raw descriptor.TransitionContext) (Context[any, D, C], error) {
			data, _ := raw.StateData.(D)
			user, _ := raw.User.(C)
			return Context[any, D, C]{Message: raw.Event, Data: data, AncestorData: raw.AncestorData, User: user}, nil
		},
		MakeHandler: func(Context[any, D, C]) descriptor.HandlerFunc[Context[any, D, C]] {
			return func(dctx Context[any, D, C]) futureor.FutureOr[descriptor.Outcome] {
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
