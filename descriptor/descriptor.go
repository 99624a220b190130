// Package descriptor defines the inspectable handler descriptions used by
// states and transitions (spec §4.3): a descriptor pairs metadata sufficient
// to validate and render a diagram with a two-stage factory that an external
// executor uses to produce an actual handler.
package descriptor

import (
	"reflect"

	"github.com/arborhsm/statetree/futureor"
	"github.com/arborhsm/statetree/internal/keyid"
	"github.com/arborhsm/statetree/internal/kind"
	"github.com/arborhsm/statetree/statekey"
)

// Family kinds classify the message- and transition-handler kinds into the
// two shapes a diagram renderer cares about: a terminal handler resolves
// immediately to an outcome, a guarded handler fans out into ordered
// sub-descriptors (spec §4.3's When/WhenResult composition). Bit-packed via
// internal/kind the way the teacher classifies its own element kinds, so a
// renderer can ask "is this guarded" without a type switch over every enum
// member.
var (
	handlerKindFamily = kind.Make()
	terminalKind      = kind.Make(handlerKindFamily)
	guardedKind       = kind.Make(handlerKindFamily)
)

// FamilyKind reports which family a MessageHandlerType belongs to.
func (k MessageHandlerType) FamilyKind() kind.Kind {
	switch k {
	case When, WhenWithContext, WhenResult:
		return guardedKind
	default:
		return terminalKind
	}
}

// FamilyKind reports which family a TransitionHandlerType belongs to.
func (k TransitionHandlerType) FamilyKind() kind.Kind {
	switch k {
	case TransitionWhen, TransitionWhenResult:
		return guardedKind
	default:
		return terminalKind
	}
}

// IsGuarded reports whether info describes a guarded (fan-out) handler
// rather than a terminal one, using the FamilyKind bit-tags above.
func (info Info) IsGuarded() bool {
	if info.IsTransition {
		return kind.Is(info.TransitionKind.FamilyKind(), guardedKind)
	}
	return kind.Is(info.MessageKind.FamilyKind(), guardedKind)
}

// Result classifies what a compiled handler reports back to an external
// executor.
type Result int

const (
	// ResultUnhandled signals that the handler did not act on the message
	// or event; the executor is expected to escalate to the parent state.
	ResultUnhandled Result = iota
	// ResultHandled signals that the handler fully processed the message.
	ResultHandled
	// ResultErrored signals that the handler raised an asynchronous error
	// instead of producing a normal result (spec §4.3's WhenResult with no
	// onError continuation, spec §7's "surfaced ... as asynchronous errors
	// to the executor — never recovered inside the core").
	ResultErrored
)

// Outcome is what a compiled handler reports back to an external executor.
// Err is populated only when Result is ResultErrored.
type Outcome struct {
	Result Result
	Err    error
}

var (
	// OutcomeUnhandled is the zero-value outcome reported by handlers that
	// didn't act on the message.
	OutcomeUnhandled = Outcome{Result: ResultUnhandled}
	// OutcomeHandled is reported by handlers that fully processed the
	// message.
	OutcomeHandled = Outcome{Result: ResultHandled}
)

// Errored builds the Outcome a WhenResult/TransitionWhenResult descriptor
// reports when produce fails and no onError continuation was registered —
// delivered through the same FutureOr[Outcome] channel every other outcome
// uses, rather than panicking across it.
func Errored(err error) Outcome {
	return Outcome{Result: ResultErrored, Err: err}
}

// MessageHandlerType enumerates the shapes a message handler can take
// (spec §4.3).
type MessageHandlerType int

const (
	GoTo MessageHandlerType = iota
	GoToSelf
	Stay
	Unhandled
	When
	WhenWithContext
	WhenResult
	Opaque // "handler" in spec terms: an escape hatch for opaque callbacks
)

func (k MessageHandlerType) String() string {
	switch k {
	case GoTo:
		return "go_to"
	case GoToSelf:
		return "go_to_self"
	case Stay:
		return "stay"
	case Unhandled:
		return "unhandled"
	case When:
		return "when"
	case WhenWithContext:
		return "when_with_context"
	case WhenResult:
		return "when_result"
	case Opaque:
		return "handler"
	default:
		return "unknown"
	}
}

// TransitionHandlerType enumerates the shapes a transition handler (on_enter,
// on_exit, or a transition's effect) can take (spec §4.3).
type TransitionHandlerType int

const (
	Run TransitionHandlerType = iota
	Post
	Schedule
	UpdateData
	TransitionWhen
	TransitionWhenResult
)

func (k TransitionHandlerType) String() string {
	switch k {
	case Run:
		return "run"
	case Post:
		return "post"
	case Schedule:
		return "schedule"
	case UpdateData:
		return "update_data"
	case TransitionWhen:
		return "when"
	case TransitionWhenResult:
		return "when_result"
	default:
		return "unknown"
	}
}

// Condition is the inspectable half of a guarded "when" alternative: a
// label for diagram rendering plus the Info of the sub-descriptor that runs
// if the predicate it guards is satisfied. At runtime the first satisfied
// predicate wins, in declaration order (spec §4.3).
type Condition struct {
	Label    string
	WhenTrue Info
}

// Info is the inspectable half of any descriptor: everything needed to
// validate go-to targets and render a diagram without invoking any factory
// (spec §4.3, §4.5).
type Info struct {
	// Label is a short human-readable name, defaulted via internal/keyid
	// when the caller doesn't supply one, so diagrams never show a blank
	// node.
	Label string

	// MessageKind / TransitionKind are mutually exclusive views of which
	// family this Info describes; exactly one of them is meaningful,
	// selected by IsTransition.
	MessageKind    MessageHandlerType
	TransitionKind TransitionHandlerType
	IsTransition   bool

	// MessageType / MessageName identify how a message-keyed handler is
	// looked up: by runtime type (MessageType set) or by value equality
	// (MessageName set, spec §4.2's "message?" argument).
	MessageType reflect.Type
	MessageName string

	// PostMessageType / UpdateDataType mirror the transition-handler fields
	// named in spec §4.3 ("Fields include post_message_type ... and
	// update_data_type") so a diagram renderer can show what a post/
	// update_data action produces without running it.
	PostMessageType reflect.Type
	UpdateDataType  reflect.Type

	// GoToTarget is populated only for MessageKind == GoTo; the validator
	// (spec §4.1 step 6) requires every non-nil GoToTarget to name a
	// declared state.
	GoToTarget *statekey.Key

	// Actions lists the labels of side-effecting actions a handler runs,
	// for diagram annotation.
	Actions []string

	// Conditions lists the ordered guarded alternatives for When /
	// TransitionWhen descriptors. Evaluation order equals declaration
	// order (spec §5).
	Conditions []Condition

	// Metadata is an opaque pass-through for executor- or renderer-specific
	// annotations (spec §3.2's "filters, metadata").
	Metadata map[string]any
}

// WithDefaultLabel returns info with Label populated if it was empty.
func (info Info) WithDefaultLabel() Info {
	if info.Label == "" {
		info.Label = keyid.NewLabel()
	}
	return info
}

// MessageHandlerDescriptor pairs an Info with the two-stage factory an
// executor uses to produce a live handler: MakeContext adapts a raw message
// context into the descriptor's typed C, then MakeHandler turns that C into
// the function the executor actually calls.
type MessageHandlerDescriptor[C any] struct {
	Info        Info
	MakeContext func(raw MessageContext) (C, error)
	MakeHandler func(dctx C) HandlerFunc[C]
}

// HandlerFunc is the function an executor invokes with the live, typed
// descriptor context. It returns a FutureOr so synchronous handlers resolve
// immediately and asynchronous ones can defer (spec §5).
type HandlerFunc[C any] func(dctx C) futureor.FutureOr[Outcome]

// MessageContext is the raw, untyped envelope an executor hands to
// MakeContext: the incoming message, the state's own data, any ancestor
// data reachable by key, and an opaque user-supplied context value.
type MessageContext struct {
	Message      any
	StateData    any
	AncestorData map[statekey.Key]any
	User         any
}

// TransitionContext is the raw, untyped envelope for on_enter/on_exit and
// transition-effect descriptors.
type TransitionContext struct {
	Event        any
	StateData    any
	AncestorData map[statekey.Key]any
	ChannelData  any
	User         any
}

// TransitionHandlerDescriptor is the transition-handler counterpart of
// MessageHandlerDescriptor (spec §4.3).
type TransitionHandlerDescriptor[C any] struct {
	Info        Info
	MakeContext func(raw TransitionContext) (C, error)
	MakeHandler func(dctx C) HandlerFunc[C]
}

// Described is the type-erased view of either descriptor kind: the
// materializer and validator only ever need a descriptor's Info, never its
// typed factory (spec §4.1 step 6 validates go-to targets from Info alone).
// This is what lets a StateBuilder hold a heterogeneous map of descriptors
// whose M/D/C type parameters differ per handler.
type Described interface {
	DescriptorInfo() Info
}

// DescriptorInfo implements Described for MessageHandlerDescriptor.
func (d *MessageHandlerDescriptor[C]) DescriptorInfo() Info {
	return d.Info
}

// DescriptorInfo implements Described for TransitionHandlerDescriptor.
func (d *TransitionHandlerDescriptor[C]) DescriptorInfo() Info {
	return d.Info
}
