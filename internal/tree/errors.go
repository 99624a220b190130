package tree

import (
	"errors"
	"fmt"

	"github.com/arborhsm/statetree/internal/telemetry"
	"github.com/arborhsm/statetree/statekey"
)

// Code distinguishes the members of the single TreeDefinitionError family
// (spec §6.5, §7).
type Code int

const (
	CodeDuplicateState Code = iota
	CodeMissingInitialChild
	CodeUnknownInitialChild
	CodeInitialChildParentMismatch
	CodeImplicitRootInitialChildHasParent
	CodeUnknownParent
	CodeUnknownTransitionTarget
	CodeParentCycle
	CodeFinalAsParent
	CodeMissingMachineDoneHandler
)

func (c Code) String() string {
	switch c {
	case CodeDuplicateState:
		return "DuplicateState"
	case CodeMissingInitialChild:
		return "MissingInitialChild"
	case CodeUnknownInitialChild:
		return "UnknownInitialChild"
	case CodeInitialChildParentMismatch:
		return "InitialChildParentMismatch"
	case CodeImplicitRootInitialChildHasParent:
		return "ImplicitRootInitialChildHasParent"
	case CodeUnknownParent:
		return "UnknownParent"
	case CodeUnknownTransitionTarget:
		return "UnknownTransitionTarget"
	case CodeParentCycle:
		return "ParentCycle"
	case CodeFinalAsParent:
		return "FinalAsParent"
	case CodeMissingMachineDoneHandler:
		return "MissingMachineDoneHandler"
	default:
		return "Unknown"
	}
}

// Sentinel errors so callers can use errors.Is against a stable value
// instead of matching on Code or message text.
var (
	ErrDuplicateState                    = errors.New("duplicate state")
	ErrMissingInitialChild               = errors.New("missing initial child")
	ErrUnknownInitialChild                = errors.New("unknown initial child")
	ErrInitialChildParentMismatch        = errors.New("initial child parent mismatch")
	ErrImplicitRootInitialChildHasParent = errors.New("implicit root initial child has parent")
	ErrUnknownParent                     = errors.New("unknown parent")
	ErrUnknownTransitionTarget           = errors.New("unknown transition target")
	ErrParentCycle                       = errors.New("parent cycle")
	ErrFinalAsParent                     = errors.New("final as parent")
	ErrMissingMachineDoneHandler         = errors.New("missing machine done handler")
)

var sentinelByCode = map[Code]error{
	CodeDuplicateState:                    ErrDuplicateState,
	CodeMissingInitialChild:               ErrMissingInitialChild,
	CodeUnknownInitialChild:               ErrUnknownInitialChild,
	CodeInitialChildParentMismatch:        ErrInitialChildParentMismatch,
	CodeImplicitRootInitialChildHasParent: ErrImplicitRootInitialChildHasParent,
	CodeUnknownParent:                     ErrUnknownParent,
	CodeUnknownTransitionTarget:           ErrUnknownTransitionTarget,
	CodeParentCycle:                       ErrParentCycle,
	CodeFinalAsParent:                     ErrFinalAsParent,
	CodeMissingMachineDoneHandler:         ErrMissingMachineDoneHandler,
}

// DefinitionError is the single error family named in spec §6.5/§7: every
// structural failure this package produces is a *DefinitionError, carrying
// enough detail to render a good message while still supporting
// errors.Is(err, ErrParentCycle) style checks via Unwrap.
type DefinitionError struct {
	Code    Code
	Key     statekey.Key
	Message string
}

func (e *DefinitionError) Error() string {
	return e.Message
}

func (e *DefinitionError) Unwrap() error {
	return sentinelByCode[e.Code]
}

// fail constructs a DefinitionError and logs it at debug level before
// returning, so a caller with telemetry wired sees which declaration
// triggered the failure without parsing the message (SPEC_FULL.md §7).
func fail(logger telemetry.Logger, code Code, key statekey.Key, format string, args ...any) *DefinitionError {
	err := &DefinitionError{
		Code:    code,
		Key:     key,
		Message: fmt.Sprintf("%s: %s", code, fmt.Sprintf(format, args...)),
	}
	logger.Debug("definition error", "code", code.String(), "key", key.String(), "message", err.Message)
	return err
}
