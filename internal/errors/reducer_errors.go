package errors

import (
	"fmt"

	"zkreduce/internal/typed"
)

// ErrorKind classifies why the reducer gave up, so callers can dispatch on
// the failure mode without parsing messages.
type ErrorKind int

const (
	KindResolution ErrorKind = iota
	KindSignature
	KindNonProgress
	KindUnboundedLoop
	KindRecursion
	KindBudgetExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindSignature:
		return "signature"
	case KindNonProgress:
		return "non-progress"
	case KindUnboundedLoop:
		return "unbounded-loop"
	case KindRecursion:
		return "recursion"
	case KindBudgetExceeded:
		return "budget-exceeded"
	default:
		return "unknown"
	}
}

// ReducerError is the single error type returned across package boundaries
// by internal/ssa, internal/inline, and internal/reducer (internal/constprop
// never fails; a fold it cannot make is simply declined). It wraps a CompilerError so every failure carries a
// position and, where applicable, suggestions a reporter can render.
type ReducerError struct {
	Kind  ErrorKind
	Inner CompilerError
}

func (e *ReducerError) Error() string {
	return e.Inner.Error()
}

// CompilerError exposes the underlying diagnostic for an ErrorReporter.
func (e *ReducerError) CompilerError() CompilerError { return e.Inner }

// UnresolvedIdentifier reports a read of an identifier with no binding
// reaching it in the current function.
func UnresolvedIdentifier(name string, pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorUnresolvedIdentifier, fmt.Sprintf("unresolved identifier '%s'", name), pos).
		WithSuggestion("make sure the variable is assigned on every path reaching this use").
		Build()
	return &ReducerError{Kind: KindResolution, Inner: inner}
}

// UnresolvedFunction reports a call to a function key absent from the
// calling module's (or an imported module's) function table.
func UnresolvedFunction(key typed.FunctionKey, pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorUnresolvedFunction, fmt.Sprintf("call to undefined function '%s'", key), pos).
		WithHelp("functions must be defined locally, imported, or a known primitive").
		Build()
	return &ReducerError{Kind: KindResolution, Inner: inner}
}

// SignatureMismatch reports a call site whose argument count disagrees
// with the callee's declared signature.
func SignatureMismatch(name string, expected, actual int, pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorSignatureMismatch,
		fmt.Sprintf("function '%s' expects %d argument(s), got %d", name, expected, actual), pos).
		WithSuggestion(fmt.Sprintf("provide exactly %d argument(s)", expected)).
		Build()
	return &ReducerError{Kind: KindSignature, Inner: inner}
}

// GenericArityMismatch reports a call site whose generic argument count
// disagrees with the callee's declared generic parameters.
func GenericArityMismatch(name string, expected, actual int, pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorGenericArityMismatch,
		fmt.Sprintf("function '%s' expects %d generic argument(s), got %d", name, expected, actual), pos).
		Build()
	return &ReducerError{Kind: KindSignature, Inner: inner}
}

// NonProgressingCall reports a call whose generic arguments did not fold to
// literals, so a fixed-point pass could not inline it and made no progress.
func NonProgressingCall(key typed.FunctionKey, pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorNonProgressingCall,
		fmt.Sprintf("call to '%s' does not make progress toward a fixed point", key), pos).
		WithNote("each inlined call must either resolve to a non-generic function or shrink its generic arguments").
		Build()
	return &ReducerError{Kind: KindNonProgress, Inner: inner}
}

// RecursionDetected reports a call chain that revisits a function already
// on the stack.
func RecursionDetected(name string, pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorRecursionDetected,
		fmt.Sprintf("recursive call to '%s' detected", name), pos).
		WithHelp("the reducer only terminates on acyclic call graphs").
		Build()
	return &ReducerError{Kind: KindRecursion, Inner: inner}
}

// UnboundedLoop reports a for-loop whose bounds did not fold to integer
// literals by the time the loop was reached.
func UnboundedLoop(pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorUnboundedLoop, "loop bounds did not reduce to constants", pos).
		WithSuggestion("loop bounds must be expressions over generic parameters and constants only").
		Build()
	return &ReducerError{Kind: KindUnboundedLoop, Inner: inner}
}

// BudgetExceeded reports that a configured reducer.Limits guardrail was
// exceeded.
func BudgetExceeded(what string, limit int, pos typed.Position) *ReducerError {
	inner := NewReducerError(ErrorBudgetExceeded,
		fmt.Sprintf("%s exceeded configured limit of %d", what, limit), pos).
		WithHelp("raise the corresponding reducer.Limits field if this program is genuinely this large").
		Build()
	return &ReducerError{Kind: KindBudgetExceeded, Inner: inner}
}
