package errors

// Error codes for the reducer.
//
// Code ranges:
// R0001-R0099: resolution and binding errors
// R0100-R0199: signature/arity errors
// R0200-R0299: progress and termination errors
// R0300-R0399: resource budget errors

const (
	// R0001: a variable or function reference could not be resolved.
	ErrorUnresolvedIdentifier = "R0001"

	// R0002: a call targets a function key with no matching symbol.
	ErrorUnresolvedFunction = "R0002"

	// R0100: a monomorphized call site's argument count does not match
	// the callee's declared signature.
	ErrorSignatureMismatch = "R0100"

	// R0101: a generic argument list's length does not match the
	// callee's declared generic parameters.
	ErrorGenericArityMismatch = "R0101"

	// R0200: a call's generic arguments did not reduce to literals, so a
	// fixed-point pass could not inline it — inlining cannot make progress.
	ErrorNonProgressingCall = "R0200"

	// R0201: a recursive call was encountered; the reducer only
	// terminates on acyclic call graphs.
	ErrorRecursionDetected = "R0201"

	// R0202: a for-loop's bounds did not reduce to integer literals by
	// the time the loop was reached, so it cannot be unrolled.
	ErrorUnboundedLoop = "R0202"

	// R0300: a configured Limits guardrail was exceeded.
	ErrorBudgetExceeded = "R0300"
)

// GetErrorDescription returns a human-readable description of the error code.
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUnresolvedIdentifier:
		return "identifier has no binding in the current function"
	case ErrorUnresolvedFunction:
		return "call targets a function with no matching definition"
	case ErrorSignatureMismatch:
		return "call site argument count does not match the callee's signature"
	case ErrorGenericArityMismatch:
		return "call site generic argument count does not match the callee's generic parameters"
	case ErrorNonProgressingCall:
		return "inlining this call would not make progress toward a fixed point"
	case ErrorRecursionDetected:
		return "call graph contains a cycle"
	case ErrorUnboundedLoop:
		return "loop bounds did not reduce to constants"
	case ErrorBudgetExceeded:
		return "a reduction guardrail was exceeded"
	default:
		return "unknown error code"
	}
}

// GetErrorCategory returns the category of the error based on its code.
func GetErrorCategory(code string) string {
	switch {
	case code >= "R0001" && code < "R0100":
		return "Resolution"
	case code >= "R0100" && code < "R0200":
		return "Signature"
	case code >= "R0200" && code < "R0300":
		return "Progress"
	case code >= "R0300" && code < "R0400":
		return "Budget"
	default:
		return "Unknown"
	}
}
