package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"zkreduce/internal/typed"
)

func TestErrorReporterFormatsUnresolvedIdentifier(t *testing.T) {
	source := "def main(n: u32) -> u32 {\n  x_0 = n\n  return y_0\n}"
	reporter := NewErrorReporter(source)

	err := UnresolvedIdentifier("y", typed.Position{Filename: "prog", Line: 3, Column: 10})
	formatted := reporter.FormatError(err.CompilerError())

	assert.Contains(t, formatted, "error["+ErrorUnresolvedIdentifier+"]")
	assert.Contains(t, formatted, "unresolved identifier 'y'")
	assert.Contains(t, formatted, "prog:3:10")
	assert.Contains(t, formatted, "help")
}

func TestSignatureMismatchError(t *testing.T) {
	pos := typed.Position{Line: 1, Column: 1}
	err := SignatureMismatch("add", 2, 3, pos)
	assert.Equal(t, KindSignature, err.Kind)
	assert.Equal(t, ErrorSignatureMismatch, err.Inner.Code)
	assert.Contains(t, err.Inner.Message, "expects 2 argument(s), got 3")
}

func TestNonProgressingCallError(t *testing.T) {
	key := typed.FunctionKey{Name: "loop", Signature: typed.Signature{}}
	err := NonProgressingCall(key, typed.Position{Line: 4, Column: 2})
	assert.Equal(t, KindNonProgress, err.Kind)
	assert.Len(t, err.Inner.Notes, 1)
}

func TestUnboundedLoopError(t *testing.T) {
	err := UnboundedLoop(typed.Position{Line: 2, Column: 3})
	assert.Equal(t, KindUnboundedLoop, err.Kind)
	assert.Contains(t, err.Inner.Message, "did not reduce to constants")
}

func TestBudgetExceededError(t *testing.T) {
	err := BudgetExceeded("emitted statements", 1000, typed.Position{})
	assert.Equal(t, KindBudgetExceeded, err.Kind)
	assert.Contains(t, err.Inner.Message, "exceeded configured limit of 1000")
}

func TestRecursionDetectedError(t *testing.T) {
	err := RecursionDetected("fib", typed.Position{Line: 9, Column: 1})
	assert.Equal(t, KindRecursion, err.Kind)
	assert.Contains(t, err.Error(), "recursive call")
}

func TestWarningLevelFormatting(t *testing.T) {
	reporter := NewErrorReporter("x_0 = 1")
	warn := CompilerError{Level: Warning, Message: "unused binding", Position: typed.Position{Line: 1, Column: 1}}
	formatted := reporter.FormatError(warn)
	assert.Contains(t, formatted, "warning:")
}

func TestMarkerCreation(t *testing.T) {
	reporter := NewErrorReporter("x_0 = 1")
	marker := reporter.createMarker(5, Error)
	assert.Equal(t, 4, strings.Count(marker, " "))
	assert.Equal(t, 1, strings.Count(marker, "^"))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "Resolution", GetErrorCategory(ErrorUnresolvedIdentifier))
	assert.Equal(t, "Signature", GetErrorCategory(ErrorSignatureMismatch))
	assert.Equal(t, "Progress", GetErrorCategory(ErrorNonProgressingCall))
	assert.Equal(t, "Budget", GetErrorCategory(ErrorBudgetExceeded))
}
