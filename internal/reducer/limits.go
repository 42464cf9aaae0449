package reducer

// Limits bounds the work the driver is willing to do, so a malformed or
// adversarial program fails fast with a BudgetExceeded error instead of
// hanging or exhausting memory.
type Limits struct {
	// MaxInlineDepth bounds how many call frames deep the driver will
	// recurse while inlining.
	MaxInlineDepth int
	// MaxUnrollIterations bounds the total number of loop iterations
	// unrolled across a single function reduction.
	MaxUnrollIterations int
	// MaxStatements bounds the number of statements a single reduced
	// function may emit.
	MaxStatements int
	// MaxDriverIterations bounds how many fixed-point passes a single
	// function reduction may take over its own statement list. Each pass
	// resolves at least one previously-blocked call or loop, so this is a
	// backstop against a driver bug rather than a limit real programs are
	// expected to approach.
	MaxDriverIterations int
}

// DefaultLimits returns generous guardrails suitable for ordinary
// programs.
func DefaultLimits() Limits {
	return Limits{
		MaxInlineDepth:      64,
		MaxUnrollIterations: 1 << 20,
		MaxStatements:       1 << 20,
		MaxDriverIterations: 1 << 16,
	}
}
