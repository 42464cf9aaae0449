// Package reducer drives the fixed-point reduction of a circuit-language
// program: binding each function's generics to concrete values, renaming
// its locals into shallow SSA, then repeatedly attempting to unroll every
// constant-bounded loop and inline every call to a locally defined
// function (recursively reducing each callee first) until a single pass
// makes no further progress, propagating constants across the emitted
// statements as it goes.
package reducer

import (
	"fmt"

	"zkreduce/internal/constprop"
	"zkreduce/internal/errors"
	"zkreduce/internal/inline"
	"zkreduce/internal/ssa"
	"zkreduce/internal/typed"
)

// Driver holds the program's function tables, the guardrails bounding a
// single Reduce call, and the set of (function, generics) pairs currently
// on the reduction call stack, used to reject recursive call graphs.
type Driver struct {
	program *typed.Program
	limits  Limits
	active  map[string]bool
}

// New builds a Driver over program with the given Limits.
func New(program *typed.Program, limits Limits) *Driver {
	return &Driver{program: program, limits: limits, active: map[string]bool{}}
}

// Reduce fully reduces program's entry module's main function: every call
// is inlined, every constant-bounded loop is unrolled, and the result
// contains only the monomorphic, call-free, loop-free statement forms a
// downstream circuit builder understands.
func Reduce(program *typed.Program) (*typed.Program, error) {
	return New(program, DefaultLimits()).Reduce()
}

// Reduce runs d's configured Limits over d.program.
func (d *Driver) Reduce() (*typed.Program, error) {
	key, main, ok := d.program.MainFunction()
	if !ok {
		return nil, errors.UnresolvedFunction(typed.FunctionKey{Name: "main"}, typed.Position{})
	}

	reduced, err := d.reduce(key, main, nil, 0)
	if err != nil {
		return nil, err
	}

	out := &typed.Program{Modules: map[string]*typed.Module{}, EntryModule: d.program.EntryModule}
	outMod := &typed.Module{Name: d.program.EntryModule}
	outMod.Define(key, typed.HereSymbol{Key: key, Function: reduced})
	out.Modules[d.program.EntryModule] = outMod
	return out, nil
}

// recursionKey identifies a function at a concrete set of generic
// bindings, so a function called twice with different generics (which
// always terminates, since each call site's generics are independent) is
// not mistaken for recursion, while a genuine cycle — including main
// calling itself — is caught.
func recursionKey(key typed.FunctionKey, generics []uint64) string {
	return fmt.Sprintf("%s@%v", key.String(), generics)
}

// reduce wraps reduceFunction with cycle detection: re-entering a
// (function, generics) pair already on the active call stack means the
// call graph is recursive, which the driver cannot unroll into a finite,
// loop-free circuit.
func (d *Driver) reduce(key typed.FunctionKey, fn *typed.Function, generics []uint64, depth int) (*typed.Function, error) {
	rk := recursionKey(key, generics)
	if d.active[rk] {
		return nil, errors.RecursionDetected(key.String(), typed.Position{})
	}
	d.active[rk] = true
	defer delete(d.active, rk)

	return d.reduceFunction(fn, generics, depth)
}

// reduceFunction binds generics and renames fn to shallow SSA, then
// iterates a single left-to-right walk over its statements to a fixed
// point: each pass inlines every call whose generic arguments already fold
// to literals and unrolls every loop whose bounds already fold to
// literals, stopping when nothing remains unresolved. A pass that resolves
// nothing, while statements are still pending, means the program cannot
// reduce further — either a loop bound or a call's generics depend on a
// value that will never become constant.
func (d *Driver) reduceFunction(fn *typed.Function, generics []uint64, depth int) (*typed.Function, error) {
	if depth > d.limits.MaxInlineDepth {
		return nil, errors.BudgetExceeded("inline depth", d.limits.MaxInlineDepth, typed.Position{})
	}

	ssaResult, err := ssa.Transform(fn, generics)
	if err != nil {
		return nil, err
	}

	lookup := d.lookupIn(d.program.EntryModule)
	reduceCallback := func(calleeKey typed.FunctionKey, callee *typed.Function, callGenerics []uint64) (*typed.Function, error) {
		return d.reduce(calleeKey, callee, callGenerics, depth+1)
	}
	w := &walker{
		limits:        d.limits,
		inliner:       inline.NewInliner(lookup, reduceCallback),
		loopSnapshots: ssaResult.LoopSnapshots,
	}

	e := env{}
	versions := ssaResult.FinalVersions
	pending := ssaResult.Function.Statements
	stale := false
	var final []typed.Statement

	for iteration := 0; ; iteration++ {
		if iteration > d.limits.MaxDriverIterations {
			return nil, errors.BudgetExceeded("driver fixed-point iterations", d.limits.MaxDriverIterations, typed.Position{})
		}

		emitted, remainder, newStale, err := w.process(pending, e, versions, stale)
		if err != nil {
			return nil, err
		}
		final = append(final, emitted...)
		final = constprop.Propagate(&typed.Function{Statements: final}).Statements
		stale = newStale

		if remainder == nil {
			break
		}
		if len(emitted) == 0 {
			return nil, blockerError(remainder[0])
		}
		pending = remainder
	}

	return &typed.Function{
		GenericParameters: nil,
		Arguments:         ssaResult.Function.Arguments,
		Statements:        final,
		Signature:         ssaResult.Function.Signature,
	}, nil
}

// blockerError reports why a fixed-point pass that resolved nothing is
// stuck, keyed off the kind of statement it got stuck on.
func blockerError(s typed.Statement) error {
	switch v := s.(type) {
	case *typed.ForStatement:
		return errors.UnboundedLoop(v.Pos)
	case *typed.MultiAssignment:
		return errors.NonProgressingCall(v.Call.Callee, v.Pos)
	default:
		return errors.NonProgressingCall(typed.FunctionKey{}, s.StmtPos())
	}
}

func (d *Driver) lookupIn(moduleName string) inline.Lookup {
	return func(key typed.FunctionKey) (typed.FunctionSymbol, bool) {
		mod, ok := d.program.Modules[moduleName]
		if !ok {
			return nil, false
		}
		sym, ok := mod.Lookup(key)
		if !ok {
			return nil, false
		}
		if there, ok := sym.(typed.ThereSymbol); ok {
			return d.lookupIn(there.Module)(there.Key)
		}
		return sym, true
	}
}
