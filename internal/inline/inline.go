// Package inline splices callee function bodies into their call sites,
// replacing each call with a PushCallLog marker, the callee's (already
// reduced) statements renamed into a call-site-private namespace, and a
// PopCallLog marker binding the caller's destination variables to the
// callee's returned expressions.
package inline

import (
	"fmt"

	"zkreduce/internal/builtins"
	"zkreduce/internal/errors"
	"zkreduce/internal/typed"
)

// Lookup resolves a FunctionKey to the symbol that defines it.
type Lookup func(typed.FunctionKey) (typed.FunctionSymbol, bool)

// Reduce recursively reduces a callee function at a concrete set of
// generic bindings. Passed in by the driver rather than imported directly,
// to avoid an import cycle between internal/inline and internal/reducer.
// The callee's FunctionKey is threaded through so the driver can track
// which function is currently being reduced, for recursion detection.
type Reduce func(key typed.FunctionKey, fn *typed.Function, generics []uint64) (*typed.Function, error)

// Inliner resolves and splices one call site at a time. callSite
// accumulates across every InlineCall made on the same Inliner, so
// successive calls to the same callee within one reduction never collide
// on their namespaced locals.
type Inliner struct {
	lookup   Lookup
	reduce   Reduce
	callSite int
}

// NewInliner builds an Inliner over the given module lookup and recursive
// reduce callback.
func NewInliner(lookup Lookup, reduce Reduce) *Inliner {
	return &Inliner{lookup: lookup, reduce: reduce}
}

// InlineCall resolves call's callee and splices its body in, returning the
// replacement statements. A call to a primitive is returned unchanged (a
// primitive has no body to splice); a call to an unresolved symbol is an
// error. The driver is responsible for retrying a call whose generic
// arguments have not yet folded to literals — InlineCall always expects
// call.Call.Generics to already be literal by the time it is invoked.
func (in *Inliner) InlineCall(call *typed.MultiAssignment) ([]typed.Statement, error) {
	sym, ok := in.lookup(call.Call.Callee)
	if !ok {
		return nil, errors.UnresolvedFunction(call.Call.Callee, call.Pos)
	}

	switch callee := sym.(type) {
	case typed.HereSymbol:
		return in.inlineHere(call, callee.Key, callee.Function)
	default:
		// ThereSymbol (cross-module) and PrimitiveSymbol calls are left
		// as-is: the reducer only inlines locally defined functions.
		return []typed.Statement{call}, nil
	}
}

func (in *Inliner) inlineHere(call *typed.MultiAssignment, key typed.FunctionKey, callee *typed.Function) ([]typed.Statement, error) {
	generics := make([]uint64, len(call.Call.Generics))
	for i, g := range call.Call.Generics {
		lit, ok := g.(*typed.UintLiteral)
		if !ok {
			return nil, errors.NonProgressingCall(call.Call.Callee, call.Pos)
		}
		generics[i] = lit.Value.Uint64()
	}
	if len(generics) != len(callee.GenericParameters) {
		return nil, errors.GenericArityMismatch(call.Call.Callee.Name, len(callee.GenericParameters), len(generics), call.Pos)
	}

	reduced, err := in.reduce(key, callee, generics)
	if err != nil {
		return nil, err
	}
	if len(reduced.Arguments) != len(call.Call.Args) {
		return nil, errors.SignatureMismatch(call.Call.Callee.Name, len(reduced.Arguments), len(call.Call.Args), call.Pos)
	}

	callIndex := in.callSite
	in.callSite++
	prefix := fmt.Sprintf("%s$%d", call.Call.Callee.Name, callIndex)

	bindings := make([]typed.CallBinding, len(reduced.Arguments))
	for i, arg := range reduced.Arguments {
		bindings[i] = typed.CallBinding{
			Var:   typed.ConcreteVariable{ID: typed.Identifier{Name: namespacedName(prefix, arg.Name), Version: 0}, Type: arg.Type},
			Value: call.Call.Args[i],
		}
	}
	push := &typed.PushCallLog{
		Pos: call.Pos, Caller: "", Callee: call.Call.Callee, Generics: generics, Bindings: bindings,
	}

	body, retValues := splitReturn(reduced.Statements)
	renamedBody := make([]typed.Statement, len(body))
	for i, s := range body {
		renamedBody[i] = renameStatement(s, prefix)
	}
	renamedReturns := make([]typed.Expr, len(retValues))
	for i, e := range retValues {
		renamedReturns[i] = renameExpr(e, prefix)
	}

	if len(renamedReturns) != len(call.LHS) {
		return nil, errors.SignatureMismatch(call.Call.Callee.Name, len(renamedReturns), len(call.LHS), call.Pos)
	}
	popBindings := make([]typed.CallBinding, len(call.LHS))
	for i, lhs := range call.LHS {
		outType := typed.Scalar(builtins.ScalarKind(""))
		if i < len(reduced.Signature.Outputs) {
			outType = reduced.Signature.Outputs[i]
		}
		popBindings[i] = typed.CallBinding{Var: typed.ConcreteVariable{ID: lhs, Type: outType}, Value: renamedReturns[i]}
	}
	pop := &typed.PopCallLog{Pos: call.Pos, Bindings: popBindings}

	out := make([]typed.Statement, 0, len(renamedBody)+2)
	out = append(out, push)
	out = append(out, renamedBody...)
	out = append(out, pop)
	return out, nil
}

// splitReturn separates a reduced callee's trailing ReturnStatement (if
// any) from the rest of its body, so the return values can be consumed by
// a PopCallLog instead of re-emitted as a return.
func splitReturn(stmts []typed.Statement) ([]typed.Statement, []typed.Expr) {
	if len(stmts) == 0 {
		return stmts, nil
	}
	last, ok := stmts[len(stmts)-1].(*typed.ReturnStatement)
	if !ok {
		return stmts, nil
	}
	return stmts[:len(stmts)-1], last.Values
}

func namespacedName(prefix, name string) string {
	return prefix + "$" + name
}
