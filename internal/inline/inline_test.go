package inline

import (
	"testing"

	"zkreduce/internal/builtins"
	"zkreduce/internal/typed"
)

func u32() typed.Type { return typed.Scalar(builtins.U32) }

func identity() *typed.Function {
	return &typed.Function{
		Arguments:  []typed.Argument{{Name: "x", Type: u32()}},
		Statements: []typed.Statement{&typed.ReturnStatement{Values: []typed.Expr{&typed.IdentExpr{ID: typed.NewIdentifier("x")}}}},
		Signature:  typed.Signature{Inputs: []typed.Type{u32()}, Outputs: []typed.Type{u32()}},
	}
}

func TestInlineSplicesPushAndPop(t *testing.T) {
	idFn := identity()
	key := typed.FunctionKey{Name: "id", Signature: idFn.Signature}

	call := &typed.MultiAssignment{
		LHS: []typed.Identifier{typed.NewIdentifier("y")},
		Call: typed.FunctionCallRHS{
			Callee: key,
			Args:   []typed.Expr{typed.NewUintLiteral(9, 32)},
		},
	}

	lookup := func(k typed.FunctionKey) (typed.FunctionSymbol, bool) {
		if k.Name == "id" {
			return typed.HereSymbol{Key: key, Function: idFn}, true
		}
		return nil, false
	}
	reduce := func(key typed.FunctionKey, fn *typed.Function, generics []uint64) (*typed.Function, error) {
		return fn, nil
	}

	out, err := NewInliner(lookup, reduce).InlineCall(call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected [PushCallLog, PopCallLog] (identity has no body besides its return), got %d statements", len(out))
	}
	push, ok := out[0].(*typed.PushCallLog)
	if !ok {
		t.Fatalf("expected PushCallLog, got %T", out[0])
	}
	if len(push.Bindings) != 1 {
		t.Fatalf("expected one parameter binding, got %d", len(push.Bindings))
	}
	if lit, ok := push.Bindings[0].Value.(*typed.UintLiteral); !ok || lit.Value.Uint64() != 9 {
		t.Fatalf("expected push binding value 9, got %#v", push.Bindings[0].Value)
	}

	pop, ok := out[1].(*typed.PopCallLog)
	if !ok {
		t.Fatalf("expected PopCallLog, got %T", out[1])
	}
	if pop.Bindings[0].Var.ID.Name != "y" {
		t.Fatalf("pop binding should target caller's destination 'y', got %s", pop.Bindings[0].Var.ID.Name)
	}
}

func TestInlineLeavesUnresolvedCallsAsError(t *testing.T) {
	call := &typed.MultiAssignment{
		LHS:  []typed.Identifier{typed.NewIdentifier("y")},
		Call: typed.FunctionCallRHS{Callee: typed.FunctionKey{Name: "missing"}},
	}
	lookup := func(typed.FunctionKey) (typed.FunctionSymbol, bool) { return nil, false }
	reduce := func(key typed.FunctionKey, fn *typed.Function, _ []uint64) (*typed.Function, error) { return fn, nil }

	if _, err := NewInliner(lookup, reduce).InlineCall(call); err == nil {
		t.Fatal("expected unresolved function error")
	}
}

func TestInlineLeavesPrimitiveCallsUntouched(t *testing.T) {
	call := &typed.MultiAssignment{
		LHS:  []typed.Identifier{typed.NewIdentifier("ok")},
		Call: typed.FunctionCallRHS{Callee: typed.FunctionKey{Name: "assert_eq"}},
	}
	lookup := func(typed.FunctionKey) (typed.FunctionSymbol, bool) {
		return typed.PrimitiveSymbol{Kind: builtins.PrimitiveAssertEq}, true
	}
	reduce := func(key typed.FunctionKey, fn *typed.Function, _ []uint64) (*typed.Function, error) { return fn, nil }

	out, err := NewInliner(lookup, reduce).InlineCall(call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out[0].(*typed.MultiAssignment); !ok {
		t.Fatalf("expected primitive call to survive untouched, got %T", out[0])
	}
}
