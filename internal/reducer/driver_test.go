package reducer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkreduce/internal/builtins"
	"zkreduce/internal/errors"
	"zkreduce/internal/typed"
)

func u32Type() typed.Type { return typed.Scalar(builtins.U32) }

func ident(name string) *typed.IdentExpr { return &typed.IdentExpr{ID: typed.NewIdentifier(name)} }

func singleFunctionProgram(fn *typed.Function) *typed.Program {
	key := typed.FunctionKey{Name: "main", Signature: fn.Signature}
	mod := &typed.Module{Name: "main"}
	mod.Define(key, typed.HereSymbol{Key: key, Function: fn})
	return &typed.Program{
		EntryModule: "main",
		Modules:     map[string]*typed.Module{"main": mod},
	}
}

// A function that reassigns its own argument: the write bumps n to version
// 1, and the return reads that version.
func TestReduceStraightLineReassignment(t *testing.T) {
	fn := &typed.Function{
		Arguments: []typed.Argument{{Name: "n", Type: u32Type()}},
		Statements: []typed.Statement{
			&typed.Assignment{LHS: typed.NewIdentifier("n"), RHS: &typed.BinaryExpr{Op: typed.OpAdd, Left: ident("n"), Right: typed.NewUintLiteral(1, 32)}},
			&typed.ReturnStatement{Values: []typed.Expr{ident("n")}},
		},
		Signature: typed.Signature{Inputs: []typed.Type{u32Type()}, Outputs: []typed.Type{u32Type()}},
	}

	out, err := Reduce(singleFunctionProgram(fn))
	require.NoError(t, err)

	_, reducedMain, ok := out.MainFunction()
	require.True(t, ok)
	require.Len(t, reducedMain.Statements, 2)

	assign := reducedMain.Statements[0].(*typed.Assignment)
	assert.Equal(t, 1, assign.LHS.Version)

	ret := reducedMain.Statements[1].(*typed.ReturnStatement)
	assert.Equal(t, 1, ret.Values[0].(*typed.IdentExpr).ID.Version)
}

// A call to a locally defined, non-generic function gets fully inlined
// into Push/body/Pop call-log form.
func TestReduceInlinesLocalCall(t *testing.T) {
	inc := &typed.Function{
		Arguments:  []typed.Argument{{Name: "x", Type: u32Type()}},
		Statements: []typed.Statement{&typed.ReturnStatement{Values: []typed.Expr{&typed.BinaryExpr{Op: typed.OpAdd, Left: ident("x"), Right: typed.NewUintLiteral(1, 32)}}}},
		Signature:  typed.Signature{Inputs: []typed.Type{u32Type()}, Outputs: []typed.Type{u32Type()}},
	}
	incKey := typed.FunctionKey{Name: "inc", Signature: inc.Signature}

	main := &typed.Function{
		Statements: []typed.Statement{
			&typed.MultiAssignment{
				LHS:  []typed.Identifier{typed.NewIdentifier("y")},
				Call: typed.FunctionCallRHS{Callee: incKey, Args: []typed.Expr{typed.NewUintLiteral(5, 32)}},
			},
			&typed.ReturnStatement{Values: []typed.Expr{ident("y")}},
		},
		Signature: typed.Signature{Outputs: []typed.Type{u32Type()}},
	}
	mainKey := typed.FunctionKey{Name: "main", Signature: main.Signature}

	mod := &typed.Module{Name: "main"}
	mod.Define(mainKey, typed.HereSymbol{Key: mainKey, Function: main})
	mod.Define(incKey, typed.HereSymbol{Key: incKey, Function: inc})
	program := &typed.Program{
		EntryModule: "main",
		Modules:     map[string]*typed.Module{"main": mod},
	}

	out, err := Reduce(program)
	require.NoError(t, err)

	_, reducedMain, ok := out.MainFunction()
	require.True(t, ok)

	_, isPush := reducedMain.Statements[0].(*typed.PushCallLog)
	assert.True(t, isPush, "expected first statement to be a PushCallLog, got %T", reducedMain.Statements[0])

	last := reducedMain.Statements[len(reducedMain.Statements)-1]
	_, isReturn := last.(*typed.ReturnStatement)
	assert.True(t, isReturn)
}

// Grounded on the upstream "generics requiring propagation" scenario:
// foo<K>(a: field[K]) -> field[K] { return a } is called with a generic
// argument (n-1) that only folds to a literal after main reassigns n to a
// constant earlier in the same body. The call must still inline with
// generics=[1], exactly as if the call site had written foo(b) against a
// field[1] directly.
func TestReduceFoldsGenericArgumentBeforeInlining(t *testing.T) {
	fieldTy := typed.Scalar(builtins.Field)
	foo := &typed.Function{
		GenericParameters: []string{"K"},
		Arguments:         []typed.Argument{{Name: "a", Type: typed.Array(fieldTy, ident("K"))}},
		Statements:        []typed.Statement{&typed.ReturnStatement{Values: []typed.Expr{ident("a")}}},
		Signature: typed.Signature{
			Inputs:  []typed.Type{typed.Array(fieldTy, ident("K"))},
			Outputs: []typed.Type{typed.Array(fieldTy, ident("K"))},
		},
	}
	fooKey := typed.FunctionKey{Name: "foo", Signature: foo.Signature}

	u32Ty := u32Type()
	bType := typed.Array(fieldTy, &typed.BinaryExpr{Op: typed.OpSub, Left: ident("n"), Right: typed.NewUintLiteral(1, 32)})
	main := &typed.Function{
		Statements: []typed.Statement{
			&typed.Assignment{LHS: typed.NewIdentifier("n"), DeclaredType: &u32Ty, RHS: typed.NewUintLiteral(2, 32)},
			&typed.Assignment{LHS: typed.NewIdentifier("b"), DeclaredType: &bType, RHS: &typed.ArrayLiteral{Elements: []typed.Expr{&typed.FieldLiteral{Value: big.NewInt(42)}}}},
			&typed.MultiAssignment{
				LHS: []typed.Identifier{typed.NewIdentifier("b")},
				Call: typed.FunctionCallRHS{
					Callee:   fooKey,
					Generics: []typed.Expr{&typed.BinaryExpr{Op: typed.OpSub, Left: ident("n"), Right: typed.NewUintLiteral(1, 32)}},
					Args:     []typed.Expr{ident("b")},
				},
			},
			&typed.ReturnStatement{Values: []typed.Expr{ident("b")}},
		},
		Signature: typed.Signature{Outputs: []typed.Type{typed.Array(fieldTy, typed.NewUintLiteral(1, 0))}},
	}

	mainKey := typed.FunctionKey{Name: "main", Signature: main.Signature}
	mod := &typed.Module{Name: "main"}
	mod.Define(mainKey, typed.HereSymbol{Key: mainKey, Function: main})
	mod.Define(fooKey, typed.HereSymbol{Key: fooKey, Function: foo})
	program := &typed.Program{
		EntryModule: "main",
		Modules:     map[string]*typed.Module{"main": mod},
	}

	out, err := Reduce(program)
	require.NoError(t, err)

	_, reducedMain, ok := out.MainFunction()
	require.True(t, ok)

	var push *typed.PushCallLog
	for _, s := range reducedMain.Statements {
		if p, ok := s.(*typed.PushCallLog); ok {
			push = p
			break
		}
	}
	require.NotNil(t, push, "expected an inlined PushCallLog")
	require.Equal(t, []uint64{1}, push.Generics)
}

// A constant-bounded loop unrolls into one copy of its body per iteration.
func TestReduceUnrollsConstantLoop(t *testing.T) {
	u32 := u32Type()
	fn := &typed.Function{
		Statements: []typed.Statement{
			&typed.Assignment{LHS: typed.NewIdentifier("acc"), DeclaredType: &u32, RHS: typed.NewUintLiteral(0, 32)},
			&typed.ForStatement{
				Induction: "i",
				Lower:     typed.NewUintLiteral(0, 32),
				Upper:     typed.NewUintLiteral(3, 32),
				Body: []typed.Statement{
					&typed.Assignment{LHS: typed.NewIdentifier("acc"), RHS: &typed.BinaryExpr{Op: typed.OpAdd, Left: ident("acc"), Right: ident("i")}},
				},
			},
			&typed.ReturnStatement{Values: []typed.Expr{ident("acc")}},
		},
		Signature: typed.Signature{Outputs: []typed.Type{u32Type()}},
	}

	out, err := Reduce(singleFunctionProgram(fn))
	require.NoError(t, err)

	_, reducedMain, ok := out.MainFunction()
	require.True(t, ok)

	// acc declaration + 3 unrolled body copies + return == 5 statements,
	// with no ForStatement left in the output.
	assert.Len(t, reducedMain.Statements, 5)
	for _, s := range reducedMain.Statements {
		_, isFor := s.(*typed.ForStatement)
		assert.False(t, isFor, "no ForStatement should survive reduction")
	}

	// The trailing return must track acc's true final version reached
	// after all three unrolled copies, not whatever version a single
	// (non-unrolling) SSA pass over the loop body assigned it.
	last := reducedMain.Statements[len(reducedMain.Statements)-1].(*typed.ReturnStatement)
	lastAssign := reducedMain.Statements[len(reducedMain.Statements)-2].(*typed.Assignment)
	assert.Equal(t, lastAssign.LHS.Version, last.Values[0].(*typed.IdentExpr).ID.Version)
	assert.Equal(t, 3, last.Values[0].(*typed.IdentExpr).ID.Version)
}

// A loop whose upper bound is a runtime (non-constant) argument cannot be
// unrolled and must fail with KindUnboundedLoop.
func TestReduceFailsOnUnboundedLoop(t *testing.T) {
	fn := &typed.Function{
		Arguments: []typed.Argument{{Name: "n", Type: u32Type()}},
		Statements: []typed.Statement{
			&typed.ForStatement{
				Induction: "i",
				Lower:     typed.NewUintLiteral(0, 32),
				Upper:     ident("n"),
				Body:      []typed.Statement{&typed.AssertStatement{Cond: &typed.BoolLiteral{Value: true}}},
			},
			&typed.ReturnStatement{},
		},
		Signature: typed.Signature{Inputs: []typed.Type{u32Type()}},
	}

	_, err := Reduce(singleFunctionProgram(fn))
	require.Error(t, err)
	reducerErr, ok := err.(*errors.ReducerError)
	require.True(t, ok, "expected *errors.ReducerError, got %T", err)
	assert.Equal(t, errors.KindUnboundedLoop, reducerErr.Kind)
}

func TestReduceFailsWhenMainMissing(t *testing.T) {
	program := &typed.Program{EntryModule: "main", Modules: map[string]*typed.Module{"main": {Name: "main", Functions: map[string]typed.FunctionSymbol{}}}}
	_, err := Reduce(program)
	require.Error(t, err)
}

// A loop bound that only becomes constant after an earlier call has been
// inlined: get_n() returns a literal, and only once that PopCallLog binding
// has grown the driver's constant environment can the loop's upper bound
// fold. This exercises the fixed-point interplay between inlining and
// unrolling directly, rather than the plain-Assignment path the generics
// test above covers.
func TestReduceUnrollsLoopBoundedByInlinedCallResult(t *testing.T) {
	getN := &typed.Function{
		Statements: []typed.Statement{&typed.ReturnStatement{Values: []typed.Expr{typed.NewUintLiteral(3, 32)}}},
		Signature:  typed.Signature{Outputs: []typed.Type{u32Type()}},
	}
	getNKey := typed.FunctionKey{Name: "get_n", Signature: getN.Signature}

	u32 := u32Type()
	main := &typed.Function{
		Statements: []typed.Statement{
			&typed.MultiAssignment{
				LHS:  []typed.Identifier{typed.NewIdentifier("n")},
				Call: typed.FunctionCallRHS{Callee: getNKey},
			},
			&typed.Assignment{LHS: typed.NewIdentifier("acc"), DeclaredType: &u32, RHS: typed.NewUintLiteral(0, 32)},
			&typed.ForStatement{
				Induction: "i",
				Lower:     typed.NewUintLiteral(0, 32),
				Upper:     ident("n"),
				Body: []typed.Statement{
					&typed.Assignment{LHS: typed.NewIdentifier("acc"), RHS: &typed.BinaryExpr{Op: typed.OpAdd, Left: ident("acc"), Right: ident("i")}},
				},
			},
			&typed.ReturnStatement{Values: []typed.Expr{ident("acc")}},
		},
		Signature: typed.Signature{Outputs: []typed.Type{u32Type()}},
	}
	mainKey := typed.FunctionKey{Name: "main", Signature: main.Signature}

	mod := &typed.Module{Name: "main"}
	mod.Define(mainKey, typed.HereSymbol{Key: mainKey, Function: main})
	mod.Define(getNKey, typed.HereSymbol{Key: getNKey, Function: getN})
	program := &typed.Program{EntryModule: "main", Modules: map[string]*typed.Module{"main": mod}}

	out, err := Reduce(program)
	require.NoError(t, err)

	_, reducedMain, ok := out.MainFunction()
	require.True(t, ok)
	for _, s := range reducedMain.Statements {
		_, isFor := s.(*typed.ForStatement)
		assert.False(t, isFor, "the loop must fully unroll once get_n's result is known")
	}
}

// A function that calls itself must be rejected rather than looped on
// forever.
func TestReduceFailsOnDirectRecursion(t *testing.T) {
	main := &typed.Function{
		Statements: []typed.Statement{&typed.ReturnStatement{}},
		Signature:  typed.Signature{},
	}
	mainKey := typed.FunctionKey{Name: "main", Signature: main.Signature}
	main.Statements = []typed.Statement{
		&typed.MultiAssignment{Call: typed.FunctionCallRHS{Callee: mainKey}},
		&typed.ReturnStatement{},
	}

	mod := &typed.Module{Name: "main"}
	mod.Define(mainKey, typed.HereSymbol{Key: mainKey, Function: main})
	program := &typed.Program{EntryModule: "main", Modules: map[string]*typed.Module{"main": mod}}

	_, err := Reduce(program)
	require.Error(t, err)
	reducerErr, ok := err.(*errors.ReducerError)
	require.True(t, ok, "expected *errors.ReducerError, got %T", err)
	assert.Equal(t, errors.KindRecursion, reducerErr.Kind)
}
