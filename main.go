// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/fatih/color"

	"zkreduce/internal/builtins"
	"zkreduce/internal/errors"
	"zkreduce/internal/reducer"
	"zkreduce/internal/typed"
)

// main demonstrates the reducer end to end on one of the worked scenarios:
// a generic function whose array-length argument only becomes constant
// once an earlier assignment (n = 2) has been folded. There is no parser
// in this module, so the program is built directly as typed.Program values.
func main() {
	program := genericsRequiringPropagationExample()

	reduced, err := reducer.Reduce(program)
	if err != nil {
		reportFailure(program, err)
		os.Exit(1)
	}

	_, main, _ := reduced.MainFunction()
	fmt.Println("Reduced program:")
	fmt.Print(main.String())

	color.Green("✅ Successfully reduced %s", "main")
}

// reportFailure renders a reducer error caret-style against the offending
// function's pseudo-syntax rendering, matching the diagnostic shape the
// front end uses for parse errors.
func reportFailure(program *typed.Program, err error) {
	_, main, ok := program.MainFunction()
	source := ""
	if ok {
		source = main.String()
	}
	reporter := errors.NewErrorReporter(source)

	reducerErr, ok := err.(*errors.ReducerError)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	color.Red("❌ Reduction failed:")
	fmt.Print(reporter.FormatError(reducerErr.CompilerError()))
}

func field() typed.Type { return typed.Scalar(builtins.Field) }
func u32() typed.Type   { return typed.Scalar(builtins.U32) }

func ident(name string) *typed.IdentExpr { return &typed.IdentExpr{ID: typed.NewIdentifier(name)} }

// genericsRequiringPropagationExample builds:
//
//	foo<K>(a: field[K]) -> field[K] { return a }
//	main(a: field) -> field {
//	    n: u32 = 42
//	    n = n
//	    n = 2
//	    b: field[n-1] = [42]
//	    b = foo(b)
//	    n = n
//	    return a
//	}
//
// foo's generic K is bound at the call site by the length expression
// n-1, which only folds to a literal once the constant environment has
// observed n's reassignment to 2 — so reducing this program exercises the
// fixed-point interplay between constant propagation and inlining.
func genericsRequiringPropagationExample() *typed.Program {
	foo := &typed.Function{
		GenericParameters: []string{"K"},
		Arguments:         []typed.Argument{{Name: "a", Type: typed.Array(field(), ident("K"))}},
		Statements: []typed.Statement{
			&typed.ReturnStatement{Values: []typed.Expr{ident("a")}},
		},
		Signature: typed.Signature{
			Inputs:  []typed.Type{typed.Array(field(), ident("K"))},
			Outputs: []typed.Type{typed.Array(field(), ident("K"))},
		},
	}
	fooKey := typed.FunctionKey{Name: "foo", Signature: foo.Signature}

	u32Ty := u32()
	bType := typed.Array(field(), &typed.BinaryExpr{Op: typed.OpSub, Left: ident("n"), Right: typed.NewUintLiteral(1, 32)})

	main := &typed.Function{
		Arguments: []typed.Argument{{Name: "a", Type: field()}},
		Statements: []typed.Statement{
			&typed.Assignment{LHS: typed.NewIdentifier("n"), DeclaredType: &u32Ty, RHS: typed.NewUintLiteral(42, 32)},
			&typed.Assignment{LHS: typed.NewIdentifier("n"), RHS: ident("n")},
			&typed.Assignment{LHS: typed.NewIdentifier("n"), RHS: typed.NewUintLiteral(2, 32)},
			&typed.Assignment{LHS: typed.NewIdentifier("b"), DeclaredType: &bType, RHS: &typed.ArrayLiteral{Elements: []typed.Expr{&typed.FieldLiteral{Value: big.NewInt(42)}}}},
			&typed.MultiAssignment{
				LHS:  []typed.Identifier{typed.NewIdentifier("b")},
				Call: typed.FunctionCallRHS{Callee: fooKey, Generics: []typed.Expr{&typed.BinaryExpr{Op: typed.OpSub, Left: ident("n"), Right: typed.NewUintLiteral(1, 32)}}, Args: []typed.Expr{ident("b")}},
			},
			&typed.Assignment{LHS: typed.NewIdentifier("n"), RHS: ident("n")},
			&typed.ReturnStatement{Values: []typed.Expr{ident("a")}},
		},
		Signature: typed.Signature{Inputs: []typed.Type{field()}, Outputs: []typed.Type{field()}},
	}
	mainKey := typed.FunctionKey{Name: "main", Signature: main.Signature}

	mod := &typed.Module{Name: "main"}
	mod.Define(mainKey, typed.HereSymbol{Key: mainKey, Function: main})
	mod.Define(fooKey, typed.HereSymbol{Key: fooKey, Function: foo})

	return &typed.Program{
		EntryModule: "main",
		Modules:     map[string]*typed.Module{"main": mod},
	}
}
