// Package constprop evaluates constant subexpressions of the circuit
// language without ever substituting a live identifier for its value: the
// propagator only ever folds expressions that are already closed over
// literals (plus, through FoldWithEnv, a driver-supplied constant
// environment consulted only for constancy checks — see
// internal/reducer).
package constprop

import (
	"math/big"

	"zkreduce/internal/builtins"
	"zkreduce/internal/typed"
)

// Value is a folded constant: a field/integer value or a boolean.
type Value struct {
	Kind builtins.ScalarKind
	Int  *big.Int // valid when Kind is Field or an integer kind
	Bool bool     // valid when Kind is Bool
}

func fieldValue(v *big.Int) Value { return Value{Kind: builtins.Field, Int: v} }
func uintValue(v *big.Int, width builtins.ScalarKind) Value {
	return Value{Kind: width, Int: wrap(v, builtins.Width(width))}
}
func boolValue(b bool) Value { return Value{Kind: builtins.Bool, Bool: b} }

// wrap reduces v modulo 2^width, matching the wraparound semantics of the
// language's fixed-width integer types. Field values are never wrapped:
// folding leaves them unreduced, since the field's characteristic is a
// type-system/curve concern outside the reducer's scope.
func wrap(v *big.Int, width int) *big.Int {
	if width <= 0 {
		return v
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	r := new(big.Int).Mod(v, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r
}

// ToExpr converts a folded Value back into a literal expression, at the
// given position, so it can replace a folded subtree in emitted output.
func ToExpr(v Value, pos typed.Position) typed.Expr {
	switch v.Kind {
	case builtins.Bool:
		return &typed.BoolLiteral{Pos: pos, Value: v.Bool}
	case builtins.Field:
		return &typed.FieldLiteral{Pos: pos, Value: v.Int}
	default:
		return &typed.UintLiteral{Pos: pos, Value: v.Int, Width: builtins.Width(v.Kind)}
	}
}

// Fold attempts to evaluate e to a constant Value using only the literals
// already present in the expression tree — no identifier is ever read from
// an environment. It returns ok == false if e contains any non-literal
// subexpression (an identifier, an index that is not a constant in-range
// index into an array literal, or a conditional on a non-constant
// condition).
func Fold(e typed.Expr) (Value, bool) {
	return FoldWithEnv(e, nil)
}

// FoldWithEnv is Fold extended with a read-only environment of identifiers
// already known to be constant. The environment is populated and consulted
// exclusively by the reducer driver's own constancy checks (loop bounds,
// call-site generic arguments); it is never used to rewrite the statement
// actually emitted to the output program.
func FoldWithEnv(e typed.Expr, env map[typed.Identifier]Value) (Value, bool) {
	switch v := e.(type) {
	case nil:
		return Value{}, false
	case *typed.FieldLiteral:
		return fieldValue(v.Value), true
	case *typed.UintLiteral:
		return uintValue(v.Value, widthKind(v.Width)), true
	case *typed.BoolLiteral:
		return boolValue(v.Value), true
	case *typed.IdentExpr:
		if env == nil {
			return Value{}, false
		}
		val, ok := env[v.ID]
		return val, ok
	case *typed.UnaryExpr:
		return foldUnary(v, env)
	case *typed.BinaryExpr:
		return foldBinary(v, env)
	case *typed.ConditionalExpr:
		return foldConditional(v, env)
	case *typed.IndexExpr:
		return foldIndex(v, env)
	default:
		// A bare array literal never folds to a scalar Value: there is no
		// Value shape for an aggregate. Indexing into one, above, does.
		return Value{}, false
	}
}

// foldIndex folds a constant index into a literal array, recursively
// folding the selected element (which may itself be any foldable
// expression, not necessarily a bare literal).
func foldIndex(v *typed.IndexExpr, env map[typed.Identifier]Value) (Value, bool) {
	arr, ok := v.Array.(*typed.ArrayLiteral)
	if !ok {
		return Value{}, false
	}
	idx, ok := FoldWithEnv(v.Index, env)
	if !ok || idx.Kind == builtins.Bool || idx.Kind == builtins.Field {
		return Value{}, false
	}
	if !idx.Int.IsInt64() {
		return Value{}, false
	}
	i := idx.Int.Int64()
	if i < 0 || i >= int64(len(arr.Elements)) {
		return Value{}, false
	}
	return FoldWithEnv(arr.Elements[i], env)
}

func widthKind(width int) builtins.ScalarKind {
	switch width {
	case 8:
		return builtins.U8
	case 16:
		return builtins.U16
	case 32:
		return builtins.U32
	case 64:
		return builtins.U64
	case 128:
		return builtins.U128
	case 256:
		return builtins.U256
	default:
		return builtins.Field
	}
}

func foldUnary(v *typed.UnaryExpr, env map[typed.Identifier]Value) (Value, bool) {
	operand, ok := FoldWithEnv(v.Operand, env)
	if !ok {
		return Value{}, false
	}
	switch v.Op {
	case typed.OpNeg:
		if operand.Kind == builtins.Bool {
			return Value{}, false
		}
		neg := new(big.Int).Neg(operand.Int)
		if operand.Kind == builtins.Field {
			return fieldValue(neg), true
		}
		return uintValue(neg, operand.Kind), true
	case typed.OpNot:
		if operand.Kind != builtins.Bool {
			return Value{}, false
		}
		return boolValue(!operand.Bool), true
	default:
		return Value{}, false
	}
}

func foldConditional(v *typed.ConditionalExpr, env map[typed.Identifier]Value) (Value, bool) {
	cond, ok := FoldWithEnv(v.Cond, env)
	if !ok || cond.Kind != builtins.Bool {
		return Value{}, false
	}
	if cond.Bool {
		return FoldWithEnv(v.Then, env)
	}
	return FoldWithEnv(v.Else, env)
}

func foldBinary(v *typed.BinaryExpr, env map[typed.Identifier]Value) (Value, bool) {
	left, ok := FoldWithEnv(v.Left, env)
	if !ok {
		return Value{}, false
	}
	right, ok := FoldWithEnv(v.Right, env)
	if !ok {
		return Value{}, false
	}

	if left.Kind == builtins.Bool || right.Kind == builtins.Bool {
		return foldBoolBinary(v.Op, left, right)
	}
	return foldNumericBinary(v.Op, left, right)
}

func foldBoolBinary(op typed.BinaryOp, left, right Value) (Value, bool) {
	if left.Kind != builtins.Bool || right.Kind != builtins.Bool {
		return Value{}, false
	}
	switch op {
	case typed.OpLogicalAnd:
		return boolValue(left.Bool && right.Bool), true
	case typed.OpLogicalOr:
		return boolValue(left.Bool || right.Bool), true
	case typed.OpEq:
		return boolValue(left.Bool == right.Bool), true
	case typed.OpNeq:
		return boolValue(left.Bool != right.Bool), true
	default:
		return Value{}, false
	}
}

func foldNumericBinary(op typed.BinaryOp, left, right Value) (Value, bool) {
	resultKind := left.Kind
	if right.Kind != left.Kind {
		// Mixed-kind arithmetic is a type-system concern; the
		// propagator declines rather than guess a result kind.
		return Value{}, false
	}

	switch op {
	case typed.OpEq:
		return boolValue(left.Int.Cmp(right.Int) == 0), true
	case typed.OpNeq:
		return boolValue(left.Int.Cmp(right.Int) != 0), true
	case typed.OpLt:
		return boolValue(left.Int.Cmp(right.Int) < 0), true
	case typed.OpLte:
		return boolValue(left.Int.Cmp(right.Int) <= 0), true
	case typed.OpGt:
		return boolValue(left.Int.Cmp(right.Int) > 0), true
	case typed.OpGte:
		return boolValue(left.Int.Cmp(right.Int) >= 0), true
	}

	var r *big.Int
	switch op {
	case typed.OpAdd:
		r = new(big.Int).Add(left.Int, right.Int)
	case typed.OpSub:
		r = new(big.Int).Sub(left.Int, right.Int)
	case typed.OpMul:
		r = new(big.Int).Mul(left.Int, right.Int)
	case typed.OpDiv:
		if right.Int.Sign() == 0 {
			return Value{}, false
		}
		r = new(big.Int).Quo(left.Int, right.Int)
	case typed.OpMod:
		if right.Int.Sign() == 0 {
			return Value{}, false
		}
		r = new(big.Int).Rem(left.Int, right.Int)
	case typed.OpShl:
		r = new(big.Int).Lsh(left.Int, uint(right.Int.Uint64()))
	case typed.OpShr:
		r = new(big.Int).Rsh(left.Int, uint(right.Int.Uint64()))
	case typed.OpBitAnd:
		r = new(big.Int).And(left.Int, right.Int)
	case typed.OpBitOr:
		r = new(big.Int).Or(left.Int, right.Int)
	case typed.OpBitXor:
		r = new(big.Int).Xor(left.Int, right.Int)
	default:
		return Value{}, false
	}

	if resultKind == builtins.Field {
		return fieldValue(r), true
	}
	return uintValue(r, resultKind), true
}

// Propagate returns a copy of fn with rebuilt statements, replacing every subtree
// whose operands are already closed over literals with its folded literal
// value. It never substitutes an identifier for its value and never
// changes statement shape or order — only expression trees shrink. This
// is the pass that lets a driver fixed-point iteration observe, as a bare
// literal, the result of folding that happened earlier in the same
// statement list (e.g. a binary expression over two literals produced by
// an unrolled loop iteration), without waiting for the next SSA rename.
func Propagate(fn *typed.Function) *typed.Function {
	return &typed.Function{
		GenericParameters: fn.GenericParameters,
		Arguments:         fn.Arguments,
		Statements:        propagateStatements(fn.Statements),
		Signature:         fn.Signature,
	}
}

func propagateStatements(stmts []typed.Statement) []typed.Statement {
	out := make([]typed.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = propagateStatement(s)
	}
	return out
}

func propagateStatement(s typed.Statement) typed.Statement {
	switch v := s.(type) {
	case *typed.Assignment:
		return &typed.Assignment{Pos: v.Pos, LHS: v.LHS, DeclaredType: v.DeclaredType, RHS: propagateExpr(v.RHS)}
	case *typed.MultiAssignment:
		args := make([]typed.Expr, len(v.Call.Args))
		for i, a := range v.Call.Args {
			args[i] = propagateExpr(a)
		}
		gs := make([]typed.Expr, len(v.Call.Generics))
		for i, g := range v.Call.Generics {
			gs[i] = propagateExpr(g)
		}
		return &typed.MultiAssignment{
			Pos: v.Pos, LHS: v.LHS, DeclaredTypes: v.DeclaredTypes,
			Call: typed.FunctionCallRHS{Pos: v.Call.Pos, Callee: v.Call.Callee, Generics: gs, Args: args},
		}
	case *typed.ForStatement:
		return &typed.ForStatement{
			Pos: v.Pos, Induction: v.Induction,
			Lower: propagateExpr(v.Lower), Upper: propagateExpr(v.Upper),
			Body: propagateStatements(v.Body),
		}
	case *typed.ReturnStatement:
		values := make([]typed.Expr, len(v.Values))
		for i, val := range v.Values {
			values[i] = propagateExpr(val)
		}
		return &typed.ReturnStatement{Pos: v.Pos, Values: values}
	case *typed.AssertStatement:
		return &typed.AssertStatement{Pos: v.Pos, Cond: propagateExpr(v.Cond), Message: v.Message}
	default:
		return s
	}
}

func propagateExpr(e typed.Expr) typed.Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *typed.IdentExpr:
		return v
	case *typed.BinaryExpr:
		rewritten := &typed.BinaryExpr{Pos: v.Pos, Op: v.Op, Left: propagateExpr(v.Left), Right: propagateExpr(v.Right)}
		if val, ok := Fold(rewritten); ok {
			return ToExpr(val, v.Pos)
		}
		return rewritten
	case *typed.UnaryExpr:
		rewritten := &typed.UnaryExpr{Pos: v.Pos, Op: v.Op, Operand: propagateExpr(v.Operand)}
		if val, ok := Fold(rewritten); ok {
			return ToExpr(val, v.Pos)
		}
		return rewritten
	case *typed.IndexExpr:
		rewritten := &typed.IndexExpr{Pos: v.Pos, Array: propagateExpr(v.Array), Index: propagateExpr(v.Index)}
		if val, ok := Fold(rewritten); ok {
			return ToExpr(val, v.Pos)
		}
		return rewritten
	case *typed.ConditionalExpr:
		rewritten := &typed.ConditionalExpr{Pos: v.Pos, Cond: propagateExpr(v.Cond), Then: propagateExpr(v.Then), Else: propagateExpr(v.Else)}
		if val, ok := Fold(rewritten); ok {
			return ToExpr(val, v.Pos)
		}
		return rewritten
	case *typed.ArrayLiteral:
		elems := make([]typed.Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = propagateExpr(el)
		}
		return &typed.ArrayLiteral{Pos: v.Pos, Elements: elems}
	default:
		// Literals carry nothing further to fold.
		return e
	}
}
