package ssa

import "zkreduce/internal/typed"

// substituteStatement replaces every read of a bound generic parameter
// name inside s (array lengths, loop bounds, expressions) with its
// concrete value, leaving ordinary local reads untouched.
func substituteStatement(s typed.Statement, bindings map[string]uint64) typed.Statement {
	switch v := s.(type) {
	case *typed.Assignment:
		var declared *typed.Type
		if v.DeclaredType != nil {
			t := substituteType(*v.DeclaredType, bindings)
			declared = &t
		}
		return &typed.Assignment{Pos: v.Pos, LHS: v.LHS, DeclaredType: declared, RHS: substituteExpr(v.RHS, bindings)}

	case *typed.MultiAssignment:
		args := make([]typed.Expr, len(v.Call.Args))
		for i, a := range v.Call.Args {
			args[i] = substituteExpr(a, bindings)
		}
		gs := make([]typed.Expr, len(v.Call.Generics))
		for i, g := range v.Call.Generics {
			gs[i] = substituteExpr(g, bindings)
		}
		declared := make([]*typed.Type, len(v.DeclaredTypes))
		for i, t := range v.DeclaredTypes {
			if t == nil {
				continue
			}
			st := substituteType(*t, bindings)
			declared[i] = &st
		}
		return &typed.MultiAssignment{
			Pos: v.Pos, LHS: v.LHS, DeclaredTypes: declared,
			Call: typed.FunctionCallRHS{Pos: v.Call.Pos, Callee: v.Call.Callee, Generics: gs, Args: args},
		}

	case *typed.ForStatement:
		body := make([]typed.Statement, len(v.Body))
		for i, bs := range v.Body {
			body[i] = substituteStatement(bs, bindings)
		}
		return &typed.ForStatement{
			Pos: v.Pos, Induction: v.Induction,
			Lower: substituteExpr(v.Lower, bindings),
			Upper: substituteExpr(v.Upper, bindings),
			Body:  body,
		}

	case *typed.ReturnStatement:
		values := make([]typed.Expr, len(v.Values))
		for i, e := range v.Values {
			values[i] = substituteExpr(e, bindings)
		}
		return &typed.ReturnStatement{Pos: v.Pos, Values: values}

	case *typed.AssertStatement:
		return &typed.AssertStatement{Pos: v.Pos, Cond: substituteExpr(v.Cond, bindings), Message: v.Message}

	default:
		return s
	}
}

func substituteType(t typed.Type, bindings map[string]uint64) typed.Type {
	if t.Kind != typed.KindArray {
		return t
	}
	return typed.Array(substituteType(*t.Elem, bindings), substituteExpr(t.Length, bindings))
}

func substituteExpr(e typed.Expr, bindings map[string]uint64) typed.Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *typed.IdentExpr:
		if val, ok := bindings[v.ID.Name]; ok {
			return typed.NewUintLiteral(val, 0)
		}
		return v
	case *typed.BinaryExpr:
		return &typed.BinaryExpr{Pos: v.Pos, Op: v.Op, Left: substituteExpr(v.Left, bindings), Right: substituteExpr(v.Right, bindings)}
	case *typed.UnaryExpr:
		return &typed.UnaryExpr{Pos: v.Pos, Op: v.Op, Operand: substituteExpr(v.Operand, bindings)}
	case *typed.IndexExpr:
		return &typed.IndexExpr{Pos: v.Pos, Array: substituteExpr(v.Array, bindings), Index: substituteExpr(v.Index, bindings)}
	case *typed.ConditionalExpr:
		return &typed.ConditionalExpr{
			Pos: v.Pos, Cond: substituteExpr(v.Cond, bindings),
			Then: substituteExpr(v.Then, bindings), Else: substituteExpr(v.Else, bindings),
		}
	case *typed.ArrayLiteral:
		elems := make([]typed.Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = substituteExpr(el, bindings)
		}
		return &typed.ArrayLiteral{Pos: v.Pos, Elements: elems}
	default:
		return e
	}
}
