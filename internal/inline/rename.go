package inline

import "zkreduce/internal/typed"

// renameStatement rewrites every identifier name in s by prefixing it with
// the call-site's namespace, preserving versions exactly as assigned by
// the callee's own SSA pass.
func renameStatement(s typed.Statement, prefix string) typed.Statement {
	switch v := s.(type) {
	case *typed.Assignment:
		return &typed.Assignment{
			Pos:          v.Pos,
			LHS:          renameIdent(v.LHS, prefix),
			DeclaredType: v.DeclaredType,
			RHS:          renameExpr(v.RHS, prefix),
		}

	case *typed.MultiAssignment:
		lhs := make([]typed.Identifier, len(v.LHS))
		for i, id := range v.LHS {
			lhs[i] = renameIdent(id, prefix)
		}
		args := make([]typed.Expr, len(v.Call.Args))
		for i, a := range v.Call.Args {
			args[i] = renameExpr(a, prefix)
		}
		return &typed.MultiAssignment{
			Pos: v.Pos, LHS: lhs, DeclaredTypes: v.DeclaredTypes,
			Call: typed.FunctionCallRHS{Pos: v.Call.Pos, Callee: v.Call.Callee, Generics: v.Call.Generics, Args: args},
		}

	case *typed.ForStatement:
		body := make([]typed.Statement, len(v.Body))
		for i, bs := range v.Body {
			body[i] = renameStatement(bs, prefix)
		}
		return &typed.ForStatement{
			Pos: v.Pos, Induction: prefix + "$" + v.Induction,
			Lower: renameExpr(v.Lower, prefix), Upper: renameExpr(v.Upper, prefix), Body: body,
		}

	case *typed.ReturnStatement:
		values := make([]typed.Expr, len(v.Values))
		for i, e := range v.Values {
			values[i] = renameExpr(e, prefix)
		}
		return &typed.ReturnStatement{Pos: v.Pos, Values: values}

	case *typed.AssertStatement:
		return &typed.AssertStatement{Pos: v.Pos, Cond: renameExpr(v.Cond, prefix), Message: v.Message}

	case *typed.PushCallLog:
		bindings := make([]typed.CallBinding, len(v.Bindings))
		for i, b := range v.Bindings {
			bindings[i] = typed.CallBinding{Var: typed.ConcreteVariable{ID: renameIdent(b.Var.ID, prefix), Type: b.Var.Type}, Value: renameExpr(b.Value, prefix)}
		}
		return &typed.PushCallLog{Pos: v.Pos, Caller: v.Caller, Callee: v.Callee, Generics: v.Generics, Bindings: bindings}

	case *typed.PopCallLog:
		bindings := make([]typed.CallBinding, len(v.Bindings))
		for i, b := range v.Bindings {
			bindings[i] = typed.CallBinding{Var: typed.ConcreteVariable{ID: renameIdent(b.Var.ID, prefix), Type: b.Var.Type}, Value: renameExpr(b.Value, prefix)}
		}
		return &typed.PopCallLog{Pos: v.Pos, Bindings: bindings}

	default:
		return s
	}
}

func renameExpr(e typed.Expr, prefix string) typed.Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *typed.IdentExpr:
		return &typed.IdentExpr{Pos: v.Pos, ID: renameIdent(v.ID, prefix)}
	case *typed.BinaryExpr:
		return &typed.BinaryExpr{Pos: v.Pos, Op: v.Op, Left: renameExpr(v.Left, prefix), Right: renameExpr(v.Right, prefix)}
	case *typed.UnaryExpr:
		return &typed.UnaryExpr{Pos: v.Pos, Op: v.Op, Operand: renameExpr(v.Operand, prefix)}
	case *typed.IndexExpr:
		return &typed.IndexExpr{Pos: v.Pos, Array: renameExpr(v.Array, prefix), Index: renameExpr(v.Index, prefix)}
	case *typed.ConditionalExpr:
		return &typed.ConditionalExpr{Pos: v.Pos, Cond: renameExpr(v.Cond, prefix), Then: renameExpr(v.Then, prefix), Else: renameExpr(v.Else, prefix)}
	case *typed.ArrayLiteral:
		elems := make([]typed.Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = renameExpr(el, prefix)
		}
		return &typed.ArrayLiteral{Pos: v.Pos, Elements: elems}
	default:
		return e
	}
}

func renameIdent(id typed.Identifier, prefix string) typed.Identifier {
	return typed.Identifier{Name: namespacedName(prefix, id.Name), Version: id.Version}
}
