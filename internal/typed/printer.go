package typed

import (
	"fmt"
	"strings"
)

// ExprString renders any Expr to the indented pseudo-syntax used
// throughout the reducer's worked examples. A nil expression renders as
// "?" so that malformed trees print instead of panicking during
// debugging.
func ExprString(e Expr) string {
	switch v := e.(type) {
	case nil:
		return "?"
	case *FieldLiteral:
		return v.Value.String()
	case *UintLiteral:
		return v.Value.String()
	case *BoolLiteral:
		if v.Value {
			return "true"
		}
		return "false"
	case *ArrayLiteral:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			parts[i] = ExprString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *IdentExpr:
		return v.ID.String()
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(v.Left), v.Op, ExprString(v.Right))
	case *UnaryExpr:
		return fmt.Sprintf("%s%s", v.Op, ExprString(v.Operand))
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", ExprString(v.Array), ExprString(v.Index))
	case *ConditionalExpr:
		return fmt.Sprintf("(%s ? %s : %s)", ExprString(v.Cond), ExprString(v.Then), ExprString(v.Else))
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

// StatementsString renders a statement list at the given indent depth.
func StatementsString(stmts []Statement, depth int) string {
	indent := strings.Repeat("  ", depth)
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(indent)
		b.WriteString(StatementString(s, depth))
		b.WriteByte('\n')
	}
	return b.String()
}

// StatementString renders a single statement.
func StatementString(s Statement, depth int) string {
	switch v := s.(type) {
	case *Assignment:
		if v.DeclaredType != nil {
			return fmt.Sprintf("%s: %s = %s", v.LHS, v.DeclaredType, ExprString(v.RHS))
		}
		return fmt.Sprintf("%s = %s", v.LHS, ExprString(v.RHS))
	case *MultiAssignment:
		lhs := make([]string, len(v.LHS))
		for i, id := range v.LHS {
			lhs[i] = id.String()
		}
		args := make([]string, len(v.Call.Args))
		for i, a := range v.Call.Args {
			args[i] = ExprString(a)
		}
		generics := ""
		if len(v.Call.Generics) > 0 {
			gs := make([]string, len(v.Call.Generics))
			for i, g := range v.Call.Generics {
				gs[i] = ExprString(g)
			}
			generics = "::<" + strings.Join(gs, ", ") + ">"
		}
		return fmt.Sprintf("%s = %s%s(%s)", strings.Join(lhs, ", "), v.Call.Callee.Name, generics, strings.Join(args, ", "))
	case *ForStatement:
		header := fmt.Sprintf("for %s in %s..%s {", v.Induction, ExprString(v.Lower), ExprString(v.Upper))
		body := StatementsString(v.Body, depth+1)
		return header + "\n" + body + strings.Repeat("  ", depth) + "}"
	case *ReturnStatement:
		parts := make([]string, len(v.Values))
		for i, e := range v.Values {
			parts[i] = ExprString(e)
		}
		return "return " + strings.Join(parts, ", ")
	case *AssertStatement:
		return fmt.Sprintf("assert(%s, %q)", ExprString(v.Cond), v.Message)
	case *PushCallLog:
		return fmt.Sprintf("# PushCallLog %s -> %s generics=%v bindings=%s",
			v.Caller, v.Callee.Name, v.Generics, bindingsString(v.Bindings))
	case *PopCallLog:
		return fmt.Sprintf("# PopCallLog bindings=%s", bindingsString(v.Bindings))
	default:
		return fmt.Sprintf("<unknown statement %T>", s)
	}
}

func bindingsString(bindings []CallBinding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = fmt.Sprintf("%s:%s := %s", b.Var.ID, b.Var.Type, ExprString(b.Value))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (f *Function) String() string {
	args := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		args[i] = fmt.Sprintf("%s: %s", a.Name, a.Type)
	}
	generics := ""
	if len(f.GenericParameters) > 0 {
		generics = "<" + strings.Join(f.GenericParameters, ", ") + ">"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "def%s(%s) -> %s {\n", generics, strings.Join(args, ", "), outputsString(f.Signature.Outputs))
	b.WriteString(StatementsString(f.Statements, 1))
	b.WriteString("}")
	return b.String()
}

func outputsString(outputs []Type) string {
	parts := make([]string, len(outputs))
	for i, t := range outputs {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func (p *Program) String() string {
	key, fn, ok := p.MainFunction()
	if !ok {
		return "<empty program>"
	}
	return fmt.Sprintf("module %s {\n  %s %s\n}", p.EntryModule, key.Name, indentBody(fn.String()))
}

func indentBody(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}
