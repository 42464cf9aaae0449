package typed

import (
	"fmt"

	"zkreduce/internal/builtins"
)

// Kind distinguishes a scalar type from an array type.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
)

// Type is either a base scalar or an array type parameterized by an
// element type and a length expression. A declaration type may contain
// symbolic generic parameters (surfacing as IdentExpr reads of a generic
// parameter name inside Length); a concrete type has all lengths resolved
// to integer literals. Type equality is structural.
type Type struct {
	Kind   Kind
	Scalar builtins.ScalarKind // valid when Kind == KindScalar
	Elem   *Type               // valid when Kind == KindArray
	Length Expr                // valid when Kind == KindArray
}

// Scalar builds a base scalar type.
func Scalar(k builtins.ScalarKind) Type {
	return Type{Kind: KindScalar, Scalar: k}
}

// Array builds an array type of elem, of the given length expression.
func Array(elem Type, length Expr) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e, Length: length}
}

// ConcreteArray builds an array type whose length is already a literal.
func ConcreteArray(elem Type, length uint64) Type {
	return Array(elem, NewUintLiteral(length, 0))
}

// IsConcrete reports whether every length in t (and its elements,
// recursively) has been resolved to an integer literal.
func (t Type) IsConcrete() bool {
	switch t.Kind {
	case KindScalar:
		return true
	case KindArray:
		if _, ok := t.Length.(*UintLiteral); !ok {
			return false
		}
		return t.Elem.IsConcrete()
	default:
		return false
	}
}

// ConcreteLength returns the array's length as a plain integer. It panics
// if t is not a concrete array type; callers must check IsConcrete first.
func (t Type) ConcreteLength() uint64 {
	lit, ok := t.Length.(*UintLiteral)
	if !ok || t.Kind != KindArray {
		panic("typed: ConcreteLength called on a non-concrete-array type")
	}
	return lit.Value.Uint64()
}

// Equal reports structural equality between two types. Two array types
// with differing (non-literal) length expressions are considered equal
// only if the expressions are themselves syntactically identical generic
// parameter reads of the same name — full symbolic equivalence is a
// type-checker concern, out of scope for the reducer.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindScalar:
		return t.Scalar == o.Scalar
	case KindArray:
		if !t.Elem.Equal(*o.Elem) {
			return false
		}
		return exprEqual(t.Length, o.Length)
	default:
		return false
	}
}

func exprEqual(a, b Expr) bool {
	switch av := a.(type) {
	case *UintLiteral:
		bv, ok := b.(*UintLiteral)
		return ok && av.Value.Cmp(bv.Value) == 0
	case *IdentExpr:
		bv, ok := b.(*IdentExpr)
		return ok && av.ID == bv.ID
	default:
		return false
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindScalar:
		return string(t.Scalar)
	case KindArray:
		return fmt.Sprintf("%s[%s]", t.Elem.String(), ExprString(t.Length))
	default:
		return "<bad type>"
	}
}
