package typed

import (
	"strings"

	"zkreduce/internal/builtins"
)

// Signature is the declared input/output shape of a function.
type Signature struct {
	Inputs  []Type
	Outputs []Type
}

// Equal reports structural equality of two signatures.
func (s Signature) Equal(o Signature) bool {
	if len(s.Inputs) != len(o.Inputs) || len(s.Outputs) != len(o.Outputs) {
		return false
	}
	for i := range s.Inputs {
		if !s.Inputs[i].Equal(o.Inputs[i]) {
			return false
		}
	}
	for i := range s.Outputs {
		if !s.Outputs[i].Equal(o.Outputs[i]) {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	in := make([]string, len(s.Inputs))
	for i, t := range s.Inputs {
		in[i] = t.String()
	}
	out := make([]string, len(s.Outputs))
	for i, t := range s.Outputs {
		out[i] = t.String()
	}
	return "(" + strings.Join(in, ", ") + ") -> (" + strings.Join(out, ", ") + ")"
}

// FunctionKey identifies a function by name and declaration signature, so
// that same-named overloads of different shape are distinct keys.
type FunctionKey struct {
	Name      string
	Signature Signature
}

func (k FunctionKey) String() string {
	return k.Name + k.Signature.String()
}

// Argument is one declared parameter of a function.
type Argument struct {
	Name string
	Type Type // declaration type, possibly generic-parameterized
}

// Function is a tuple (generic_parameters, arguments, statements,
// signature). A function is polymorphic when GenericParameters is
// non-empty.
type Function struct {
	GenericParameters []string
	Arguments         []Argument
	Statements        []Statement
	Signature         Signature
}

// IsPolymorphic reports whether f declares any generic parameters.
func (f *Function) IsPolymorphic() bool {
	return len(f.GenericParameters) > 0
}

// Monomorphize returns a copy of f's signature with every generic
// parameter substituted by its bound concrete length, in declaration
// order. len(values) must equal len(f.GenericParameters).
func (f *Function) Monomorphize(values []uint64) Signature {
	bindings := make(map[string]uint64, len(f.GenericParameters))
	for i, name := range f.GenericParameters {
		bindings[name] = values[i]
	}
	return Signature{
		Inputs:  substituteTypes(f.Signature.Inputs, bindings),
		Outputs: substituteTypes(f.Signature.Outputs, bindings),
	}
}

func substituteTypes(types []Type, bindings map[string]uint64) []Type {
	out := make([]Type, len(types))
	for i, t := range types {
		out[i] = substituteType(t, bindings)
	}
	return out
}

func substituteType(t Type, bindings map[string]uint64) Type {
	if t.Kind != KindArray {
		return t
	}
	return Array(substituteType(*t.Elem, bindings), substituteLength(t.Length, bindings))
}

func substituteLength(e Expr, bindings map[string]uint64) Expr {
	switch v := e.(type) {
	case *IdentExpr:
		if val, ok := bindings[v.ID.Name]; ok {
			return NewUintLiteral(val, 0)
		}
		return v
	case *BinaryExpr:
		return &BinaryExpr{Pos: v.Pos, Op: v.Op,
			Left:  substituteLength(v.Left, bindings),
			Right: substituteLength(v.Right, bindings)}
	case *UnaryExpr:
		return &UnaryExpr{Pos: v.Pos, Op: v.Op, Operand: substituteLength(v.Operand, bindings)}
	default:
		return e
	}
}

// FunctionSymbol is a tagged variant: a local definition (Here), a
// cross-module reference (There), or a built-in (Primitive). Only Here
// is subject to inlining.
type FunctionSymbol interface {
	isFunctionSymbol()
}

// HereSymbol is a function defined in the current module. Key carries the
// name under which it is registered, since Function itself carries no
// name (a Function's identity is wholly owned by the table it sits in).
type HereSymbol struct {
	Key      FunctionKey
	Function *Function
}

func (HereSymbol) isFunctionSymbol() {}

// ThereSymbol is a reference to a function defined in another module.
type ThereSymbol struct {
	Key    FunctionKey
	Module string
}

func (ThereSymbol) isFunctionSymbol() {}

// PrimitiveSymbol is a built-in operation; calls to it survive into the
// reduced output unchanged.
type PrimitiveSymbol struct {
	Key  FunctionKey
	Kind builtins.PrimitiveKind
}

func (PrimitiveSymbol) isFunctionSymbol() {}

// Module carries a function table. It is keyed by the function key's
// string form rather than the FunctionKey struct itself: Signature holds
// slice fields, and a struct with slice fields is not a valid Go map key
// type. The structured FunctionKey survives inside each FunctionSymbol
// instead (HereSymbol.Key / ThereSymbol.Key / PrimitiveSymbol.Key).
type Module struct {
	Name      string
	Functions map[string]FunctionSymbol
}

// Lookup resolves key within m.
func (m *Module) Lookup(key FunctionKey) (FunctionSymbol, bool) {
	sym, ok := m.Functions[key.String()]
	return sym, ok
}

// Define registers sym under key.
func (m *Module) Define(key FunctionKey, sym FunctionSymbol) {
	if m.Functions == nil {
		m.Functions = map[string]FunctionSymbol{}
	}
	m.Functions[key.String()] = sym
}

// Program is a collection of modules keyed by name, plus the entry
// module's name.
type Program struct {
	Modules     map[string]*Module
	EntryModule string
}

// MainFunction looks up the monomorphic `main` function in the entry
// module. It returns false if the program has no such function.
func (p *Program) MainFunction() (FunctionKey, *Function, bool) {
	mod, ok := p.Modules[p.EntryModule]
	if !ok {
		return FunctionKey{}, nil, false
	}
	for _, sym := range mod.Functions {
		here, ok := sym.(HereSymbol)
		if !ok || here.Key.Name != "main" {
			continue
		}
		return here.Key, here.Function, true
	}
	return FunctionKey{}, nil, false
}
