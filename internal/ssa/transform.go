package ssa

import (
	"zkreduce/internal/errors"
	"zkreduce/internal/typed"
)

// Result is the shallow-SSA pass's output discriminator: either the body
// is already Complete (no call or loop remains to resolve) or it is
// Incomplete, in which case LoopSnapshots carries, for every loop header
// encountered, the VersionMap state live at the moment the pass reached
// it — the baseline the reducer driver must restore to before unrolling
// that loop, so a loop's body is always re-versioned against its true
// entry state rather than whatever the live map has drifted to while
// other statements were retried.
type Result struct {
	Complete      bool
	Function      *typed.Function
	LoopSnapshots map[*typed.ForStatement]map[string]int
	FinalVersions *VersionMap
}

// Transform binds fn's generic parameters to the given concrete lengths
// and renames every local into a versioned identifier: a fresh local's
// first write gets version 0, and every subsequent write to an existing
// name gets the next version after the one currently live. The returned
// function is monomorphic (GenericParameters is empty) and every
// IdentExpr.ID it contains carries the version live at that read.
//
// The pass does not descend into a for-loop's body: committing to a
// rename there would lock in versions before the driver has had a chance
// to inline the calls (or unroll the nested loops) that determine what
// the body actually writes. A loop header's own Lower/Upper bounds are
// renamed and a VersionMap snapshot is recorded for it, but Body is
// passed through exactly as declared.
func Transform(fn *typed.Function, generics []uint64) (Result, error) {
	if len(generics) != len(fn.GenericParameters) {
		return Result{}, errors.GenericArityMismatch("<anonymous>", len(fn.GenericParameters), len(generics), typed.Position{})
	}

	bindings := make(map[string]uint64, len(fn.GenericParameters))
	for i, name := range fn.GenericParameters {
		bindings[name] = generics[i]
	}

	boundStatements := make([]typed.Statement, len(fn.Statements))
	for i, s := range fn.Statements {
		boundStatements[i] = substituteStatement(s, bindings)
	}

	argNames := make([]string, len(fn.Arguments))
	for i, a := range fn.Arguments {
		argNames[i] = a.Name
	}
	vm := NewVersionMap(argNames)

	renamed, snapshots, err := Rename(boundStatements, vm)
	if err != nil {
		return Result{}, err
	}

	arguments := make([]typed.Argument, len(fn.Arguments))
	for i, a := range fn.Arguments {
		arguments[i] = typed.Argument{Name: a.Name, Type: substituteType(a.Type, bindings)}
	}

	complete := true
	for _, s := range renamed {
		switch s.(type) {
		case *typed.MultiAssignment, *typed.ForStatement:
			complete = false
		}
	}

	return Result{
		Complete: complete,
		Function: &typed.Function{
			GenericParameters: nil,
			Arguments:         arguments,
			Statements:        renamed,
			Signature:         fn.Monomorphize(generics),
		},
		LoopSnapshots: snapshots,
		FinalVersions: vm,
	}, nil
}

// Rename performs one left-to-right shallow-SSA pass over stmts against
// vm, bumping vm in place. It is exported so the reducer driver can reuse
// the exact same renaming the initial Transform call uses when it later
// binds a loop's raw body to a concrete induction value — a loop body is
// just as raw and just as much in need of a first-time rename as a
// function's own top-level statements are.
//
// A for-loop header's Body is never recursed into; instead a VersionMap
// snapshot is recorded (keyed by the *returned* ForStatement, since that
// is the instance the caller will encounter later) in the returned map.
func Rename(stmts []typed.Statement, vm *VersionMap) ([]typed.Statement, map[*typed.ForStatement]map[string]int, error) {
	out := make([]typed.Statement, 0, len(stmts))
	snapshots := map[*typed.ForStatement]map[string]int{}

	for _, s := range stmts {
		switch v := s.(type) {
		case *typed.Assignment:
			rhs, err := renameExpr(v.RHS, vm)
			if err != nil {
				return nil, nil, err
			}
			version := vm.Bump(v.LHS.Name)
			out = append(out, &typed.Assignment{
				Pos:          v.Pos,
				LHS:          typed.Identifier{Name: v.LHS.Name, Version: version},
				DeclaredType: v.DeclaredType,
				RHS:          rhs,
			})

		case *typed.MultiAssignment:
			args := make([]typed.Expr, len(v.Call.Args))
			for i, a := range v.Call.Args {
				r, err := renameExpr(a, vm)
				if err != nil {
					return nil, nil, err
				}
				args[i] = r
			}
			gs := make([]typed.Expr, len(v.Call.Generics))
			for i, g := range v.Call.Generics {
				r, err := renameExpr(g, vm)
				if err != nil {
					return nil, nil, err
				}
				gs[i] = r
			}
			lhs := make([]typed.Identifier, len(v.LHS))
			for i, id := range v.LHS {
				lhs[i] = typed.Identifier{Name: id.Name, Version: vm.Bump(id.Name)}
			}
			out = append(out, &typed.MultiAssignment{
				Pos:           v.Pos,
				LHS:           lhs,
				DeclaredTypes: v.DeclaredTypes,
				Call: typed.FunctionCallRHS{
					Pos:      v.Call.Pos,
					Callee:   v.Call.Callee,
					Generics: gs,
					Args:     args,
				},
			})

		case *typed.ForStatement:
			lower, err := renameExpr(v.Lower, vm)
			if err != nil {
				return nil, nil, err
			}
			upper, err := renameExpr(v.Upper, vm)
			if err != nil {
				return nil, nil, err
			}
			fresh := &typed.ForStatement{Pos: v.Pos, Induction: v.Induction, Lower: lower, Upper: upper, Body: v.Body}
			snapshots[fresh] = vm.Snapshot()
			out = append(out, fresh)

		case *typed.ReturnStatement:
			values := make([]typed.Expr, len(v.Values))
			for i, e := range v.Values {
				r, err := renameExpr(e, vm)
				if err != nil {
					return nil, nil, err
				}
				values[i] = r
			}
			out = append(out, &typed.ReturnStatement{Pos: v.Pos, Values: values})

		case *typed.AssertStatement:
			cond, err := renameExpr(v.Cond, vm)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, &typed.AssertStatement{Pos: v.Pos, Cond: cond, Message: v.Message})

		case *typed.PushCallLog, *typed.PopCallLog:
			// Call-log markers are synthesized by the inliner after their
			// own variables are already versioned; never rewritten further.
			out = append(out, v)

		default:
			out = append(out, v)
		}
	}
	return out, snapshots, nil
}

func renameExpr(e typed.Expr, vm *VersionMap) (typed.Expr, error) {
	switch v := e.(type) {
	case nil:
		return nil, nil
	case *typed.IdentExpr:
		version, ok := vm.Current(v.ID.Name)
		if !ok {
			return nil, errors.UnresolvedIdentifier(v.ID.Name, v.Pos)
		}
		return &typed.IdentExpr{Pos: v.Pos, ID: typed.Identifier{Name: v.ID.Name, Version: version}}, nil
	case *typed.BinaryExpr:
		left, err := renameExpr(v.Left, vm)
		if err != nil {
			return nil, err
		}
		right, err := renameExpr(v.Right, vm)
		if err != nil {
			return nil, err
		}
		return &typed.BinaryExpr{Pos: v.Pos, Op: v.Op, Left: left, Right: right}, nil
	case *typed.UnaryExpr:
		operand, err := renameExpr(v.Operand, vm)
		if err != nil {
			return nil, err
		}
		return &typed.UnaryExpr{Pos: v.Pos, Op: v.Op, Operand: operand}, nil
	case *typed.IndexExpr:
		arr, err := renameExpr(v.Array, vm)
		if err != nil {
			return nil, err
		}
		idx, err := renameExpr(v.Index, vm)
		if err != nil {
			return nil, err
		}
		return &typed.IndexExpr{Pos: v.Pos, Array: arr, Index: idx}, nil
	case *typed.ConditionalExpr:
		cond, err := renameExpr(v.Cond, vm)
		if err != nil {
			return nil, err
		}
		then, err := renameExpr(v.Then, vm)
		if err != nil {
			return nil, err
		}
		els, err := renameExpr(v.Else, vm)
		if err != nil {
			return nil, err
		}
		return &typed.ConditionalExpr{Pos: v.Pos, Cond: cond, Then: then, Else: els}, nil
	case *typed.ArrayLiteral:
		elems := make([]typed.Expr, len(v.Elements))
		for i, el := range v.Elements {
			r, err := renameExpr(el, vm)
			if err != nil {
				return nil, err
			}
			elems[i] = r
		}
		return &typed.ArrayLiteral{Pos: v.Pos, Elements: elems}, nil
	default:
		// Literals carry no identifiers.
		return e, nil
	}
}
