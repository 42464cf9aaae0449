package reducer

import (
	"zkreduce/internal/constprop"
	"zkreduce/internal/errors"
	"zkreduce/internal/inline"
	"zkreduce/internal/ssa"
	"zkreduce/internal/typed"
)

// env is the driver's own constant environment: identifiers whose value is
// known to be a literal at this point in the statement walk. It is built
// incrementally from plain Assignments (and, through extendEnvFrom, from
// an inlined call's Push/Pop bindings) whose value folds to a literal
// under the environment seen so far, and is consulted only by the
// driver's own constancy checks — loop bounds and call-site generic
// arguments. It never causes a statement's emitted text to be rewritten;
// emitted identifiers remain identifiers.
type env map[typed.Identifier]constprop.Value

func (e env) fold(ex typed.Expr) (constprop.Value, bool) {
	return constprop.FoldWithEnv(ex, e)
}

// extendEnvFrom grows e with every literal binding a freshly spliced call
// site produces. InlineCall always emits a flat PushCallLog/body/PopCallLog
// sequence (never a nested loop of its own), so a flat scan is enough to
// pick up both the argument bindings a PushCallLog carries and the return
// bindings a PopCallLog carries.
func extendEnvFrom(stmts []typed.Statement, e env) {
	for _, s := range stmts {
		switch v := s.(type) {
		case *typed.Assignment:
			if val, ok := e.fold(v.RHS); ok {
				e[v.LHS] = val
			}
		case *typed.PushCallLog:
			for _, b := range v.Bindings {
				if val, ok := e.fold(b.Value); ok {
					e[b.Var.ID] = val
				}
			}
		case *typed.PopCallLog:
			for _, b := range v.Bindings {
				if val, ok := e.fold(b.Value); ok {
					e[b.Var.ID] = val
				}
			}
		}
	}
}

// walker drives one function's fixed-point reduction: a single
// left-to-right pass attempts to resolve every call (by inlining) and
// every loop (by unrolling) it encounters, stopping at the first one that
// isn't resolvable yet rather than guessing. The reducer Driver calls
// process repeatedly — once per fixed-point iteration — feeding back the
// unresolved remainder each time, until either nothing remains or an
// iteration makes no progress at all.
type walker struct {
	limits        Limits
	emitted       int
	unrolled      int
	inliner       *inline.Inliner
	loopSnapshots map[*typed.ForStatement]map[string]int
}

// process walks stmts once. Every statement attempt resolves immediately
// (stale tracks whether this statement's embedded SSA versions may be
// stale relative to versions — see attempt) except the first call or loop
// that cannot yet be resolved, at which point process stops and returns
// everything from there onward, untouched, as remainder: a statement
// downstream of a still-pending blocker must not be finalized, since it
// may need to observe a write the blocker has not produced yet.
func (w *walker) process(stmts []typed.Statement, e env, versions *ssa.VersionMap, stale bool) (emitted, remainder []typed.Statement, stillStale bool, err error) {
	for i, s := range stmts {
		out, resolved, newStale, err := w.attempt(s, e, versions, stale)
		if err != nil {
			return nil, nil, stale, err
		}
		if !resolved {
			return emitted, stmts[i:], stale, nil
		}
		stale = newStale
		emitted = append(emitted, out...)

		w.emitted++
		if w.emitted > w.limits.MaxStatements {
			return nil, nil, stale, errors.BudgetExceeded("emitted statements", w.limits.MaxStatements, s.StmtPos())
		}
	}
	return emitted, nil, stale, nil
}

// attempt dispatches a single statement. Plain Assignments, Returns, and
// Asserts always resolve: when stale is false their SSA versions (bumped
// once already by ssa.Transform's initial rename) are already correct and
// the statement passes through unchanged; when stale is true — because an
// earlier loop in this same walk was unrolled, and ssa.Transform never
// descended into that loop's body to account for its writes — the
// statement's reads and writes are re-derived against the live versions
// map instead of trusting the stale numbers ssa.Transform assigned it.
func (w *walker) attempt(s typed.Statement, e env, versions *ssa.VersionMap, stale bool) ([]typed.Statement, bool, bool, error) {
	switch v := s.(type) {
	case *typed.Assignment:
		if !stale {
			if val, ok := e.fold(v.RHS); ok {
				e[v.LHS] = val
			}
			return []typed.Statement{v}, true, false, nil
		}
		rhs := reversionExpr(v.RHS, versions)
		lhs := typed.Identifier{Name: v.LHS.Name, Version: versions.Bump(v.LHS.Name)}
		if val, ok := e.fold(rhs); ok {
			e[lhs] = val
		}
		return []typed.Statement{&typed.Assignment{Pos: v.Pos, LHS: lhs, DeclaredType: v.DeclaredType, RHS: rhs}}, true, true, nil

	case *typed.ReturnStatement:
		if !stale {
			return []typed.Statement{v}, true, false, nil
		}
		values := make([]typed.Expr, len(v.Values))
		for i, val := range v.Values {
			values[i] = reversionExpr(val, versions)
		}
		return []typed.Statement{&typed.ReturnStatement{Pos: v.Pos, Values: values}}, true, true, nil

	case *typed.AssertStatement:
		if !stale {
			return []typed.Statement{v}, true, false, nil
		}
		return []typed.Statement{&typed.AssertStatement{Pos: v.Pos, Cond: reversionExpr(v.Cond, versions), Message: v.Message}}, true, true, nil

	case *typed.PushCallLog, *typed.PopCallLog:
		return []typed.Statement{v}, true, stale, nil

	case *typed.MultiAssignment:
		return w.attemptCall(v, e, versions, stale)

	case *typed.ForStatement:
		return w.attemptLoop(v, e, versions, stale)

	default:
		return []typed.Statement{v}, true, stale, nil
	}
}

// attemptCall folds the call's generic arguments against e; if any fails
// to fold, the call is left for a later pass. Otherwise it delegates the
// actual splicing to the inliner and grows e from the spliced Push/Pop
// bindings via extendEnvFrom, so a loop bound later in the same pass that
// depends on this call's result can already fold against the grown e.
func (w *walker) attemptCall(v *typed.MultiAssignment, e env, versions *ssa.VersionMap, stale bool) ([]typed.Statement, bool, bool, error) {
	args := v.Call.Args
	lhs := v.LHS
	if stale {
		args = make([]typed.Expr, len(v.Call.Args))
		for i, a := range v.Call.Args {
			args[i] = reversionExpr(a, versions)
		}
		lhs = make([]typed.Identifier, len(v.LHS))
		for i, id := range v.LHS {
			lhs[i] = typed.Identifier{Name: id.Name, Version: versions.Bump(id.Name)}
		}
	}

	gs := make([]typed.Expr, len(v.Call.Generics))
	for i, g := range v.Call.Generics {
		src := g
		if stale {
			src = reversionExpr(g, versions)
		}
		val, ok := e.fold(src)
		if !ok {
			return nil, false, stale, nil
		}
		gs[i] = constprop.ToExpr(val, src.ExprPos())
	}

	resolvedCall := &typed.MultiAssignment{
		Pos: v.Pos, LHS: lhs, DeclaredTypes: v.DeclaredTypes,
		Call: typed.FunctionCallRHS{Pos: v.Call.Pos, Callee: v.Call.Callee, Generics: gs, Args: args},
	}
	spliced, err := w.inliner.InlineCall(resolvedCall)
	if err != nil {
		return nil, false, stale, err
	}
	extendEnvFrom(spliced, e)
	return spliced, true, stale, nil
}

// attemptLoop folds the loop's bounds against e; if either fails, the loop
// is left for a later pass. Otherwise it restores versions to the
// VersionMap state recorded when ssa.Transform first reached this loop
// (undoing any bumps Transform made to statements after the loop, which
// assumed — wrongly — that the loop's body produced no further writes),
// then replays each iteration's induction-bound body through ssa.Rename
// and w.process. If any iteration contains a nested call or loop that
// itself cannot resolve yet, the whole attempt is abandoned and versions
// is restored back to the pre-attempt baseline, leaving the loop pending
// for a future pass rather than partially unrolled.
func (w *walker) attemptLoop(loop *typed.ForStatement, e env, versions *ssa.VersionMap, stale bool) ([]typed.Statement, bool, bool, error) {
	lower, upper := loop.Lower, loop.Upper
	if stale {
		lower = reversionExpr(loop.Lower, versions)
		upper = reversionExpr(loop.Upper, versions)
	}
	lowerVal, ok := e.fold(lower)
	if !ok {
		return nil, false, stale, nil
	}
	upperVal, ok := e.fold(upper)
	if !ok {
		return nil, false, stale, nil
	}

	baseline, ok := w.loopSnapshots[loop]
	if !ok {
		baseline = versions.Snapshot()
	}
	versions.Restore(baseline)

	var out []typed.Statement
	for i := lowerVal.Int.Int64(); i < upperVal.Int.Int64(); i++ {
		w.unrolled++
		if w.unrolled > w.limits.MaxUnrollIterations {
			return nil, false, stale, errors.BudgetExceeded("unrolled loop iterations", w.limits.MaxUnrollIterations, loop.Pos)
		}

		bound := make([]typed.Statement, len(loop.Body))
		for j, bs := range loop.Body {
			bound[j] = bindInduction(bs, loop.Induction, uint64(i))
		}

		renamed, nested, err := ssa.Rename(bound, versions)
		if err != nil {
			versions.Restore(baseline)
			return nil, false, stale, err
		}
		for lp, snap := range nested {
			w.loopSnapshots[lp] = snap
		}

		iterEmitted, remainder, _, err := w.process(renamed, e, versions, false)
		if err != nil {
			versions.Restore(baseline)
			return nil, false, stale, err
		}
		if remainder != nil {
			// A nested call or loop inside this iteration's body isn't
			// resolvable yet; give up on this whole unroll attempt rather
			// than leave the loop half-expanded, and retry once whatever
			// blocks the nested statement clears on a later pass.
			versions.Restore(baseline)
			return nil, false, stale, nil
		}
		out = append(out, iterEmitted...)
	}
	return out, true, true, nil
}

// bindInduction substitutes the loop's induction variable with its
// concrete value for this iteration, everywhere it is read in s.
func bindInduction(s typed.Statement, induction string, value uint64) typed.Statement {
	sub := func(e typed.Expr) typed.Expr { return substituteInductionExpr(e, induction, value) }
	switch v := s.(type) {
	case *typed.Assignment:
		return &typed.Assignment{Pos: v.Pos, LHS: v.LHS, DeclaredType: v.DeclaredType, RHS: sub(v.RHS)}
	case *typed.MultiAssignment:
		args := make([]typed.Expr, len(v.Call.Args))
		for i, a := range v.Call.Args {
			args[i] = sub(a)
		}
		gs := make([]typed.Expr, len(v.Call.Generics))
		for i, g := range v.Call.Generics {
			gs[i] = sub(g)
		}
		return &typed.MultiAssignment{
			Pos: v.Pos, LHS: v.LHS, DeclaredTypes: v.DeclaredTypes,
			Call: typed.FunctionCallRHS{Pos: v.Call.Pos, Callee: v.Call.Callee, Generics: gs, Args: args},
		}
	case *typed.ForStatement:
		body := make([]typed.Statement, len(v.Body))
		for i, bs := range v.Body {
			body[i] = bindInduction(bs, induction, value)
		}
		return &typed.ForStatement{Pos: v.Pos, Induction: v.Induction, Lower: sub(v.Lower), Upper: sub(v.Upper), Body: body}
	case *typed.ReturnStatement:
		values := make([]typed.Expr, len(v.Values))
		for i, val := range v.Values {
			values[i] = sub(val)
		}
		return &typed.ReturnStatement{Pos: v.Pos, Values: values}
	case *typed.AssertStatement:
		return &typed.AssertStatement{Pos: v.Pos, Cond: sub(v.Cond), Message: v.Message}
	default:
		return s
	}
}

func substituteInductionExpr(e typed.Expr, induction string, value uint64) typed.Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *typed.IdentExpr:
		if v.ID.Name == induction {
			return typed.NewUintLiteral(value, 0)
		}
		return v
	case *typed.BinaryExpr:
		return &typed.BinaryExpr{Pos: v.Pos, Op: v.Op,
			Left:  substituteInductionExpr(v.Left, induction, value),
			Right: substituteInductionExpr(v.Right, induction, value)}
	case *typed.UnaryExpr:
		return &typed.UnaryExpr{Pos: v.Pos, Op: v.Op, Operand: substituteInductionExpr(v.Operand, induction, value)}
	case *typed.IndexExpr:
		return &typed.IndexExpr{Pos: v.Pos,
			Array: substituteInductionExpr(v.Array, induction, value),
			Index: substituteInductionExpr(v.Index, induction, value)}
	case *typed.ConditionalExpr:
		return &typed.ConditionalExpr{Pos: v.Pos,
			Cond: substituteInductionExpr(v.Cond, induction, value),
			Then: substituteInductionExpr(v.Then, induction, value),
			Else: substituteInductionExpr(v.Else, induction, value)}
	case *typed.ArrayLiteral:
		elems := make([]typed.Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = substituteInductionExpr(el, induction, value)
		}
		return &typed.ArrayLiteral{Pos: v.Pos, Elements: elems}
	default:
		return e
	}
}

// reversionExpr rewrites every identifier read in e to the version
// currently live in versions, so a read always sees the most recent write
// — including one produced by an unrolled loop iteration that ssa.Transform
// couldn't have known about when it assigned this expression's original
// versions.
func reversionExpr(e typed.Expr, versions *ssa.VersionMap) typed.Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *typed.IdentExpr:
		version, ok := versions.Current(v.ID.Name)
		if !ok {
			return v
		}
		return &typed.IdentExpr{Pos: v.Pos, ID: typed.Identifier{Name: v.ID.Name, Version: version}}
	case *typed.BinaryExpr:
		return &typed.BinaryExpr{Pos: v.Pos, Op: v.Op, Left: reversionExpr(v.Left, versions), Right: reversionExpr(v.Right, versions)}
	case *typed.UnaryExpr:
		return &typed.UnaryExpr{Pos: v.Pos, Op: v.Op, Operand: reversionExpr(v.Operand, versions)}
	case *typed.IndexExpr:
		return &typed.IndexExpr{Pos: v.Pos, Array: reversionExpr(v.Array, versions), Index: reversionExpr(v.Index, versions)}
	case *typed.ConditionalExpr:
		return &typed.ConditionalExpr{Pos: v.Pos, Cond: reversionExpr(v.Cond, versions), Then: reversionExpr(v.Then, versions), Else: reversionExpr(v.Else, versions)}
	case *typed.ArrayLiteral:
		elems := make([]typed.Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = reversionExpr(el, versions)
		}
		return &typed.ArrayLiteral{Pos: v.Pos, Elements: elems}
	default:
		return e
	}
}
