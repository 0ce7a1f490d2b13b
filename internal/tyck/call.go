package tyck

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/types"
)

// candidateScore ranks one overload candidate against a call site, in the
// three tiers spec §4.4 names: positional-match count, exact-type count,
// and named-group default presence.
type candidateScore struct {
	sig            *FnSig
	positionalOK   bool
	exactTypeCount int
	defaultsOK     bool
}

// checkCall resolves the callee (by name, through rr.FnOverloads, or by a
// bound function-valued expression) and type-checks arguments against the
// winning overload.
func (c *Checker) checkCall(id ast.ExprID, e ast.Expr) types.ID {
	callee := c.a.Expr(e.A)
	args := c.a.ArgSlice(e.ArgBegin, e.ArgCount)
	argTypes := make([]types.ID, len(args))
	for i, arg := range args {
		argTypes[i] = c.checkExpr(arg.Value)
	}

	if callee.Kind == ast.EIdent {
		if overloads, ok := c.rr.FnOverloads[callee.Text]; ok {
			return c.resolveCallOverloads(id, e, overloads, args, argTypes)
		}
	}

	// Not a named top-level function: check as a function-typed value call.
	calleeTy := c.checkExpr(e.A)
	ft := c.pool.Get(calleeTy)
	if ft.Kind != types.KFunction {
		if calleeTy != types.ErrorID {
			c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &e.Span, "callee is not callable"))
		}
		return types.ErrorID
	}
	for i, arg := range args {
		if i < len(ft.Params) {
			c.checkAssignable(ft.Params[i], arg.Value, argTypes[i], errors.TypeMismatch, "call argument")
		}
	}
	return ft.Ret
}

// resolveCallOverloads implements spec §4.4's three-tier ranking. A winner
// strictly ahead on the first differing tier wins outright; a tie on all
// three tiers is OverloadAmbiguousCall; no candidate matching positional
// arity is OverloadNoMatchingCall.
func (c *Checker) resolveCallOverloads(id ast.ExprID, e ast.Expr, overloads []ast.StmtID, args []ast.Arg, argTypes []types.ID) types.ID {
	var scores []candidateScore
	for _, stmtID := range overloads {
		sig := c.fnSigs[stmtID]
		if sig == nil {
			continue
		}
		score, ok := c.scoreCandidate(sig, args, argTypes)
		if ok {
			scores = append(scores, score)
		}
	}
	if len(scores) == 0 {
		c.bag.Add(errors.New(errors.OverloadNoMatchingCall, "tyck", &e.Span, "no matching overload for call"))
		return types.ErrorID
	}
	best := scores[0]
	ambiguous := false
	for _, s := range scores[1:] {
		switch compareScore(s, best) {
		case 1:
			best = s
			ambiguous = false
		case 0:
			ambiguous = true
		}
	}
	if ambiguous {
		c.bag.Add(errors.New(errors.OverloadAmbiguousCall, "tyck", &e.Span, "ambiguous call: multiple overloads match equally well"))
	}
	c.callTarget[id] = best.sig.Stmt
	for i, arg := range args {
		if i < len(best.sig.Positional) {
			c.checkAssignable(best.sig.Positional[i].Type, arg.Value, argTypes[i], errors.TypeMismatch, "call argument")
		}
	}
	for _, arg := range args {
		if arg.Label == "" {
			continue
		}
		for _, np := range best.sig.Named {
			if np.Name == arg.Label {
				c.checkAssignable(np.Type, arg.Value, c.checkExpr(arg.Value), errors.TypeMismatch, "named call argument")
			}
		}
	}
	return best.sig.Ret
}

// compareScore returns 1 if a beats b, -1 if b beats a, 0 if tied, using
// the three ordered tiers from spec §4.4.
func compareScore(a, b candidateScore) int {
	if a.positionalOK != b.positionalOK {
		if a.positionalOK {
			return 1
		}
		return -1
	}
	if a.exactTypeCount != b.exactTypeCount {
		if a.exactTypeCount > b.exactTypeCount {
			return 1
		}
		return -1
	}
	if a.defaultsOK != b.defaultsOK {
		if a.defaultsOK {
			return 1
		}
		return -1
	}
	return 0
}

// scoreCandidate evaluates sig against one call site's positional/named
// arguments, returning ok=false if arity is fundamentally incompatible
// (too many positional args, a missing positional param with no default,
// or a label that matches no named param). A named param with no default
// and no matching label keeps the candidate but clears defaultsOK.
func (c *Checker) scoreCandidate(sig *FnSig, args []ast.Arg, argTypes []types.ID) (candidateScore, bool) {
	var positional []ast.Arg
	var positionalTypes []types.ID
	named := map[string]ast.Arg{}
	namedTypes := map[string]types.ID{}
	for i, a := range args {
		if a.Label == "" {
			positional = append(positional, a)
			positionalTypes = append(positionalTypes, argTypes[i])
		} else {
			named[a.Label] = a
			namedTypes[a.Label] = argTypes[i]
		}
	}
	if len(positional) > len(sig.Positional) {
		return candidateScore{}, false
	}
	exact := 0
	for i, p := range sig.Positional {
		if i >= len(positional) {
			if !p.HasDefault {
				return candidateScore{}, false
			}
			continue
		}
		if positionalTypes[i] == p.Type {
			exact++
		}
	}
	defaultsOK := true
	for _, np := range sig.Named {
		if t, ok := namedTypes[np.Name]; ok {
			if t == np.Type {
				exact++
			}
			delete(named, np.Name)
		} else if !np.HasDefault {
			defaultsOK = false
		}
	}
	if len(named) > 0 {
		return candidateScore{}, false // labels matching no known named param
	}
	return candidateScore{
		sig: sig, positionalOK: true,
		exactTypeCount: exact, defaultsOK: defaultsOK,
	}, true
}
