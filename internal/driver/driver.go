// Package driver glues the nine core compiler stages (C1-C9) into one
// pipeline (SPEC_FULL §5-bis): lex -> parse -> resolve -> typecheck ->
// SIR build + capability analysis, optionally continued into OIR build +
// optimize + verify. It is the thing cmd/parus's `check`/`build` commands
// call; nothing in internal/driver talks to a terminal, a file system path
// beyond the source string it's handed, or a config format — that belongs
// to cmd/parus.
package driver

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/lexer"
	"github.com/parusbuild/parusc/internal/oir"
	"github.com/parusbuild/parusc/internal/parser"
	"github.com/parusbuild/parusc/internal/resolve"
	"github.com/parusbuild/parusc/internal/sir"
	"github.com/parusbuild/parusc/internal/symtab"
	"github.com/parusbuild/parusc/internal/types"
	"github.com/parusbuild/parusc/internal/tyck"
)

// Artifacts carries every stage's output far enough for both `check`
// (stops after the capability analyzer) and `build` (continues into OIR
// and parlib) to share one driver run.
type Artifacts struct {
	Arena      *ast.Arena
	Pool       *types.Pool
	Decls      []ast.StmtID
	Resolved   *resolve.Result
	Checked    *tyck.Result
	SIR        *sir.Module
	Capability *sir.Result
	OIR        *oir.Module

	// Bag accumulates diagnostics from every stage run so far (spec §7:
	// "every pass accumulates diagnostics into a shared bag; it never
	// raises across pass boundaries"). Compile and LowerToOIR both merge
	// into this same bag, so a caller holding the pointer returned by
	// Compile sees OIR verification diagnostics too once LowerToOIR runs.
	Bag *errors.Bag
}

// Compile drives lex -> parse -> resolve -> typecheck -> SIR build ->
// capability analysis over src (read from path only for diagnostic
// spans), stopping at the front end -- call Artifacts.LowerToOIR to
// continue into OIR. It returns a non-nil Artifacts even when diagnostics
// were reported; the caller decides, via Bag.OK, whether to proceed.
func Compile(src string, path string) (*Artifacts, *errors.Bag) {
	bag := &errors.Bag{}

	l := lexer.New(string(lexer.Normalize([]byte(src))), path)
	p := parser.New(l)
	decls := p.ParseFile()
	bag.Merge(p.Bag)

	a := p.Arena
	pool := types.NewPool()

	rr := resolve.New(a, pool, symtab.ShadowAllow).Resolve(decls)
	bag.Merge(rr.Bag)

	tr := tyck.New(a, pool, rr).Check(decls)
	bag.Merge(tr.Bag)

	sirMod := sir.New(a, pool, rr, tr).Build(decls)

	capRes := sir.NewAnalyzer(sirMod, pool).Analyze()
	bag.Merge(capRes.Bag)

	art := &Artifacts{
		Arena:      a,
		Pool:       pool,
		Decls:      decls,
		Resolved:   rr,
		Checked:    tr,
		SIR:        sirMod,
		Capability: capRes,
		Bag:        bag,
	}
	return art, bag
}

// LowerToOIR builds the OIR module from art.SIR, runs the canonical
// optimizer pipeline, and runs the structural verifier, merging any
// verification diagnostics into art.Bag. It is a separate call from
// Compile (rather than always running) because `parus check` only lowers
// to OIR when asked (spec §6: "check ... --oir").
func (art *Artifacts) LowerToOIR() *oir.Module {
	mod := oir.New(art.SIR).Build()
	oir.RunPasses(mod)
	verifyBag := oir.Verify(mod)
	art.Bag.Merge(verifyBag)
	art.OIR = mod
	return mod
}
