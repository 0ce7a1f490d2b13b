package tyck

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/types"
)

// ResolveTypeArg interns the syntactic type annotation id into pool,
// recursing through the wrapper kinds in the same precedence order the
// parser built them in (spec §4.1: suffix binds tighter than prefix).
func ResolveTypeArg(pool *types.Pool, a *ast.Arena, id ast.TypeArgID) types.ID {
	if id == ast.InvalidTypeArg {
		return types.ErrorID
	}
	t := a.TypeArgs[id]
	switch t.Kind {
	case ast.TANamed:
		return pool.InternPath(t.Path)
	case ast.TAOptional:
		return pool.MakeOptional(ResolveTypeArg(pool, a, t.Elem))
	case ast.TAArray:
		return pool.MakeArray(ResolveTypeArg(pool, a, t.Elem), t.Size)
	case ast.TABorrow:
		return pool.MakeBorrow(ResolveTypeArg(pool, a, t.Elem), t.IsMut)
	case ast.TAEscape:
		return pool.MakeEscape(ResolveTypeArg(pool, a, t.Elem))
	case ast.TAFn:
		var params []types.ID
		for _, pid := range a.TypeArgSlice(t.ParamBegin, t.ParamCount) {
			params = append(params, ResolveTypeArg(pool, a, pid))
		}
		ret := types.ErrorID
		if t.Ret != ast.InvalidTypeArg {
			ret = ResolveTypeArg(pool, a, t.Ret)
		} else {
			ret = pool.BuiltinID(types.BVoid)
		}
		return pool.MakeFn(ret, params)
	}
	return types.ErrorID
}
