package eval

import (
	"github.com/tim-hardcastle/thicket/ast"
	"github.com/tim-hardcastle/thicket/errs"
	"github.com/tim-hardcastle/thicket/sym"
	"github.com/tim-hardcastle/thicket/token"
	"github.com/tim-hardcastle/thicket/value"
)

// Apply applies fun to arg. It mirrors the original evaluator's
// callFunction almost line for line: a PrimOp/PrimOpApp accumulates
// arguments into a left-leaning chain until its arity is satisfied, at
// which point the chain is walked right-to-left to assemble the argument
// vector in the order they were originally supplied; a Lambda allocates one
// new Env frame and either binds arg directly (VarPattern) or destructures
// it (AttrsPattern).
func Apply(c *Context, fun, arg *value.Value) (*value.Value, error) {
	if err := Force(c, fun); err != nil {
		return nil, err
	}

	switch fun.Tag {
	case value.PrimOp, value.PrimOpApp:
		return applyPrimOp(c, fun, arg)
	case value.Lambda:
		return applyLambda(c, fun, arg)
	default:
		return nil, errs.NewTypeError(token.Pos{},
			"attempt to call something which is neither a function nor a primop (built-in operation) but "+fun.Tag.String())
	}
}

func applyPrimOp(c *Context, fun, arg *value.Value) (*value.Value, error) {
	argsLeft := 1
	switch fun.Tag {
	case value.PrimOp:
		argsLeft = fun.PrimOp.Arity
	case value.PrimOpApp:
		argsLeft = fun.PrimOpApp.ArgsLeft
	}

	if argsLeft > 1 {
		return &value.Value{
			Tag: value.PrimOpApp,
			PrimOpApp: &value.PrimOpAppPayload{
				Left:     fun,
				Right:    arg,
				ArgsLeft: argsLeft - 1,
			},
		}, nil
	}

	primOp := fun
	for primOp.Tag == value.PrimOpApp {
		primOp = primOp.PrimOpApp.Left
	}
	arity := primOp.PrimOp.Arity

	args := make([]*value.Value, arity)
	args[arity-1] = arg
	n := arity - 2
	for p := fun; p.Tag == value.PrimOpApp; p = p.PrimOpApp.Left {
		args[n] = p.PrimOpApp.Right
		n--
	}

	return primOp.PrimOp.Fn(args)
}

func applyLambda(c *Context, fun, arg *value.Value) (*value.Value, error) {
	env2 := value.NewEnv(fun.Lambda.Env)

	switch pat := fun.Lambda.Pattern.(type) {
	case ast.VarPattern:
		env2.Bindings.Set(pat.Name, arg)

	case ast.AttrsPattern:
		attrs, err := ForceAttrs(c, arg)
		if err != nil {
			return nil, err
		}

		if pat.Alias != sym.NoAliasSym {
			env2.Bindings.Set(pat.Alias, arg)
		}

		attrsUsed := 0
		for _, formal := range pat.Formals {
			v, ok := attrs.Get(formal.Name)
			if !ok {
				if formal.Default == nil {
					return nil, errs.NewTypeError(fun.Lambda.Body.Pos(),
						"the argument named `"+formal.Name.String()+"' required by the function is missing")
				}
				env2.Bindings.Set(formal.Name, value.MkThunk(env2, formal.Default))
			} else {
				attrsUsed++
				env2.Bindings.Set(formal.Name, value.MkCopy(v))
			}
		}

		if !pat.Ellipsis && attrsUsed != attrs.Len() {
			return nil, errs.NewTypeError(fun.Lambda.Body.Pos(), "function called with unexpected argument")
		}
	}

	return Eval(c, env2, fun.Lambda.Body)
}

// AutoCall fills in every formal of fun's AttrsPattern that args supplies
// a binding for and leaves the rest to their defaults, without requiring
// the caller to build an ast.Attrs node — the mechanism a session uses to
// invoke a file's top-level function with a pre-built argument set (the
// --arg style of invocation).
func AutoCall(c *Context, fun *value.Value, args *value.AttrsMap) (*value.Value, error) {
	if err := Force(c, fun); err != nil {
		return nil, err
	}
	if fun.Tag != value.Lambda {
		return fun, nil
	}
	pat, ok := fun.Lambda.Pattern.(ast.AttrsPattern)
	if !ok {
		return fun, nil
	}
	actual := value.NewAttrsMap()
	for _, formal := range pat.Formals {
		if v, ok := args.Get(formal.Name); ok {
			actual.Set(formal.Name, v)
		}
	}
	return Apply(c, fun, value.MkAttrs(actual))
}
