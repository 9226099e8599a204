// Package eval is a standard tree-walking evaluator, with one or two minor
// peculiarities: most values are suspended as thunks rather than computed
// eagerly, and forcing a thunk overwrites it in place so every other
// pointer that was handed out to it sees the same forced result.
package eval

import (
	"github.com/tim-hardcastle/thicket/ast"
	"github.com/tim-hardcastle/thicket/errs"
	"github.com/tim-hardcastle/thicket/store"
	"github.com/tim-hardcastle/thicket/sym"
	"github.com/tim-hardcastle/thicket/token"
	"github.com/tim-hardcastle/thicket/value"
)

// Context bundles the state Eval needs at every call: the store collaborator
// coercion depends on, and the running Session's stats/interrupt flag. It is
// threaded through exactly the way the teacher threads its own evaluator
// Context (parser/env/access/logging) from call to call.
type Context struct {
	Store   store.Store
	Session *Session
}

// Eval evaluates e in env and returns its (possibly unforced) value. Most
// cases here never force anything — they build a new Thunk, Attrs, List or
// Lambda value and hand it back unevaluated, exactly mirroring the matching
// branch of the original evaluator's eval(Env&, Expr, Value&).
func Eval(c *Context, env *value.Env, e ast.Expr) (*value.Value, error) {
	if err := c.Session.tick(); err != nil {
		return nil, err
	}
	defer func() { c.Session.depth-- }()

	switch node := e.(type) {

	case *ast.Var:
		v, ok := value.Lookup(env, node.Name)
		if !ok {
			return nil, errs.NewUndefinedVariable(node.Pos(), node.Name.String())
		}
		if err := Force(c, v); err != nil {
			return nil, err
		}
		return v, nil

	case *ast.Int:
		return value.MkInt(node.Value), nil

	case *ast.Str:
		return value.MkString(node.Value, nil), nil

	case *ast.Path:
		return value.MkPath(node.Value), nil

	case *ast.Attrs:
		return evalAttrs(env, node)

	case *ast.Rec:
		return evalRec(env, node)

	case *ast.Select:
		return evalSelect(c, env, node)

	case *ast.Function:
		return value.MkLambda(env, node.Pattern, node.Body), nil

	case *ast.Call:
		funVal, err := Eval(c, env, node.Fun)
		if err != nil {
			return nil, err
		}
		argVal := value.MkThunk(env, node.Arg)
		return Apply(c, funVal, argVal)

	case *ast.With:
		return evalWith(c, env, node)

	case *ast.List:
		return evalList(env, node)

	case *ast.OpEq:
		return evalEq(c, env, node.Left, node.Right, false)

	case *ast.OpNEq:
		return evalEq(c, env, node.Left, node.Right, true)

	case *ast.OpConcat:
		return evalConcat(c, env, node)

	case *ast.ConcatStrings:
		return evalConcatStrings(c, env, node)

	case *ast.If:
		cond, err := evalBool(c, env, node.Cond)
		if err != nil {
			return nil, err
		}
		if cond {
			return Eval(c, env, node.Then)
		}
		return Eval(c, env, node.Else)

	case *ast.Assert:
		ok, err := evalBool(c, env, node.Cond)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.NewAssertionError(node.Pos())
		}
		return Eval(c, env, node.Body)

	case *ast.OpNot:
		b, err := evalBool(c, env, node.Expr)
		if err != nil {
			return nil, err
		}
		return value.MkBoolVal(!b), nil

	case *ast.OpImpl:
		l, err := evalBool(c, env, node.Left)
		if err != nil {
			return nil, err
		}
		if !l {
			return value.TrueVal, nil
		}
		r, err := evalBool(c, env, node.Right)
		if err != nil {
			return nil, err
		}
		return value.MkBoolVal(r), nil

	case *ast.OpAnd:
		l, err := evalBool(c, env, node.Left)
		if err != nil {
			return nil, err
		}
		if !l {
			return value.FalseVal, nil
		}
		r, err := evalBool(c, env, node.Right)
		if err != nil {
			return nil, err
		}
		return value.MkBoolVal(r), nil

	case *ast.OpOr:
		l, err := evalBool(c, env, node.Left)
		if err != nil {
			return nil, err
		}
		if l {
			return value.TrueVal, nil
		}
		r, err := evalBool(c, env, node.Right)
		if err != nil {
			return nil, err
		}
		return value.MkBoolVal(r), nil

	case *ast.OpUpdate:
		return evalUpdate(c, env, node)

	case *ast.OpHasAttr:
		return evalHasAttr(c, env, node)

	default:
		return nil, errs.NewTypeError(e.Pos(), "unsupported expression")
	}
}

func evalBool(c *Context, env *value.Env, e ast.Expr) (bool, error) {
	v, err := Eval(c, env, e)
	if err != nil {
		return false, err
	}
	if err := Force(c, v); err != nil {
		return false, err
	}
	if v.Tag != value.Bool {
		return false, errs.NewTypeError(e.Pos(), "value is "+v.Tag.String()+" while a Boolean was expected")
	}
	return v.BoolVal, nil
}

func evalAttrs(env *value.Env, node *ast.Attrs) (*value.Value, error) {
	attrs := value.NewAttrsMap()
	for _, b := range node.Binds {
		attrs.Set(b.Name, value.MkThunk(env, b.Expr))
	}
	return value.MkAttrs(attrs), nil
}

// evalRec allocates a new Env whose Bindings map is handed back, unmodified,
// as the result Attrs value — the deliberate reference cycle that lets a
// recursive binding's thunk see its own sibling bindings through the
// environment that owns it.
func evalRec(env *value.Env, node *ast.Rec) (*value.Value, error) {
	env2 := value.NewEnv(env)
	for _, b := range node.Recursive {
		env2.Bindings.Set(b.Name, value.MkThunk(env2, b.Expr))
	}
	for _, b := range node.NonRecursive {
		env2.Bindings.Set(b.Name, value.MkThunk(env, b.Expr))
	}
	return value.MkAttrs(env2.Bindings), nil
}

func evalSelect(c *Context, env *value.Env, node *ast.Select) (*value.Value, error) {
	base, err := Eval(c, env, node.Expr)
	if err != nil {
		return nil, err
	}
	attrs, err := ForceAttrs(c, base)
	if err != nil {
		return nil, err
	}
	v, ok := attrs.Get(node.Name)
	if !ok {
		return nil, errs.NewUndefinedVariable(node.Pos(), node.Name.String())
	}
	if err := Force(c, v); err != nil {
		return nil, errs.WithPrefix(err, "while evaluating the attribute `"+node.Name.String()+"':\n")
	}
	return v, nil
}

// evalWith mirrors the teacher's single-case-per-node-shape style: it
// allocates one new frame, evaluates the `with` attrs value eagerly (as a
// forced Attrs, stored under sym.WithSym) and evaluates body against that
// frame, leaving all the precedence logic to value.Lookup.
func evalWith(c *Context, env *value.Env, node *ast.With) (*value.Value, error) {
	env2 := value.NewEnv(env)
	attrsVal, err := Eval(c, env, node.Attrs)
	if err != nil {
		return nil, err
	}
	if _, err := ForceAttrs(c, attrsVal); err != nil {
		return nil, err
	}
	env2.Bindings.Set(sym.WithSym, attrsVal)
	return Eval(c, env2, node.Body)
}

func evalList(env *value.Env, node *ast.List) (*value.Value, error) {
	v := value.EmptyList()
	for _, elem := range node.Elems {
		v = value.ListConj(v, value.MkThunk(env, elem))
	}
	return value.MkList(v), nil
}

func evalEq(c *Context, env *value.Env, le, re ast.Expr, negate bool) (*value.Value, error) {
	l, err := Eval(c, env, le)
	if err != nil {
		return nil, err
	}
	r, err := Eval(c, env, re)
	if err != nil {
		return nil, err
	}
	eq, err := Eq(c, l, r)
	if err != nil {
		return nil, err
	}
	if negate {
		eq = !eq
	}
	return value.MkBoolVal(eq), nil
}

// evalConcat implements list ++: the upstream evaluator explicitly loses
// sharing with the input lists here rather than allocate a Copy indirection,
// but this repository is free to do better since the persistent vector
// makes preserving sharing free — see the DESIGN.md note on this specific
// deviation.
func evalConcat(c *Context, env *value.Env, node *ast.OpConcat) (*value.Value, error) {
	l, err := Eval(c, env, node.Left)
	if err != nil {
		return nil, err
	}
	lv, err := ForceList(c, l)
	if err != nil {
		return nil, err
	}
	r, err := Eval(c, env, node.Right)
	if err != nil {
		return nil, err
	}
	rv, err := ForceList(c, r)
	if err != nil {
		return nil, err
	}
	out := lv
	for _, elem := range value.ListSlice(rv) {
		out = value.ListConj(out, elem)
	}
	return value.MkList(out), nil
}

// evalUpdate implements //. Unlike the upstream evaluator's cloneAttrs +
// manual field-by-field copy, AttrsMap.Clone plus a second pass of Set calls
// gives the same semantics (right overrides left) without a raw map literal
// walk, and without losing the left-hand side's own bindings when two
// expressions alias the same AttrsMap (see DESIGN.md).
func evalUpdate(c *Context, env *value.Env, node *ast.OpUpdate) (*value.Value, error) {
	l, err := Eval(c, env, node.Left)
	if err != nil {
		return nil, err
	}
	la, err := ForceAttrs(c, l)
	if err != nil {
		return nil, err
	}
	r, err := Eval(c, env, node.Right)
	if err != nil {
		return nil, err
	}
	ra, err := ForceAttrs(c, r)
	if err != nil {
		return nil, err
	}
	result := la.Clone()
	for _, k := range ra.SortedKeys() {
		v, _ := ra.Get(k)
		result.Set(k, v)
	}
	return value.MkAttrs(result), nil
}

func evalHasAttr(c *Context, env *value.Env, node *ast.OpHasAttr) (*value.Value, error) {
	base, err := Eval(c, env, node.Expr)
	if err != nil {
		return nil, err
	}
	attrs, err := ForceAttrs(c, base)
	if err != nil {
		return nil, err
	}
	_, ok := attrs.Get(node.Name)
	return value.MkBoolVal(ok), nil
}

// Force resolves a Thunk/Copy/App/Blackhole value into its weak-head normal
// form in place, overwriting v's fields so every holder of this *Value sees
// the forced result. It is a no-op for every already-forced tag.
func Force(c *Context, v *value.Value) error {
	switch v.Tag {
	case value.Thunk:
		saved := *v.Thunk
		env, e := saved.Env, saved.Expr
		v.Tag = value.Blackhole
		result, err := Eval(c, env, e)
		if err != nil {
			*v = value.Value{Tag: value.Thunk, Thunk: &saved}
			return err
		}
		*v = *result
		return nil

	case value.Copy:
		target := v.Copy
		if err := Force(c, target); err != nil {
			return err
		}
		*v = *target
		return nil

	case value.App:
		left, right := v.App.Left, v.App.Right
		result, err := Apply(c, left, right)
		if err != nil {
			return err
		}
		if err := Force(c, result); err != nil {
			return err
		}
		*v = *result
		return nil

	case value.Blackhole:
		return errs.NewEvalError(token.Pos{}, "infinite recursion encountered")

	default:
		return nil
	}
}

// StrictForceValue forces v and, if it is an attribute set or a list,
// recursively force-evaluates every one of its members — used where the
// semantics calls for a fully-evaluated (not just WHNF) result, such as
// builtin arguments that are about to be serialized.
func StrictForceValue(c *Context, v *value.Value) error {
	if err := Force(c, v); err != nil {
		return err
	}
	if v.Tag == value.Attrs {
		for _, k := range v.AttrsVal.SortedKeys() {
			member, _ := v.AttrsVal.Get(k)
			if err := StrictForceValue(c, member); err != nil {
				return err
			}
		}
	}
	if v.Tag == value.List {
		for _, elem := range value.ListSlice(v.ListVal) {
			if err := StrictForceValue(c, elem); err != nil {
				return err
			}
		}
	}
	return nil
}

func ForceAttrs(c *Context, v *value.Value) (*value.AttrsMap, error) {
	if err := Force(c, v); err != nil {
		return nil, err
	}
	if v.Tag != value.Attrs {
		return nil, errs.NewTypeError(token.Pos{}, "value is "+v.Tag.String()+" while a set was expected")
	}
	return v.AttrsVal, nil
}

func ForceList(c *Context, v *value.Value) (value.VecList, error) {
	if err := Force(c, v); err != nil {
		return nil, err
	}
	if v.Tag != value.List {
		return nil, errs.NewTypeError(token.Pos{}, "value is "+v.Tag.String()+" while a list was expected")
	}
	return v.ListVal, nil
}

func ForceInt(c *Context, v *value.Value) (int64, error) {
	if err := Force(c, v); err != nil {
		return 0, err
	}
	if v.Tag != value.Int {
		return 0, errs.NewTypeError(token.Pos{}, "value is "+v.Tag.String()+" while an integer was expected")
	}
	return v.IntVal, nil
}

func ForceBool(c *Context, v *value.Value) (bool, error) {
	if err := Force(c, v); err != nil {
		return false, err
	}
	if v.Tag != value.Bool {
		return false, errs.NewTypeError(token.Pos{}, "value is "+v.Tag.String()+" while a Boolean was expected")
	}
	return v.BoolVal, nil
}

func ForceString(c *Context, v *value.Value) (string, value.StringCtx, error) {
	if err := Force(c, v); err != nil {
		return "", nil, err
	}
	if v.Tag != value.StringV {
		return "", nil, errs.NewTypeError(token.Pos{}, "value is "+v.Tag.String()+" while a string was expected")
	}
	return v.Str, v.Ctx, nil
}

// ForceStringNoCtx forces v to a string and rejects one carrying a
// non-empty context — the check the upstream coerceToPath-adjacent helpers
// use before accepting a string somewhere a bare literal is required.
func ForceStringNoCtx(c *Context, v *value.Value) (string, error) {
	s, ctx, err := ForceString(c, v)
	if err != nil {
		return "", err
	}
	if !ctx.Empty() {
		return "", errs.NewTypeError(token.Pos{}, "the string "+s+" is not allowed to refer to a store path")
	}
	return s, nil
}
