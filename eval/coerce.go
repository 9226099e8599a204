package eval

import (
	"path"
	"strconv"
	"strings"

	"github.com/tim-hardcastle/thicket/ast"
	"github.com/tim-hardcastle/thicket/errs"
	"github.com/tim-hardcastle/thicket/sym"
	"github.com/tim-hardcastle/thicket/token"
	"github.com/tim-hardcastle/thicket/value"
)

// drvExtension is the suffix a store derivation file's name ends in; a
// source path coerced to the store is not allowed to already look like one.
const drvExtension = ".drv"

// CoerceToString forces v and renders it as a string, accumulating every
// store path its contents are provenant on into the returned context.
// coerceMore additionally accepts bools/ints/null/lists (the "more liberal"
// mode the toString builtin uses; ConcatStrings does not); copyToStore controls
// whether a Path value actually gets added to the store collaborator or is
// just canonicalized and returned as-is.
func CoerceToString(c *Context, v *value.Value, coerceMore, copyToStore bool) (string, value.StringCtx, error) {
	if err := Force(c, v); err != nil {
		return "", nil, err
	}

	switch v.Tag {
	case value.StringV:
		return v.Str, v.Ctx, nil

	case value.PathV:
		p := path.Clean(v.Str)
		if !copyToStore {
			return p, nil, nil
		}

		if strings.HasSuffix(p, drvExtension) {
			return "", nil, errs.NewEvalError(token.Pos{},
				"file names are not allowed to end in `"+drvExtension+"'")
		}

		storePath, ok := c.Session.srcToStore[p]
		if !ok {
			var err error
			if c.Store.ReadOnly() {
				storePath, _, err = c.Store.ComputeStorePathForPath(p)
			} else {
				storePath, err = c.Store.AddToStore(p)
			}
			if err != nil {
				return "", nil, errs.NewEvalError(token.Pos{}, err.Error())
			}
			c.Session.srcToStore[p] = storePath
		}

		return storePath, value.StringCtx{storePath}, nil

	case value.Attrs:
		out, ok := v.AttrsVal.Get(sym.Intern("outPath"))
		if !ok {
			return "", nil, errs.NewTypeError(token.Pos{},
				"cannot coerce an attribute set (except a derivation) to a string")
		}
		return CoerceToString(c, out, coerceMore, copyToStore)
	}

	if coerceMore {
		switch v.Tag {
		case value.Bool:
			if v.BoolVal {
				return "1", nil, nil
			}
			return "", nil, nil
		case value.Int:
			return strconv.FormatInt(v.IntVal, 10), nil, nil
		case value.Null:
			return "", nil, nil
		case value.List:
			elems := value.ListSlice(v.ListVal)
			var b strings.Builder
			var ctx value.StringCtx
			for i, elem := range elems {
				s, c2, err := CoerceToString(c, elem, coerceMore, copyToStore)
				if err != nil {
					return "", nil, err
				}
				b.WriteString(s)
				ctx = ctx.Union(c2)
				if i < len(elems)-1 && !(elem.Tag == value.List && value.ListLen(elem.ListVal) == 0) {
					b.WriteString(" ")
				}
			}
			return b.String(), ctx, nil
		}
	}

	return "", nil, errs.NewTypeError(token.Pos{}, "cannot coerce "+v.Tag.String()+" to a string")
}

// CoerceToPath coerces v to a string (without copying to the store, without
// the liberal extra conversions) and requires the result to be an absolute
// path.
func CoerceToPath(c *Context, v *value.Value) (string, value.StringCtx, error) {
	s, ctx, err := CoerceToString(c, v, false, false)
	if err != nil {
		return "", nil, err
	}
	if s == "" || s[0] != '/' {
		return "", nil, errs.NewTypeError(token.Pos{}, "string `"+s+"' doesn't represent an absolute path")
	}
	return s, ctx, nil
}

// evalConcatStrings implements adjacent string/path literal concatenation.
// If the first part coerces to a Path, the whole expression is a Path and
// none of the later parts may carry a context (you cannot append a string
// that refers to a store path onto a path literal).
func evalConcatStrings(c *Context, env *value.Env, node *ast.ConcatStrings) (*value.Value, error) {
	var b strings.Builder
	var ctx value.StringCtx
	isPath := false

	for i, part := range node.Parts {
		pv, err := Eval(c, env, part)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			if err := Force(c, pv); err != nil {
				return nil, err
			}
			isPath = pv.Tag == value.PathV
		}
		s, pctx, err := CoerceToString(c, pv, false, !isPath)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		ctx = ctx.Union(pctx)
	}

	if isPath && !ctx.Empty() {
		return nil, errs.NewEvalError(node.Pos(),
			"a string that refers to a store path cannot be appended to a path, in `"+b.String()+"'")
	}

	if isPath {
		return value.MkPath(b.String()), nil
	}
	return value.MkString(b.String(), ctx), nil
}

// IsDerivation reports whether v is an attribute set whose "type" attribute
// forces to the string "derivation" — the test the original evaluator's
// coercion and equality machinery uses to decide whether an attribute set
// may stand in for a string.
func IsDerivation(c *Context, v *value.Value) (bool, error) {
	if err := Force(c, v); err != nil {
		return false, err
	}
	if v.Tag != value.Attrs {
		return false, nil
	}
	t, ok := v.AttrsVal.Get(sym.Intern("type"))
	if !ok {
		return false, nil
	}
	s, _, err := ForceString(c, t)
	if err != nil {
		return false, nil
	}
	return s == "derivation", nil
}
