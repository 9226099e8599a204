// Package primop is the primitive-operation set, grounded on the teacher's
// vm/builtins.go and compiler/builtins.go map-of-name-to-implementation
// idiom (a var BUILTINS = map[string]functionAndReturnType{...}, one row
// per operation) adapted from their VM-bytecode-emitting calling
// convention to the direct func([]*value.Value) (*value.Value, error)
// closures the curried-primop machinery in package eval calls through.
package primop

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/tim-hardcastle/thicket/errs"
	"github.com/tim-hardcastle/thicket/eval"
	"github.com/tim-hardcastle/thicket/sym"
	"github.com/tim-hardcastle/thicket/token"
	"github.com/tim-hardcastle/thicket/value"
)

// Fn is the calling convention every builtin below implements, an alias
// for value.PrimOpFn so a caller can name it without this package and
// package eval ending up in an import cycle (a Session's AddPrimOp takes
// a value.PrimOpFn directly; Fn is the same type under this package's own
// name, for symmetry with Register's builtins table).
type Fn = value.PrimOpFn

// tableEntry is one row of the builtins table below: arity plus the
// closure implementing it, bound once to a Context at Register time, the
// way the teacher's own (*Compiler) method-valued table entries close over
// the compiler that emits their bytecode.
type tableEntry struct {
	arity int
	build func(c *eval.Context) Fn
}

var builtins = map[string]tableEntry{
	"__add":      {2, func(c *eval.Context) value.PrimOpFn { return arithInt(c, func(a, b int64) int64 { return a + b }) }},
	"__sub":      {2, func(c *eval.Context) value.PrimOpFn { return arithInt(c, func(a, b int64) int64 { return a - b }) }},
	"__mul":      {2, func(c *eval.Context) value.PrimOpFn { return arithInt(c, func(a, b int64) int64 { return a * b }) }},
	"__div":      {2, btDiv},
	"__lessThan": {2, btLessThan},
	"__not":      {1, btNot},

	"toString":       {1, btToString},
	"__stringLength": {1, btStringLength},
	"substring":      {3, btSubstring},
	"stringToPath":   {1, btStringToPath},

	"map":    {2, btMap},
	"filter": {2, btFilter},
	"elemAt": {2, btElemAt},
	"length": {1, btLength},
	"head":   {1, btHead},
	"tail":   {1, btTail},

	"attrNames":   {1, btAttrNames},
	"hasAttr":     {2, btHasAttr},
	"getAttr":     {2, btGetAttr},
	"removeAttrs": {2, btRemoveAttrs},

	"derivation": {1, btDerivation},
}

// Register installs every primop above into s via Session.AddPrimOp: each
// is bound at top level under its registered name and mirrored into
// builtins, with any __ prefix stripped from the mirrored name. Every primop is
// curried through the same PrimOp/PrimOpApp machinery a user-supplied
// arity-N primop would be — this function does not get a special calling
// convention, it is just repeatedly calling the session's public API.
func Register(s *eval.Session) {
	c := s.NewContext()
	for name, f := range builtins {
		s.AddPrimOp(name, f.arity, f.build(c))
	}
}

func typeError(msg string) error { return errs.NewTypeError(token.Pos{}, msg) }

func arithInt(c *eval.Context, op func(a, b int64) int64) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		a, err := eval.ForceInt(c, args[0])
		if err != nil {
			return nil, err
		}
		b, err := eval.ForceInt(c, args[1])
		if err != nil {
			return nil, err
		}
		return value.MkInt(op(a, b)), nil
	}
}

func btDiv(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		a, err := eval.ForceInt(c, args[0])
		if err != nil {
			return nil, err
		}
		b, err := eval.ForceInt(c, args[1])
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, errs.NewEvalError(token.Pos{}, "division by zero")
		}
		return value.MkInt(a / b), nil
	}
}

func btLessThan(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		a, err := eval.ForceInt(c, args[0])
		if err != nil {
			return nil, err
		}
		b, err := eval.ForceInt(c, args[1])
		if err != nil {
			return nil, err
		}
		return value.MkBoolVal(a < b), nil
	}
}

func btNot(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		b, err := eval.ForceBool(c, args[0])
		if err != nil {
			return nil, err
		}
		return value.MkBoolVal(!b), nil
	}
}

func btToString(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		s, ctx, err := eval.CoerceToString(c, args[0], true, true)
		if err != nil {
			return nil, err
		}
		return value.MkString(s, ctx), nil
	}
}

func btStringLength(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		s, _, err := eval.ForceString(c, args[0])
		if err != nil {
			return nil, err
		}
		return value.MkInt(int64(len(s))), nil
	}
}

func btSubstring(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		start, err := eval.ForceInt(c, args[0])
		if err != nil {
			return nil, err
		}
		length, err := eval.ForceInt(c, args[1])
		if err != nil {
			return nil, err
		}
		s, ctx, err := eval.ForceString(c, args[2])
		if err != nil {
			return nil, err
		}
		if start < 0 || start > int64(len(s)) {
			return nil, typeError("substring: start index out of range")
		}
		end := start + length
		if length < 0 || end > int64(len(s)) {
			end = int64(len(s))
		}
		return value.MkString(s[start:end], ctx), nil
	}
}

func btStringToPath(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		s, err := eval.ForceStringNoCtx(c, args[0])
		if err != nil {
			return nil, err
		}
		return value.MkPath(s), nil
	}
}

func btMap(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		fn := args[0]
		list, err := eval.ForceList(c, args[1])
		if err != nil {
			return nil, err
		}
		out := value.EmptyList()
		for _, elem := range value.ListSlice(list) {
			out = value.ListConj(out, value.MkApp(fn, elem))
		}
		return value.MkList(out), nil
	}
}

func btFilter(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		fn := args[0]
		list, err := eval.ForceList(c, args[1])
		if err != nil {
			return nil, err
		}
		out := value.EmptyList()
		for _, elem := range value.ListSlice(list) {
			kept, err := eval.Apply(c, fn, elem)
			if err != nil {
				return nil, err
			}
			ok, err := eval.ForceBool(c, kept)
			if err != nil {
				return nil, err
			}
			if ok {
				out = value.ListConj(out, elem)
			}
		}
		return value.MkList(out), nil
	}
}

func btElemAt(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		list, err := eval.ForceList(c, args[0])
		if err != nil {
			return nil, err
		}
		i, err := eval.ForceInt(c, args[1])
		if err != nil {
			return nil, err
		}
		elem, ok := value.ListIndex(list, int(i))
		if !ok {
			return nil, typeError("elemAt: index out of range")
		}
		return elem, nil
	}
}

func btLength(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		list, err := eval.ForceList(c, args[0])
		if err != nil {
			return nil, err
		}
		return value.MkInt(int64(value.ListLen(list))), nil
	}
}

func btHead(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		list, err := eval.ForceList(c, args[0])
		if err != nil {
			return nil, err
		}
		elem, ok := value.ListIndex(list, 0)
		if !ok {
			return nil, typeError("head: empty list")
		}
		return elem, nil
	}
}

func btTail(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		list, err := eval.ForceList(c, args[0])
		if err != nil {
			return nil, err
		}
		elems := value.ListSlice(list)
		if len(elems) == 0 {
			return nil, typeError("tail: empty list")
		}
		return value.MkList(value.ListFromSlice(elems[1:])), nil
	}
}

func btAttrNames(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		attrs, err := eval.ForceAttrs(c, args[0])
		if err != nil {
			return nil, err
		}
		out := value.EmptyList()
		for _, k := range attrs.SortedKeys() {
			out = value.ListConj(out, value.MkString(k.String(), nil))
		}
		return value.MkList(out), nil
	}
}

func btHasAttr(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		name, err := eval.ForceStringNoCtx(c, args[0])
		if err != nil {
			return nil, err
		}
		attrs, err := eval.ForceAttrs(c, args[1])
		if err != nil {
			return nil, err
		}
		_, ok := attrs.Get(sym.Intern(name))
		return value.MkBoolVal(ok), nil
	}
}

func btGetAttr(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		name, err := eval.ForceStringNoCtx(c, args[0])
		if err != nil {
			return nil, err
		}
		attrs, err := eval.ForceAttrs(c, args[1])
		if err != nil {
			return nil, err
		}
		v, ok := attrs.Get(sym.Intern(name))
		if !ok {
			return nil, errs.NewUndefinedVariable(token.Pos{}, name)
		}
		return v, nil
	}
}

func btRemoveAttrs(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		attrs, err := eval.ForceAttrs(c, args[0])
		if err != nil {
			return nil, err
		}
		toRemove, err := eval.ForceList(c, args[1])
		if err != nil {
			return nil, err
		}
		remove := map[string]bool{}
		for _, elem := range value.ListSlice(toRemove) {
			s, err := eval.ForceStringNoCtx(c, elem)
			if err != nil {
				return nil, err
			}
			remove[s] = true
		}
		out := value.NewAttrsMap()
		for _, k := range attrs.SortedKeys() {
			if remove[k.String()] {
				continue
			}
			v, _ := attrs.Get(k)
			out.Set(k, v)
		}
		return value.MkAttrs(out), nil
	}
}

// btDerivation is the one primop every coercion/derivation-recognition
// rule in package eval exists to support: it takes the single attribute
// set describing a build, stamps "type" = "derivation" and "outPath" onto
// a copy of it, and returns that copy — matching spec.md §3's derivation
// shape ("an attrs value with type = \"derivation\" and an outPath") while
// leaving the actual build execution (running the builder, populating the
// real output) to the out-of-scope store/builder collaborator.
//
// outPath is hashed from a serialization of the whole attribute set, the
// way the original evaluator writes an ATerm-serialized .drv file and adds
// that to the store rather than deriving a path from the name alone — a
// derivation's identity is its full description, not just its name. The
// temporary .drv file lives in a directory named after the serialization's
// SHA-256, so two different descriptions never hand the store the same
// source path.
func btDerivation(c *eval.Context) value.PrimOpFn {
	return func(args []*value.Value) (*value.Value, error) {
		attrs, err := eval.ForceAttrs(c, args[0])
		if err != nil {
			return nil, err
		}

		nameVal, ok := attrs.Get(sym.Intern("name"))
		if !ok {
			return nil, typeError("derivation: required attribute 'name' missing")
		}
		name, err := eval.ForceStringNoCtx(c, nameVal)
		if err != nil {
			return nil, err
		}

		serialized, err := serializeDerivation(c, attrs)
		if err != nil {
			return nil, err
		}

		sum := sha256.Sum256([]byte(serialized))
		drvDir := filepath.Join(os.TempDir(), "thicket-drv-"+hex.EncodeToString(sum[:]))
		if err := os.MkdirAll(drvDir, 0o755); err != nil {
			return nil, errs.NewEvalError(token.Pos{}, err.Error())
		}
		defer os.RemoveAll(drvDir)
		drvPath := filepath.Join(drvDir, filepath.Base(strings.TrimPrefix(name, "/"))+".drv")
		if err := os.WriteFile(drvPath, []byte(serialized), 0o644); err != nil {
			return nil, errs.NewEvalError(token.Pos{}, err.Error())
		}

		var storePath string
		if c.Store.ReadOnly() {
			storePath, _, err = c.Store.ComputeStorePathForPath(drvPath)
		} else {
			storePath, err = c.Store.AddToStore(drvPath)
		}
		if err != nil {
			return nil, errs.NewEvalError(token.Pos{}, err.Error())
		}

		out := attrs.Clone()
		out.Set(sym.Intern("type"), value.MkString("derivation", nil))
		out.Set(sym.Intern("outPath"), value.MkString(storePath, value.StringCtx{storePath}))
		return value.MkAttrs(out), nil
	}
}

// serializeDerivation renders attrs as deterministic, sorted "name = value"
// text: the content btDerivation actually hashes through the store, rather
// than a path built from the name attribute.
func serializeDerivation(c *eval.Context, attrs *value.AttrsMap) (string, error) {
	var b strings.Builder
	for _, k := range attrs.SortedKeys() {
		v, _ := attrs.Get(k)
		s, _, err := eval.CoerceToString(c, v, true, false)
		if err != nil {
			return "", err
		}
		b.WriteString(k.String())
		b.WriteString(" = ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String(), nil
}
