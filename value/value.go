// Package value is the tagged-union value model plus the environment it is
// evaluated in. The two live in one package — the way the teacher's own
// object package bundles Object and Environment — because a Lambda's
// payload is an *Env and an Env's bindings are *Value: splitting them into
// separate packages would create an import cycle.
package value

import (
	"strconv"

	"github.com/tim-hardcastle/thicket/ast"
	"src.elv.sh/pkg/persistent/vector"
)

// Tag discriminates the union. Only Thunk, Copy, App, and Blackhole are
// "unforced" — every other operation in this repository must never observe
// one of those four on a Value it has not itself just forced.
type Tag int

const (
	Int Tag = iota
	Bool
	StringV
	PathV
	Null
	Attrs
	List
	Lambda
	PrimOp
	PrimOpApp
	Thunk
	Copy
	App
	Blackhole
)

func (t Tag) String() string {
	switch t {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case StringV:
		return "string"
	case PathV:
		return "path"
	case Null:
		return "null"
	case Attrs:
		return "set"
	case List:
		return "list"
	case Lambda:
		return "lambda"
	case PrimOp:
		return "primop"
	case PrimOpApp:
		return "primop-app"
	case Thunk:
		return "thunk"
	case Copy:
		return "copy"
	case App:
		return "app"
	case Blackhole:
		return "blackhole"
	default:
		return "<unknown>"
	}
}

// PrimOpFn is the calling convention for a built-in of known arity: it
// receives exactly Arity arguments, in left-to-right application order, and
// returns a result value or an error.
type PrimOpFn func(args []*Value) (*Value, error)

// LambdaPayload is a user-defined closure: the pattern and body are
// ast nodes, evaluated against Env extended with the bound parameters.
type LambdaPayload struct {
	Env     *Env
	Pattern ast.Pattern
	Body    ast.Expr
}

// PrimOpPayload is a built-in of known arity not yet fully applied.
type PrimOpPayload struct {
	Name  string
	Arity int
	Fn    PrimOpFn
}

// PrimOpAppPayload is a partially-applied curried built-in: Left is either
// the underlying PrimOp or another PrimOpApp, Right is the most recently
// supplied argument, and ArgsLeft counts arguments still needed.
type PrimOpAppPayload struct {
	Left     *Value
	Right    *Value
	ArgsLeft int
}

// ThunkPayload is a suspended expression paired with the environment it
// must be evaluated in.
type ThunkPayload struct {
	Env  *Env
	Expr ast.Expr
}

// AppPayload is a suspended function application (produced by builtins
// like map that want to hand back unforced results).
type AppPayload struct {
	Left  *Value
	Right *Value
}

// Value is the tagged union. Forcing a Thunk/Copy/App overwrites the
// struct's fields in place (the "value cell" spec.md's thunk-engine design
// note calls for) rather than allocating a new Value and redirecting
// pointers — every *Value handed out stays valid and becomes the forced
// result for every holder of that pointer.
type Value struct {
	Tag Tag

	IntVal  int64
	BoolVal bool
	Str     string // String/Path payload bytes
	Ctx     StringCtx

	AttrsVal *AttrsMap
	ListVal  vector.Vector

	Lambda    *LambdaPayload
	PrimOp    *PrimOpPayload
	PrimOpApp *PrimOpAppPayload
	Thunk     *ThunkPayload
	Copy      *Value
	App       *AppPayload
}

func MkInt(n int64) *Value { return &Value{Tag: Int, IntVal: n} }

func MkBool(b bool) *Value { return &Value{Tag: Bool, BoolVal: b} }

func MkString(s string, ctx StringCtx) *Value { return &Value{Tag: StringV, Str: s, Ctx: ctx} }

func MkPath(p string) *Value { return &Value{Tag: PathV, Str: p} }

func MkNull() *Value { return &Value{Tag: Null} }

func MkAttrs(a *AttrsMap) *Value { return &Value{Tag: Attrs, AttrsVal: a} }

func MkList(v vector.Vector) *Value { return &Value{Tag: List, ListVal: v} }

func MkLambda(env *Env, pat ast.Pattern, body ast.Expr) *Value {
	return &Value{Tag: Lambda, Lambda: &LambdaPayload{Env: env, Pattern: pat, Body: body}}
}

func MkPrimOp(name string, arity int, fn PrimOpFn) *Value {
	return &Value{Tag: PrimOp, PrimOp: &PrimOpPayload{Name: name, Arity: arity, Fn: fn}}
}

func MkThunk(env *Env, e ast.Expr) *Value {
	return &Value{Tag: Thunk, Thunk: &ThunkPayload{Env: env, Expr: e}}
}

func MkCopy(target *Value) *Value { return &Value{Tag: Copy, Copy: target} }

func MkApp(left, right *Value) *Value { return &Value{Tag: App, App: &AppPayload{Left: left, Right: right}} }

var (
	TrueVal  = MkBool(true)
	FalseVal = MkBool(false)
	NullVal  = MkNull()
)

func MkBoolVal(b bool) *Value {
	if b {
		return TrueVal
	}
	return FalseVal
}

// DebugString renders a *forced* value for diagnostics. It faithfully
// reproduces the original evaluator's documented quirk: a Null value is
// rendered as the text "true" rather than "null". Every other coercion
// path (CoerceToString) is unaffected — the bug is isolated to this
// printer only, per spec.md §9.
func (v *Value) DebugString() string {
	switch v.Tag {
	case Int:
		return strconv.FormatInt(v.IntVal, 10)
	case Bool:
		if v.BoolVal {
			return "true"
		}
		return "false"
	case StringV:
		return "\"" + v.Str + "\""
	case PathV:
		return v.Str
	case Null:
		return "true" // documented bug, see spec.md §9 — do not "fix"
	case Attrs:
		return "{ ... }"
	case List:
		return "[ ... ]"
	case Lambda, PrimOp, PrimOpApp:
		return "<function>"
	default:
		return "<" + v.Tag.String() + ">"
	}
}
