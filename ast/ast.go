// Package ast defines the expression tree the evaluator consumes.
//
// There is no parser in this repository (spec.md §1 treats it as an
// external collaborator); every node here is a plain struct literal, built
// by hand in tests the way a bytecode-VM test builds instructions by hand
// instead of compiling source.
package ast

import (
	"github.com/tim-hardcastle/thicket/sym"
	"github.com/tim-hardcastle/thicket/token"
)

// Expr is any node the evaluator knows how to reduce.
type Expr interface {
	Pos() token.Pos
}

type base struct {
	At token.Pos
}

func (b base) Pos() token.Pos { return b.At }

// Var references a bound name.
type Var struct {
	base
	Name *sym.Symbol
}

// Int is an integer literal.
type Int struct {
	base
	Value int64
}

// Str is a string literal. Literals carry no context.
type Str struct {
	base
	Value string
}

// Path is a path literal (not yet copied to the store).
type Path struct {
	base
	Value string
}

// Bind is one name/expression pair inside an Attrs or Rec.
type Bind struct {
	Name *sym.Symbol
	Expr Expr
}

// Attrs is a non-recursive attribute set: every binding is thunked in the
// environment the Attrs node itself is evaluated in.
type Attrs struct {
	base
	Binds []Bind
}

// Rec is a recursive attribute set: Recursive bindings are thunked against
// the new environment the set allocates for itself (so they can see each
// other and themselves); NonRecursive bindings are thunked against the
// enclosing environment.
type Rec struct {
	base
	Recursive    []Bind
	NonRecursive []Bind
}

// Select is attribute projection: Expr.Name.
type Select struct {
	base
	Expr Expr
	Name *sym.Symbol
}

// Formal is one parameter of an attrs-pattern function, with an optional
// default (nil Default means the argument is required).
type Formal struct {
	Name    *sym.Symbol
	Default Expr
}

// Pattern is a function's parameter pattern: either a single bound name
// (VarPattern) or an attribute-set destructuring (AttrsPattern).
type Pattern interface {
	isPattern()
}

// VarPattern binds the whole argument to a single name.
type VarPattern struct {
	Name *sym.Symbol
}

func (VarPattern) isPattern() {}

// AttrsPattern destructures the argument, which must be an attribute set.
// Alias, if not sym.NoAliasSym, additionally binds the whole argument.
// Ellipsis, if true, permits attributes beyond the named Formals.
type AttrsPattern struct {
	Formals  []Formal
	Ellipsis bool
	Alias    *sym.Symbol
}

func (AttrsPattern) isPattern() {}

// Function is a lambda literal.
type Function struct {
	base
	Pattern Pattern
	Body    Expr
}

// Call applies Fun to Arg.
type Call struct {
	base
	Fun Expr
	Arg Expr
}

// With opens Attrs as a dynamically-scoped fallback namespace for Body.
type With struct {
	base
	Attrs Expr
	Body  Expr
}

// List is a list literal.
type List struct {
	base
	Elems []Expr
}

// OpEq is structural equality.
type OpEq struct {
	base
	Left, Right Expr
}

// OpNEq is structural inequality.
type OpNEq struct {
	base
	Left, Right Expr
}

// OpConcat is list concatenation (++).
type OpConcat struct {
	base
	Left, Right Expr
}

// ConcatStrings is adjacent-literal string/path concatenation; its result
// kind (Path or String) is decided by the first element at evaluation time.
type ConcatStrings struct {
	base
	Parts []Expr
}

// If is a conditional.
type If struct {
	base
	Cond, Then, Else Expr
}

// Assert fails evaluation with an AssertionError if Cond is false.
type Assert struct {
	base
	Cond Expr
	Body Expr
}

// OpNot negates a boolean.
type OpNot struct {
	base
	Expr Expr
}

// OpImpl is logical implication (->), short-circuiting.
type OpImpl struct {
	base
	Left, Right Expr
}

// OpAnd is logical conjunction (&&), short-circuiting.
type OpAnd struct {
	base
	Left, Right Expr
}

// OpOr is logical disjunction (||), short-circuiting.
type OpOr struct {
	base
	Left, Right Expr
}

// OpUpdate is attribute-set override (//): Right's keys win.
type OpUpdate struct {
	base
	Left, Right Expr
}

// OpHasAttr tests attribute presence (?) without forcing the attribute.
type OpHasAttr struct {
	base
	Expr Expr
	Name *sym.Symbol
}

// New constructors set the position; tests mostly use the struct literals
// directly, but these keep call sites short when position doesn't matter.
func At(p token.Pos) base { return base{At: p} }
