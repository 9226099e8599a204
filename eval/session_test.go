package eval

import (
	"bytes"
	"testing"

	"github.com/tim-hardcastle/thicket/ast"
	"github.com/tim-hardcastle/thicket/store"
	"github.com/tim-hardcastle/thicket/sym"
	"github.com/tim-hardcastle/thicket/value"
)

func TestSessionAddConstantMirrorsIntoBuiltins(t *testing.T) {
	s := NewSession(store.NewNullStore(false))
	s.AddConstant("answer", value.MkInt(42))

	v, ok := value.Lookup(s.BaseEnv(), sym.Intern("answer"))
	if !ok || v.IntVal != 42 {
		t.Fatalf("got %v %v, want 42 true", v, ok)
	}

	builtins, ok := value.Lookup(s.BaseEnv(), sym.Intern("builtins"))
	if !ok {
		t.Fatalf("expected a builtins binding")
	}
	mirrored, ok := builtins.AttrsVal.Get(sym.Intern("answer"))
	if !ok || mirrored.IntVal != 42 {
		t.Errorf("expected builtins.answer to mirror the top-level constant")
	}
}

func TestSessionAddPrimOpBindsOnlyItsRegisteredName(t *testing.T) {
	s := NewSession(store.NewNullStore(false))
	s.AddPrimOp("__add", 2, func(args []*value.Value) (*value.Value, error) {
		return value.MkInt(args[0].IntVal + args[1].IntVal), nil
	})

	if _, ok := value.Lookup(s.BaseEnv(), sym.Intern("__add")); !ok {
		t.Errorf("expected __add to be bound")
	}
	if _, ok := value.Lookup(s.BaseEnv(), sym.Intern("add")); ok {
		t.Errorf("a __-prefixed primop should not also create a bare top-level binding")
	}
}

func TestSessionAddPrimOpMirrorsIntoBuiltinsWithoutPrefix(t *testing.T) {
	s := NewSession(store.NewNullStore(false))
	s.AddPrimOp("__add", 2, func(args []*value.Value) (*value.Value, error) {
		return value.MkInt(args[0].IntVal + args[1].IntVal), nil
	})

	builtins, ok := value.Lookup(s.BaseEnv(), sym.Intern("builtins"))
	if !ok {
		t.Fatalf("expected a builtins binding")
	}
	if _, ok := builtins.AttrsVal.Get(sym.Intern("add")); !ok {
		t.Errorf("expected builtins.add (prefix stripped)")
	}
	if _, ok := builtins.AttrsVal.Get(sym.Intern("__add")); ok {
		t.Errorf("builtins should only carry the prefix-stripped name, not __add")
	}
}

func TestSessionAddPrimOpWithoutPrefixMirrorsUnderItsOwnName(t *testing.T) {
	s := NewSession(store.NewNullStore(false))
	s.AddPrimOp("map", 2, func(args []*value.Value) (*value.Value, error) { return args[0], nil })

	builtins, ok := value.Lookup(s.BaseEnv(), sym.Intern("builtins"))
	if !ok {
		t.Fatalf("expected a builtins binding")
	}
	if _, ok := builtins.AttrsVal.Get(sym.Intern("map")); !ok {
		t.Errorf("expected builtins.map for an unprefixed primop name")
	}
}

func TestSessionEvalFileIsMemoized(t *testing.T) {
	s := NewSession(store.NewNullStore(false))
	calls := 0
	s.SetParser(&countingParser{fn: func() ast.Expr { calls++; return &ast.Int{Value: 1} }})

	if _, err := s.EvalFile("a.tk"); err != nil {
		t.Fatalf("EvalFile failed: %v", err)
	}
	if _, err := s.EvalFile("a.tk"); err != nil {
		t.Fatalf("EvalFile failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected ParseFile to be called once (memoized), got %d calls", calls)
	}
}

type countingParser struct {
	fn func() ast.Expr
}

func (p *countingParser) ParseFile(path string) (ast.Expr, error) { return p.fn(), nil }

func TestSessionInterruptStopsEvaluation(t *testing.T) {
	s := NewSession(store.NewNullStore(false))
	s.Interrupt()
	_, err := Eval(s.newContext(), s.BaseEnv(), &ast.Int{Value: 1})
	if err == nil {
		t.Fatalf("expected an Interrupted error after Interrupt()")
	}
}

func TestSessionPrintStatsGatedOnShowStats(t *testing.T) {
	s := NewSession(store.NewNullStore(false))
	var buf bytes.Buffer
	s.PrintStats(&buf, false)
	if buf.Len() != 0 {
		t.Errorf("expected no output when showStats is false")
	}
	s.PrintStats(&buf, true)
	if buf.Len() == 0 {
		t.Errorf("expected output when showStats is true")
	}
}
