package eval

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tim-hardcastle/thicket/ast"
	"github.com/tim-hardcastle/thicket/errs"
	"github.com/tim-hardcastle/thicket/store"
	"github.com/tim-hardcastle/thicket/sym"
	"github.com/tim-hardcastle/thicket/token"
	"github.com/tim-hardcastle/thicket/value"
)

// Parser is the seam EvalFile uses to turn a path into an expression tree.
// Parsing itself lives outside this repository; a caller supplies whatever
// concrete Parser it has.
type Parser interface {
	ParseFile(path string) (ast.Expr, error)
}

// Session is the evaluator's upward-facing handle, grounded on the
// teacher's evaluator.Context (which bundles the parser, environment,
// access level, and logging flag together and threads them through every
// call) trimmed to what spec.md's Non-goals leave in scope: no access
// level, no logging flag, since this repo carries no REPL.
type Session struct {
	baseEnv *value.Env
	store   store.Store

	parser     Parser
	parseCache map[string]ast.Expr

	interrupted bool
	depth       int
	maxDepth    int

	nrEvaluated int64
	nrEnvs      int64
	showStats   bool

	// srcToStore memoizes CoerceToString's copy-to-store branch so a source
	// path copied (or, in read-only mode, hashed) once during a session is
	// never copied or hashed again. Written only from the evaluator's own
	// thread, so it needs no locking.
	srcToStore map[string]string
}

// NewSession builds a fresh session with the handful of constants every
// Thicket evaluation needs already installed: a builtins attribute set that
// AddConstant/AddPrimOp mirror every addition into, and true, false and
// null (installed through AddConstant, so mirrored there too). Installing the actual primitive operations is
// package primop's job (primop.Register(session)), called by whoever
// composes this package with that one — eval itself does not import
// primop, to avoid the import cycle Register's *Session parameter would
// otherwise create.
func NewSession(st store.Store) *Session {
	s := &Session{
		baseEnv:    value.NewEnv(nil),
		store:      st,
		parseCache: make(map[string]ast.Expr),
		srcToStore: make(map[string]string),
	}
	s.baseEnv.Bindings.Set(sym.Intern("builtins"), value.MkAttrs(value.NewAttrsMap()))
	s.AddConstant("true", value.TrueVal)
	s.AddConstant("false", value.FalseVal)
	s.AddConstant("null", value.NullVal)
	return s
}

// BaseEnv exposes the session's root environment, the frame AddConstant and
// AddPrimOp extend and the frame a caller-driven top-level evaluation (not
// going through EvalFile) should pass to eval.Eval.
func (s *Session) BaseEnv() *value.Env { return s.baseEnv }

// Store exposes the session's store collaborator, for callers (such as
// package primop's derivation builtin) that need it outside a Context.
func (s *Session) Store() store.Store { return s.store }

// NewContext builds the per-call Context that threads through Eval/Force;
// exported so package primop's builtins, which are plain functions over
// []*value.Value with no Context parameter of their own, can be given one
// closed over by Register at registration time.
func (s *Session) NewContext() *Context { return s.newContext() }

// AddConstant installs a named top-level binding, mirrored into builtins.
func (s *Session) AddConstant(name string, v *value.Value) {
	s.baseEnv.Bindings.Set(sym.Intern(name), v)
	s.mirrorIntoBuiltins(name, v)
}

// AddPrimOp installs a named primop of the given arity under its registered
// name in baseEnv, and mirrors it into builtins under that same name with
// any "__" prefix stripped — matching the upstream addPrimOp, which binds
// __add in the base environment but exposes it as builtins.add, never as a
// second bare top-level add.
func (s *Session) AddPrimOp(name string, arity int, fn value.PrimOpFn) {
	v := value.MkPrimOp(name, arity, fn)
	s.baseEnv.Bindings.Set(sym.Intern(name), v)

	builtinsName := name
	if strings.HasPrefix(name, "__") {
		builtinsName = name[2:]
	}
	s.mirrorIntoBuiltins(builtinsName, v)
}

func (s *Session) mirrorIntoBuiltins(name string, v *value.Value) {
	builtinsSym := sym.Intern("builtins")
	b, ok := s.baseEnv.Bindings.Get(builtinsSym)
	if !ok {
		return
	}
	b.AttrsVal.Set(sym.Intern(name), v)
}

// SetParser installs the collaborator EvalFile delegates parsing to.
func (s *Session) SetParser(p Parser) { s.parser = p }

// newContext builds the per-call Context that threads through Eval/Force;
// every evaluation entry point goes through here so the store and session
// are always wired together consistently.
func (s *Session) newContext() *Context {
	return &Context{Store: s.store, Session: s}
}

// EvalFile parses (memoized per absolute path within this session) and
// evaluates the file at path, prefixing any error with "while evaluating
// the file <path>", mirroring the teacher's evalFile wrapping pattern.
func (s *Session) EvalFile(path string) (*value.Value, error) {
	if s.parser == nil {
		return nil, errs.NewEvalError(token.Pos{}, "no parser configured for this session")
	}

	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	tree, ok := s.parseCache[key]
	if !ok {
		var err error
		tree, err = s.parser.ParseFile(path)
		if err != nil {
			return nil, errs.WithPrefix(err, "while evaluating the file `"+path+"':\n")
		}
		s.parseCache[key] = tree
	}

	v, err := Eval(s.newContext(), s.baseEnv, tree)
	if err != nil {
		return nil, errs.WithPrefix(err, "while evaluating the file `"+path+"':\n")
	}
	return v, nil
}

// Interrupt requests that the next Eval dispatch abort with an Interrupted
// error, the cooperative cancellation spec.md §5 calls for in place of the
// teacher's (and upstream Nix's) C-level signal handling.
func (s *Session) Interrupt() { s.interrupted = true }

func (s *Session) tick() error {
	if s.interrupted {
		return errs.NewInterrupted(token.Pos{})
	}
	s.nrEvaluated++
	s.depth++
	if s.depth > s.maxDepth {
		s.maxDepth = s.depth
	}
	return nil
}

// PrintStats writes evaluation counters to w, the way the teacher's own
// printMsg/startNest helpers are thin fmt.Fprintf wrappers rather than
// calls into a structured logging library — gated on showStats exactly as
// NIX_SHOW_STATS gates the upstream printStats call.
func (s *Session) PrintStats(w io.Writer, showStats bool) {
	if !showStats {
		return
	}
	fmt.Fprintf(w, "evaluated %d expressions, reached a maximum call depth of %d\n",
		s.nrEvaluated, s.maxDepth)
}
