// Package errs is the evaluator's error hierarchy, grounded on the
// teacher's source/err package (a map from error identifiers to
// message-building functions) but trimmed to the handful of kinds the
// evaluator actually raises, since this repository has no
// parser/compiler phase to generate the dozens of identifiers the
// teacher's own language needs.
//
// Each kind is a distinct Go type so callers use the standard library's
// errors.As to recover one, the way the teacher's callers type-switch on
// *object.Error today.
package errs

import (
	"errors"

	"github.com/tim-hardcastle/thicket/token"
)

// prefixed is embedded by every error kind below; it carries the position
// the error was first raised at and the chain of "while evaluating..."
// prefixes accumulated as the error propagates back up through nested
// evaluation, mirroring the teacher's report.Error.AddToTrace /
// addErrorPrefix chaining.
type prefixed struct {
	At       token.Pos
	Prefixes []string
}

func (p *prefixed) render(message string) string {
	s := message
	for _, prefix := range p.Prefixes {
		s = prefix + s
	}
	if p.At.Line != 0 || p.At.File != "" {
		s = p.At.String() + ": " + s
	}
	return s
}

func (p *prefixed) pushPrefix(prefix string) { p.Prefixes = append(p.Prefixes, prefix) }

// EvalError is the catch-all kind: infinite recursion, store failures, and
// anything else that doesn't have a more specific kind below.
type EvalError struct {
	prefixed
	Message string
}

func NewEvalError(at token.Pos, message string) *EvalError { return &EvalError{prefixed{At: at}, message} }
func (e *EvalError) Error() string                         { return e.render(e.Message) }

// TypeError is raised when a value of the wrong tag is forced where a
// specific tag was required (ForceInt on a string, calling a non-function,
// coercing something that cannot be coerced, and so on).
type TypeError struct {
	prefixed
	Message string
}

func NewTypeError(at token.Pos, message string) *TypeError { return &TypeError{prefixed{At: at}, message} }
func (e *TypeError) Error() string                          { return e.render(e.Message) }

// AssertionError is raised when an assert's condition evaluates to false.
type AssertionError struct {
	prefixed
}

func NewAssertionError(at token.Pos) *AssertionError { return &AssertionError{prefixed{At: at}} }
func (e *AssertionError) Error() string               { return e.render("assertion failed at " + e.At.String()) }

// UndefinedVariable is raised by a failed name lookup or a missing
// attribute select.
type UndefinedVariable struct {
	prefixed
	Name string
}

func NewUndefinedVariable(at token.Pos, name string) *UndefinedVariable {
	return &UndefinedVariable{prefixed{At: at}, name}
}
func (e *UndefinedVariable) Error() string { return e.render("undefined variable `" + e.Name + "'") }

// Interrupted is raised when a Session's cooperative cancellation flag is
// observed set.
type Interrupted struct {
	prefixed
}

func NewInterrupted(at token.Pos) *Interrupted { return &Interrupted{prefixed{At: at}} }
func (e *Interrupted) Error() string            { return e.render("interrupted") }

// WithPrefix pushes a new "while evaluating..."-style prefix onto err and
// returns it, if err is one of the kinds above; any other error is
// returned unchanged, matching the teacher's addErrorPrefix being a no-op
// on errors it doesn't recognize.
func WithPrefix(err error, prefix string) error {
	switch e := err.(type) {
	case *EvalError:
		e.pushPrefix(prefix)
	case *TypeError:
		e.pushPrefix(prefix)
	case *AssertionError:
		e.pushPrefix(prefix)
	case *UndefinedVariable:
		e.pushPrefix(prefix)
	case *Interrupted:
		e.pushPrefix(prefix)
	}
	return err
}

// IsInterrupted reports whether err is (or wraps) an evaluator interrupt,
// the condition Session.Interrupt sets to unwind a runaway evaluation.
func IsInterrupted(err error) bool {
	var interrupted *Interrupted
	return errors.As(err, &interrupted)
}
