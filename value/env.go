package value

import "github.com/tim-hardcastle/thicket/sym"

// Env is one frame of lexical scope. A value stored under sym.WithSym
// holds the attribute set injected by an enclosing `with`.
type Env struct {
	Bindings *AttrsMap
	Parent   *Env
}

func NewEnv(parent *Env) *Env {
	return &Env{Bindings: NewAttrsMap(), Parent: parent}
}

// Lookup implements spec.md §4.1's two-pass name resolution: first a plain
// lexical walk for a direct binding, then — only if that fails — a second
// walk collecting every ancestor's `with` attribute set and probing them
// outermost-first, so that an inner `with` can never shadow a name an
// outer `with` already supplies.
func Lookup(env *Env, name *sym.Symbol) (*Value, bool) {
	for e := env; e != nil; e = e.Parent {
		if v, ok := e.Bindings.Get(name); ok {
			return v, true
		}
	}

	var withFrames []*Value // collected innermost-first
	for e := env; e != nil; e = e.Parent {
		if w, ok := e.Bindings.Get(sym.WithSym); ok {
			withFrames = append(withFrames, w)
		}
	}
	for i := len(withFrames) - 1; i >= 0; i-- { // outermost first
		w := withFrames[i]
		if w.Tag != Attrs {
			// A `with` attrs value is forced to Attrs before being stored
			// (see the With case in package eval); anything else here is
			// an internal error, not a user-facing one.
			continue
		}
		if v, ok := w.AttrsVal.Get(name); ok {
			return v, true
		}
	}

	return nil, false
}
