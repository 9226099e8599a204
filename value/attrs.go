package value

import (
	"sort"

	"github.com/tim-hardcastle/thicket/sym"
)

// AttrsMap is an attribute set's bindings. It is also, unmodified, the type
// of an Env's binding store — a Rec expression allocates an Env whose
// Bindings *is* the AttrsMap handed back as the Rec's value, which is how
// a recursive attribute set's thunks end up referencing the environment
// that owns them (spec.md §3/§4.3's deliberate cycle).
type AttrsMap struct {
	entries map[*sym.Symbol]*Value
	order   []*sym.Symbol // insertion order, for StringDumpVariables-style debug output
}

func NewAttrsMap() *AttrsMap {
	return &AttrsMap{entries: make(map[*sym.Symbol]*Value)}
}

func (a *AttrsMap) Get(name *sym.Symbol) (*Value, bool) {
	v, ok := a.entries[name]
	return v, ok
}

func (a *AttrsMap) Set(name *sym.Symbol, v *Value) {
	if _, exists := a.entries[name]; !exists {
		a.order = append(a.order, name)
	}
	a.entries[name] = v
}

func (a *AttrsMap) Len() int { return len(a.entries) }

// SortedKeys returns the set's keys in a stable order (lexicographic on the
// interned name), the order spec.md §4.6 requires equality comparison to
// use and the order the attrNames builtin reports.
func (a *AttrsMap) SortedKeys() []*sym.Symbol {
	keys := make([]*sym.Symbol, 0, len(a.entries))
	for k := range a.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Clone returns a shallow copy: a new AttrsMap with the same key/value
// bindings, used by OpUpdate to build its result without mutating either
// operand.
func (a *AttrsMap) Clone() *AttrsMap {
	clone := NewAttrsMap()
	for _, k := range a.order {
		clone.Set(k, a.entries[k])
	}
	return clone
}
