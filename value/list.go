package value

import "src.elv.sh/pkg/persistent/vector"

// VecList is the concrete persistent-vector type backing the List tag,
// aliased here so callers outside this package never need to import
// src.elv.sh/pkg/persistent/vector themselves.
type VecList = vector.Vector

// ListLen, ListIndex, ListConj and ListAssoc are thin wrappers over vector.Vector so
// callers in package eval and package primop never need to import
// src.elv.sh/pkg/persistent/vector directly or know its zero value is
// vector.Empty rather than nil.

func EmptyList() vector.Vector { return vector.Empty }

func ListLen(v vector.Vector) int { return v.Len() }

func ListIndex(v vector.Vector, i int) (*Value, bool) {
	elem, ok := v.Index(i)
	if !ok {
		return nil, false
	}
	return elem.(*Value), true
}

func ListConj(v vector.Vector, val *Value) vector.Vector { return v.Conj(val) }

func ListAssoc(v vector.Vector, i int, val *Value) vector.Vector { return v.Assoc(i, val) }

// ListSlice materializes a vector.Vector into a Go slice of *Value, used by
// builtins (map, filter, elemAt's bounds-checked siblings) that want plain
// left-to-right iteration without touching the persistent-vector iterator.
func ListSlice(v vector.Vector) []*Value {
	out := make([]*Value, 0, v.Len())
	it := v.Iterator()
	for it.HasElem() {
		out = append(out, it.Elem().(*Value))
		it.Next()
	}
	return out
}

// ListFromSlice builds a vector.Vector from a Go slice, the inverse of
// ListSlice, used by the tail builtin to rebuild a list from a sub-slice.
func ListFromSlice(vals []*Value) vector.Vector {
	v := vector.Empty
	for _, val := range vals {
		v = v.Conj(val)
	}
	return v
}
