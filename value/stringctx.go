package value

import "sort"

// StringCtx tracks the store paths a string's contents were derived from —
// the provenance a content-addressed build needs to know which inputs a
// string actually depends on. It is a plain sorted slice with a
// deduplicating insert rather than a library set: the teacher's own
// persistent-collections package (source/values/hashmap.go) is a hand-rolled
// treap the teacher wrote itself rather than reaching for a dependency, and
// a context is small enough (almost always zero or one entries) that the
// same "write the little collection by hand" call applies here.
type StringCtx []string

// Add returns a context containing every path in c plus path, deduplicated
// and kept sorted so two contexts built from the same set of paths in a
// different order compare equal with Equal.
func (c StringCtx) Add(path string) StringCtx {
	i := sort.SearchStrings(c, path)
	if i < len(c) && c[i] == path {
		return c
	}
	out := make(StringCtx, len(c)+1)
	copy(out, c[:i])
	out[i] = path
	copy(out[i+1:], c[i:])
	return out
}

// Union returns the sorted deduplicated union of two contexts, used when
// concatenating two strings each carrying their own provenance.
func (c StringCtx) Union(other StringCtx) StringCtx {
	out := c
	for _, p := range other {
		out = out.Add(p)
	}
	return out
}

func (c StringCtx) Empty() bool { return len(c) == 0 }

// Equal reports whether two contexts carry the same set of paths. It exists
// only for completeness of the type — structural equality between string
// Values (Eq, in package eval) explicitly does NOT call this, since
// spec.md §9 requires contexts to be ignored when comparing strings for
// equality.
func (c StringCtx) Equal(other StringCtx) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}
