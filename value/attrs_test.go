package value

import (
	"testing"

	"github.com/tim-hardcastle/thicket/sym"
)

func TestAttrsMapSetGet(t *testing.T) {
	a := NewAttrsMap()
	a.Set(sym.Intern("x"), MkInt(1))
	v, ok := a.Get(sym.Intern("x"))
	if !ok || v.IntVal != 1 {
		t.Fatalf("got %v %v, want 1 true", v, ok)
	}
}

func TestAttrsMapLenAndSortedKeys(t *testing.T) {
	a := NewAttrsMap()
	a.Set(sym.Intern("b"), MkInt(2))
	a.Set(sym.Intern("a"), MkInt(1))
	a.Set(sym.Intern("c"), MkInt(3))

	if a.Len() != 3 {
		t.Fatalf("got Len %d, want 3", a.Len())
	}
	keys := a.SortedKeys()
	want := []string{"a", "b", "c"}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Errorf("SortedKeys()[%d] = %q, want %q", i, k.String(), want[i])
		}
	}
}

func TestAttrsMapCloneIsIndependent(t *testing.T) {
	a := NewAttrsMap()
	x := sym.Intern("x")
	a.Set(x, MkInt(1))

	clone := a.Clone()
	clone.Set(x, MkInt(2))

	orig, _ := a.Get(x)
	if orig.IntVal != 1 {
		t.Errorf("mutating the clone changed the original: got %d, want 1", orig.IntVal)
	}
	cloned, _ := clone.Get(x)
	if cloned.IntVal != 2 {
		t.Errorf("got %d, want 2", cloned.IntVal)
	}
}

func TestAttrsMapSetOverwritesWithoutDuplicatingOrder(t *testing.T) {
	a := NewAttrsMap()
	x := sym.Intern("x")
	a.Set(x, MkInt(1))
	a.Set(x, MkInt(2))

	if a.Len() != 1 {
		t.Fatalf("re-setting an existing key grew Len to %d, want 1", a.Len())
	}
	v, _ := a.Get(x)
	if v.IntVal != 2 {
		t.Errorf("got %d, want 2", v.IntVal)
	}
}
