package value

import "testing"

func TestStringCtxAddDedupsAndSorts(t *testing.T) {
	var c StringCtx
	c = c.Add("/store/b")
	c = c.Add("/store/a")
	c = c.Add("/store/b")

	want := StringCtx{"/store/a", "/store/b"}
	if !c.Equal(want) {
		t.Errorf("got %v, want %v", c, want)
	}
}

func TestStringCtxUnion(t *testing.T) {
	a := StringCtx{"/store/a"}
	b := StringCtx{"/store/b", "/store/a"}

	got := a.Union(b)
	want := StringCtx{"/store/a", "/store/b"}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStringCtxEmpty(t *testing.T) {
	var c StringCtx
	if !c.Empty() {
		t.Errorf("nil StringCtx should be Empty")
	}
	c = c.Add("/store/a")
	if c.Empty() {
		t.Errorf("non-empty StringCtx reported Empty")
	}
}
