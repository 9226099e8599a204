package eval

import (
	"github.com/tim-hardcastle/thicket/errs"
	"github.com/tim-hardcastle/thicket/token"
	"github.com/tim-hardcastle/thicket/value"
)

// Eq is structural equality. It deliberately ignores string contexts (the
// upstream evaluator's own comment calls this out as unfinished — "!!!
// contexts" — and NIX_NO_UNSAFE_EQ is read from the environment but never
// actually consulted here, both preserved as documented quirks rather than
// fixed) and renders every function value as unequal to anything, including
// another function.
func Eq(c *Context, v1, v2 *value.Value) (bool, error) {
	if err := Force(c, v1); err != nil {
		return false, err
	}
	if err := Force(c, v2); err != nil {
		return false, err
	}

	if v1.Tag != v2.Tag {
		return false, nil
	}

	switch v1.Tag {
	case value.Int:
		return v1.IntVal == v2.IntVal, nil

	case value.Bool:
		return v1.BoolVal == v2.BoolVal, nil

	case value.StringV:
		return v1.Str == v2.Str, nil

	case value.PathV:
		return v1.Str == v2.Str, nil

	case value.Null:
		return true, nil

	case value.List:
		l1, l2 := value.ListSlice(v1.ListVal), value.ListSlice(v2.ListVal)
		if len(l1) != len(l2) {
			return false, nil
		}
		for i := range l1 {
			eq, err := Eq(c, l1[i], l2[i])
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil

	case value.Attrs:
		if v1.AttrsVal.Len() != v2.AttrsVal.Len() {
			return false, nil
		}
		for _, k := range v1.AttrsVal.SortedKeys() {
			a, _ := v1.AttrsVal.Get(k)
			b, ok := v2.AttrsVal.Get(k)
			if !ok {
				return false, nil
			}
			eq, err := Eq(c, a, b)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil

	case value.Lambda, value.PrimOp, value.PrimOpApp:
		return false, nil

	default:
		return false, errs.NewTypeError(token.Pos{}, "cannot compare "+v1.Tag.String()+" with "+v2.Tag.String())
	}
}
