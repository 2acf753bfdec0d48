package vals

import (
	"fmt"
)

// Native is the set of Go types a Value can be cast to.
type Native interface {
	bool | float64 | string | Name | Array | Dict
}

// CastError is returned by Cast when the held type does not match the
// requested one.
type CastError struct {
	Want Kind
	Got  Kind
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %s to %s", e.Got, e.Want)
}

// Cast returns the value held by v as T. Strings and names convert to each
// other; any other mismatch is a *CastError.
func Cast[T Native](v Value) (T, error) {
	var zero T
	var (
		got  any
		want Kind
	)
	switch any(zero).(type) {
	case bool:
		want = BoolKind
		if v.kind == BoolKind {
			got = v.b
		}
	case float64:
		want = NumberKind
		if v.kind == NumberKind {
			got = v.n
		}
	case string:
		want = StringKind
		if v.kind == StringKind || v.kind == NameKind {
			got = v.s
		}
	case Name:
		want = NameKind
		if v.kind == NameKind || v.kind == StringKind {
			got = Name(v.s)
		}
	case Array:
		want = ArrayKind
		if v.kind == ArrayKind {
			got = v.a
		}
	case Dict:
		want = DictKind
		if v.kind == DictKind {
			got = v.d
		}
	}
	if got == nil {
		return zero, &CastError{Want: want, Got: v.kind}
	}
	return got.(T), nil
}

// MustCast is like Cast, but panics on failure. It is meant for values whose
// kind has already been checked.
func MustCast[T Native](v Value) T {
	t, err := Cast[T](v)
	if err != nil {
		panic(err)
	}
	return t
}

// Is reports whether v holds T, without conversions.
func Is[T Native](v Value) bool {
	var zero T
	switch any(zero).(type) {
	case bool:
		return v.kind == BoolKind
	case float64:
		return v.kind == NumberKind
	case string:
		return v.kind == StringKind
	case Name:
		return v.kind == NameKind
	case Array:
		return v.kind == ArrayKind
	case Dict:
		return v.kind == DictKind
	}
	return false
}

// AsName returns the name held by v and whether v holds a name. Unlike Cast,
// it does not convert strings.
func (v Value) AsName() (Name, bool) {
	if v.kind != NameKind {
		return "", false
	}
	return Name(v.s), true
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
