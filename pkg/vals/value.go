// Package vals contains the Value type of the Adam property model and the
// basic operations on it.
//
// A Value is a closed tagged union. Its zero value is the empty value.
// Arrays and dictionaries held by a Value are shared between copies and must
// not be modified after they are wrapped; build a new one instead.
package vals

// Kind identifies the type held by a Value.
type Kind uint8

// Possible values of Kind. The order is also the order used when sorting
// values of mixed kinds.
const (
	EmptyKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	NameKind
	ArrayKind
	DictKind
)

var kindNames = [...]string{
	EmptyKind:  "empty",
	BoolKind:   "bool",
	NumberKind: "number",
	StringKind: "string",
	NameKind:   "name",
	ArrayKind:  "array",
	DictKind:   "dictionary",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "!!invalid"
}

// Name is a symbolic name. Names are compared by their text.
type Name string

// Array is an ordered sequence of values. It is also the representation of
// expressions.
type Array []Value

// Dict maps names to values.
type Dict map[Name]Value

// Value holds one of the types enumerated by Kind.
type Value struct {
	kind Kind
	b    bool
	n    float64
	// Text of a string or a name.
	s string
	a Array
	d Dict
}

// Empty is the empty value. It is the same as the zero Value.
var Empty = Value{}

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: BoolKind, b: b} }

// Num wraps a number.
func Num(n float64) Value { return Value{kind: NumberKind, n: n} }

// Int wraps an int as a number.
func Int(i int) Value { return Num(float64(i)) }

// String wraps a string.
func String(s string) Value { return Value{kind: StringKind, s: s} }

// NameValue wraps a name.
func NameValue(n Name) Value { return Value{kind: NameKind, s: string(n)} }

// ArrayValue wraps an array. A nil array is wrapped as an empty array, not as
// the empty value.
func ArrayValue(a Array) Value {
	if a == nil {
		a = Array{}
	}
	return Value{kind: ArrayKind, a: a}
}

// DictValue wraps a dictionary.
func DictValue(d Dict) Value {
	if d == nil {
		d = Dict{}
	}
	return Value{kind: DictKind, d: d}
}

// Of wraps a native Go value. It supports nil, bool, all the int and float
// types, string, Name, Array, Dict, []Value, map[Name]Value and Value itself.
// It panics for other types; it is meant for building literals in Go code.
func Of(v any) Value {
	switch v := v.(type) {
	case nil:
		return Empty
	case Value:
		return v
	case bool:
		return Bool(v)
	case int:
		return Int(v)
	case int64:
		return Num(float64(v))
	case float32:
		return Num(float64(v))
	case float64:
		return Num(v)
	case string:
		return String(v)
	case Name:
		return NameValue(v)
	case Array:
		return ArrayValue(v)
	case []Value:
		return ArrayValue(v)
	case Dict:
		return DictValue(v)
	case map[Name]Value:
		return DictValue(v)
	default:
		panic("vals.Of: unsupported type " + typeName(v))
	}
}

// MakeArray builds an Array from native Go values with Of.
func MakeArray(vs ...any) Array {
	a := make(Array, len(vs))
	for i, v := range vs {
		a[i] = Of(v)
	}
	return a
}

// MakeDict builds a Dict from alternating keys and values. Keys may be
// strings or Names; values are converted with Of.
func MakeDict(kvs ...any) Dict {
	if len(kvs)%2 != 0 {
		panic("vals.MakeDict: odd number of arguments")
	}
	d := make(Dict, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		switch k := kvs[i].(type) {
		case string:
			d[Name(k)] = Of(kvs[i+1])
		case Name:
			d[k] = Of(kvs[i+1])
		default:
			panic("vals.MakeDict: key must be string or Name")
		}
	}
	return d
}

// Kind returns the kind of the held value.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the empty value.
func (v Value) IsEmpty() bool { return v.kind == EmptyKind }
