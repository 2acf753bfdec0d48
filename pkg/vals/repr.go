package vals

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Repr returns the source representation of a value, an Adam literal that
// evaluates to an equal value whenever one exists.
func Repr(v Value) string {
	var sb strings.Builder
	writeRepr(&sb, v)
	return sb.String()
}

// String returns the same text as Repr.
func (v Value) String() string { return Repr(v) }

func writeRepr(sb *strings.Builder, v Value) {
	switch v.kind {
	case EmptyKind:
		sb.WriteString("empty")
	case BoolKind:
		sb.WriteString(strconv.FormatBool(v.b))
	case NumberKind:
		sb.WriteString(FormatNum(v.n))
	case StringKind:
		sb.WriteString(Quote(v.s))
	case NameKind:
		sb.WriteByte('@')
		sb.WriteString(v.s)
	case ArrayKind:
		sb.WriteByte('[')
		for i, elem := range v.a {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, elem)
		}
		sb.WriteByte(']')
	case DictKind:
		sb.WriteByte('{')
		for i, k := range SortedKeys(v.d) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(string(k))
			sb.WriteString(": ")
			writeRepr(sb, v.d[k])
		}
		sb.WriteByte('}')
	}
}

// FormatNum formats a number the way it is written in source: integral
// values have no fractional part and other values use the shortest decimal
// representation that parses back to the same number.
func FormatNum(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Quote quotes a string. Strings without single quotes, backslashes and
// control characters use single quotes; other strings use Go-style double
// quotes with escapes.
func Quote(s string) string {
	for _, r := range s {
		if r == '\'' || r == '\\' || r < 0x20 || r == 0x7f {
			return strconv.Quote(s)
		}
	}
	return "'" + s + "'"
}

// SortedKeys returns the keys of a dictionary in ascending order.
func SortedKeys(d Dict) []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
