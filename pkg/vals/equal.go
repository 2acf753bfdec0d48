package vals

// Equal reports whether two values are structurally equal. Values of
// different kinds are never equal; two empty values are equal.
func Equal(x, y Value) bool {
	if x.kind != y.kind {
		return false
	}
	switch x.kind {
	case EmptyKind:
		return true
	case BoolKind:
		return x.b == y.b
	case NumberKind:
		return x.n == y.n
	case StringKind, NameKind:
		return x.s == y.s
	case ArrayKind:
		return equalArray(x.a, y.a)
	case DictKind:
		return equalDict(x.d, y.d)
	}
	return false
}

// Equal is the method form of Equal. It also lets go-cmp compare Values.
func (v Value) Equal(w Value) bool { return Equal(v, w) }

func equalArray(x, y Array) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Equal(x[i], y[i]) {
			return false
		}
	}
	return true
}

func equalDict(x, y Dict) bool {
	if len(x) != len(y) {
		return false
	}
	for k, vx := range x {
		vy, ok := y[k]
		if !ok || !Equal(vx, vy) {
			return false
		}
	}
	return true
}

// Equal reports whether two arrays are element-wise equal.
func (a Array) Equal(b Array) bool { return equalArray(a, b) }

// Equal reports whether two dictionaries have the same keys and equal values.
func (d Dict) Equal(e Dict) bool { return equalDict(d, e) }
