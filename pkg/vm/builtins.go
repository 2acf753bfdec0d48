package vm

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"src.adam.sh/pkg/vals"
)

// ArrayFunc is a native function taking positional arguments.
type ArrayFunc func(args vals.Array) (vals.Value, error)

// DictFunc is a native function taking named arguments.
type DictFunc func(args vals.Dict) (vals.Value, error)

// Natives is a registry of native functions provided by the host. Its
// LookupArray and LookupDict methods fit Env.ArrayFunc and Env.DictFunc.
type Natives struct {
	Array map[vals.Name]ArrayFunc
	Dict  map[vals.Name]DictFunc
}

// AddArray registers a native function taking positional arguments.
func (n *Natives) AddArray(name vals.Name, f ArrayFunc) {
	if n.Array == nil {
		n.Array = map[vals.Name]ArrayFunc{}
	}
	n.Array[name] = f
}

// AddDict registers a native function taking named arguments.
func (n *Natives) AddDict(name vals.Name, f DictFunc) {
	if n.Dict == nil {
		n.Dict = map[vals.Name]DictFunc{}
	}
	n.Dict[name] = f
}

// LookupArray calls the named positional function if it exists.
func (n *Natives) LookupArray(name vals.Name, args vals.Array) (vals.Value, bool, error) {
	f, ok := n.Array[name]
	if !ok {
		return vals.Empty, false, nil
	}
	v, err := f(args)
	return v, true, err
}

// LookupDict calls the named dictionary-style function if it exists.
func (n *Natives) LookupDict(name vals.Name, args vals.Dict) (vals.Value, bool, error) {
	f, ok := n.Dict[name]
	if !ok {
		return vals.Empty, false, nil
	}
	v, err := f(args)
	return v, true, err
}

// Functions available to every expression. Host functions of the same name
// take precedence.
var builtins = map[vals.Name]ArrayFunc{
	"typeof":   typeOf,
	"size":     size,
	"min":      minMax("min", func(a, b float64) bool { return a < b }),
	"max":      minMax("max", func(a, b float64) bool { return a > b }),
	"round":    round,
	"append":   appendFn,
	"contains": contains,
}

// IsBuiltin reports whether name is a builtin function.
func IsBuiltin(name vals.Name) bool {
	_, ok := builtins[name]
	return ok
}

// BuiltinNames returns the names of all builtin functions, sorted.
func BuiltinNames() []vals.Name {
	names := make([]vals.Name, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func arity(name vals.Name, args vals.Array, n int) error {
	if len(args) != n {
		return &ArgError{name, fmt.Sprintf("want %d arguments, got %d", n, len(args))}
	}
	return nil
}

func typeOf(args vals.Array) (vals.Value, error) {
	if err := arity("typeof", args, 1); err != nil {
		return vals.Empty, err
	}
	return vals.NameValue(vals.Name(args[0].Kind().String())), nil
}

func size(args vals.Array) (vals.Value, error) {
	if err := arity("size", args, 1); err != nil {
		return vals.Empty, err
	}
	switch v := args[0]; v.Kind() {
	case vals.ArrayKind:
		return vals.Int(len(vals.MustCast[vals.Array](v))), nil
	case vals.DictKind:
		return vals.Int(len(vals.MustCast[vals.Dict](v))), nil
	case vals.StringKind:
		return vals.Int(utf8.RuneCountInString(vals.MustCast[string](v))), nil
	default:
		return vals.Empty, &ArgError{"size", "cannot take size of " + v.Kind().String()}
	}
}

func minMax(name vals.Name, better func(a, b float64) bool) ArrayFunc {
	return func(args vals.Array) (vals.Value, error) {
		if len(args) == 0 {
			return vals.Empty, &ArgError{name, "want at least 1 argument"}
		}
		var best float64
		for i, arg := range args {
			f, err := vals.Cast[float64](arg)
			if err != nil {
				return vals.Empty, &ArgError{name, "arguments must be numbers"}
			}
			if i == 0 || better(f, best) {
				best = f
			}
		}
		return vals.Num(best), nil
	}
}

func round(args vals.Array) (vals.Value, error) {
	if err := arity("round", args, 1); err != nil {
		return vals.Empty, err
	}
	f, err := vals.Cast[float64](args[0])
	if err != nil {
		return vals.Empty, &ArgError{"round", "argument must be a number"}
	}
	return vals.Num(math.Round(f)), nil
}

func appendFn(args vals.Array) (vals.Value, error) {
	if len(args) == 0 {
		return vals.Empty, &ArgError{"append", "want at least 1 argument"}
	}
	a, err := vals.Cast[vals.Array](args[0])
	if err != nil {
		return vals.Empty, &ArgError{"append", "first argument must be an array"}
	}
	result := make(vals.Array, 0, len(a)+len(args)-1)
	result = append(result, a...)
	result = append(result, args[1:]...)
	return vals.ArrayValue(result), nil
}

func contains(args vals.Array) (vals.Value, error) {
	if err := arity("contains", args, 2); err != nil {
		return vals.Empty, err
	}
	container, x := args[0], args[1]
	switch container.Kind() {
	case vals.ArrayKind:
		for _, elem := range vals.MustCast[vals.Array](container) {
			if vals.Equal(elem, x) {
				return vals.Bool(true), nil
			}
		}
		return vals.Bool(false), nil
	case vals.DictKind:
		k, err := vals.Cast[vals.Name](x)
		if err != nil {
			return vals.Empty, &ArgError{"contains", "dictionary keys are names"}
		}
		_, ok := vals.MustCast[vals.Dict](container)[k]
		return vals.Bool(ok), nil
	case vals.StringKind:
		s, err := vals.Cast[string](x)
		if err != nil {
			return vals.Empty, &ArgError{"contains", "can only look for a string in a string"}
		}
		return vals.Bool(strings.Contains(vals.MustCast[string](container), s)), nil
	default:
		return vals.Empty, &ArgError{"contains", "cannot search in " + container.Kind().String()}
	}
}
