package vm

import (
	"errors"
	"fmt"

	"src.adam.sh/pkg/vals"
)

// ErrDivideByZero is returned when the right operand of / or % is zero.
var ErrDivideByZero = errors.New("division by zero")

// TypeError is returned when an operator is applied to a value of the wrong
// kind.
type TypeError struct {
	Op   vals.Name
	Want string
	Got  vals.Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: want %s, got %s", opName(e.Op), e.Want, e.Got)
}

// IndexError is returned when indexing fails.
type IndexError struct {
	Index vals.Value
	// Length of the indexed array; -1 when indexing a dictionary.
	Len int
}

func (e *IndexError) Error() string {
	if e.Len < 0 {
		return fmt.Sprintf("no such key: %s", vals.Repr(e.Index))
	}
	return fmt.Sprintf("index out of range: %s (length %d)", vals.Repr(e.Index), e.Len)
}

// UnknownFunctionError is returned when a called function cannot be found.
type UnknownFunctionError struct {
	Name vals.Name
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function: %s", e.Name)
}

// UnknownVariableError is returned when a variable is read but the
// environment has no variable lookup.
type UnknownVariableError struct {
	Name vals.Name
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable: %s", e.Name)
}

// ArgError is returned by builtin functions called with unsuitable
// arguments.
type ArgError struct {
	Func    vals.Name
	Message string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("%s: %s", e.Func, e.Message)
}

// ErrNoDeclaration is returned when a statement declares or assigns a
// variable in an environment that does not support it.
var ErrNoDeclaration = errors.New("declarations are not supported in this scope")

// ErrStrayFlow is returned when break or continue appears outside a loop.
var ErrStrayFlow = errors.New("break or continue outside of a loop")

// MalformedError is the panic value used when an expression array violates
// the encoding, for example by underflowing the stack. Such arrays can only
// come from a broken producer, so they are not reported as errors.
type MalformedError struct {
	Message string
	Expr    vals.Array
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed expression %s: %s", vals.Repr(vals.ArrayValue(e.Expr)), e.Message)
}

func opName(op vals.Name) string {
	if s, ok := BinaryOps[op]; ok {
		return "operator " + s
	}
	switch op {
	case OpNegate:
		return "unary -"
	case OpNot:
		return "operator !"
	case OpIfElse:
		return "operator ?:"
	}
	return string(op)
}
