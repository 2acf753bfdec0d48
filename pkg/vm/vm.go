// Package vm implements the virtual machine that evaluates expression arrays.
//
// The machine has no knowledge of where variables and functions live. All
// lookups go through the callbacks in Env; an unset callback means that
// nothing can be found through it.
package vm

import (
	"math"

	"src.adam.sh/pkg/vals"
)

// Env holds the callbacks a Machine uses to reach the outside world.
type Env struct {
	// Variable resolves a bare identifier.
	Variable func(vals.Name) (vals.Value, error)
	// Assign writes a variable back into the owning scope.
	Assign func(vals.Name, vals.Value) error
	// ArrayFunc and DictFunc resolve native functions. The bool result is
	// false when no function of that name exists, which lets the machine fall
	// through to other kinds of functions.
	ArrayFunc func(vals.Name, vals.Array) (vals.Value, bool, error)
	DictFunc  func(vals.Name, vals.Dict) (vals.Value, bool, error)
	// AdamFunc resolves a user-defined function. Failing to find one is an
	// error.
	AdamFunc func(vals.Name) (Function, error)
	// ConstDecl and Decl create new cells in a local scope from an
	// initializer expression.
	ConstDecl func(vals.Name, vals.Array) error
	Decl      func(vals.Name, vals.Array) error
}

// Function is a user-defined function. Calls receive the caller's Env, from
// which the function captures the variables it needs and inherits function
// lookups.
type Function interface {
	CallArray(caller Env, args vals.Array) (vals.Value, error)
	CallDict(caller Env, args vals.Dict) (vals.Value, error)
}

// Machine is a stack machine. The zero value is ready to use with an empty
// Env.
type Machine struct {
	Env   Env
	stack []vals.Value
	// Lowest stack index the current evaluation may pop.
	floor int
	// Expression being evaluated, for panic messages.
	expr vals.Array
}

// New returns a Machine using the given Env.
func New(env Env) *Machine { return &Machine{Env: env} }

// Eval evaluates an expression with a fresh Machine and returns its value.
func Eval(env Env, expr vals.Array) (vals.Value, error) {
	m := New(env)
	if err := m.Evaluate(expr); err != nil {
		return vals.Empty, err
	}
	return m.Back(), nil
}

// Evaluate evaluates an expression and leaves its value on top of the stack.
// On error the stack is left as it was before the call.
//
// It panics with a *MalformedError if expr underflows the stack, contains an
// unknown opcode or leaves other than exactly one value.
func (m *Machine) Evaluate(expr vals.Array) error {
	savedFloor, savedExpr := m.floor, m.expr
	m.floor, m.expr = len(m.stack), expr
	defer func() { m.floor, m.expr = savedFloor, savedExpr }()

	for _, x := range expr {
		if !IsOpcode(x) {
			m.push(x)
			continue
		}
		if err := m.apply(vals.MustCast[vals.Name](x)); err != nil {
			m.stack = m.stack[:m.floor]
			return err
		}
	}
	if len(m.stack) != m.floor+1 {
		m.malformed("evaluation must leave exactly one value")
	}
	return nil
}

// Back returns the value on top of the stack, the result of the last
// Evaluate.
func (m *Machine) Back() vals.Value {
	if len(m.stack) == 0 {
		panic("vm: Back called on empty stack")
	}
	return m.stack[len(m.stack)-1]
}

// PopBack removes the value on top of the stack.
func (m *Machine) PopBack() {
	if len(m.stack) == 0 {
		panic("vm: PopBack called on empty stack")
	}
	m.stack = m.stack[:len(m.stack)-1]
}

func (m *Machine) push(v vals.Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() vals.Value {
	if len(m.stack) <= m.floor {
		m.malformed("stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *Machine) malformed(msg string) {
	panic(&MalformedError{Message: msg, Expr: m.expr})
}

// Pops a value that the encoding guarantees to have the given kind.
func popAs[T vals.Native](m *Machine) T {
	v, err := vals.Cast[T](m.pop())
	if err != nil {
		m.malformed(err.Error())
	}
	return v
}

func (m *Machine) apply(op vals.Name) error {
	switch op {
	case OpVariable:
		name := popAs[vals.Name](m)
		if m.Env.Variable == nil {
			return &UnknownVariableError{name}
		}
		v, err := m.Env.Variable(name)
		if err != nil {
			return err
		}
		m.push(v)
	case OpArray:
		n := m.popCount()
		a := make(vals.Array, n)
		for i := n - 1; i >= 0; i-- {
			a[i] = m.pop()
		}
		m.push(vals.ArrayValue(a))
	case OpDictionary:
		n := m.popCount()
		d := make(vals.Dict, n)
		for i := 0; i < n; i++ {
			v := m.pop()
			k := popAs[vals.Name](m)
			d[k] = v
		}
		m.push(vals.DictValue(d))
	case OpFunction:
		name := popAs[vals.Name](m)
		v, err := m.call(name, m.pop())
		if err != nil {
			return err
		}
		m.push(v)
	case OpIndex:
		key := m.pop()
		v, err := index(m.pop(), key)
		if err != nil {
			return err
		}
		m.push(v)
	case OpNegate:
		x, err := castOperand[float64](op, "number", m.pop())
		if err != nil {
			return err
		}
		m.push(vals.Num(-x))
	case OpNot:
		x, err := castOperand[bool](op, "bool", m.pop())
		if err != nil {
			return err
		}
		m.push(vals.Bool(!x))
	case OpAnd, OpOr:
		rhs := popAs[vals.Array](m)
		lhs, err := castOperand[bool](op, "bool", m.pop())
		if err != nil {
			return err
		}
		if lhs == (op == OpOr) {
			m.push(vals.Bool(lhs))
			return nil
		}
		v, err := m.evalSub(rhs)
		if err != nil {
			return err
		}
		b, err := castOperand[bool](op, "bool", v)
		if err != nil {
			return err
		}
		m.push(vals.Bool(b))
	case OpIfElse:
		elseExpr := popAs[vals.Array](m)
		thenExpr := popAs[vals.Array](m)
		cond, err := castOperand[bool](op, "bool", m.pop())
		if err != nil {
			return err
		}
		branch := elseExpr
		if cond {
			branch = thenExpr
		}
		v, err := m.evalSub(branch)
		if err != nil {
			return err
		}
		m.push(v)
	case OpEqual:
		y, x := m.pop(), m.pop()
		m.push(vals.Bool(vals.Equal(x, y)))
	case OpNotEqual:
		y, x := m.pop(), m.pop()
		m.push(vals.Bool(!vals.Equal(x, y)))
	case OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
		y, x := m.pop(), m.pop()
		c, err := compare(op, x, y)
		if err != nil {
			return err
		}
		var b bool
		switch op {
		case OpLess:
			b = c < 0
		case OpGreater:
			b = c > 0
		case OpLessEqual:
			b = c <= 0
		case OpGreaterEqual:
			b = c >= 0
		}
		m.push(vals.Bool(b))
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulus:
		y, x := m.pop(), m.pop()
		v, err := arith(op, x, y)
		if err != nil {
			return err
		}
		m.push(vals.Num(v))
	default:
		m.malformed("unknown opcode " + string(op))
	}
	return nil
}

// Evaluates a nested expression and pops its value.
func (m *Machine) evalSub(expr vals.Array) (vals.Value, error) {
	if err := m.Evaluate(expr); err != nil {
		return vals.Empty, err
	}
	v := m.Back()
	m.PopBack()
	return v, nil
}

func (m *Machine) popCount() int {
	f := popAs[float64](m)
	if f < 0 || f != math.Trunc(f) {
		m.malformed("bad element count")
	}
	return int(f)
}

func castOperand[T vals.Native](op vals.Name, want string, v vals.Value) (T, error) {
	if !vals.Is[T](v) {
		var zero T
		return zero, &TypeError{Op: op, Want: want, Got: v.Kind()}
	}
	return vals.MustCast[T](v), nil
}

func arith(op vals.Name, xv, yv vals.Value) (float64, error) {
	x, err := castOperand[float64](op, "number", xv)
	if err != nil {
		return 0, err
	}
	y, err := castOperand[float64](op, "number", yv)
	if err != nil {
		return 0, err
	}
	switch op {
	case OpAdd:
		return x + y, nil
	case OpSubtract:
		return x - y, nil
	case OpMultiply:
		return x * y, nil
	case OpDivide:
		if y == 0 {
			return 0, ErrDivideByZero
		}
		return x / y, nil
	default:
		if y == 0 {
			return 0, ErrDivideByZero
		}
		return math.Mod(x, y), nil
	}
}

// Compares two numbers or two strings.
func compare(op vals.Name, x, y vals.Value) (int, error) {
	switch {
	case x.Kind() == vals.NumberKind && y.Kind() == vals.NumberKind:
		a, b := vals.MustCast[float64](x), vals.MustCast[float64](y)
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		}
		return 0, nil
	case x.Kind() == vals.StringKind && y.Kind() == vals.StringKind:
		a, b := vals.MustCast[string](x), vals.MustCast[string](y)
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		}
		return 0, nil
	case x.Kind() == vals.NumberKind || x.Kind() == vals.StringKind:
		return 0, &TypeError{Op: op, Want: x.Kind().String(), Got: y.Kind()}
	default:
		return 0, &TypeError{Op: op, Want: "number or string", Got: x.Kind()}
	}
}

func index(container, key vals.Value) (vals.Value, error) {
	switch container.Kind() {
	case vals.ArrayKind:
		a := vals.MustCast[vals.Array](container)
		f, err := castOperand[float64](OpIndex, "number", key)
		if err != nil {
			return vals.Empty, err
		}
		if f < 0 || f != math.Trunc(f) || int(f) >= len(a) {
			return vals.Empty, &IndexError{Index: key, Len: len(a)}
		}
		return a[int(f)], nil
	case vals.DictKind:
		d := vals.MustCast[vals.Dict](container)
		k, err := vals.Cast[vals.Name](key)
		if err != nil {
			return vals.Empty, &TypeError{Op: OpIndex, Want: "name", Got: key.Kind()}
		}
		v, ok := d[k]
		if !ok {
			return vals.Empty, &IndexError{Index: key, Len: -1}
		}
		return v, nil
	default:
		return vals.Empty, &TypeError{Op: OpIndex, Want: "array or dictionary", Got: container.Kind()}
	}
}

func (m *Machine) call(name vals.Name, args vals.Value) (vals.Value, error) {
	switch args.Kind() {
	case vals.ArrayKind:
		a := vals.MustCast[vals.Array](args)
		if m.Env.ArrayFunc != nil {
			v, found, err := m.Env.ArrayFunc(name, a)
			if found || err != nil {
				return v, err
			}
		}
		if f, ok := builtins[name]; ok {
			return f(a)
		}
		fn, err := m.adamFunc(name)
		if err != nil {
			return vals.Empty, err
		}
		return fn.CallArray(m.Env, a)
	case vals.DictKind:
		d := vals.MustCast[vals.Dict](args)
		if m.Env.DictFunc != nil {
			v, found, err := m.Env.DictFunc(name, d)
			if found || err != nil {
				return v, err
			}
		}
		fn, err := m.adamFunc(name)
		if err != nil {
			return vals.Empty, err
		}
		return fn.CallDict(m.Env, d)
	default:
		m.malformed("function arguments must be an array or a dictionary")
		return vals.Empty, nil
	}
}

func (m *Machine) adamFunc(name vals.Name) (Function, error) {
	if m.Env.AdamFunc == nil {
		return nil, &UnknownFunctionError{name}
	}
	fn, err := m.Env.AdamFunc(name)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, &UnknownFunctionError{name}
	}
	return fn, nil
}
