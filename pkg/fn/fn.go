// Package fn implements user-defined functions, whose bodies are statements
// executed by the VM in a local scope.
package fn

import (
	"errors"
	"fmt"
	"io"

	"src.adam.sh/pkg/logutil"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/sheet"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Function is a user-defined function. It implements vm.Function.
type Function struct {
	name   vals.Name
	params []vals.Name
	stmts  []vals.Array
	// Names read by the body that are not parameters or local declarations,
	// captured from the caller on each call.
	free  []vals.Name
	calls []vals.Name
}

var _ vm.Function = (*Function)(nil)

// New creates a Function.
func New(name vals.Name, params []vals.Name, stmts []vals.Array) *Function {
	local := map[vals.Name]bool{}
	for _, p := range params {
		local[p] = true
	}
	for _, s := range stmts {
		declaredNames(s, local)
	}
	var free []vals.Name
	seen := map[vals.Name]bool{}
	for _, s := range stmts {
		for _, n := range vm.FreeVariables(s) {
			if !local[n] && !seen[n] {
				seen[n] = true
				free = append(free, n)
			}
		}
	}
	var calls []vals.Name
	for _, s := range stmts {
		calls = append(calls, vm.CalledFunctions(s)...)
	}
	return &Function{name, params, stmts, free, calls}
}

// FromDef creates a Function from a parsed definition.
func FromDef(def parse.FunctionDef) *Function {
	return New(def.Name, def.Params, def.Statements)
}

// Adds the names declared by a statement, including those in nested blocks,
// to names.
func declaredNames(stmt vals.Array, names map[vals.Name]bool) {
	if len(stmt) == 0 {
		return
	}
	op, _ := stmt[len(stmt)-1].AsName()
	args := stmt[:len(stmt)-1]
	switch op {
	case vm.OpConstDecl, vm.OpDecl:
		if n, ok := args[0].AsName(); ok {
			names[n] = true
		}
	case vm.OpSimpleFor:
		for _, arg := range args[:2] {
			if n, ok := arg.AsName(); ok {
				names[n] = true
			}
		}
		declaredInBlock(args[3], names)
	case vm.OpStmtIfElse:
		declaredInBlock(args[1], names)
		declaredInBlock(args[2], names)
	}
}

func declaredInBlock(v vals.Value, names map[vals.Name]bool) {
	block, _ := vals.Cast[vals.Array](v)
	for _, s := range block {
		stmt, _ := vals.Cast[vals.Array](s)
		declaredNames(stmt, names)
	}
}

// Name returns the name of the function.
func (f *Function) Name() vals.Name { return f.name }

// Params returns the parameter names.
func (f *Function) Params() []vals.Name { return f.params }

// FreeVariables returns the names the function reads from its caller's
// scope.
func (f *Function) FreeVariables() []vals.Name { return f.free }

// CalledFunctions returns the names of the functions called by the body.
// Names may repeat.
func (f *Function) CalledFunctions() []vals.Name { return f.calls }

// CallError wraps an error from a function call.
type CallError struct {
	Func vals.Name
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("in function %s: %v", e.Func, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// CallArray calls the function with positional arguments. Missing arguments
// are empty; extra ones are ignored.
func (f *Function) CallArray(caller vm.Env, args vals.Array) (vals.Value, error) {
	return f.call(caller, func(i int, _ vals.Name) vals.Value {
		if i < len(args) {
			return args[i]
		}
		return vals.Empty
	})
}

// CallDict calls the function with named arguments. Missing arguments are
// empty; arguments not naming a parameter are ignored.
func (f *Function) CallDict(caller vm.Env, args vals.Dict) (vals.Value, error) {
	return f.call(caller, func(_ int, p vals.Name) vals.Value { return args[p] })
}

func (f *Function) call(caller vm.Env, arg func(int, vals.Name) vals.Value) (vals.Value, error) {
	v, err := f.run(caller, arg)
	if err != nil {
		return vals.Empty, &CallError{f.name, err}
	}
	return v, nil
}

func (f *Function) run(caller vm.Env, arg func(int, vals.Name) vals.Value) (vals.Value, error) {
	local := sheet.New(sheet.Config{
		ArrayFunc: caller.ArrayFunc,
		DictFunc:  caller.DictFunc,
		AdamFunc:  caller.AdamFunc,
		Logger:    logutil.Discard,
	})
	if caller.Variable != nil {
		for _, n := range f.free {
			v, err := caller.Variable(n)
			if err != nil {
				// Reading the variable fails when the body gets to it.
				continue
			}
			if err := local.AddConstant(n, vm.Literal(v)); err != nil {
				return vals.Empty, err
			}
		}
	}
	for i, p := range f.params {
		if err := local.AddInterface(p, vm.Literal(arg(i, p)), nil); err != nil {
			return vals.Empty, err
		}
	}
	if _, err := local.Update(); err != nil {
		return vals.Empty, err
	}

	env := local.Env()
	// Functions called from the body capture from this scope, which must
	// then supply what they read from further out.
	env.Variable = func(n vals.Name) (vals.Value, error) {
		v, err := local.Get(n)
		var noCell *sheet.NoCellError
		if errors.As(err, &noCell) && caller.Variable != nil {
			return caller.Variable(n)
		}
		return v, err
	}
	env.Assign = func(n vals.Name, v vals.Value) error {
		if err := local.Set(n, v); err != nil {
			return err
		}
		_, err := local.Update()
		return err
	}
	env.ConstDecl = func(n vals.Name, init vals.Array) error {
		v, err := vm.Eval(env, init)
		if err != nil {
			return err
		}
		return local.AddConstant(n, vm.Literal(v))
	}
	env.Decl = func(n vals.Name, init vals.Array) error {
		v, err := vm.Eval(env, init)
		if err != nil {
			return err
		}
		// Declaring an existing variable again, as loops do, rebinds it.
		if k, err := local.Kind(n); err == nil && k == sheet.Interface {
			return env.Assign(n, v)
		}
		if err := local.AddInterface(n, vm.Literal(v), nil); err != nil {
			return err
		}
		_, err = local.Update()
		return err
	}

	block := make(vals.Array, len(f.stmts))
	for i, s := range f.stmts {
		block[i] = vals.ArrayValue(s)
	}
	flow, v, err := vm.New(env).ExecBlock(block)
	switch {
	case err != nil:
		return vals.Empty, err
	case flow == vm.Break || flow == vm.Continue:
		return vals.Empty, vm.ErrStrayFlow
	}
	return v, nil
}

// Def returns the definition of the function.
func (f *Function) Def() parse.FunctionDef {
	return parse.FunctionDef{Name: f.name, Params: f.params, Statements: f.stmts}
}

// Dump writes the function as source code.
func (f *Function) Dump(w io.Writer) error {
	return parse.WriteFunction(w, f.Def())
}
