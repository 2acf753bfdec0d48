// Package vmtest provides a framework for testing the evaluation of Adam
// expressions and statements.
//
// Test cases are constructed using the That function, followed by method
// calls that add additional information to it:
//
//	Test(t,
//	    That("1 + 2").Evaluates(3.0),
//	    That("x").WithVars(vals.MakeDict("x", 1)).Evaluates(1.0),
//	    That("1 / 0").Throws(vm.ErrDivideByZero))
package vmtest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/testutil"
	"src.adam.sh/pkg/tt"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Case is a test case that can be used in Test.
type Case struct {
	code  string
	body  bool
	vars  vals.Dict
	setup func(*vm.Env)
	want  result
}

type result struct {
	value  any
	hasVal bool
	err    error
	panics bool
	vars   vals.Dict
}

// That returns a new Case evaluating the given expression.
func That(code string) Case {
	return Case{code: code}
}

// ThatBody returns a new Case executing the given statements, like the body
// of a function. The result is the returned value, or empty.
func ThatBody(code string) Case {
	return Case{code: code, body: true}
}

// WithVars returns an altered Case where the given variables are visible.
// Assignments and declarations modify a copy of vars.
func (c Case) WithVars(vars vals.Dict) Case {
	c.vars = vars
	return c
}

// WithSetup returns an altered Case whose Env is modified by f before
// evaluation.
func (c Case) WithSetup(f func(*vm.Env)) Case {
	c.setup = f
	return c
}

// Evaluates returns an altered Case that requires the code to evaluate to
// the given value. The value is converted with vals.Of unless it is a
// tt.Matcher.
func (c Case) Evaluates(v any) Case {
	c.want.value, c.want.hasVal = v, true
	return c
}

// Throws returns an altered Case that requires evaluation to fail with an
// error that matches err: either errors.Is(actual, err) is true or the
// messages are equal. Use AnyError to accept any error.
func (c Case) Throws(err error) Case {
	c.want.err = err
	return c
}

// Panics returns an altered Case that requires evaluation to panic with a
// *vm.MalformedError.
func (c Case) Panics() Case {
	c.want.panics = true
	return c
}

// LeavesVars returns an altered Case that requires the variables to have the
// given values after execution.
func (c Case) LeavesVars(vars vals.Dict) Case {
	c.want.vars = vars
	return c
}

// AnyError is an error that matches any non-nil error in Throws.
var AnyError = errors.New("any error")

// MapEnv returns an Env whose variables live in vars. Declarations evaluate
// their initializer in the same Env and create or overwrite a variable.
func MapEnv(vars vals.Dict) *vm.Env {
	env := &vm.Env{}
	env.Variable = func(n vals.Name) (vals.Value, error) {
		v, ok := vars[n]
		if !ok {
			return vals.Empty, &vm.UnknownVariableError{Name: n}
		}
		return v, nil
	}
	env.Assign = func(n vals.Name, v vals.Value) error {
		if _, ok := vars[n]; !ok {
			return &vm.UnknownVariableError{Name: n}
		}
		vars[n] = v
		return nil
	}
	decl := func(n vals.Name, init vals.Array) error {
		v, err := vm.Eval(*env, init)
		if err != nil {
			return err
		}
		vars[n] = v
		return nil
	}
	env.Decl, env.ConstDecl = decl, decl
	return env
}

// Test runs test cases.
func Test(t *testing.T, tests ...Case) {
	t.Helper()
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			t.Helper()
			testCase(t, tc)
		})
	}
}

func testCase(t *testing.T, tc Case) {
	t.Helper()
	vars := make(vals.Dict, len(tc.vars))
	for k, v := range tc.vars {
		vars[k] = v
	}
	env := MapEnv(vars)
	if tc.setup != nil {
		tc.setup(env)
	}

	var (
		v   vals.Value
		err error
	)
	r := testutil.Recover(func() { v, err = run(*env, tc.code, tc.body) })
	if r != nil {
		if _, ok := r.(*vm.MalformedError); tc.want.panics && ok {
			return
		}
		if pe, ok := r.(parseError); ok {
			t.Fatalf("parse error: %v", pe.error)
		}
		t.Fatalf("got panic %v", r)
	}
	if tc.want.panics {
		t.Fatalf("got value %s, error %v, want panic", vals.Repr(v), err)
	}

	switch {
	case tc.want.err != nil:
		if !matchErr(tc.want.err, err) {
			t.Errorf("got error %v, want %v", err, tc.want.err)
		}
	case err != nil:
		t.Errorf("got error %v, want nil", err)
	}
	if tc.want.hasVal {
		if m, ok := tc.want.value.(tt.Matcher); ok {
			if !m.Match(v) {
				t.Errorf("got value %s, want %v", vals.Repr(v), m)
			}
		} else if want := vals.Of(tc.want.value); !vals.Equal(want, v) {
			t.Errorf("got value %s, want %s", vals.Repr(v), vals.Repr(want))
		}
	}
	if tc.want.vars != nil {
		for k, want := range tc.want.vars {
			if !vals.Equal(vars[k], want) {
				t.Errorf("variable %s is %s, want %s", k, vals.Repr(vars[k]), vals.Repr(want))
			}
		}
	}
}

type parseError struct{ error }

func run(env vm.Env, code string, body bool) (vals.Value, error) {
	src := parse.Source{Name: "[test]", Code: code}
	if !body {
		expr, err := parse.Expression(src)
		if err != nil {
			panic(parseError{err})
		}
		return vm.Eval(env, expr)
	}
	stmts, err := parse.Statements(src)
	if err != nil {
		panic(parseError{err})
	}
	block := make(vals.Array, len(stmts))
	for i, s := range stmts {
		block[i] = vals.ArrayValue(s)
	}
	flow, v, err := vm.New(env).ExecBlock(block)
	if err == nil && (flow == vm.Break || flow == vm.Continue) {
		err = vm.ErrStrayFlow
	}
	return v, err
}

func matchErr(want, got error) bool {
	if got == nil {
		return false
	}
	if want == AnyError || errors.Is(got, want) {
		return true
	}
	return cmp.Equal(want, got, tt.CommonCmpOpt)
}
