package vm_test

import (
	"errors"
	"testing"

	"src.adam.sh/pkg/testutil"
	"src.adam.sh/pkg/tt"
	"src.adam.sh/pkg/vals"
	. "src.adam.sh/pkg/vm"
	. "src.adam.sh/pkg/vm/vmtest"
)

func TestLiterals(t *testing.T) {
	Test(t,
		That("1").Evaluates(1.0),
		That("'foo'").Evaluates("foo"),
		That("@foo").Evaluates(vals.Name("foo")),
		That("true").Evaluates(true),
		That("empty").Evaluates(nil),
		That("[1, 'a', [true]]").Evaluates(vals.MakeArray(1.0, "a", vals.MakeArray(true))),
		That("{a: 1, b: empty}").Evaluates(vals.MakeDict("a", 1.0, "b", nil)),
		That("[]").Evaluates(vals.Array{}),
	)
}

func TestArithmetic(t *testing.T) {
	Test(t,
		That("1 + 2 * 3").Evaluates(7.0),
		That("7 / 2").Evaluates(3.5),
		That("7 % 4").Evaluates(3.0),
		That("-7 % 4").Evaluates(-3.0),
		That("-(1 + 2)").Evaluates(-3.0),
		That("0.1 + 0.2").Evaluates(tt.ApproxNum(0.3)),

		That("1 / 0").Throws(ErrDivideByZero),
		That("1 % 0").Throws(ErrDivideByZero),
		That("1 + 'a'").Throws(&TypeError{Op: OpAdd, Want: "number", Got: vals.StringKind}),
		That("-'a'").Throws(&TypeError{Op: OpNegate, Want: "number", Got: vals.StringKind}),
	)
}

func TestComparison(t *testing.T) {
	Test(t,
		That("1 < 2").Evaluates(true),
		That("2 <= 2").Evaluates(true),
		That("'b' > 'a'").Evaluates(true),
		That("'a' >= 'b'").Evaluates(false),
		That("[1, 2] == [1, 2]").Evaluates(true),
		That("{a: 1} != {a: 2}").Evaluates(true),
		That("1 == '1'").Evaluates(false),
		That("empty == empty").Evaluates(true),

		That("1 < 'a'").Throws(&TypeError{Op: OpLess, Want: "number", Got: vals.StringKind}),
		That("true < false").Throws(&TypeError{Op: OpLess, Want: "number or string", Got: vals.BoolKind}),
	)
}

func TestLogic(t *testing.T) {
	Test(t,
		That("!true").Evaluates(false),
		That("true && false").Evaluates(false),
		That("false || true").Evaluates(true),
		// The right operand is not evaluated when the left decides.
		That("false && 1 / 0 == 1").Evaluates(false),
		That("true || undefined").Evaluates(true),
		That("true ? 1 : 1 / 0").Evaluates(1.0),
		That("false ? 1 / 0 : 2").Evaluates(2.0),

		That("1 && true").Throws(&TypeError{Op: OpAnd, Want: "bool", Got: vals.NumberKind}),
		That("true && 1").Throws(&TypeError{Op: OpAnd, Want: "bool", Got: vals.NumberKind}),
		That("!1").Throws(&TypeError{Op: OpNot, Want: "bool", Got: vals.NumberKind}),
		That("1 ? 2 : 3").Throws(&TypeError{Op: OpIfElse, Want: "bool", Got: vals.NumberKind}),
	)
}

func TestVariablesAndIndex(t *testing.T) {
	vars := vals.MakeDict(
		"x", 10.0,
		"a", vals.MakeArray(1.0, 2.0),
		"d", vals.MakeDict("k", "v"))
	Test(t,
		That("x * 2").WithVars(vars).Evaluates(20.0),
		That("a[1]").WithVars(vars).Evaluates(2.0),
		That("d.k").WithVars(vars).Evaluates("v"),
		That("d[@k]").WithVars(vars).Evaluates("v"),

		That("y").WithVars(vars).Throws(&UnknownVariableError{Name: "y"}),
		That("a[2]").WithVars(vars).Throws(&IndexError{Index: vals.Int(2), Len: 2}),
		That("a[0.5]").WithVars(vars).Throws(AnyError),
		That("d.j").WithVars(vars).Throws(&IndexError{Index: vals.NameValue("j"), Len: -1}),
		That("x[0]").WithVars(vars).Throws(
			&TypeError{Op: OpIndex, Want: "array or dictionary", Got: vals.NumberKind}),
	)
}

func TestBuiltins(t *testing.T) {
	Test(t,
		That("typeof(1)").Evaluates(vals.Name("number")),
		That("typeof({})").Evaluates(vals.Name("dictionary")),
		That("size([1, 2, 3])").Evaluates(3.0),
		That("size('héllo')").Evaluates(5.0),
		That("size({a: 1})").Evaluates(1.0),
		That("min(3, 1, 2)").Evaluates(1.0),
		That("max(3, 1, 2)").Evaluates(3.0),
		That("round(2.5)").Evaluates(3.0),
		That("append([1], 2, 3)").Evaluates(vals.MakeArray(1.0, 2.0, 3.0)),
		That("contains([1, 2], 2)").Evaluates(true),
		That("contains({a: 1}, @b)").Evaluates(false),

		That("size(1)").Throws(AnyError),
		That("min()").Throws(&ArgError{Func: "min", Message: "want at least 1 argument"}),
		That("round(1, 2)").Throws(&ArgError{Func: "round", Message: "want 1 arguments, got 2"}),
	)
}

func TestBuiltinNames(t *testing.T) {
	names := BuiltinNames()
	for i, name := range names {
		if !IsBuiltin(name) {
			t.Errorf("%s is listed but not a builtin", name)
		}
		if i > 0 && names[i-1] >= name {
			t.Errorf("names not sorted: %v", names)
		}
	}
	if len(names) != 7 {
		t.Errorf("got %d builtins, want 7", len(names))
	}
}

type constFunction struct{ v vals.Value }

func (f constFunction) CallArray(Env, vals.Array) (vals.Value, error) { return f.v, nil }

func (f constFunction) CallDict(_ Env, args vals.Dict) (vals.Value, error) {
	return vals.DictValue(args), nil
}

func TestFunctionLookup(t *testing.T) {
	natives := &Natives{}
	natives.AddArray("size", func(vals.Array) (vals.Value, error) { return vals.String("host"), nil })
	natives.AddArray("nothing", func(vals.Array) (vals.Value, error) { return vals.Empty, nil })
	natives.AddDict("named", func(args vals.Dict) (vals.Value, error) { return args["k"], nil })
	withNatives := func(env *Env) {
		env.ArrayFunc = natives.LookupArray
		env.DictFunc = natives.LookupDict
		env.AdamFunc = func(n vals.Name) (Function, error) {
			if n == "adam" {
				return constFunction{vals.String("adam")}, nil
			}
			return nil, nil
		}
	}
	Test(t,
		// Host functions shadow builtins.
		That("size([])").WithSetup(withNatives).Evaluates("host"),
		// A host function returning empty is still found.
		That("nothing()").WithSetup(withNatives).Evaluates(nil),
		That("named(k: 5)").WithSetup(withNatives).Evaluates(5.0),
		That("adam(1)").WithSetup(withNatives).Evaluates("adam"),
		That("adam(k: 1)").WithSetup(withNatives).Evaluates(vals.MakeDict("k", 1.0)),

		That("missing()").WithSetup(withNatives).Throws(&UnknownFunctionError{Name: "missing"}),
		That("missing()").Throws(&UnknownFunctionError{Name: "missing"}),
		That("min(k: 1)").Throws(&UnknownFunctionError{Name: "min"}),
	)
}

func TestStatements(t *testing.T) {
	Test(t,
		ThatBody("return 1;").Evaluates(1.0),
		ThatBody("x = 1;").WithVars(vals.MakeDict("x", 0.0)).Evaluates(nil),
		ThatBody("constant a : 2; b : a * 2; return b;").Evaluates(4.0),
		ThatBody("x = x + 1;").WithVars(vals.MakeDict("x", 1.0)).
			LeavesVars(vals.MakeDict("x", 2.0)),
		ThatBody("if (1 < 2) return 'yes'; else return 'no';").Evaluates("yes"),
		ThatBody("if (false) return 1;").Evaluates(nil),
		ThatBody(`
			n : 0;
			for (x : [1, 2, 3, 4]) {
				if (x == 2) continue;
				if (x == 4) break;
				n = n + x;
			}
			return n;`).Evaluates(4.0),
		ThatBody(`
			keys : [];
			for (k, v : {b: 2, a: 1}) keys = append(keys, k);
			return keys;`).Evaluates(vals.MakeArray(vals.Name("a"), vals.Name("b"))),
		ThatBody("for (i, x : ['a', 'b']) if (x == 'b') return i;").Evaluates(1.0),

		ThatBody("x = 1;").Throws(&UnknownVariableError{Name: "x"}),
		ThatBody("for (x : 1) {}").Throws(
			&TypeError{Op: OpSimpleFor, Want: "array or dictionary", Got: vals.NumberKind}),
		ThatBody("if (1) {}").Throws(AnyError),
		ThatBody("break;").Throws(ErrStrayFlow),
	)
}

func TestStatements_NoDeclaration(t *testing.T) {
	m := New(Env{})
	_, _, err := m.Exec(vals.Array{vals.NameValue("a"), vals.ArrayValue(Literal(vals.Int(1))), vals.NameValue(OpDecl)})
	if !errors.Is(err, ErrNoDeclaration) {
		t.Errorf("got error %v, want ErrNoDeclaration", err)
	}
}

func op(n vals.Name) vals.Value { return vals.NameValue(n) }

func TestMalformed(t *testing.T) {
	for _, expr := range []vals.Array{
		{op(OpAdd)},
		{vals.Int(1), vals.Int(2)},
		{},
		{op(".nonsense")},
		{vals.Int(1), op(OpVariable)},
		{vals.Int(1), op(OpArray)},
		{vals.Bool(true), vals.Int(1), op(OpAnd)},
	} {
		r := testutil.Recover(func() { Eval(Env{}, expr) })
		if _, ok := r.(*MalformedError); !ok {
			t.Errorf("Eval(%s) panics with %v, want *MalformedError", vals.Repr(vals.ArrayValue(expr)), r)
		}
	}
}

func TestMachine_StackDiscipline(t *testing.T) {
	m := New(Env{})
	if err := m.Evaluate(vals.Array{vals.Int(1)}); err != nil {
		t.Fatal(err)
	}
	if err := m.Evaluate(vals.Array{vals.Int(2), vals.Int(3), op(OpAdd)}); err != nil {
		t.Fatal(err)
	}
	if got := m.Back(); !vals.Equal(got, vals.Int(5)) {
		t.Errorf("Back() = %s, want 5", vals.Repr(got))
	}
	m.PopBack()
	if got := m.Back(); !vals.Equal(got, vals.Int(1)) {
		t.Errorf("after PopBack, Back() = %s, want 1", vals.Repr(got))
	}

	// A failed evaluation leaves the stack alone.
	if err := m.Evaluate(vals.Array{vals.Int(2), vals.Int(0), op(OpDivide)}); err == nil {
		t.Errorf("want error")
	}
	if got := m.Back(); !vals.Equal(got, vals.Int(1)) {
		t.Errorf("after error, Back() = %s, want 1", vals.Repr(got))
	}
	m.PopBack()
	if r := testutil.Recover(m.PopBack); r == nil {
		t.Errorf("PopBack on empty stack does not panic")
	}
}

func TestFreeVariables(t *testing.T) {
	expr := vals.Array{
		vals.NameValue("a"), op(OpVariable),
		vals.ArrayValue(vals.Array{vals.NameValue("b"), op(OpVariable), vals.NameValue("a"), op(OpVariable), op(OpAdd)}),
		op(OpAnd),
		vals.Int(0), op(OpArray), vals.NameValue("f"), op(OpFunction),
	}
	if got := FreeVariables(expr); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("FreeVariables = %v, want [a b]", got)
	}
	if got := CalledFunctions(expr); len(got) != 1 || got[0] != "f" {
		t.Errorf("CalledFunctions = %v, want [f]", got)
	}
}
