package fn

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/sheet"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

const functions = `
second(a, b) { return typeof(b); }

add_k(x) { return x + k; }

slow_size(seq) {
	n : 0;
	for (x : seq) n = n + 1;
	return n;
}

sum_to(limit) {
	total : 0;
	for (i, x : [1, 2, 3, 4, 5]) {
		if (x > limit) break;
		total = total + x;
	}
	return total;
}

describe(name, size) { return [name, typeof(size)]; }

no_return() { x : 1; }

stray() { break; }

shadow(k) {
	k = k * 10;
	constant doubled : k * 2;
	return doubled;
}

set_outer() { k = 1; return k; }

calls_other(x) { return add_k(slow_size(x)); }
`

func setup(t *testing.T) (*Registry, *sheet.Sheet) {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Load(parse.Source{Name: "[test]", Code: functions}); err != nil {
		t.Fatal(err)
	}
	s := sheet.New(sheet.Config{AdamFunc: reg.Lookup})
	if err := s.AddInterface("k", vm.Literal(vals.Num(100)), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(); err != nil {
		t.Fatal(err)
	}
	return reg, s
}

func inspect(s *sheet.Sheet, src string) (vals.Value, error) {
	expr, err := parse.Expression(parse.Source{Name: "[test]", Code: src})
	if err != nil {
		return vals.Empty, err
	}
	return s.Inspect(expr)
}

func TestCall(t *testing.T) {
	_, s := setup(t)
	for _, test := range []struct {
		src  string
		want vals.Value
	}{
		// Missing arguments are empty.
		{"second(1)", vals.NameValue("empty")},
		{"second(1, 2)", vals.NameValue("number")},
		{"second(1, 2, 3)", vals.NameValue("number")},
		{"add_k(1)", vals.Num(101)},
		{"slow_size([1, 2, 3])", vals.Num(3)},
		{"slow_size({a: 1})", vals.Num(1)},
		{"sum_to(3)", vals.Num(6)},
		{"describe(size: 3, name: 'x')", vals.ArrayValue(vals.MakeArray("x", vals.Name("number")))},
		{"describe(name: 'x')", vals.ArrayValue(vals.MakeArray("x", vals.Name("empty")))},
		{"no_return()", vals.Empty},
		{"shadow(1)", vals.Num(20)},
		{"calls_other([1, 2])", vals.Num(102)},
	} {
		got, err := inspect(s, test.src)
		if err != nil {
			t.Errorf("%s -> error %v", test.src, err)
			continue
		}
		if !vals.Equal(got, test.want) {
			t.Errorf("%s -> %s, want %s", test.src, got, test.want)
		}
	}
}

func TestCall_Errors(t *testing.T) {
	_, s := setup(t)
	_, err := inspect(s, "stray()")
	if !errors.Is(err, vm.ErrStrayFlow) {
		t.Errorf("stray() -> %v, want ErrStrayFlow", err)
	}
	var callErr *CallError
	if !errors.As(err, &callErr) || callErr.Func != "stray" {
		t.Errorf("error %v is not a CallError for stray", err)
	}

	_, err = inspect(s, "set_outer()")
	if !errors.As(err, new(*sheet.NotInterfaceError)) {
		t.Errorf("set_outer() -> %v, want NotInterfaceError", err)
	}
	if k, _ := s.Get("k"); !vals.Equal(k, vals.Num(100)) {
		t.Errorf("k = %s after set_outer(), want 100", k)
	}

	_, err = inspect(s, "unknown(1)")
	if !errors.As(err, new(*vm.UnknownFunctionError)) {
		t.Errorf("unknown(1) -> %v, want UnknownFunctionError", err)
	}
	_, err = inspect(s, "slow_size(1)")
	if !errors.As(err, new(*vm.TypeError)) {
		t.Errorf("slow_size(1) -> %v, want TypeError", err)
	}
}

func TestCall_CapturesByValue(t *testing.T) {
	reg, s := setup(t)
	if err := s.AddOutput("r", vals.Array{
		vals.Int(1), vals.Int(1), vals.NameValue(vm.OpArray),
		vals.NameValue("add_k"), vals.NameValue(vm.OpFunction)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if r, _ := s.Get("r"); !vals.Equal(r, vals.Num(101)) {
		t.Errorf("r = %s, want 101", r)
	}
	// r depends on k through add_k.
	if err := s.Set("k", vals.Num(5)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(); err != nil {
		t.Fatal(err)
	}
	if r, _ := s.Get("r"); !vals.Equal(r, vals.Num(6)) {
		t.Errorf("r = %s after changing k, want 6", r)
	}

	// Two callers with different values of k see their own snapshot.
	other := sheet.New(sheet.Config{AdamFunc: reg.Lookup})
	other.AddConstant("k", vm.Literal(vals.Num(-1)))
	v1, err := inspect(s, "add_k(0)")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := inspect(other, "add_k(0)")
	if err != nil {
		t.Fatal(err)
	}
	if !vals.Equal(v1, vals.Num(5)) || !vals.Equal(v2, vals.Num(-1)) {
		t.Errorf("got %s and %s, want 5 and -1", v1, v2)
	}
}

func TestFreeVariables(t *testing.T) {
	reg, _ := setup(t)
	for name, want := range map[vals.Name][]vals.Name{
		"add_k":     {"k"},
		"slow_size": nil,
		"sum_to":    nil,
		"set_outer": {"k"},
	} {
		f, ok := reg.Get(name)
		if !ok {
			t.Fatalf("no function %s", name)
		}
		if got := f.FreeVariables(); !cmp.Equal(got, want) {
			t.Errorf("FreeVariables of %s = %v, want %v", name, got, want)
		}
	}
}

func TestDump(t *testing.T) {
	reg, _ := setup(t)
	f, _ := reg.Get("slow_size")
	var sb strings.Builder
	if err := f.Dump(&sb); err != nil {
		t.Fatal(err)
	}
	want := `slow_size(seq)
{
    n: 0;
    for (x : seq) {
        n = n + 1;
    }
    return n;
}
`
	if sb.String() != want {
		t.Errorf("Dump wrote:\n%s\nwant:\n%s", sb.String(), want)
	}

	// The dump parses back to the same function.
	defs, err := parse.Functions(parse.Source{Name: "[dump]", Code: sb.String()})
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(defs[0].Statements, f.Def().Statements) {
		t.Errorf("statements differ after round trip")
	}
}

func TestRegistry(t *testing.T) {
	reg, _ := setup(t)
	if err := reg.Add(New("add_k", nil, nil)); !errors.As(err, new(*DuplicateFunctionError)) {
		t.Errorf("adding duplicate returns %v", err)
	}
	if _, err := reg.Lookup("nope"); !errors.As(err, new(*vm.UnknownFunctionError)) {
		t.Errorf("Lookup(nope) returns %v", err)
	}
	names := reg.Names()
	if len(names) != 10 || names[0] != "add_k" {
		t.Errorf("Names() = %v", names)
	}
	err := reg.Load(parse.Source{Name: "[bad]", Code: "f( {"})
	if err == nil {
		t.Errorf("loading bad source succeeds")
	}
}
