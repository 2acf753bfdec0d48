package basicsheet

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/sheet"
	"src.adam.sh/pkg/tt"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

func e(src string) vals.Array {
	expr, err := parse.Expression(parse.Source{Name: "[test]", Code: src})
	if err != nil {
		panic(err)
	}
	return expr
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func load(t *testing.T, code string) *Sheet {
	t.Helper()
	s := New(vm.Env{})
	if _, err := s.Load(parse.Source{Name: "[test]", Code: code}); err != nil {
		t.Fatal(err)
	}
	return s
}

func printLayout(t *testing.T, s *Sheet) string {
	t.Helper()
	var sb strings.Builder
	must(t, s.Print(&sb, "name_ignored"))
	return sb.String()
}

func TestLoad_EvaluatesInitializers(t *testing.T) {
	s := load(t, `layout l { constant: x : 5; interface: y : x + 1; z : [x, y]; }`)
	want := vals.Dict{"y": vals.Num(6), "z": vals.Of(vals.MakeArray(5.0, 6.0))}
	if got := s.Contributing(); !got.Equal(want) {
		t.Errorf("Contributing() = %s, want %s", vals.DictValue(got), vals.DictValue(want))
	}
	tt.Test(t, tt.Fn("Get", s.Get), tt.Table{
		tt.Args(vals.Name("x")).Rets(vals.Num(5), nil),
		tt.Args(vals.Name("w")).Rets(vals.Empty, &sheet.NoCellError{Name: "w"}),
	})
	tt.Test(t, tt.Fn("CountInterface", s.CountInterface), tt.Table{
		tt.Args(vals.Name("x")).Rets(0),
		tt.Args(vals.Name("y")).Rets(1),
		tt.Args(vals.Name("w")).Rets(0),
	})
}

func TestLoad_Errors(t *testing.T) {
	for _, code := range []string{
		`layout l { constant: x : y; }`,
		`layout l { interface: x : 1; x : 2; }`,
		`layout l { interface: x : 1 <== 2; }`,
	} {
		_, err := New(vm.Env{}).Load(parse.Source{Name: "[test]", Code: code})
		if err == nil {
			t.Errorf("Load(%q) returns nil error", code)
		}
	}
}

func TestSet_FiresMonitorsImmediately(t *testing.T) {
	s := load(t, `layout l { constant: k : 1; interface: x : 1; }`)
	var got []vals.Value
	sub, err := s.Monitor("x", func(v vals.Value) { got = append(got, v) })
	must(t, err)
	must(t, s.Set("x", vals.Num(2)))
	// No change detection: setting the same value fires again.
	must(t, s.Set("x", vals.Num(2)))
	must(t, s.SetAll(vals.Dict{"x": vals.String("three")}))
	want := []vals.Value{vals.Num(1), vals.Num(2), vals.Num(2), vals.String("three")}
	if !cmp.Equal(got, want, tt.CommonCmpOpt) {
		t.Errorf("monitor called with %v, want %v", got, want)
	}

	sub.Disconnect()
	sub.Disconnect()
	must(t, s.Set("x", vals.Num(4)))
	if len(got) != len(want) {
		t.Errorf("monitor called after Disconnect")
	}

	if err := s.Set("k", vals.Num(2)); !errors.As(err, new(*sheet.NotInterfaceError)) {
		t.Errorf("Set on constant returns %v, want *sheet.NotInterfaceError", err)
	}
	if err := s.SetAll(vals.Dict{"nope": vals.Num(1)}); !errors.As(err, new(*sheet.NoCellError)) {
		t.Errorf("SetAll on unknown cell returns %v, want *sheet.NoCellError", err)
	}
	if _, err := s.Monitor("k", func(vals.Value) {}); err == nil {
		t.Errorf("Monitor on constant returns nil error")
	}
}

func TestAddView_UnknownParent(t *testing.T) {
	s := New(vm.Env{})
	if _, err := s.AddView(3, "dialog", e("{}")); err == nil {
		t.Errorf("AddView with unknown parent returns nil error")
	}
}

var printTests = []struct {
	name  string
	input string
	want  string
}{
	{
		name:  "cells",
		input: `layout l { constant: x : 5; interface: y : x + 1; z : 'a'; }`,
		want: "layout name_ignored\n{\n" +
			"constant:\n    x : 5;\n" +
			"\n" +
			"interface:\n    y : x + 1;\n    z : 'a';\n" +
			"}\n",
	},
	{
		name:  "empty view",
		input: `layout l { view dialog() {} }`,
		want:  "layout name_ignored\n{\n    view dialog()\n    {}\n}\n",
	},
	{
		name: "nested views",
		input: `layout l {
			interface: x : 1;
			view dialog(name: 'Example') {
				row() {
					edit(bind: @x);
					button(name: 'OK', default: true);
				}
				button(name: 'Cancel');
			}
		}`,
		want: "layout name_ignored\n{\n" +
			"interface:\n    x : 1;\n" +
			"\n" +
			"    view dialog(name: 'Example')\n" +
			"    {\n" +
			"        row()\n" +
			"        {\n" +
			"            edit(bind: @x);\n" +
			"            button(name: 'OK', default: true);\n" +
			"        }\n" +
			"        button(name: 'Cancel');\n" +
			"    }\n" +
			"}\n",
	},
}

func TestPrint(t *testing.T) {
	for _, test := range printTests {
		t.Run(test.name, func(t *testing.T) {
			got := printLayout(t, load(t, test.input))
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Print (-want +got):\n%s", diff)
			}
			// Printing is a fixed point.
			if again := printLayout(t, load(t, got)); again != got {
				t.Errorf("Print of printed layout differs:\n%s", cmp.Diff(got, again))
			}
		})
	}
}

func TestPrint_IgnoresSetValues(t *testing.T) {
	s := load(t, `layout l { interface: x : 1; }`)
	must(t, s.Set("x", vals.Num(10)))
	if got, want := printLayout(t, s), "layout name_ignored\n{\ninterface:\n    x : 1;\n}\n"; got != want {
		t.Errorf("Print = %q, want %q", got, want)
	}
}
