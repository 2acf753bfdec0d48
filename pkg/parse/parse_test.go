package parse

import (
	"errors"
	"strings"
	"testing"

	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/tt"
	"src.adam.sh/pkg/vals"
)

// Builds an array. Strings starting with "@" or "." become names; a nil
// becomes empty.
func code(xs ...any) vals.Array {
	a := make(vals.Array, len(xs))
	for i, x := range xs {
		if s, ok := x.(string); ok && s != "" && (s[0] == '@' || s[0] == '.') {
			a[i] = vals.NameValue(vals.Name(strings.TrimPrefix(s, "@")))
			continue
		}
		a[i] = vals.Of(x)
	}
	return a
}

func expr(src string) (vals.Array, error) {
	return Expression(Source{Name: "[test]", Code: src})
}

func TestExpression(t *testing.T) {
	tt.Test(t, tt.Fn("Expression", expr), tt.Table{
		// Literals
		tt.Args("1").Rets(code(1.0), nil),
		tt.Args("1.5e2").Rets(code(150.0), nil),
		tt.Args("-2").Rets(code(-2.0), nil),
		tt.Args(`'a\n'`).Rets(code(`a\n`), nil),
		tt.Args(`"a\n"`).Rets(code("a\n"), nil),
		tt.Args("@foo").Rets(code("@foo"), nil),
		tt.Args("true").Rets(code(true), nil),
		tt.Args("empty").Rets(code(nil), nil),
		// Variables and operators
		tt.Args("x").Rets(code("@x", ".variable"), nil),
		tt.Args("1 + 2 * 3").Rets(code(1.0, 2.0, 3.0, ".multiply", ".add"), nil),
		tt.Args("(1 + 2) * 3").Rets(code(1.0, 2.0, ".add", 3.0, ".multiply"), nil),
		tt.Args("1 - 2 - 3").Rets(code(1.0, 2.0, ".subtract", 3.0, ".subtract"), nil),
		tt.Args("a < b == true").Rets(
			code("@a", ".variable", "@b", ".variable", ".less", true, ".equal"), nil),
		tt.Args("-x").Rets(code("@x", ".variable", ".unary_negate"), nil),
		tt.Args("!true").Rets(code(true, ".not"), nil),
		tt.Args("a && b || c").Rets(code(
			"@a", ".variable", code("@b", ".variable"), ".and",
			code("@c", ".variable"), ".or"), nil),
		tt.Args("c ? 1 : 2").Rets(code("@c", ".variable", code(1.0), code(2.0), ".ifelse"), nil),
		// Indexing
		tt.Args("a[0]").Rets(code("@a", ".variable", 0.0, ".index"), nil),
		tt.Args("d.k").Rets(code("@d", ".variable", "@k", ".index"), nil),
		// Constructions and calls
		tt.Args("[1, 'x']").Rets(code(1.0, "x", 2, ".array"), nil),
		tt.Args("[]").Rets(code(0, ".array"), nil),
		tt.Args("{a: 1}").Rets(code("@a", 1.0, 1, ".dictionary"), nil),
		tt.Args("f(1, 2)").Rets(code(1.0, 2.0, 2, ".array", "@f", ".function"), nil),
		tt.Args("f()").Rets(code(0, ".array", "@f", ".function"), nil),
		tt.Args("f(k: 1)").Rets(code("@k", 1.0, 1, ".dictionary", "@f", ".function"), nil),
		// Comments
		tt.Args("1 /* one */ + // plus\n 2").Rets(code(1.0, 2.0, ".add"), nil),
	})
}

func TestExpression_Errors(t *testing.T) {
	for _, test := range []struct {
		src     string
		wantMsg string
		partial bool
	}{
		{"1 +", "want expression, got end of input", true},
		{"(1", `want ")", got end of input`, true},
		{"1 2", "want end of input", false},
		{"'abc", "string not terminated", false},
		{"#", "unexpected character", false},
		{"f(a: 1, 2)", "want identifier", false},
		{"return", "return is a keyword", false},
	} {
		_, err := expr(test.src)
		var e *diag.Error
		if !errors.As(err, &e) {
			t.Errorf("Expression(%q) returns error %v, want *diag.Error", test.src, err)
			continue
		}
		if e.Type != ErrorType || !strings.Contains(e.Message, test.wantMsg) {
			t.Errorf("Expression(%q) returns %v, want message containing %q", test.src, e, test.wantMsg)
		}
		if e.Partial != test.partial {
			t.Errorf("Expression(%q) error Partial = %v, want %v", test.src, e.Partial, test.partial)
		}
	}
}

func stmts(src string) ([]vals.Array, error) {
	return Statements(Source{Name: "[test]", Code: src})
}

func TestStatements(t *testing.T) {
	tt.Test(t, tt.Fn("Statements", stmts), tt.Table{
		tt.Args("constant a : 1;").Rets(
			[]vals.Array{code("@a", code(1.0), ".const_decl")}, nil),
		tt.Args("a;").Rets(
			[]vals.Array{code("@a", code(nil), ".decl")}, nil),
		tt.Args("a = b + 1;").Rets(
			[]vals.Array{code("@a", ".lvalue", "@b", ".variable", 1.0, ".add", ".assign")}, nil),
		tt.Args("return 1;").Rets(
			[]vals.Array{code(1.0, ".return")}, nil),
		tt.Args("break; continue;").Rets(
			[]vals.Array{code(".break"), code(".continue")}, nil),
		tt.Args("if (c) return 1; else { return 2; }").Rets(
			[]vals.Array{code(
				code("@c", ".variable"),
				code(code(1.0, ".return")),
				code(code(2.0, ".return")),
				".stmt_ifelse")}, nil),
		tt.Args("if (c) {}").Rets(
			[]vals.Array{code(code("@c", ".variable"), code(), code(), ".stmt_ifelse")}, nil),
		tt.Args("for (v : a) x = v;").Rets(
			[]vals.Array{code(
				nil, "@v", code("@a", ".variable"),
				code(code("@x", ".lvalue", "@v", ".variable", ".assign")),
				".simple_for")}, nil),
		tt.Args("for (k, v : d) {}").Rets(
			[]vals.Array{code("@k", "@v", code("@d", ".variable"), code(), ".simple_for")}, nil),
	})
}

func TestFunctions(t *testing.T) {
	defs, err := Functions(Source{Name: "[test]", Code: `
		double(x) { return x * 2; }
		none() { }
	`})
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d functions, want 2", len(defs))
	}
	d := defs[0]
	if d.Name != "double" || len(d.Params) != 1 || d.Params[0] != "x" {
		t.Errorf("got function %s%v", d.Name, d.Params)
	}
	want := code("@x", ".variable", 2.0, ".multiply", ".return")
	if len(d.Statements) != 1 || !d.Statements[0].Equal(want) {
		t.Errorf("got statements %v, want [%v]", d.Statements, want)
	}
	if defs[1].Name != "none" || len(defs[1].Params) != 0 || len(defs[1].Statements) != 0 {
		t.Errorf("got %+v", defs[1])
	}
}

type addedView struct {
	parent ViewID
	name   vals.Name
	params vals.Array
}

type recorder struct {
	cells []Cell
	views []addedView
	err   error
}

func (r *recorder) AddCell(c Cell) error {
	if r.err != nil {
		return r.err
	}
	c.Ranging = diag.Ranging{}
	r.cells = append(r.cells, c)
	return nil
}

func (r *recorder) AddView(parent ViewID, name vals.Name, params vals.Array, _ diag.Ranging) (ViewID, error) {
	r.views = append(r.views, addedView{parent, name, params})
	return ViewID(len(r.views)), nil
}

func TestSheet(t *testing.T) {
	r := &recorder{}
	name, err := Sheet(Source{Name: "[test]", Code: `
		sheet example {
		constant:
			k : 1;
		input:
			in : 2;
		interface:
			x : 5 <== in * 2;
			y : 1;
			z <== x;
		output:
			out <== x + k;
		invariant:
			positive <== out > 0;
		}`}, r)
	if err != nil {
		t.Fatal(err)
	}
	if name != "example" {
		t.Errorf("got sheet name %q", name)
	}
	want := []Cell{
		{Kind: Constant, Name: "k", Init: code(1.0)},
		{Kind: Input, Name: "in", Init: code(2.0)},
		{Kind: Interface, Name: "x", Init: code(5.0), Expr: code("@in", ".variable", 2.0, ".multiply")},
		{Kind: Interface, Name: "y", Init: code(1.0)},
		{Kind: Interface, Name: "z", Expr: code("@x", ".variable")},
		{Kind: Output, Name: "out", Expr: code("@x", ".variable", "@k", ".variable", ".add")},
		{Kind: Invariant, Name: "positive", Expr: code("@out", ".variable", 0.0, ".greater")},
	}
	if len(r.cells) != len(want) {
		t.Fatalf("got %d cells, want %d", len(r.cells), len(want))
	}
	for i, c := range r.cells {
		w := want[i]
		if c.Kind != w.Kind || c.Name != w.Name || !c.Init.Equal(w.Init) || !c.Expr.Equal(w.Expr) {
			t.Errorf("cell %d: got %+v, want %+v", i, c, w)
		}
	}
}

func TestSheet_Errors(t *testing.T) {
	for _, test := range []struct {
		src     string
		wantMsg string
	}{
		{"sheet s { x : 1; }", "want section label"},
		{"sheet s { output: x : 1; }", "output cell needs an expression"},
		{"sheet s { constant: x <== 1; }", "constant cell needs an initializer"},
		{"sheet s { interface: x; }", "interface cell needs an initializer or an expression"},
		{"sheet s { constant: x : 1;", `want "}"`},
	} {
		_, err := Sheet(Source{Name: "[test]", Code: test.src}, &recorder{})
		if err == nil || !strings.Contains(err.Error(), test.wantMsg) {
			t.Errorf("Sheet(%q) returns %v, want error containing %q", test.src, err, test.wantMsg)
		}
	}

	_, err := Sheet(Source{Name: "[test]", Code: "sheet s { constant: x : 1; }"},
		&recorder{err: errors.New("duplicate cell x")})
	var e *diag.Error
	if !errors.As(err, &e) || e.Message != "duplicate cell x" {
		t.Errorf("got error %v, want callback error", err)
	} else if line, col := e.Context.Position(); line != 1 || col != 21 {
		t.Errorf("callback error reported at %d:%d, want 1:21", line, col)
	}
}

func TestLayout(t *testing.T) {
	r := &recorder{}
	_, err := Layout(Source{Name: "[test]", Code: `
		layout dialog {
		interface:
			x : 5;
		view window(name: "Example") {
			edit(bind: @x);
			row() {
				button(name: "OK");
			}
		}
		}`}, r)
	if err != nil {
		t.Fatal(err)
	}
	want := []addedView{
		{RootView, "window", code("@name", "Example", 1, ".dictionary")},
		{1, "edit", code("@bind", "@x", 1, ".dictionary")},
		{1, "row", code(0, ".dictionary")},
		{3, "button", code("@name", "OK", 1, ".dictionary")},
	}
	if len(r.views) != len(want) {
		t.Fatalf("got %d views, want %d", len(r.views), len(want))
	}
	for i, v := range r.views {
		if v.parent != want[i].parent || v.name != want[i].name || !v.params.Equal(want[i].params) {
			t.Errorf("view %d: got %+v, want %+v", i, v, want[i])
		}
	}
	if len(r.cells) != 1 || r.cells[0].Kind != Interface {
		t.Errorf("got cells %+v", r.cells)
	}

	_, err = Layout(Source{Name: "[test]", Code: "layout l { output: x <== 1; }"}, r)
	if err == nil || !strings.Contains(err.Error(), "not allowed in a layout") {
		t.Errorf("got error %v, want section error", err)
	}
	_, err = Layout(Source{Name: "[test]", Code: "layout l { view v(1); }"}, r)
	if err == nil || !strings.Contains(err.Error(), "must be named") {
		t.Errorf("got error %v, want named parameter error", err)
	}
}

func TestIsIdentifier(t *testing.T) {
	tt.Test(t, tt.Fn("IsIdentifier", IsIdentifier), tt.Table{
		tt.Args("foo").Rets(true),
		tt.Args("_a1").Rets(true),
		tt.Args("1a").Rets(false),
		tt.Args("a-b").Rets(false),
		tt.Args("if").Rets(false),
		tt.Args("").Rets(false),
	})
}
