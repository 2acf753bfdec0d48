package parse

import (
	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// CellKind is the kind of a cell declared in a sheet or layout.
type CellKind uint8

// Possible values of CellKind.
const (
	Constant CellKind = iota
	Input
	Interface
	Output
	Invariant
)

var cellKindNames = [...]string{"constant", "input", "interface", "output", "invariant"}

func (k CellKind) String() string {
	if int(k) < len(cellKindNames) {
		return cellKindNames[k]
	}
	return "!!invalid"
}

// Cell is a cell declaration. Init is the initializer, Expr the expression
// after "<=="; either may be nil.
type Cell struct {
	Kind CellKind
	Name vals.Name
	Init vals.Array
	Expr vals.Array
	diag.Ranging
}

// ViewID identifies a view added through Callbacks. The root of a layout is
// RootView.
type ViewID int

// RootView is the parent of the top-level views of a layout.
const RootView ViewID = 0

// Callbacks receives the declarations found in a sheet or layout, in source
// order. An error returned from a callback stops parsing and is reported at
// the position of the declaration.
type Callbacks interface {
	AddCell(c Cell) error
	// AddView adds a view with the given parent and returns its ID. Params is
	// a dictionary expression.
	AddView(parent ViewID, name vals.Name, params vals.Array, r diag.Ranging) (ViewID, error)
}

// Sheet parses an Adam sheet:
//
//	sheet name {
//	constant:
//	    k : 1;
//	input:
//	    in : 2;
//	interface:
//	    x : 5 <== in * 2;
//	output:
//	    out <== x + k;
//	invariant:
//	    positive <== out > 0;
//	}
//
// It returns the name of the sheet.
func Sheet(src Source, cb Callbacks) (vals.Name, error) {
	var sheetName vals.Name
	err := run(src, func(p *parser) {
		sheetName = p.container("sheet", cb)
	})
	return sheetName, err
}

// Layout parses a layout: cell sections limited to constant and interface,
// followed by view declarations.
//
//	layout name {
//	interface:
//	    x : 5;
//	view dialog(name: "Example") {
//	    edit(bind: @x);
//	}
//	}
func Layout(src Source, cb Callbacks) (vals.Name, error) {
	var layoutName vals.Name
	err := run(src, func(p *parser) {
		layoutName = p.container("layout", cb)
	})
	return layoutName, err
}

func (p *parser) container(keyword string, cb Callbacks) vals.Name {
	p.expect(tIdent, keyword)
	n := p.ident()
	p.punct("{")
	kind, haveKind := CellKind(0), false
	for !p.accept("}") {
		if p.tok.typ == tEOF {
			p.errorf("want \"}\", got %s", p.tok)
		}
		if keyword == "layout" && p.acceptKeyword("view") {
			p.view(cb, RootView)
			continue
		}
		if k, ok := p.section(keyword); ok {
			kind, haveKind = k, true
			continue
		}
		if !haveKind {
			p.errorf("want section label, got %s", p.tok)
		}
		p.cell(cb, kind)
	}
	p.expect(tEOF, "")
	return n
}

// Parses "label:" if the current token starts one.
func (p *parser) section(keyword string) (CellKind, bool) {
	if p.tok.typ != tIdent || !p.peekColon() {
		return 0, false
	}
	for i, label := range cellKindNames {
		if p.tok.text != label {
			continue
		}
		kind := CellKind(i)
		if keyword == "layout" && kind != Constant && kind != Interface {
			p.errorf("%s section not allowed in a layout", label)
		}
		p.advance()
		p.advance()
		return kind, true
	}
	return 0, false
}

func (p *parser) cell(cb Callbacks, kind CellKind) {
	begin := p.tok.From
	c := Cell{Kind: kind, Name: p.ident()}
	if p.accept(":") {
		c.Init = p.expression()
	}
	if p.accept("<==") {
		c.Expr = p.expression()
	}
	p.punct(";")
	c.Ranging = diag.Ranging{From: begin, To: p.prev.To}

	switch kind {
	case Constant, Input:
		if c.Init == nil || c.Expr != nil {
			p.errorAt(c, kind.String()+" cell needs an initializer and no expression")
		}
	case Output, Invariant:
		if c.Init != nil || c.Expr == nil {
			p.errorAt(c, kind.String()+" cell needs an expression and no initializer")
		}
	case Interface:
		if c.Init == nil && c.Expr == nil {
			p.errorAt(c, "interface cell needs an initializer or an expression")
		}
	}
	if err := cb.AddCell(c); err != nil {
		p.errorAt(c, err.Error())
	}
}

// Parses "name(params) { children }" or "name(params);".
func (p *parser) view(cb Callbacks, parent ViewID) {
	begin := p.tok.From
	n := p.ident()
	params := p.arguments()
	switch last, _ := params[len(params)-1].AsName(); {
	case len(params) == 2:
		// No parameters.
		params = vals.Array{vals.Int(0), op(vm.OpDictionary)}
	case last != vm.OpDictionary:
		p.errorAt(diag.Ranging{From: begin, To: p.prev.To}, "view parameters must be named")
	}
	r := diag.Ranging{From: begin, To: p.prev.To}
	id, err := cb.AddView(parent, n, params, r)
	if err != nil {
		p.errorAt(r, err.Error())
	}
	if p.accept(";") {
		return
	}
	p.punct("{")
	for !p.accept("}") {
		if p.tok.typ == tEOF {
			p.errorf("want \"}\", got %s", p.tok)
		}
		p.view(cb, id)
	}
}
