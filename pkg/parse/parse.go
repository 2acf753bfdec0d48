// Package parse implements the textual front end of Adam: expressions,
// function bodies, sheets and layouts. Everything is compiled to the postfix
// arrays executed by package vm.
package parse

import (
	"fmt"

	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Source describes a piece of source code.
type Source struct {
	Name string
	Code string
}

// ErrorType is the type of all parse errors.
const ErrorType = "parse error"

// Expression parses a single expression.
func Expression(src Source) (vals.Array, error) {
	var expr vals.Array
	err := run(src, func(p *parser) {
		expr = p.expression()
		p.expect(tEOF, "")
	})
	return expr, err
}

// Statements parses a sequence of statements, as found in a function body.
func Statements(src Source) ([]vals.Array, error) {
	var stmts []vals.Array
	err := run(src, func(p *parser) {
		for p.tok.typ != tEOF {
			stmts = append(stmts, p.statement())
		}
	})
	return stmts, err
}

// FunctionDef is a function parsed from a function file.
type FunctionDef struct {
	Name       vals.Name
	Params     []vals.Name
	Statements []vals.Array
	diag.Ranging
}

// Functions parses a function file, a sequence of definitions of the form
//
//	name(param, ...) { statements }
func Functions(src Source) ([]FunctionDef, error) {
	var defs []FunctionDef
	err := run(src, func(p *parser) {
		for p.tok.typ != tEOF {
			defs = append(defs, p.function())
		}
	})
	return defs, err
}

type parser struct {
	src  Source
	lx   lexer
	tok  token
	prev token
}

// Parse errors unwind the parser with a panic of this type.
type parseFailure struct{ err *diag.Error }

func run(src Source, f func(*parser)) (err error) {
	p := &parser{src: src, lx: lexer{src: src.Code}}
	defer func() {
		if r := recover(); r != nil {
			failure, ok := r.(parseFailure)
			if !ok {
				panic(r)
			}
			err = failure.err
		}
	}()
	p.advance()
	f(p)
	return nil
}

func (p *parser) advance() {
	p.prev = p.tok
	tok, lerr := p.lx.next()
	if lerr != nil {
		p.errorAt(lerr.Ranging, lerr.msg)
	}
	p.tok = tok
}

func (p *parser) errorAt(r diag.Ranger, msg string) {
	rg := r.Range()
	panic(parseFailure{&diag.Error{
		Type:    ErrorType,
		Message: msg,
		Context: *diag.NewContext(p.src.Name, p.src.Code, rg),
		Partial: rg.From == len(p.src.Code),
	}})
}

func (p *parser) errorf(format string, args ...any) {
	p.errorAt(p.tok, fmt.Sprintf(format, args...))
}

// Reports whether the current token is the punctuation s, consuming it if
// so.
func (p *parser) accept(s string) bool {
	if p.tok.is(tPunct, s) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(s string) bool {
	if p.tok.is(tIdent, s) {
		p.advance()
		return true
	}
	return false
}

// Consumes a token of the given type and text, or fails. An empty text
// matches any token of the type.
func (p *parser) expect(typ tokenType, text string) token {
	if p.tok.typ != typ || (text != "" && p.tok.text != text) {
		want := text
		switch {
		case typ == tEOF:
			want = "end of input"
		case want == "":
			want = "identifier"
		default:
			want = fmt.Sprintf("%q", text)
		}
		p.errorf("want %s, got %s", want, p.tok)
	}
	t := p.tok
	p.advance()
	return t
}

func (p *parser) punct(s string) token { return p.expect(tPunct, s) }

// Consumes an identifier that is not a keyword.
func (p *parser) ident() vals.Name {
	if p.tok.typ == tIdent && keywords[p.tok.text] {
		p.errorf("%s is a keyword", p.tok.text)
	}
	return vals.Name(p.expect(tIdent, "").text)
}

func name(n vals.Name) vals.Value { return vals.NameValue(n) }

func op(n vals.Name) vals.Value { return vals.NameValue(n) }

func (p *parser) function() FunctionDef {
	begin := p.tok.From
	def := FunctionDef{Name: p.ident()}
	p.punct("(")
	if !p.accept(")") {
		for {
			def.Params = append(def.Params, p.ident())
			if p.accept(")") {
				break
			}
			p.punct(",")
		}
	}
	def.Statements = p.block()
	def.Ranging = diag.Ranging{From: begin, To: p.prev.To}
	return def
}

func (p *parser) block() []vals.Array {
	p.punct("{")
	var stmts []vals.Array
	for !p.accept("}") {
		if p.tok.typ == tEOF {
			p.errorf("want \"}\", got %s", p.tok)
		}
		stmts = append(stmts, p.statement())
	}
	return stmts
}

// A block or a single statement, as allowed after if, else and for.
func (p *parser) substatements() vals.Array {
	if p.tok.is(tPunct, "{") {
		return toArray(p.block())
	}
	return vals.Array{vals.ArrayValue(p.statement())}
}

func toArray(stmts []vals.Array) vals.Array {
	a := make(vals.Array, len(stmts))
	for i, s := range stmts {
		a[i] = vals.ArrayValue(s)
	}
	return a
}

func (p *parser) statement() vals.Array {
	switch {
	case p.acceptKeyword("constant"):
		n := p.ident()
		init := p.declInit()
		return vals.Array{name(n), vals.ArrayValue(init), op(vm.OpConstDecl)}
	case p.acceptKeyword("break"):
		p.punct(";")
		return vals.Array{op(vm.OpBreak)}
	case p.acceptKeyword("continue"):
		p.punct(";")
		return vals.Array{op(vm.OpContinue)}
	case p.acceptKeyword("return"):
		expr := p.expression()
		p.punct(";")
		return append(expr, op(vm.OpReturn))
	case p.acceptKeyword("if"):
		p.punct("(")
		cond := p.expression()
		p.punct(")")
		then := p.substatements()
		els := vals.Array{}
		if p.acceptKeyword("else") {
			els = p.substatements()
		}
		return vals.Array{vals.ArrayValue(cond), vals.ArrayValue(then), vals.ArrayValue(els), op(vm.OpStmtIfElse)}
	case p.acceptKeyword("for"):
		p.punct("(")
		first := p.ident()
		key, value := vals.Empty, name(first)
		if p.accept(",") {
			key, value = name(first), name(p.ident())
		}
		p.punct(":")
		seq := p.expression()
		p.punct(")")
		body := p.substatements()
		return vals.Array{key, value, vals.ArrayValue(seq), vals.ArrayValue(body), op(vm.OpSimpleFor)}
	}
	n := p.ident()
	if p.accept("=") {
		stmt := vals.Array{name(n), op(vm.OpLvalue)}
		stmt = append(stmt, p.expression()...)
		p.punct(";")
		return append(stmt, op(vm.OpAssign))
	}
	init := p.declInit()
	return vals.Array{name(n), vals.ArrayValue(init), op(vm.OpDecl)}
}

// Parses "[: expr] ;". A missing initializer evaluates to empty.
func (p *parser) declInit() vals.Array {
	init := vm.Literal(vals.Empty)
	if p.accept(":") {
		init = p.expression()
	}
	p.punct(";")
	return init
}
