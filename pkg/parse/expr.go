package parse

import (
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Binary operator levels, from the loosest binding to the tightest. The
// ternary operator binds looser than all of them; unary operators bind
// tighter.
var binaryLevels = []map[string]vals.Name{
	{"||": vm.OpOr},
	{"&&": vm.OpAnd},
	{"==": vm.OpEqual, "!=": vm.OpNotEqual},
	{"<": vm.OpLess, ">": vm.OpGreater, "<=": vm.OpLessEqual, ">=": vm.OpGreaterEqual},
	{"+": vm.OpAdd, "-": vm.OpSubtract},
	{"*": vm.OpMultiply, "/": vm.OpDivide, "%": vm.OpModulus},
}

func (p *parser) expression() vals.Array {
	cond := p.binary(0)
	if !p.accept("?") {
		return cond
	}
	then := p.expression()
	p.punct(":")
	els := p.expression()
	return append(cond, vals.ArrayValue(then), vals.ArrayValue(els), op(vm.OpIfElse))
}

func (p *parser) binary(level int) vals.Array {
	if level == len(binaryLevels) {
		return p.unary()
	}
	lhs := p.binary(level + 1)
	for {
		if p.tok.typ != tPunct {
			return lhs
		}
		o, ok := binaryLevels[level][p.tok.text]
		if !ok {
			return lhs
		}
		p.advance()
		rhs := p.binary(level + 1)
		if o == vm.OpAnd || o == vm.OpOr {
			lhs = append(lhs, vals.ArrayValue(rhs), op(o))
		} else {
			lhs = append(append(lhs, rhs...), op(o))
		}
	}
}

func (p *parser) unary() vals.Array {
	switch {
	case p.accept("-"):
		if p.tok.typ == tNumber {
			n := p.tok.num
			p.advance()
			return p.postfix(vm.Literal(vals.Num(-n)))
		}
		return append(p.unary(), op(vm.OpNegate))
	case p.accept("!"):
		return append(p.unary(), op(vm.OpNot))
	}
	return p.postfix(p.primary())
}

func (p *parser) postfix(expr vals.Array) vals.Array {
	for {
		switch {
		case p.accept("["):
			expr = append(expr, p.expression()...)
			p.punct("]")
		case p.accept("."):
			expr = append(expr, name(p.ident()))
		default:
			return expr
		}
		expr = append(expr, op(vm.OpIndex))
	}
}

func (p *parser) primary() vals.Array {
	t := p.tok
	switch t.typ {
	case tNumber:
		p.advance()
		return vm.Literal(vals.Num(t.num))
	case tString:
		p.advance()
		return vm.Literal(vals.String(t.text))
	case tName:
		p.advance()
		return vm.Literal(name(vals.Name(t.text)))
	case tIdent:
		switch t.text {
		case "true", "false":
			p.advance()
			return vm.Literal(vals.Bool(t.text == "true"))
		case "empty":
			p.advance()
			return vm.Literal(vals.Empty)
		}
		n := p.ident()
		if p.tok.is(tPunct, "(") {
			return append(p.arguments(), name(n), op(vm.OpFunction))
		}
		return vm.Variable(n)
	case tPunct:
		switch t.text {
		case "(":
			p.advance()
			expr := p.expression()
			p.punct(")")
			return expr
		case "[":
			p.advance()
			var expr vals.Array
			n := 0
			for !p.accept("]") {
				if n > 0 {
					p.punct(",")
				}
				expr = append(expr, p.expression()...)
				n++
			}
			return append(expr, vals.Int(n), op(vm.OpArray))
		case "{":
			p.advance()
			return p.namedList("}")
		}
	}
	p.errorf("want expression, got %s", t)
	return nil
}

// Parses a parenthesized argument list, either all positional or all named,
// and returns it as an array or dictionary expression.
func (p *parser) arguments() vals.Array {
	p.punct("(")
	if p.tok.typ == tIdent && p.peekColon() {
		return p.namedList(")")
	}
	var expr vals.Array
	n := 0
	for !p.accept(")") {
		if n > 0 {
			p.punct(",")
		}
		expr = append(expr, p.expression()...)
		n++
	}
	return append(expr, vals.Int(n), op(vm.OpArray))
}

// Parses "k: e, ..." up to the closing punctuation into a dictionary
// expression.
func (p *parser) namedList(closing string) vals.Array {
	var expr vals.Array
	n := 0
	for !p.accept(closing) {
		if n > 0 {
			p.punct(",")
		}
		k := p.ident()
		p.punct(":")
		expr = append(append(expr, name(k)), p.expression()...)
		n++
	}
	return append(expr, vals.Int(n), op(vm.OpDictionary))
}

// Reports whether the token after the current one is ":".
func (p *parser) peekColon() bool {
	saved := p.lx
	t, err := p.lx.next()
	p.lx = saved
	return err == nil && t.is(tPunct, ":")
}
