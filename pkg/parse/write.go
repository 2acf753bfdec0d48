package parse

import (
	"fmt"
	"io"
	"math"
	"strings"

	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Precedences of written expressions; higher binds tighter.
const (
	precTernary = 1
	precUnary   = 8
	precAtom    = 9
)

var binaryPrec = map[vals.Name]int{}

func init() {
	for i, level := range binaryLevels {
		for _, o := range level {
			binaryPrec[o] = i + 2
		}
	}
}

// WriteError is returned when an array cannot be written back as source.
type WriteError struct {
	Message string
	Expr    vals.Array
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write %s: %s", vals.Repr(vals.ArrayValue(e.Expr)), e.Message)
}

// A partially written expression.
type written struct {
	text string
	prec int
	// The raw value, for literals.
	lit   vals.Value
	isLit bool
	// Elements of an array or dictionary construction, kept for function
	// calls.
	elems     []string
	construct bool
}

func (w written) paren(min int) string {
	if w.prec < min {
		return "(" + w.text + ")"
	}
	return w.text
}

// FormatExpression writes an expression array back as source text. Parsing
// the result yields an equal array, except that literal arrays and
// dictionaries are read back as constructions.
func FormatExpression(expr vals.Array) (string, error) {
	w, err := formatExpr(expr)
	if err != nil {
		return "", err
	}
	return w.text, nil
}

func formatExpr(expr vals.Array) (written, error) {
	var stack []written
	fail := func(msg string) (written, error) {
		return written{}, &WriteError{msg, expr}
	}
	pop := func() (written, bool) {
		if len(stack) == 0 {
			return written{}, false
		}
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return w, true
	}
	for _, x := range expr {
		if !vm.IsOpcode(x) {
			stack = append(stack, written{text: vals.Repr(x), prec: precAtom, lit: x, isLit: true})
			continue
		}
		o := vals.MustCast[vals.Name](x)
		switch {
		case o == vm.OpVariable:
			n, ok := pop()
			v, isName := n.lit.AsName()
			if !ok || !isName {
				return fail("variable needs a name")
			}
			stack = append(stack, written{text: string(v), prec: precAtom})
		case o == vm.OpIndex:
			idx, ok1 := pop()
			base, ok2 := pop()
			if !ok1 || !ok2 {
				return fail("index needs two operands")
			}
			text := base.paren(precAtom)
			if k, ok := idx.lit.AsName(); ok && idx.isLit && IsIdentifier(string(k)) {
				text += "." + string(k)
			} else {
				text += "[" + idx.text + "]"
			}
			stack = append(stack, written{text: text, prec: precAtom})
		case o == vm.OpArray || o == vm.OpDictionary:
			c, ok := pop()
			n, err := vals.Cast[float64](c.lit)
			if !ok || err != nil || n < 0 || n != math.Trunc(n) {
				return fail("construction needs a count")
			}
			count := int(n)
			if o == vm.OpDictionary {
				count *= 2
			}
			if len(stack) < count {
				return fail("not enough elements")
			}
			items := stack[len(stack)-count:]
			stack = stack[:len(stack)-count]
			var elems []string
			if o == vm.OpArray {
				for _, it := range items {
					elems = append(elems, it.text)
				}
			} else {
				for i := 0; i < count; i += 2 {
					k, ok := items[i].lit.AsName()
					if !ok {
						return fail("dictionary key must be a name")
					}
					elems = append(elems, string(k)+": "+items[i+1].text)
				}
			}
			open, close := "[", "]"
			if o == vm.OpDictionary {
				open, close = "{", "}"
			}
			stack = append(stack, written{
				text: open + strings.Join(elems, ", ") + close, prec: precAtom,
				elems: elems, construct: true})
		case o == vm.OpFunction:
			n, ok1 := pop()
			args, ok2 := pop()
			f, isName := n.lit.AsName()
			if !ok1 || !ok2 || !isName || !args.construct {
				return fail("function call needs arguments and a name")
			}
			text := string(f) + "(" + strings.Join(args.elems, ", ") + ")"
			stack = append(stack, written{text: text, prec: precAtom})
		case o == vm.OpAnd || o == vm.OpOr:
			block, ok1 := pop()
			lhs, ok2 := pop()
			if !ok1 || !ok2 {
				return fail(string(o) + " needs two operands")
			}
			rhs, err := formatBlock(block)
			if err != nil {
				return written{}, err
			}
			p := binaryPrec[o]
			stack = append(stack, written{text: lhs.paren(p) + " " + vm.BinaryOps[o] + " " + rhs.paren(p+1), prec: p})
		case binaryPrec[o] != 0:
			rhs, ok1 := pop()
			lhs, ok2 := pop()
			if !ok1 || !ok2 {
				return fail(string(o) + " needs two operands")
			}
			p := binaryPrec[o]
			stack = append(stack, written{text: lhs.paren(p) + " " + vm.BinaryOps[o] + " " + rhs.paren(p+1), prec: p})
		case o == vm.OpNegate || o == vm.OpNot:
			operand, ok := pop()
			if !ok {
				return fail(string(o) + " needs an operand")
			}
			sign := "-"
			if o == vm.OpNot {
				sign = "!"
			}
			stack = append(stack, written{text: sign + operand.paren(precUnary), prec: precUnary})
		case o == vm.OpIfElse:
			elsBlock, ok1 := pop()
			thenBlock, ok2 := pop()
			cond, ok3 := pop()
			if !ok1 || !ok2 || !ok3 {
				return fail("ifelse needs three operands")
			}
			then, err := formatBlock(thenBlock)
			if err != nil {
				return written{}, err
			}
			els, err := formatBlock(elsBlock)
			if err != nil {
				return written{}, err
			}
			stack = append(stack, written{
				text: cond.paren(precTernary+1) + " ? " + then.text + " : " + els.text,
				prec: precTernary})
		default:
			return fail("unknown opcode " + string(o))
		}
	}
	if len(stack) != 1 {
		return fail(fmt.Sprintf("expression leaves %d values", len(stack)))
	}
	return stack[0], nil
}

func formatBlock(block written) (written, error) {
	a, err := vals.Cast[vals.Array](block.lit)
	if !block.isLit || err != nil {
		return written{}, &WriteError{"want a nested expression", nil}
	}
	return formatExpr(a)
}

// WriteStatement writes a statement, indented by the given number of levels
// of 4 spaces. Nested blocks are always written with braces.
func WriteStatement(w io.Writer, stmt vals.Array, indent int) error {
	var sb strings.Builder
	if err := formatStmt(&sb, stmt, indent); err != nil {
		return err
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatStmt(sb *strings.Builder, stmt vals.Array, indent int) error {
	fail := func(msg string) error { return &WriteError{msg, stmt} }
	if len(stmt) == 0 || !vm.IsOpcode(stmt[len(stmt)-1]) {
		return fail("statement must end with an opcode")
	}
	pad := strings.Repeat("    ", indent)
	args := stmt[:len(stmt)-1]
	switch o := vals.MustCast[vals.Name](stmt[len(stmt)-1]); o {
	case vm.OpConstDecl, vm.OpDecl:
		if len(args) != 2 || args[0].Kind() != vals.NameKind || args[1].Kind() != vals.ArrayKind {
			return fail("malformed declaration")
		}
		sb.WriteString(pad)
		if o == vm.OpConstDecl {
			sb.WriteString("constant ")
		}
		sb.WriteString(string(vals.MustCast[vals.Name](args[0])))
		init := vals.MustCast[vals.Array](args[1])
		if !(len(init) == 1 && init[0].IsEmpty()) {
			text, err := FormatExpression(init)
			if err != nil {
				return err
			}
			sb.WriteString(": " + text)
		}
		sb.WriteString(";\n")
	case vm.OpAssign:
		if len(args) < 3 || args[0].Kind() != vals.NameKind || !vals.Equal(args[1], op(vm.OpLvalue)) {
			return fail("malformed assignment")
		}
		text, err := FormatExpression(args[2:])
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "%s%s = %s;\n", pad, vals.MustCast[vals.Name](args[0]), text)
	case vm.OpReturn:
		text, err := FormatExpression(args)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "%sreturn %s;\n", pad, text)
	case vm.OpBreak, vm.OpContinue:
		fmt.Fprintf(sb, "%s%s;\n", pad, strings.TrimPrefix(string(o), "."))
	case vm.OpStmtIfElse:
		if len(args) != 3 || args[0].Kind() != vals.ArrayKind {
			return fail("malformed if")
		}
		cond, err := FormatExpression(vals.MustCast[vals.Array](args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "%sif (%s) ", pad, cond)
		if err := formatBlockStmts(sb, args[1], indent); err != nil {
			return err
		}
		if els, _ := vals.Cast[vals.Array](args[2]); len(els) > 0 {
			sb.WriteString(" else ")
			if err := formatBlockStmts(sb, args[2], indent); err != nil {
				return err
			}
		}
		sb.WriteString("\n")
	case vm.OpSimpleFor:
		if len(args) != 4 || args[1].Kind() != vals.NameKind || args[2].Kind() != vals.ArrayKind {
			return fail("malformed for")
		}
		seq, err := FormatExpression(vals.MustCast[vals.Array](args[2]))
		if err != nil {
			return err
		}
		names := string(vals.MustCast[vals.Name](args[1]))
		if k, ok := args[0].AsName(); ok {
			names = string(k) + ", " + names
		}
		fmt.Fprintf(sb, "%sfor (%s : %s) ", pad, names, seq)
		if err := formatBlockStmts(sb, args[3], indent); err != nil {
			return err
		}
		sb.WriteString("\n")
	default:
		return fail("unknown statement opcode " + string(o))
	}
	return nil
}

func formatBlockStmts(sb *strings.Builder, v vals.Value, indent int) error {
	block, err := vals.Cast[vals.Array](v)
	if err != nil {
		return &WriteError{"want a block", nil}
	}
	sb.WriteString("{\n")
	for _, s := range block {
		stmt, err := vals.Cast[vals.Array](s)
		if err != nil {
			return &WriteError{"want a statement", block}
		}
		if err := formatStmt(sb, stmt, indent+1); err != nil {
			return err
		}
	}
	sb.WriteString(strings.Repeat("    ", indent) + "}")
	return nil
}

// WriteFunction writes a function definition in the syntax read by
// Functions.
func WriteFunction(w io.Writer, def FunctionDef) error {
	var sb strings.Builder
	params := make([]string, len(def.Params))
	for i, p := range def.Params {
		params[i] = string(p)
	}
	fmt.Fprintf(&sb, "%s(%s)\n{\n", def.Name, strings.Join(params, ", "))
	for _, s := range def.Statements {
		if err := formatStmt(&sb, s, 1); err != nil {
			return err
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
