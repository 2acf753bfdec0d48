package vm

import "src.adam.sh/pkg/vals"

// Opcodes. An expression array is a postfix program: every element that is
// not an opcode is pushed as a literal; an opcode pops its operands and
// pushes one result. Opcodes are names whose text starts with '.'.
//
// Encodings of the less obvious constructs:
//
//	x             @x .variable
//	a && b        a [b] .and           (b is only evaluated when a is true)
//	a || b        a [b] .or
//	c ? a : b     c [a] [b] .ifelse
//	a[i], a.k     a i .index, a @k .index
//	[e1, e2]      e1 e2 2 .array
//	{k: e}        @k e 1 .dictionary
//	f(e1, e2)     e1 e2 2 .array @f .function
//	f(k: e)       @k e 1 .dictionary @f .function
const (
	OpVariable   vals.Name = ".variable"
	OpIndex      vals.Name = ".index"
	OpArray      vals.Name = ".array"
	OpDictionary vals.Name = ".dictionary"
	OpFunction   vals.Name = ".function"

	OpAdd          vals.Name = ".add"
	OpSubtract     vals.Name = ".subtract"
	OpMultiply     vals.Name = ".multiply"
	OpDivide       vals.Name = ".divide"
	OpModulus      vals.Name = ".modulus"
	OpLess         vals.Name = ".less"
	OpGreater      vals.Name = ".greater"
	OpLessEqual    vals.Name = ".less_equal"
	OpGreaterEqual vals.Name = ".greater_equal"
	OpEqual        vals.Name = ".equal"
	OpNotEqual     vals.Name = ".not_equal"

	OpNegate vals.Name = ".unary_negate"
	OpNot    vals.Name = ".not"
	OpAnd    vals.Name = ".and"
	OpOr     vals.Name = ".or"
	OpIfElse vals.Name = ".ifelse"
)

// Statement opcodes. A statement is an array whose last element is one of
// these:
//
//	@n [init] .const_decl
//	@n [init] .decl
//	@n .lvalue <expr...> .assign
//	<expr...> .return
//	[cond] [then-stmts] [else-stmts] .stmt_ifelse
//	@k @v [seq] [body-stmts] .simple_for     (@k may be empty)
//	.break
//	.continue
const (
	OpConstDecl  vals.Name = ".const_decl"
	OpDecl       vals.Name = ".decl"
	OpLvalue     vals.Name = ".lvalue"
	OpAssign     vals.Name = ".assign"
	OpReturn     vals.Name = ".return"
	OpStmtIfElse vals.Name = ".stmt_ifelse"
	OpSimpleFor  vals.Name = ".simple_for"
	OpBreak      vals.Name = ".break"
	OpContinue   vals.Name = ".continue"
)

// BinaryOps lists binary operators with their source spelling.
var BinaryOps = map[vals.Name]string{
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpModulus:      "%",
	OpLess:         "<",
	OpGreater:      ">",
	OpLessEqual:    "<=",
	OpGreaterEqual: ">=",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpAnd:          "&&",
	OpOr:           "||",
}

// IsOpcode reports whether v is an opcode rather than a literal.
func IsOpcode(v vals.Value) bool {
	n, ok := v.AsName()
	return ok && len(n) > 0 && n[0] == '.'
}

// Literal returns an expression that evaluates to v.
func Literal(v vals.Value) vals.Array { return vals.Array{v} }

// Variable returns an expression that reads the named variable.
func Variable(n vals.Name) vals.Array {
	return vals.Array{vals.NameValue(n), vals.NameValue(OpVariable)}
}

// FreeVariables returns the names read with .variable anywhere in expr,
// including in nested arrays such as the operands of .and, .or and .ifelse
// and statement bodies. Each name appears once, in order of first
// appearance.
func FreeVariables(expr vals.Array) []vals.Name {
	var names []vals.Name
	seen := map[vals.Name]bool{}
	walkPairs(expr, OpVariable, func(n vals.Name) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	})
	return names
}

// CalledFunctions returns the names of functions called with .function
// anywhere in expr, once each, in order of first appearance.
func CalledFunctions(expr vals.Array) []vals.Name {
	var names []vals.Name
	seen := map[vals.Name]bool{}
	walkPairs(expr, OpFunction, func(n vals.Name) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	})
	return names
}

// Calls f for every name immediately followed by op in expr and its nested
// arrays.
func walkPairs(expr vals.Array, op vals.Name, f func(vals.Name)) {
	for i, x := range expr {
		if a, err := vals.Cast[vals.Array](x); err == nil {
			walkPairs(a, op, f)
			continue
		}
		n, ok := x.AsName()
		if !ok || i+1 >= len(expr) {
			continue
		}
		if next, ok := expr[i+1].AsName(); ok && next == op {
			f(n)
		}
	}
}
