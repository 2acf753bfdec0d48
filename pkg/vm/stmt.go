package vm

import (
	"src.adam.sh/pkg/vals"
)

// Flow tells how a statement finished.
type Flow uint8

// Possible values of Flow.
const (
	Normal Flow = iota
	Return
	Break
	Continue
)

// Exec executes one statement. When the returned Flow is Return, the value
// is the function result; otherwise it is empty.
//
// Like Evaluate, it panics with a *MalformedError if the statement does not
// follow the encoding.
func (m *Machine) Exec(stmt vals.Array) (Flow, vals.Value, error) {
	if len(stmt) == 0 || !IsOpcode(stmt[len(stmt)-1]) {
		m.malformedStmt(stmt, "statement must end with an opcode")
	}
	op := vals.MustCast[vals.Name](stmt[len(stmt)-1])
	args := stmt[:len(stmt)-1]
	switch op {
	case OpConstDecl, OpDecl:
		if len(args) != 2 {
			m.malformedStmt(stmt, "declaration needs a name and an initializer")
		}
		name, init := stmtName(m, stmt, args[0]), stmtArray(m, stmt, args[1])
		decl := m.Env.Decl
		if op == OpConstDecl {
			decl = m.Env.ConstDecl
		}
		if decl == nil {
			return Normal, vals.Empty, ErrNoDeclaration
		}
		return Normal, vals.Empty, decl(name, init)
	case OpAssign:
		if len(args) < 3 || !vals.Equal(args[1], vals.NameValue(OpLvalue)) {
			m.malformedStmt(stmt, "assignment needs a name and an expression")
		}
		name := stmtName(m, stmt, args[0])
		v, err := m.evalSub(args[2:])
		if err != nil {
			return Normal, vals.Empty, err
		}
		if m.Env.Assign == nil {
			return Normal, vals.Empty, ErrNoDeclaration
		}
		return Normal, vals.Empty, m.Env.Assign(name, v)
	case OpReturn:
		v, err := m.evalSub(args)
		if err != nil {
			return Normal, vals.Empty, err
		}
		return Return, v, nil
	case OpStmtIfElse:
		if len(args) != 3 {
			m.malformedStmt(stmt, "if needs a condition and two blocks")
		}
		v, err := m.evalSub(stmtArray(m, stmt, args[0]))
		if err != nil {
			return Normal, vals.Empty, err
		}
		cond, err := castOperand[bool](op, "bool", v)
		if err != nil {
			return Normal, vals.Empty, err
		}
		if cond {
			return m.ExecBlock(stmtArray(m, stmt, args[1]))
		}
		return m.ExecBlock(stmtArray(m, stmt, args[2]))
	case OpSimpleFor:
		if len(args) != 4 {
			m.malformedStmt(stmt, "for needs two names, a sequence and a block")
		}
		return m.execFor(stmt, args)
	case OpBreak:
		return Break, vals.Empty, nil
	case OpContinue:
		return Continue, vals.Empty, nil
	}
	m.malformedStmt(stmt, "unknown statement opcode "+string(op))
	return Normal, vals.Empty, nil
}

// ExecBlock executes statements in order, stopping at the first one that
// does not finish normally.
func (m *Machine) ExecBlock(block vals.Array) (Flow, vals.Value, error) {
	for _, s := range block {
		flow, v, err := m.Exec(stmtArray(m, block, s))
		if err != nil || flow != Normal {
			return flow, v, err
		}
	}
	return Normal, vals.Empty, nil
}

func (m *Machine) execFor(stmt, args vals.Array) (Flow, vals.Value, error) {
	var keyName vals.Name
	if !args[0].IsEmpty() {
		keyName = stmtName(m, stmt, args[0])
	}
	valueName := stmtName(m, stmt, args[1])
	seq, err := m.evalSub(stmtArray(m, stmt, args[2]))
	if err != nil {
		return Normal, vals.Empty, err
	}
	body := stmtArray(m, stmt, args[3])
	if m.Env.Decl == nil {
		return Normal, vals.Empty, ErrNoDeclaration
	}

	iteration := func(k, v vals.Value) (bool, Flow, vals.Value, error) {
		if keyName != "" {
			if err := m.Env.Decl(keyName, Literal(k)); err != nil {
				return true, Normal, vals.Empty, err
			}
		}
		if err := m.Env.Decl(valueName, Literal(v)); err != nil {
			return true, Normal, vals.Empty, err
		}
		flow, result, err := m.ExecBlock(body)
		switch {
		case err != nil:
			return true, Normal, vals.Empty, err
		case flow == Return:
			return true, Return, result, nil
		case flow == Break:
			return true, Normal, vals.Empty, nil
		}
		return false, Normal, vals.Empty, nil
	}

	switch seq.Kind() {
	case vals.ArrayKind:
		for i, elem := range vals.MustCast[vals.Array](seq) {
			if stop, flow, v, err := iteration(vals.Int(i), elem); stop {
				return flow, v, err
			}
		}
	case vals.DictKind:
		d := vals.MustCast[vals.Dict](seq)
		for _, k := range vals.SortedKeys(d) {
			if stop, flow, v, err := iteration(vals.NameValue(k), d[k]); stop {
				return flow, v, err
			}
		}
	default:
		return Normal, vals.Empty, &TypeError{Op: OpSimpleFor, Want: "array or dictionary", Got: seq.Kind()}
	}
	return Normal, vals.Empty, nil
}

func (m *Machine) malformedStmt(stmt vals.Array, msg string) {
	panic(&MalformedError{Message: msg, Expr: stmt})
}

func stmtName(m *Machine, stmt vals.Array, v vals.Value) vals.Name {
	n, ok := v.AsName()
	if !ok {
		m.malformedStmt(stmt, "want a name, got "+v.Kind().String())
	}
	return n
}

func stmtArray(m *Machine, stmt vals.Array, v vals.Value) vals.Array {
	a, err := vals.Cast[vals.Array](v)
	if err != nil {
		m.malformedStmt(stmt, err.Error())
	}
	return a
}
