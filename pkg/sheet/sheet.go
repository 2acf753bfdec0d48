// Package sheet implements the property sheet: named cells connected by
// expressions, recomputed in dependency order when interface cells are set.
//
// A Sheet is not safe for concurrent use. Monitor callbacks run on the
// goroutine that calls Monitor or Update, and may call Set on the same
// sheet; such changes are picked up by the next Update.
package sheet

import (
	"log"

	"src.adam.sh/pkg/logutil"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

var logger = logutil.GetLogger("[sheet] ")

// Kind is the kind of a cell.
type Kind uint8

// Possible values of Kind.
const (
	Constant Kind = iota
	Input
	Interface
	Output
	Invariant
)

var kindNames = [...]string{"constant", "input", "interface", "output", "invariant"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "!!invalid"
}

// Config holds the dependencies of a Sheet. The zero value gives a sheet
// with only the builtin functions.
type Config struct {
	// Native functions; see vm.Env.
	ArrayFunc func(vals.Name, vals.Array) (vals.Value, bool, error)
	DictFunc  func(vals.Name, vals.Dict) (vals.Value, bool, error)
	// AdamFunc resolves user-defined functions. If a function returned by it
	// has a FreeVariables method, cells calling the function depend on the
	// cells named by it; a CalledFunctions method extends this to the
	// functions it calls.
	AdamFunc func(vals.Name) (vm.Function, error)
	// Logger defaults to a logger from logutil.
	Logger *log.Logger
}

type freeVariabler interface {
	FreeVariables() []vals.Name
}

type functionCaller interface {
	CalledFunctions() []vals.Name
}

// Sheet is a property sheet. Cells are identified by index into cells, in
// declaration order.
type Sheet struct {
	cfg    Config
	cells  []*cell
	byName map[vals.Name]int

	// Evaluation order, valid when resolved is true.
	order    []int
	resolved bool
	updating bool
}

type cell struct {
	name vals.Name
	kind Kind
	// For constant, input and interface cells.
	init vals.Array
	// For interface, output and invariant cells.
	expr vals.Array

	value vals.Value
	// Value last reported to monitors.
	committed vals.Value
	// Whether committed has been set; false until the first Update that
	// computes the cell.
	initialized bool
	dirty       bool
	// Whether value was stored by Set since the last Update.
	set bool

	deps       []int
	dependents []int
	monitors   []*Subscription
}

// New creates an empty Sheet.
func New(cfg Config) *Sheet {
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return &Sheet{cfg: cfg, byName: map[vals.Name]int{}}
}

// Env returns the vm.Env used for the expressions of the sheet: variables
// are cells and functions come from the Config.
func (s *Sheet) Env() vm.Env {
	return vm.Env{
		Variable:  s.Get,
		ArrayFunc: s.cfg.ArrayFunc,
		DictFunc:  s.cfg.DictFunc,
		AdamFunc:  s.cfg.AdamFunc,
	}
}

func (s *Sheet) add(c *cell) error {
	if _, ok := s.byName[c.name]; ok {
		return &DuplicateCellError{c.name}
	}
	s.byName[c.name] = len(s.cells)
	s.cells = append(s.cells, c)
	s.resolved = false
	return nil
}

// AddConstant adds a constant cell. Its initializer is evaluated right away,
// against the current values of the cells added before it.
func (s *Sheet) AddConstant(name vals.Name, init vals.Array) error {
	if _, ok := s.byName[name]; ok {
		return &DuplicateCellError{name}
	}
	v, err := vm.Eval(s.Env(), init)
	if err != nil {
		return &CellError{name, err}
	}
	return s.add(&cell{name: name, kind: Constant, init: init,
		value: v, committed: v, initialized: true})
}

// AddInput adds an input cell, whose value is computed from init.
func (s *Sheet) AddInput(name vals.Name, init vals.Array) error {
	return s.add(&cell{name: name, kind: Input, init: init, dirty: true})
}

// AddInterface adds an interface cell. Its value is computed from expr if it
// is not nil, otherwise from init. When both are given, init supplies the
// value the cell holds until expr is first computed. A nil init is the same
// as empty.
func (s *Sheet) AddInterface(name vals.Name, init, expr vals.Array) error {
	return s.add(&cell{name: name, kind: Interface, init: init, expr: expr, dirty: true})
}

// AddOutput adds an output cell computed from expr.
func (s *Sheet) AddOutput(name vals.Name, expr vals.Array) error {
	return s.add(&cell{name: name, kind: Output, expr: expr, dirty: true})
}

// AddInvariant adds an invariant cell computed from expr, which should
// evaluate to true. See BrokenInvariants.
func (s *Sheet) AddInvariant(name vals.Name, expr vals.Array) error {
	return s.add(&cell{name: name, kind: Invariant, expr: expr, dirty: true})
}

func (s *Sheet) lookup(name vals.Name) (*cell, error) {
	i, ok := s.byName[name]
	if !ok {
		return nil, &NoCellError{Name: name}
	}
	return s.cells[i], nil
}

// Get returns the current value of a cell. The value of a cell that has not
// been computed yet is empty.
func (s *Sheet) Get(name vals.Name) (vals.Value, error) {
	c, err := s.lookup(name)
	if err != nil {
		return vals.Empty, err
	}
	return c.value, nil
}

// Kind returns the kind of a cell.
func (s *Sheet) Kind(name vals.Name) (Kind, error) {
	c, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return c.kind, nil
}

// Names returns the names of the cells of the given kind, in declaration
// order.
func (s *Sheet) Names(kind Kind) []vals.Name {
	var names []vals.Name
	for _, c := range s.cells {
		if c.kind == kind {
			names = append(names, c.name)
		}
	}
	return names
}

// Set stores a value in an interface cell. The cell and the cells depending
// on it become dirty; the value is not recomputed from the cell's own
// expression in the next Update.
func (s *Sheet) Set(name vals.Name, v vals.Value) error {
	c, err := s.lookup(name)
	if err != nil {
		return err
	}
	if c.kind != Interface {
		return &NotInterfaceError{name, c.kind}
	}
	c.value = v
	c.set = true
	s.markDirty(s.byName[name])
	return nil
}

// SetAll sets interface cells from a dictionary, in order of keys. It stops
// at the first error.
func (s *Sheet) SetAll(d vals.Dict) error {
	for _, k := range vals.SortedKeys(d) {
		if err := s.Set(k, d[k]); err != nil {
			return err
		}
	}
	return nil
}

// Marks a cell and everything depending on it dirty. Dependents are those
// found by the last resolution; cells added since are dirty anyway, and
// Resolve extends dirtiness along new dependencies.
func (s *Sheet) markDirty(i int) {
	c := s.cells[i]
	c.dirty = true
	for _, d := range c.dependents {
		if !s.cells[d].dirty {
			s.markDirty(d)
		}
	}
}

// Contributing returns the current values of all interface cells.
func (s *Sheet) Contributing() vals.Dict {
	d := vals.Dict{}
	for _, c := range s.cells {
		if c.kind == Interface {
			d[c.name] = c.value
		}
	}
	return d
}

// Inspect evaluates an expression against the current values of the cells.
func (s *Sheet) Inspect(expr vals.Array) (vals.Value, error) {
	return vm.Eval(s.Env(), expr)
}

// BrokenInvariants returns the names of invariant cells whose value is not
// true, in declaration order.
func (s *Sheet) BrokenInvariants() []vals.Name {
	var broken []vals.Name
	for _, c := range s.cells {
		if c.kind == Invariant && !vals.Equal(c.value, vals.Bool(true)) {
			broken = append(broken, c.name)
		}
	}
	return broken
}
