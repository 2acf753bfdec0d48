// Package basicsheet implements the basic sheet, which holds the constant and
// interface cells of a layout. Cells are never recomputed: setting an
// interface cell calls its monitors right away.
//
// The sheet also records the cells and views added to it, so that the layout
// can be printed back as source.
package basicsheet

import (
	"fmt"

	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/sheet"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Sheet is a basic sheet. The zero value is not usable; use New.
type Sheet struct {
	env    vm.Env
	cells  []*cell
	byName map[vals.Name]*cell
	// Record of added cells and top-level views, in order.
	added []element
	// All views; the view with ID i is views[i-1].
	views []*view
}

type cell struct {
	name     vals.Name
	kind     sheet.Kind
	init     vals.Array
	value    vals.Value
	monitors []*Subscription
}

// An element is a run of cells of the same kind or a top-level view.
type element struct {
	cells []*cell
	view  *view
}

type view struct {
	name     vals.Name
	params   vals.Array
	children []*view
}

// New creates an empty Sheet. The functions in env are used by Inspect; its
// variable callbacks are replaced.
func New(env vm.Env) *Sheet {
	s := &Sheet{byName: map[vals.Name]*cell{}}
	env.Variable = s.Get
	env.Assign, env.Decl, env.ConstDecl = nil, nil, nil
	s.env = env
	return s
}

// Inspect evaluates an expression against the cells of the sheet.
func (s *Sheet) Inspect(expr vals.Array) (vals.Value, error) {
	return vm.Eval(s.env, expr)
}

// AddConstant adds a constant cell with the given value. The initializer is
// only recorded for printing.
func (s *Sheet) AddConstant(name vals.Name, init vals.Array, v vals.Value) error {
	return s.addCell(&cell{name: name, kind: sheet.Constant, init: init, value: v})
}

// AddInterface adds an interface cell with the given initial value. The
// initializer is only recorded for printing.
func (s *Sheet) AddInterface(name vals.Name, init vals.Array, v vals.Value) error {
	return s.addCell(&cell{name: name, kind: sheet.Interface, init: init, value: v})
}

func (s *Sheet) addCell(c *cell) error {
	if _, ok := s.byName[c.name]; ok {
		return &sheet.DuplicateCellError{Name: c.name}
	}
	s.byName[c.name] = c
	s.cells = append(s.cells, c)
	if n := len(s.added); n > 0 && s.added[n-1].view == nil && s.added[n-1].cells[0].kind == c.kind {
		s.added[n-1].cells = append(s.added[n-1].cells, c)
	} else {
		s.added = append(s.added, element{cells: []*cell{c}})
	}
	return nil
}

// AddView records a view, with parameters given as a dictionary expression,
// and returns its ID.
func (s *Sheet) AddView(parent parse.ViewID, name vals.Name, params vals.Array) (parse.ViewID, error) {
	v := &view{name: name, params: params}
	switch {
	case parent == parse.RootView:
		s.added = append(s.added, element{view: v})
	case int(parent) > 0 && int(parent) <= len(s.views):
		p := s.views[parent-1]
		p.children = append(p.children, v)
	default:
		return 0, fmt.Errorf("no view with ID %d", parent)
	}
	s.views = append(s.views, v)
	return parse.ViewID(len(s.views)), nil
}

// CountInterface returns 1 if there is an interface cell with the given name
// and 0 otherwise.
func (s *Sheet) CountInterface(name vals.Name) int {
	if c, ok := s.byName[name]; ok && c.kind == sheet.Interface {
		return 1
	}
	return 0
}

// Get returns the value of a cell.
func (s *Sheet) Get(name vals.Name) (vals.Value, error) {
	c, ok := s.byName[name]
	if !ok {
		return vals.Empty, &sheet.NoCellError{Name: name}
	}
	return c.value, nil
}

func (s *Sheet) lookupInterface(name vals.Name) (*cell, error) {
	c, ok := s.byName[name]
	switch {
	case !ok:
		return nil, &sheet.NoCellError{Name: name}
	case c.kind != sheet.Interface:
		return nil, &sheet.NotInterfaceError{Name: name, Kind: c.kind}
	}
	return c, nil
}

// Set stores a value in an interface cell and calls its monitors.
func (s *Sheet) Set(name vals.Name, v vals.Value) error {
	c, err := s.lookupInterface(name)
	if err != nil {
		return err
	}
	c.value = v
	for _, sub := range append([]*Subscription(nil), c.monitors...) {
		if sub.c != nil {
			sub.f(v)
		}
	}
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

// Contributing returns the values of all interface cells.
func (s *Sheet) Contributing() vals.Dict {
	d := vals.Dict{}
	for _, c := range s.cells {
		if c.kind == sheet.Interface {
			d[c.name] = c.value
		}
	}
	return d
}

// Subscription is a registered monitor.
type Subscription struct {
	c *cell
	f func(vals.Value)
}

// Monitor registers f to be called with the new value of an interface cell
// whenever it is set. It calls f once with the current value before
// returning.
func (s *Sheet) Monitor(name vals.Name, f func(vals.Value)) (*Subscription, error) {
	c, err := s.lookupInterface(name)
	if err != nil {
		return nil, err
	}
	sub := &Subscription{c, f}
	c.monitors = append(c.monitors, sub)
	f(c.value)
	return sub, nil
}

// Disconnect removes the monitor. It is safe to call more than once.
func (sub *Subscription) Disconnect() {
	if sub.c == nil {
		return
	}
	for i, m := range sub.c.monitors {
		if m == sub {
			sub.c.monitors = append(sub.c.monitors[:i:i], sub.c.monitors[i+1:]...)
			break
		}
	}
	sub.c = nil
}
