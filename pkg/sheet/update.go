package sheet

import (
	"src.adam.sh/pkg/errutil"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Resolve computes the dependencies between cells and the order of
// evaluation. It fails if an expression refers to a nonexistent cell or if
// cells depend on each other in a cycle.
//
// Update calls Resolve when cells have been added since the last
// resolution, so calling it is only needed to detect errors early.
func (s *Sheet) Resolve() error {
	if s.resolved {
		return nil
	}
	deps := make([][]int, len(s.cells))
	for i, c := range s.cells {
		if c.kind == Constant {
			continue
		}
		d, err := s.dependencies(c)
		if err != nil {
			return err
		}
		deps[i] = d
	}
	order, err := topoSort(s.cells, deps)
	if err != nil {
		return err
	}

	for _, c := range s.cells {
		c.dependents = nil
	}
	for i, d := range deps {
		s.cells[i].deps = d
		for _, j := range d {
			s.cells[j].dependents = append(s.cells[j].dependents, i)
		}
	}
	for _, i := range order {
		c := s.cells[i]
		for _, j := range c.deps {
			if s.cells[j].dirty {
				c.dirty = true
			}
		}
	}
	s.order = order
	s.resolved = true
	s.cfg.Logger.Printf("resolved %d cells", len(s.cells))
	return nil
}

// Returns the indices of the cells read by the expressions of c, including
// those read by user-defined functions it calls.
func (s *Sheet) dependencies(c *cell) ([]int, error) {
	var deps []int
	seen := map[int]bool{}
	addDep := func(n vals.Name, mustExist bool) error {
		j, ok := s.byName[n]
		if !ok {
			if mustExist {
				return &NoCellError{Name: n, Referrer: c.name}
			}
			return nil
		}
		if !seen[j] {
			seen[j] = true
			deps = append(deps, j)
		}
		return nil
	}
	for _, expr := range []vals.Array{c.init, c.expr} {
		for _, n := range vm.FreeVariables(expr) {
			if err := addDep(n, true); err != nil {
				return nil, err
			}
		}
		s.functionDependencies(vm.CalledFunctions(expr), func(n vals.Name) { addDep(n, false) })
	}
	return deps, nil
}

// Calls addDep with the free variables of the user-defined functions in
// names and of the functions they call in turn.
func (s *Sheet) functionDependencies(names []vals.Name, addDep func(vals.Name)) {
	if s.cfg.AdamFunc == nil {
		return
	}
	seen := map[vals.Name]bool{}
	for len(names) > 0 {
		name := names[len(names)-1]
		names = names[:len(names)-1]
		if seen[name] {
			continue
		}
		seen[name] = true
		fn, err := s.cfg.AdamFunc(name)
		if err != nil {
			// Not a user-defined function; calling it may still work.
			continue
		}
		if fv, ok := fn.(freeVariabler); ok {
			for _, n := range fv.FreeVariables() {
				addDep(n)
			}
		}
		if fc, ok := fn.(functionCaller); ok {
			names = append(names, fc.CalledFunctions()...)
		}
	}
}

// Sorts cells so that every cell comes after the cells it depends on. Cells
// are visited in declaration order, which makes the result deterministic.
func topoSort(cells []*cell, deps [][]int) ([]int, error) {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]int, len(cells))
	order := make([]int, 0, len(cells))
	var path []int
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case visited:
			return nil
		case visiting:
			var cycle []vals.Name
			for k := len(path) - 1; k >= 0; k-- {
				if path[k] == i {
					for _, j := range path[k:] {
						cycle = append(cycle, cells[j].name)
					}
					break
				}
			}
			return &CycleError{append(cycle, cells[i].name)}
		}
		state[i] = visiting
		path = append(path, i)
		for _, j := range deps[i] {
			if err := visit(j); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[i] = visited
		order = append(order, i)
		return nil
	}
	for i := range cells {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Update recomputes dirty cells in dependency order, then calls the monitors
// of every cell whose value differs from the one last reported. It returns
// the names of those cells in evaluation order.
//
// A cell whose expression fails keeps its previous value and stays dirty, as
// do the cells depending on it; the failure is reported as a *CellError and
// the other cells are still updated. Panics in monitors are recovered and
// reported as *MonitorError values. All errors are combined with
// errutil.Multi.
func (s *Sheet) Update() ([]vals.Name, error) {
	if s.updating {
		return nil, ErrReentrantUpdate
	}
	if err := s.Resolve(); err != nil {
		return nil, err
	}
	s.updating = true
	defer func() { s.updating = false }()

	var errs []error
	recomputed := 0
	for _, i := range s.order {
		c := s.cells[i]
		if !c.dirty || s.blocked(c) {
			continue
		}
		if c.set {
			c.set = false
			c.dirty = false
			continue
		}
		v, err := s.compute(c)
		if err != nil {
			errs = append(errs, &CellError{c.name, err})
			continue
		}
		c.value = v
		c.dirty = false
		recomputed++
	}

	type change struct {
		c *cell
		v vals.Value
	}
	var changes []change
	for _, i := range s.order {
		c := s.cells[i]
		if c.dirty {
			continue
		}
		if !c.initialized || !vals.Equal(c.value, c.committed) {
			c.committed, c.initialized = c.value, true
			changes = append(changes, change{c, c.value})
		}
	}
	s.cfg.Logger.Printf("recomputed %d cells, %d changed", recomputed, len(changes))

	changed := make([]vals.Name, len(changes))
	for i, ch := range changes {
		changed[i] = ch.c.name
		for _, sub := range append([]*Subscription(nil), ch.c.monitors...) {
			if err := sub.call(ch.v); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return changed, errutil.Multi(errs...)
}

// Reports whether c depends on a cell that failed to update.
func (s *Sheet) blocked(c *cell) bool {
	for _, j := range c.deps {
		if s.cells[j].dirty {
			return true
		}
	}
	return false
}

func (s *Sheet) compute(c *cell) (vals.Value, error) {
	env := s.Env()
	switch {
	case c.kind == Input || c.expr == nil:
		if c.init == nil {
			return vals.Empty, nil
		}
		return vm.Eval(env, c.init)
	case !c.initialized && c.init != nil:
		v, err := vm.Eval(env, c.init)
		if err != nil {
			return vals.Empty, err
		}
		c.value = v
	}
	return vm.Eval(env, c.expr)
}
