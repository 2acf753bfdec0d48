package fn

import (
	"fmt"
	"sort"

	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Registry maps names to functions. Its Lookup method fits vm.Env.AdamFunc
// and sheet.Config.AdamFunc.
type Registry struct {
	funcs map[vals.Name]*Function
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{map[vals.Name]*Function{}}
}

// DuplicateFunctionError is returned when adding a function whose name is
// taken.
type DuplicateFunctionError struct {
	Name vals.Name
}

func (e *DuplicateFunctionError) Error() string {
	return fmt.Sprintf("duplicate function %s", e.Name)
}

// Add adds a function.
func (r *Registry) Add(f *Function) error {
	if _, ok := r.funcs[f.name]; ok {
		return &DuplicateFunctionError{f.name}
	}
	r.funcs[f.name] = f
	return nil
}

// Load adds the functions in a source file.
func (r *Registry) Load(src parse.Source) error {
	defs, err := parse.Functions(src)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Add(FromDef(def)); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds a function by name.
func (r *Registry) Lookup(name vals.Name) (vm.Function, error) {
	f, ok := r.funcs[name]
	if !ok {
		return nil, &vm.UnknownFunctionError{Name: name}
	}
	return f, nil
}

// Get finds a function by name.
func (r *Registry) Get(name vals.Name) (*Function, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

// Names returns the names of all functions, sorted.
func (r *Registry) Names() []vals.Name {
	names := make([]vals.Name, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
