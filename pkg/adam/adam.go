// Package adam builds sheets from source text.
//
// A sheet file declares cells in sections; a function file declares the
// functions cells may call; a layout declares the constant and interface
// cells of a dialog and its views. See package parse for the syntax.
package adam

import (
	"errors"

	"src.adam.sh/pkg/basicsheet"
	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/fn"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/sheet"
	"src.adam.sh/pkg/vals"
	"src.adam.sh/pkg/vm"
)

// Functions loads function files into a new registry.
func Functions(srcs ...parse.Source) (*fn.Registry, error) {
	r := fn.NewRegistry()
	for _, src := range srcs {
		if err := r.Load(src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Config configures the sheets built by this package.
type Config struct {
	// Functions available to cell expressions. May be nil.
	Functions *fn.Registry
	Sheet     sheet.Config
}

func (cfg Config) sheetConfig() sheet.Config {
	c := cfg.Sheet
	if cfg.Functions != nil && c.AdamFunc == nil {
		c.AdamFunc = cfg.Functions.Lookup
	}
	return c
}

// Sheet parses an Adam sheet and returns a sheet.Sheet holding its cells,
// along with the name of the sheet. The sheet is resolved but not updated.
func Sheet(src parse.Source, cfg Config) (*sheet.Sheet, vals.Name, error) {
	s := sheet.New(cfg.sheetConfig())
	name, err := parse.Sheet(src, sheetBuilder{s})
	if err != nil {
		return nil, "", err
	}
	if err := s.Resolve(); err != nil {
		return nil, "", err
	}
	return s, name, nil
}

var errViewInSheet = errors.New("views are not allowed in a sheet")

type sheetBuilder struct{ s *sheet.Sheet }

func (b sheetBuilder) AddCell(c parse.Cell) error {
	switch c.Kind {
	case parse.Constant:
		return b.s.AddConstant(c.Name, c.Init)
	case parse.Input:
		return b.s.AddInput(c.Name, c.Init)
	case parse.Interface:
		return b.s.AddInterface(c.Name, c.Init, c.Expr)
	case parse.Output:
		return b.s.AddOutput(c.Name, c.Expr)
	default:
		return b.s.AddInvariant(c.Name, c.Expr)
	}
}

func (sheetBuilder) AddView(parse.ViewID, vals.Name, vals.Array, diag.Ranging) (parse.ViewID, error) {
	return 0, errViewInSheet
}

// Layout parses a layout and returns a basicsheet.Sheet holding its cells
// and views, along with the name of the layout.
func Layout(src parse.Source, cfg Config) (*basicsheet.Sheet, vals.Name, error) {
	sc := cfg.sheetConfig()
	s := basicsheet.New(vm.Env{ArrayFunc: sc.ArrayFunc, DictFunc: sc.DictFunc, AdamFunc: sc.AdamFunc})
	name, err := s.Load(src)
	if err != nil {
		return nil, "", err
	}
	return s, name, nil
}
