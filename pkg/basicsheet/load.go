package basicsheet

import (
	"errors"

	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/vals"
)

// Load parses a layout and adds its cells and views to the sheet. Cell
// initializers are evaluated as they are added. It returns the name of the
// layout.
func (s *Sheet) Load(src parse.Source) (vals.Name, error) {
	return parse.Layout(src, loader{s})
}

type loader struct{ s *Sheet }

var errExpression = errors.New("cells of a layout cannot have expressions")

func (l loader) AddCell(c parse.Cell) error {
	if c.Expr != nil {
		return errExpression
	}
	v, err := l.s.Inspect(c.Init)
	if err != nil {
		return err
	}
	if c.Kind == parse.Constant {
		return l.s.AddConstant(c.Name, c.Init, v)
	}
	return l.s.AddInterface(c.Name, c.Init, v)
}

func (l loader) AddView(parent parse.ViewID, name vals.Name, params vals.Array, _ diag.Ranging) (parse.ViewID, error) {
	return l.s.AddView(parent, name, params)
}
