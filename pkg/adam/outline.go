package adam

import (
	"strings"
	"unicode"

	"src.adam.sh/pkg/diag"
	"src.adam.sh/pkg/parse"
	"src.adam.sh/pkg/vals"
)

// FileKind is the kind of a source file.
type FileKind uint8

// Possible values of FileKind.
const (
	FunctionFile FileKind = iota
	SheetFile
	LayoutFile
)

func (k FileKind) String() string {
	switch k {
	case SheetFile:
		return "sheet"
	case LayoutFile:
		return "layout"
	default:
		return "functions"
	}
}

// DetectKind guesses the kind of a source file from its first word.
func DetectKind(code string) FileKind {
	for {
		code = strings.TrimLeftFunc(code, unicode.IsSpace)
		if strings.HasPrefix(code, "//") {
			_, code, _ = strings.Cut(code, "\n")
		} else if strings.HasPrefix(code, "/*") {
			_, code, _ = strings.Cut(code, "*/")
		} else {
			break
		}
	}
	word := code
	if i := strings.IndexFunc(code, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		word = code[:i]
	}
	switch word {
	case "sheet":
		return SheetFile
	case "layout":
		return LayoutFile
	default:
		return FunctionFile
	}
}

// Outline is the result of parsing a file without evaluating anything.
type Outline struct {
	Kind FileKind
	// Name of the sheet or layout.
	Name      vals.Name
	Cells     []parse.Cell
	Views     []View
	Functions []parse.FunctionDef
}

// View is a view declared in a layout.
type View struct {
	Parent parse.ViewID
	Name   vals.Name
	Params vals.Array
	diag.Ranging
}

// Parse parses a file of any kind and returns its outline. On a parse error
// it returns the declarations found before the error along with the error.
func Parse(src parse.Source) (*Outline, error) {
	o := &Outline{Kind: DetectKind(src.Code)}
	var err error
	switch o.Kind {
	case SheetFile:
		o.Name, err = parse.Sheet(src, o)
	case LayoutFile:
		o.Name, err = parse.Layout(src, o)
	default:
		o.Functions, err = parse.Functions(src)
	}
	return o, err
}

// AddCell implements parse.Callbacks.
func (o *Outline) AddCell(c parse.Cell) error {
	o.Cells = append(o.Cells, c)
	return nil
}

// AddView implements parse.Callbacks.
func (o *Outline) AddView(parent parse.ViewID, name vals.Name, params vals.Array, r diag.Ranging) (parse.ViewID, error) {
	o.Views = append(o.Views, View{parent, name, params, r})
	return parse.ViewID(len(o.Views)), nil
}

// CellAt returns the cell whose declaration spans the given byte position.
func (o *Outline) CellAt(pos int) (parse.Cell, bool) {
	for _, c := range o.Cells {
		if c.From <= pos && pos <= c.To {
			return c, true
		}
	}
	return parse.Cell{}, false
}

// FunctionAt returns the function whose definition spans the given byte
// position.
func (o *Outline) FunctionAt(pos int) (parse.FunctionDef, bool) {
	for _, f := range o.Functions {
		if f.From <= pos && pos <= f.To {
			return f, true
		}
	}
	return parse.FunctionDef{}, false
}
