package basicsheet

import (
	"io"
	"strings"

	"src.adam.sh/pkg/parse"
)

const indentUnit = "    "

// Print writes the cells and views added to the sheet as layout source.
// Parsing the output with parse.Layout adds the same cells and views again.
// Cells are printed with their initializers, not their current values.
func (s *Sheet) Print(w io.Writer, name string) error {
	var sb strings.Builder
	sb.WriteString("layout " + name + "\n{\n")
	for i, e := range s.added {
		if i > 0 {
			sb.WriteString("\n")
		}
		var err error
		if e.view != nil {
			err = printTopView(&sb, e.view)
		} else {
			err = printCells(&sb, e.cells)
		}
		if err != nil {
			return err
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func printCells(sb *strings.Builder, cells []*cell) error {
	sb.WriteString(cells[0].kind.String() + ":\n")
	for _, c := range cells {
		init, err := parse.FormatExpression(c.init)
		if err != nil {
			return err
		}
		sb.WriteString(indentUnit + string(c.name) + " : " + init + ";\n")
	}
	return nil
}

func printTopView(sb *strings.Builder, v *view) error {
	sb.WriteString(indentUnit + "view ")
	if err := printViewHead(sb, v); err != nil {
		return err
	}
	if len(v.children) == 0 {
		sb.WriteString("\n" + indentUnit + "{}\n")
		return nil
	}
	return printChildren(sb, v, 1)
}

func printView(sb *strings.Builder, v *view, depth int) error {
	sb.WriteString(strings.Repeat(indentUnit, depth))
	if err := printViewHead(sb, v); err != nil {
		return err
	}
	if len(v.children) == 0 {
		sb.WriteString(";\n")
		return nil
	}
	return printChildren(sb, v, depth)
}

func printChildren(sb *strings.Builder, v *view, depth int) error {
	indent := strings.Repeat(indentUnit, depth)
	sb.WriteString("\n" + indent + "{\n")
	for _, child := range v.children {
		if err := printView(sb, child, depth+1); err != nil {
			return err
		}
	}
	sb.WriteString(indent + "}\n")
	return nil
}

// Writes "name(params)". The parameters are a dictionary expression, which
// is written without its braces.
func printViewHead(sb *strings.Builder, v *view) error {
	params, err := parse.FormatExpression(v.params)
	if err != nil {
		return err
	}
	params = strings.TrimSuffix(strings.TrimPrefix(params, "{"), "}")
	sb.WriteString(string(v.name) + "(" + params + ")")
	return nil
}
