package diag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Context is a range of text in a source. It is attached to errors that can
// be associated with a part of the source, like parse errors.
type Context struct {
	Name   string
	Source string
	Ranging
}

// NewContext creates a new Context.
func NewContext(name, source string, r Ranger) *Context {
	return &Context{name, source, r.Range()}
}

// Variables controlling the style of the culprit.
var (
	culpritLineBegin   = "\033[1;4m"
	culpritLineEnd     = "\033[m"
	culpritPlaceHolder = "^"
)

// Position returns the 1-based line and column of the start of the range.
// Columns count codepoints.
func (c *Context) Position() (line, col int) {
	from := clamp(c.From, len(c.Source))
	before := c.Source[:from]
	line = strings.Count(before, "\n") + 1
	col = utf8.RuneCountInString(lastLine(before)) + 1
	return line, col
}

// Describe returns "name:line:col".
func (c *Context) Describe() string {
	line, col := c.Position()
	return fmt.Sprintf("%s:%d:%d", c.Name, line, col)
}

// Show shows the context: its description followed by the line containing
// the culprit, which is highlighted.
func (c *Context) Show(indent string) string {
	if c.From < 0 || c.To > len(c.Source) || c.From > c.To {
		return fmt.Sprintf("%s, invalid position %d-%d", c.Name, c.From, c.To)
	}
	head := lastLine(c.Source[:c.From])
	culprit := c.Source[c.From:c.To]
	tail := firstLine(c.Source[c.To:])
	var sb strings.Builder
	sb.WriteString(indent + c.Describe() + ": " + head)
	if culprit == "" {
		culprit = culpritPlaceHolder
	}
	for i, line := range strings.Split(strings.TrimSuffix(culprit, "\n"), "\n") {
		if i > 0 {
			sb.WriteString("\n" + indent + "  ")
		}
		sb.WriteString(culpritLineBegin + line + culpritLineEnd)
	}
	sb.WriteString(tail)
	return sb.String()
}

func clamp(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i > n:
		return n
	}
	return i
}

func firstLine(s string) string {
	i := strings.IndexByte(s, '\n')
	if i == -1 {
		return s
	}
	return s[:i]
}

func lastLine(s string) string {
	// When s does not contain '\n', LastIndexByte returns -1, which happens to
	// be what we want.
	return s[strings.LastIndexByte(s, '\n')+1:]
}
