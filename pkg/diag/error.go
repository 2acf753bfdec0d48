// Package diag contains building blocks for formatting and processing
// diagnostic information: errors with source contexts.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents an error with context that can be showed.
type Error struct {
	Type    string
	Message string
	Context Context
	// Whether the error happened at the end of the source, meaning more
	// input might fix it.
	Partial bool
}

// Error returns a plain text representation of the error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Context.Describe(), e.Message)
}

// Range returns the range of the error.
func (e *Error) Range() Ranging {
	return e.Context.Range()
}

// Show shows the error.
func (e *Error) Show(indent string) string {
	header := fmt.Sprintf("%s: %s%s%s\n", title(e.Type), messageStart, e.Message, messageEnd)
	return indent + header + e.Context.Show(indent+"  ")
}

var (
	messageStart = "\033[31;1m"
	messageEnd   = "\033[m"
)

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Errors combines several *Error values into one error.
type Errors []*Error

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no error"
	case 1:
		return es[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "multiple errors: ")
	for i, e := range es {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Show shows all the errors, one per paragraph.
func (es Errors) Show(indent string) string {
	shown := make([]string, len(es))
	for i, e := range es {
		shown[i] = e.Show(indent)
	}
	return strings.Join(shown, "\n")
}

// UnpackErrors returns the *Error values contained in err, which may be an
// *Error or Errors. It returns nil for other errors.
func UnpackErrors(err error) []*Error {
	var es Errors
	if errors.As(err, &es) {
		return es
	}
	var e *Error
	if errors.As(err, &e) {
		return []*Error{e}
	}
	return nil
}
