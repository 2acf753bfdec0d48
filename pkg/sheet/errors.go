package sheet

import (
	"errors"
	"fmt"
	"strings"

	"src.adam.sh/pkg/vals"
)

// NoCellError is returned when a cell name is not found. Referrer is the
// cell whose expression mentions the name, if any.
type NoCellError struct {
	Name     vals.Name
	Referrer vals.Name
}

func (e *NoCellError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("cell %s refers to nonexistent cell %s", e.Referrer, e.Name)
	}
	return fmt.Sprintf("no cell named %s", e.Name)
}

// NotInterfaceError is returned when setting a cell that is not an interface
// cell.
type NotInterfaceError struct {
	Name vals.Name
	Kind Kind
}

func (e *NotInterfaceError) Error() string {
	return fmt.Sprintf("cannot set %s cell %s: not an interface cell", e.Kind, e.Name)
}

// DuplicateCellError is returned when adding a cell whose name is taken.
type DuplicateCellError struct {
	Name vals.Name
}

func (e *DuplicateCellError) Error() string {
	return fmt.Sprintf("duplicate cell %s", e.Name)
}

// CycleError is returned when cells depend on each other in a cycle. Cells
// lists the cycle, starting and ending with the same cell.
type CycleError struct {
	Cells []vals.Name
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Cells))
	for i, n := range e.Cells {
		names[i] = string(n)
	}
	return "cyclic dependency: " + strings.Join(names, " -> ")
}

// CellError wraps an error from evaluating the expression of a cell.
type CellError struct {
	Cell vals.Name
	Err  error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell %s: %v", e.Cell, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// MonitorError records a panic from a monitor callback.
type MonitorError struct {
	Cell  vals.Name
	Panic any
}

func (e *MonitorError) Error() string {
	return fmt.Sprintf("monitor of cell %s panicked: %v", e.Cell, e.Panic)
}

// ErrReentrantUpdate is returned when Update is called from a monitor
// callback of the same sheet.
var ErrReentrantUpdate = errors.New("Update called during Update")
