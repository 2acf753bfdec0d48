// Package errutil contains helpers for combining errors.
package errutil

import "strings"

// Multi combines errors into one. Nil arguments are dropped; if nothing is
// left it returns nil, and a single remaining error is returned unchanged.
// Errors returned by Multi are flattened, so these return the same value:
//
//	Multi(Multi(err1, err2), err3)
//	Multi(err1, err2, err3)
//
// The combined error works with errors.Is and errors.As, which look at each
// of the errors in turn.
func Multi(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if multi, ok := err.(multiError); ok {
			nonNil = append(nonNil, multi...)
		} else {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return multiError(nonNil)
	}
}

// Errors returns the errors combined in err. It returns nil for a nil err
// and a one-element slice for an error not returned by Multi.
func Errors(err error) []error {
	switch err := err.(type) {
	case nil:
		return nil
	case multiError:
		return err
	default:
		return []error{err}
	}
}

type multiError []error

func (me multiError) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors: ")
	for i, e := range me {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

func (me multiError) Unwrap() []error { return me }
