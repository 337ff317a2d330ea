// Package errors creates formatted errors that keep their error arguments available
// for errors.Is and errors.As.
package errors

import (
	"errors"
	"fmt"
)

type err struct {
	msg  string
	args []any
}

func (err err) Error() string {
	return fmt.Errorf(err.msg, err.args...).Error()
}

// Unwrap returns the error arguments, so that any of them matches with errors.Is.
func (err err) Unwrap() []error {
	var errs []error
	for _, arg := range err.args {
		if wrapped, ok := arg.(error); ok {
			errs = append(errs, wrapped)
		}
	}
	return errs
}

// New formats an error like fmt.Errorf. Every error in args is wrapped, whether it's
// formatted with %w or %v.
func New(msg string, args ...any) error {
	return err{msg, args}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Sentinel creates a plain error, meant to be compared with Is.
func Sentinel(msg string) error {
	return errors.New(msg)
}
