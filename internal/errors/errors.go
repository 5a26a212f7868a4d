// Package errors wraps github.com/go-errors/errors so that every error
// leaving a package carries a stack, and defines the failure kinds of the
// capture and restore paths.
package errors

import (
	"errors"
	"fmt"

	errorsGo "github.com/go-errors/errors"
)

// Failure kinds. Match them with Is.
var (
	ErrInvalidInput     = errors.New(`invalid input`)
	ErrOutOfBounds      = errors.New(`out of bounds`)
	ErrGeometryMismatch = errors.New(`geometry mismatch`)
	ErrExternalTool     = errors.New(`external tool failure`)
	ErrMissingSnapshot  = errors.New(`missing snapshot`)
)

type Error = errorsGo.Error

func As(err error, target any) bool { return errorsGo.As(err, target) }

func Is(err, target error) bool { return errorsGo.Is(err, target) }

func Unwrap(err error) error { return errorsGo.Unwrap(err) }

func Join(errs ...error) error {
	if err := errors.Join(errs...); err != nil {
		return errorsGo.Wrap(err, 1)
	}
	return nil
}

// New returns nil for nil and keeps the stack of errors that already have one.
func New(obj any) error {
	if obj == nil {
		return nil
	}
	if errGo, ok := obj.(*errorsGo.Error); ok {
		return errGo
	}
	return errorsGo.Wrap(obj, 1)
}

func Errorf(format string, a ...any) error { return errorsGo.Wrap(fmt.Errorf(format, a...), 1) }

// Kind returns an error of the given kind with a formatted detail message.
func Kind(kind error, format string, a ...any) error {
	return errorsGo.Wrap(fmt.Errorf(`%w: `+format, append([]any{kind}, a...)...), 1)
}

// Wrapf tags err with kind. nil stays nil.
func Wrapf(err, kind error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, a...)
	return errorsGo.Wrap(fmt.Errorf(`%w: %s: %w`, kind, msg, err), 1)
}

// Stack returns the stack trace of err if it has one, else its message.
func Stack(err error) string {
	if err == nil {
		return ``
	}
	var errGo *errorsGo.Error
	if errors.As(err, &errGo) {
		return errGo.ErrorStack()
	}
	return err.Error()
}
