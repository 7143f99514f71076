package util

import (
	"errors"
	"fmt"
)

// GeometryError is returned when a geometric precondition is violated: wrong
// number of bonded hydrogens, not enough neighbours, undefined angle.
type GeometryError struct {
	Frame int // index of the frame
	Atom  int // index of the atom, 0 if irrelevant
	Msg   string
}

func (e *GeometryError) Error() string {
	if e.Atom == 0 {
		return fmt.Sprintf("geometry (frame %d): %s", e.Frame, e.Msg)
	}
	return fmt.Sprintf("geometry (frame %d, atom %d): %s", e.Frame, e.Atom, e.Msg)
}

// ConfigError is returned when an option of a calculation is invalid. It is
// always returned before any frame is processed.
type ConfigError struct {
	Option string
	Msg    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("option `%s`: %s", e.Option, e.Msg)
}

// IOError wraps an error occurring while reading or writing a file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// WithFrame sets the frame of err if it is a GeometryError. It returns err.
func WithFrame(err error, frame int) error {
	var e *GeometryError
	if errors.As(err, &e) {
		e.Frame = frame
	}
	return err
}
