package internal

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoSession        = errors.New("edit session not found")
)

// AppError is the error body of an API response.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func (e *AppError) Error() string { return e.Message }

type InvalidDateError struct {
	Input string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: %v", e.Input, e.Err)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

// ReadError is returned by gateway reads and aggregates.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return "read " + e.Op + ": " + e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

func NewReadError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *ReadError
	if errors.As(err, &re) {
		return err
	}
	return &ReadError{Op: op, Err: err}
}

// WriteError is returned by gateway inserts and deletes.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return "write " + e.Op + ": " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

func NewWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var we *WriteError
	if errors.As(err, &we) {
		return err
	}
	return &WriteError{Op: op, Err: err}
}

type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q: %v", e.Field, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadError is the single user-facing error of a failed day load.
type LoadError struct {
	Date Date
	Err  error
}

func (e *LoadError) Error() string {
	return "could not load data for " + e.Date.String() + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }
