package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for a file extension other than
	// .toml, .yaml or .yml.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("invalid configuration")
)

// ParseError reports a file that could not be decoded. Line and Column
// are zero when the decoder gives no position.
type ParseError struct {
	File   string
	Line   int
	Column int
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	where := e.File
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d", where, e.Line)
		if e.Column > 0 {
			where = fmt.Sprintf("%s:%d", where, e.Column)
		}
	}
	return fmt.Sprintf("config %s: %s", where, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError names the setting that failed Validate, by its file key
// such as "events.async_workers".
type ValidationError struct {
	Key     string
	Problem string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s %s, got %v", e.Key, e.Problem, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
