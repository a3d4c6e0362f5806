// Package apperr defines the error taxonomy shared by the loader, the
// analysis pipeline and the HTTP layer.
//
// ClientInputError maps to 400, ConfigurationError stops the process before
// it serves, and UpstreamError (or anything unclassified) maps to 500.
package apperr

import (
	"errors"
	"fmt"
)

// ClientInputError reports a missing or invalid field supplied by the caller.
type ClientInputError struct {
	Field   string
	Message string
}

func (e *ClientInputError) Error() string {
	return e.Message
}

// ClientInput returns a ClientInputError for field.
func ClientInput(field, format string, args ...any) error {
	return &ClientInputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports a startup problem: missing credentials, an
// unreadable dataset, or a dataset without the required columns.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Setting == "" {
		return "configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configuration wraps err as a ConfigurationError for setting.
func Configuration(setting string, err error) error {
	return &ConfigurationError{Setting: setting, Err: err}
}

// UpstreamError reports a failure of the remote generation service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError for op.
func Upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// IsClientInput reports whether err carries a ClientInputError.
func IsClientInput(err error) bool {
	var target *ClientInputError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
