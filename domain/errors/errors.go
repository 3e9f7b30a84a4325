// Package errors provides domain-specific error types for the verifier.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by error types that can convert themselves
// to a structured ErrorDetail for reports.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// ConfigurationError reports an absent, unreadable or malformed oracle or
// rule document, or an oracle entry without any checkable facet. It is
// fatal to the check it affects and is never retried.
type ConfigurationError struct {
	Err error

	// Source names the offending document or entry
	// (e.g. "rules/network.txt", "oracle[Penguin]").
	Source string
}

func (e *ConfigurationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigurationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Source}
}

// NotFoundError reports that an expected class has no observed counterpart.
// Sessions record it as a structural failure, not as a fatal error.
type NotFoundError struct {
	Identity entities.ClassIdentity
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("class %s not found", e.Identity.QualifiedName())
}

// ToErrorDetail implements DetailedError.
func (e *NotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message:    e.Error(),
		Type:       "not_found",
		Code:       e.Identity.QualifiedName(),
		IsNotFound: true,
	}
}

// ParseError reports a malformed entry inside an otherwise readable document.
type ParseError struct {
	Err  error
	Line int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ParseError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: "parse"}
}

// SchemaError represents a schema generation or validation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: "schema"}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return stdErrors.As(err, &ce)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stdErrors.As(err, &nf)
}
