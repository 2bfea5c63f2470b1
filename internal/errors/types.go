package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Code identifies an entry in the error taxonomy (category prefix + numeric suffix).
type Code string

// Definition describes how a code is reported to clients and operators.
type Definition struct {
	Code            Code
	HTTPStatus      int
	PublicMessage   string
	InternalMessage string
	SuggestedAction string

	// forgery-class failures also go to the security audit log
	SecurityAudit bool
}

// ErrorResponse is the wire body for every failed request
type ErrorResponse struct {
	Success         bool   `json:"success"`
	Code            Code   `json:"code"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggestedAction"`
	StatusCode      int    `json:"statusCode"`
	CorrelationID   string `json:"correlationId,omitempty"`
	Details         any    `json:"details,omitempty"`
	Stack           string `json:"stack,omitempty"`
}

// AppError is a classified pipeline error carrying a taxonomy code.
type AppError struct {
	Code    Code
	Details any
	Cause   error

	stack pkgerrors.StackTrace
}

func (e *AppError) Error() string {
	msg := string(e.Code)

	if def, ok := Lookup(e.Code); ok {
		msg += ": " + def.InternalMessage
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) StackTrace() pkgerrors.StackTrace {
	return e.stack
}

// WithDetails attaches structured data that is rendered in the response details.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// DataAccessError marks a failed query. Query and Args are logged, never rendered.
type DataAccessError struct {
	Query string
	Args  []any
	Err   error

	stack pkgerrors.StackTrace
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access failed: %v", e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func (e *DataAccessError) StackTrace() pkgerrors.StackTrace {
	return e.stack
}

// Issue is one field-level validation problem.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries the field issues reported by a schema validator.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))

	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}

		parts = append(parts, issue.Path+": "+issue.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// UploadReason says why an upload was refused.
type UploadReason string

const (
	UploadTooLarge        UploadReason = "size"
	UploadUnsupportedType UploadReason = "type"
)

// UploadError is a rejected file upload.
type UploadError struct {
	Reason UploadReason

	// byte limit for size failures
	Limit int64

	// offending content type for type failures
	ContentType string

	Err error
}

func (e *UploadError) Error() string {
	switch e.Reason {
	case UploadTooLarge:
		return fmt.Sprintf("upload exceeds %d bytes", e.Limit)
	case UploadUnsupportedType:
		return fmt.Sprintf("upload content type %q not accepted", e.ContentType)
	default:
		return "upload rejected"
	}
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
