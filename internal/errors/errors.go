package errors

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers and middleware:
//   - Raise failures with errors.Abort(c, err); never write an error body directly
//   - Use errors.New(code) / errors.Wrap(code, err) for anything the client should see
//   - The central Handler renders the response and does the logging
//   - Never log and Abort the same error (avoid double logging)
//
// For services/repositories/internal packages:
//   - Wrap query failures with errors.DataAccess(query, args, err)
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to respond

// New returns a classified error for code.
func New(code Code) *AppError {
	return &AppError{Code: code, stack: callers()}
}

// Wrap returns a classified error for code caused by err.
func Wrap(code Code, err error) *AppError {
	return &AppError{Code: code, Cause: err, stack: callers()}
}

// DataAccess marks err as a failed query against the data store.
func DataAccess(query string, args []any, err error) *DataAccessError {
	return &DataAccessError{Query: query, Args: args, Err: err, stack: callers()}
}

// Invalid returns a validation failure for the given issues.
func Invalid(issues ...Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}

// Recovered converts a recovered panic value into an error with the panicking stack.
func Recovered(rec any) error {
	if err, ok := rec.(error); ok {
		return pkgerrors.WithStack(fmt.Errorf("panic: %w", err))
	}

	return pkgerrors.Errorf("panic: %v", rec)
}

// CodeOf returns the taxonomy code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}

	return "", false
}

// Abort records err on the gin context and stops the handler chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Recovery turns handler panics into errors for the central Handler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		Abort(c, Recovered(rec))
	})
}

// NotFound is mounted with engine.NoRoute.
func NotFound(c *gin.Context) {
	Abort(c, New(CodeRouteNotFound))
}

// MethodNotAllowed is mounted with engine.NoMethod.
func MethodNotAllowed(c *gin.Context) {
	Abort(c, New(CodeMethodNotAllowed))
}
