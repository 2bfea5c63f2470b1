package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

// Kind is the closed set of error variants the handler understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindClassified
	KindDataAccess
	KindValidation
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindClassified:
		return "classified"
	case KindDataAccess:
		return "data_access"
	case KindValidation:
		return "validation"
	case KindUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// Classification is the outcome of mapping an error onto the taxonomy.
type Classification struct {
	Kind       Kind
	Definition Definition
	Details    any
	Err        error
}

// Classify maps err onto a taxonomy definition. First match wins:
// classified, data access, validation, upload, unknown.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindUnknown, Definition: MustLookup(CodeInternal)}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		def, ok := Lookup(appErr.Code)
		if !ok {
			return Classification{
				Kind:       KindUnknown,
				Definition: MustLookup(CodeInternal),
				Err:        fmt.Errorf("unregistered error code %q: %w", appErr.Code, err),
			}
		}

		return Classification{Kind: KindClassified, Definition: def, Details: appErr.Details, Err: err}
	}

	if isDataAccess(err) {
		return Classification{Kind: KindDataAccess, Definition: MustLookup(CodeDatabaseFailed), Err: err}
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return Classification{
			Kind:       KindValidation,
			Definition: MustLookup(CodeValidationFailed),
			Details:    valErr.Issues,
			Err:        err,
		}
	}

	var upErr *UploadError
	if errors.As(err, &upErr) {
		if upErr.Reason == UploadUnsupportedType {
			return Classification{
				Kind:       KindUpload,
				Definition: MustLookup(CodeUploadBadType),
				Details:    map[string]any{"contentType": upErr.ContentType},
				Err:        err,
			}
		}

		return Classification{
			Kind:       KindUpload,
			Definition: MustLookup(CodeUploadTooLarge),
			Details:    map[string]any{"limit": upErr.Limit},
			Err:        err,
		}
	}

	// body exceeded http.MaxBytesReader
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return Classification{
			Kind:       KindUpload,
			Definition: MustLookup(CodeUploadTooLarge),
			Details:    map[string]any{"limit": maxErr.Limit},
			Err:        err,
		}
	}

	return Classification{Kind: KindUnknown, Definition: MustLookup(CodeInternal), Err: err}
}

// Resolve returns the status err will be rendered with.
func Resolve(err error) int {
	return Classify(err).Definition.HTTPStatus
}

// pgx errors are data access failures even when nobody wrapped them
func isDataAccess(err error) bool {
	var dataErr *DataAccessError
	if errors.As(err, &dataErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}

	return errors.Is(err, pgx.ErrNoRows)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// StackOf formats the first stack trace found in the chain of err.
func StackOf(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		return ""
	}

	trace := st.StackTrace()
	if len(trace) == 0 {
		return ""
	}

	return strings.TrimSpace(fmt.Sprintf("%+v", trace))
}

// skips callers itself and the exported constructor
func callers() pkgerrors.StackTrace {
	trace := pkgerrors.New("").(stackTracer).StackTrace()
	if len(trace) > 2 {
		return trace[2:]
	}

	return trace
}
