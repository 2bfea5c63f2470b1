package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	apperrors "codeberg.org/dishdash/server/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// report json field names instead of Go field names
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// Bind decodes the JSON body into obj and runs its `binding` tags.
// Failures come back as classified errors ready for errors.Abort.
func Bind(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return FromBindError(err)
	}

	return nil
}

// FromBindError converts a gin binding error into the error taxonomy.
func FromBindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		issues := make([]apperrors.Issue, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			issues = append(issues, apperrors.Issue{Path: fieldPath(fe), Message: fieldMessage(fe)})
		}

		return apperrors.Invalid(issues...)
	}

	// oversized bodies are classified by the central handler
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.Invalid(apperrors.Issue{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		})
	}

	return apperrors.Wrap(apperrors.CodeValidationMalformed, err)
}

// drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}

	return path
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// LimitBody caps request bodies; reads past maxBytes fail with http.MaxBytesError.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
