package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "codeberg.org/dishdash/server/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaBaseURL = "https://schemas.dishdash.app/"

var printer = message.NewPrinter(language.English)

// Schema is a compiled JSON schema for request payloads.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// CompileSchema compiles doc; format keywords (email, uuid, ...) are asserted.
func CompileSchema(name, doc string) (*Schema, error) {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema %s is not valid JSON: %w", name, err)
	}

	url := schemaBaseURL + name

	c := jsonschema.NewCompiler()
	c.AssertFormat()

	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema %s: %w", name, err)
	}

	return &Schema{name: name, schema: compiled}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name, doc string) *Schema {
	s, err := CompileSchema(name, doc)
	if err != nil {
		panic(err)
	}

	return s
}

// Validate checks raw JSON against the schema.
func (s *Schema) Validate(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeValidationMalformed, err)
	}

	if err := s.schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return apperrors.Invalid(issuesFrom(verr)...)
		}

		return fmt.Errorf("schema %s: %w", s.name, err)
	}

	return nil
}

// Bind validates the request body against the schema, then decodes it into obj.
func (s *Schema) Bind(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return apperrors.Wrap(apperrors.CodeValidationMalformed, io.ErrUnexpectedEOF)
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}

		return apperrors.Wrap(apperrors.CodeValidationMalformed, err)
	}

	if err := s.Validate(raw); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, obj); err != nil {
		return FromBindError(err)
	}

	return nil
}

// flattens the error tree to its leaves, one issue per failing field
func issuesFrom(verr *jsonschema.ValidationError) []apperrors.Issue {
	var issues []apperrors.Issue

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				walk(cause)
			}
			return
		}

		base := strings.Join(e.InstanceLocation, ".")

		switch k := e.ErrorKind.(type) {
		case *kind.Required:
			for _, prop := range k.Missing {
				issues = append(issues, apperrors.Issue{Path: joinPath(base, prop), Message: "is required"})
			}
		default:
			issues = append(issues, apperrors.Issue{Path: base, Message: e.ErrorKind.LocalizedString(printer)})
		}
	}

	walk(verr)

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Path < issues[j].Path
	})

	return issues
}

func joinPath(base, prop string) string {
	if base == "" {
		return prop
	}

	return base + "." + prop
}
