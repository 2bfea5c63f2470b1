package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "codeberg.org/dishdash/server/internal/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// File is an accepted upload held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload reads the multipart file in field. The content type is sniffed from
// the bytes, never taken from the client.
func Upload(c *gin.Context, field string, maxBytes int64, allowed ...string) (*File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &apperrors.UploadError{Reason: apperrors.UploadTooLarge, Limit: maxBytes, Err: err}
		}

		return nil, apperrors.Invalid(apperrors.Issue{Path: field, Message: "file is required"})
	}

	if fh.Size > maxBytes {
		return nil, &apperrors.UploadError{Reason: apperrors.UploadTooLarge, Limit: maxBytes}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	if int64(len(data)) > maxBytes {
		return nil, &apperrors.UploadError{Reason: apperrors.UploadTooLarge, Limit: maxBytes}
	}

	detected := mimetype.Detect(data)
	if !accepts(detected, allowed) {
		return nil, &apperrors.UploadError{Reason: apperrors.UploadUnsupportedType, ContentType: detected.String()}
	}

	return &File{Name: fh.Filename, ContentType: detected.String(), Data: data}, nil
}

func accepts(m *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if m.Is(a) {
			return true
		}
	}

	return false
}
