package correlation

import (
	"context"
	"regexp"

	"codeberg.org/dishdash/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the correlation id in both directions.
const Header = "X-Correlation-ID"

// gin key for the correlation id
const ginKey = "correlation_id"

// inbound ids are echoed only when they look like an opaque token
var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,128}$`)

type contextKey struct{}

// Middleware assigns every request a correlation id, honouring a well-formed
// inbound header, and attaches a request logger carrying it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !validID.MatchString(id) {
			id = uuid.New().String()
		}

		c.Set(ginKey, id)
		c.Writer.Header().Set(Header, id)

		ctx := context.WithValue(c.Request.Context(), contextKey{}, id)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("correlation_id", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// FromContext returns the correlation id stored by Middleware.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromGin returns the correlation id for the in-flight request.
func FromGin(c *gin.Context) string {
	return c.GetString(ginKey)
}
