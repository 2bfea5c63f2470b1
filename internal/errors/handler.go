package errors

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/dishdash/server/internal/correlation"
	"codeberg.org/dishdash/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// HandlerConfig controls disclosure and instrumentation of rendered errors.
type HandlerConfig struct {
	// hides stacks and 5xx details
	Production bool

	// called once for every rendered error (metrics hook)
	Observe func(code Code, status int)
}

// Handler is the central error middleware. Mount it before anything that can
// fail; it renders the last error recorded on the context.
func Handler(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		cls := Classify(err)

		report(c, cls)

		if cfg.Observe != nil {
			cfg.Observe(cls.Definition.Code, cls.Definition.HTTPStatus)
		}

		// a handler already committed a response; nothing left to render
		if c.Writer.Written() {
			return
		}

		c.AbortWithStatusJSON(cls.Definition.HTTPStatus, BuildResponse(cls, correlation.FromGin(c), cfg.Production))
	}
}

// BuildResponse renders a classification under the disclosure policy.
func BuildResponse(cls Classification, correlationID string, production bool) ErrorResponse {
	def := cls.Definition

	resp := ErrorResponse{
		Success:         false,
		Code:            def.Code,
		Message:         def.PublicMessage,
		SuggestedAction: def.SuggestedAction,
		StatusCode:      def.HTTPStatus,
		CorrelationID:   correlationID,
	}

	serverSide := def.HTTPStatus >= http.StatusInternalServerError

	// 4xx details always; 5xx details only outside production
	if !serverSide || !production {
		resp.Details = cls.Details

		if serverSide && resp.Details == nil && cls.Err != nil {
			resp.Details = map[string]any{"error": cls.Err.Error()}
		}
	}

	if !production {
		resp.Stack = StackOf(cls.Err)
	}

	return resp
}

func report(c *gin.Context, cls Classification) {
	ctx := c.Request.Context()
	// the request logger already carries correlation_id
	log := logger.FromContext(ctx)
	def := cls.Definition

	args := []any{
		"code", def.Code,
		"status", def.HTTPStatus,
		"kind", cls.Kind.String(),
		"internal_message", def.InternalMessage,
		"url", c.Request.URL.String(),
		"method", c.Request.Method,
		"user_id", c.GetString("user_id"),
		"client_ip", c.ClientIP(),
		"user_agent", c.Request.UserAgent(),
	}

	if cls.Err != nil {
		args = append(args, "error", cls.Err.Error())
	}

	var dataErr *DataAccessError
	if errors.As(cls.Err, &dataErr) {
		args = append(args, "query", dataErr.Query, "args", dataErr.Args)
	}

	if stack := StackOf(cls.Err); stack != "" {
		args = append(args, "stack", stack)
	}

	switch {
	case cls.Kind == KindUnknown:
		log.Error("unhandled error", append(args, "programming_error", true)...)
	case def.HTTPStatus >= http.StatusInternalServerError:
		log.Error("request failed", args...)
	default:
		log.Warn("request rejected", args...)
	}

	if def.SecurityAudit {
		audit(ctx, c, def)
	}
}

func audit(ctx context.Context, c *gin.Context, def Definition) {
	logger.Audit(ctx, "credential_forgery",
		"code", def.Code,
		"url", c.Request.URL.String(),
		"method", c.Request.Method,
		"client_ip", c.ClientIP(),
		"user_agent", c.Request.UserAgent(),
	)
}
