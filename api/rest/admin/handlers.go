package admin

import (
	"fmt"
	"net/http"
	"strings"

	"codeberg.org/dishdash/server/internal/auth"
	"codeberg.org/dishdash/server/internal/errors"
	"codeberg.org/dishdash/server/internal/logger"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// ErrorCatalog godoc
// @Summary List error codes
// @Description Every taxonomy code with its status and client-facing text
// @Tags admin
// @Produce json
// @Success 200 {object} CatalogResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors [get]
// @Security BearerAuth
func ErrorCatalog(c *gin.Context) {
	defs := errors.Definitions()
	entries := make([]CatalogEntry, 0, len(defs))

	for _, def := range defs {
		entries = append(entries, CatalogEntry{
			Code:            def.Code,
			Category:        def.Code.Category(),
			HTTPStatus:      def.HTTPStatus,
			Message:         def.PublicMessage,
			SuggestedAction: def.SuggestedAction,
		})
	}

	c.JSON(http.StatusOK, CatalogResponse{Errors: entries})
}

// ListLimiters godoc
// @Summary List rate limiters
// @Tags admin
// @Produce json
// @Success 200 {object} LimitersResponse
// @Router /api/v1/admin/ratelimits [get]
// @Security BearerAuth
func ListLimiters(registry *ratelimit.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		names := registry.Names()
		limiters := make([]LimiterInfo, 0, len(names))

		for _, name := range names {
			l, _ := registry.Get(name)
			cfg := l.Config()

			limiters = append(limiters, LimiterInfo{
				Name:          name,
				WindowSeconds: cfg.Window.Seconds(),
				Max:           cfg.Max,
				Code:          cfg.Code,
				SkipSuccess:   cfg.Compensate.OnSuccess,
				SkipFailed:    cfg.Compensate.OnFailure,
			})
		}

		c.JSON(http.StatusOK, LimitersResponse{Limiters: limiters})
	}
}

// ResetLimit godoc
// @Summary Reset a rate limit key
// @Description Clears the counter for one key of a named limiter, e.g. ip:203.0.113.7
// @Tags admin
// @Param limiter path string true "Limiter name"
// @Param key path string true "Key as produced by the limiter's key strategy"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/v1/admin/ratelimits/{limiter}/{key} [delete]
// @Security BearerAuth
func ResetLimit(registry *ratelimit.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("limiter")
		key := strings.TrimPrefix(c.Param("key"), "/")

		l, ok := registry.Get(name)
		if !ok {
			errors.Abort(c, errors.Invalid(errors.Issue{
				Path:    "limiter",
				Message: fmt.Sprintf("unknown limiter %q, expected one of %s", name, strings.Join(registry.Names(), ", ")),
			}))
			return
		}

		if key == "" {
			errors.Abort(c, errors.Invalid(errors.Issue{Path: "key", Message: "is required"}))
			return
		}

		if err := l.Reset(c.Request.Context(), key); err != nil {
			errors.Abort(c, errors.Wrap(errors.CodeServiceUnavailable, err))
			return
		}

		actor := ""
		if p := auth.PrincipalFromGin(c); p != nil {
			actor = p.SubjectID
		}

		logger.Info("rate limit reset", "limiter", name, "key", key, "actor", actor)

		c.Status(http.StatusNoContent)
	}
}
