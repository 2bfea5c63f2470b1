package health

import (
	"context"
	"net/http"
	"time"

	"codeberg.org/dishdash/server/internal/errors"
	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Handler godoc
// @Summary Health check
// @Description Reports service health including database connectivity
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} errors.ErrorResponse
// @Router /health [get]
func Handler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			errors.Abort(c, errors.Wrap(errors.CodeDatabaseUnavailable, err))
			return
		}

		c.JSON(http.StatusOK, Response{
			Status:   "healthy",
			Service:  "dishdash",
			Version:  "1.0.0",
			Database: "up",
		})
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
