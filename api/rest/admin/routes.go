package admin

import (
	"codeberg.org/dishdash/server/internal/auth"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// every admin route authenticates, checks roles, then applies the admin limiter
func RegisterRoutes(router *gin.RouterGroup, authenticator *auth.Authenticator, adminLimiter *ratelimit.Limiter, registry *ratelimit.Registry) {
	admin := router.Group("/admin", authenticator.Middleware())

	staff := auth.RequireRoles(auth.RoleAdmin, auth.RoleSupport)
	adminOnly := auth.RequireRoles(auth.RoleAdmin)
	limit := adminLimiter.Middleware()

	admin.GET("/errors", staff, limit, ErrorCatalog)
	admin.GET("/ratelimits", adminOnly, limit, ListLimiters(registry))
	admin.DELETE("/ratelimits/:limiter/*key", adminOnly, limit, ResetLimit(registry))
}
