package auth

import (
	"codeberg.org/dishdash/server/internal/auth"
	"codeberg.org/dishdash/server/internal/ratelimit"
	"codeberg.org/dishdash/server/internal/validation"
	"github.com/gin-gonic/gin"
)

// multipart framing allowed on top of the file itself
const multipartOverhead = 64 << 10

// registers all authentication routes
func RegisterRoutes(router *gin.RouterGroup, authenticator *auth.Authenticator, loginLimiter *ratelimit.Limiter, userStore UserStore, issuer TokenIssuer, maxUploadBytes int64) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", loginLimiter.Middleware(), LoginHandler(userStore, issuer))

		me := authGroup.Group("/me", authenticator.Middleware())
		me.GET("", MeHandler(userStore))
		me.PUT("/avatar", validation.LimitBody(maxUploadBytes+multipartOverhead), AvatarHandler(userStore, maxUploadBytes))
	}
}
