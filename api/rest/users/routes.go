package users

import (
	"codeberg.org/dishdash/server/internal/auth"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, authenticator *auth.Authenticator, finder Finder) {
	usersGroup := router.Group("/users", authenticator.Middleware())

	usersGroup.GET("/:id", auth.RequireOwnerOrRoles(auth.ParamOwner("id"), auth.RoleSupport, auth.RoleAdmin), GetUser(finder))
}
