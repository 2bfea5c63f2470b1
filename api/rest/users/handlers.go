package users

import (
	"net/http"

	"codeberg.org/dishdash/server/internal/errors"
	"github.com/gin-gonic/gin"
)

// GetUser godoc
// @Summary Get a user profile
// @Description The account owner, support staff and admins may read a profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/users/{id} [get]
// @Security BearerAuth
func GetUser(finder Finder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := finder.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, UserResponse{User: user})
	}
}
