package auth

import (
	"net/http"

	"codeberg.org/dishdash/server/internal/auth"
	"codeberg.org/dishdash/server/internal/errors"
	"codeberg.org/dishdash/server/internal/logger"
	"codeberg.org/dishdash/server/internal/validation"
	"github.com/gin-gonic/gin"
)

var loginSchema = validation.MustCompileSchema("login.json", `{
	"type": "object",
	"properties": {
		"email": {"type": "string", "format": "email"},
		"password": {"type": "string", "minLength": 8}
	},
	"required": ["email", "password"],
	"additionalProperties": false
}`)

// image types accepted as avatars
var avatarTypes = []string{"image/png", "image/jpeg", "image/webp"}

// LoginHandler godoc
// @Summary Sign in
// @Description Exchange email and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /api/v1/auth/login [post]
func LoginHandler(userStore UserStore, issuer TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest

		if err := loginSchema.Bind(c, &req); err != nil {
			errors.Abort(c, err)
			return
		}

		user, err := userStore.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			errors.Abort(c, err)
			return
		}

		token, expiresAt, err := issuer.Sign(user.Principal())
		if err != nil {
			errors.Abort(c, errors.Wrap(errors.CodeInternal, err))
			return
		}

		logger.Info("user signed in", "user_id", user.ID, "role", user.Role)

		c.JSON(http.StatusOK, LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			User:      user,
		})
	}
}

// MeHandler godoc
// @Summary Get current user
// @Description Get the authenticated principal and profile
// @Tags auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/auth/me [get]
// @Security BearerAuth
func MeHandler(userStore UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := auth.PrincipalFromGin(c)
		if principal == nil {
			errors.Abort(c, errors.New(errors.CodeAuthRequired))
			return
		}

		user, err := userStore.FindByID(c.Request.Context(), principal.SubjectID)
		if err != nil {
			errors.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, MeResponse{Principal: principal, User: user})
	}
}

// AvatarHandler godoc
// @Summary Upload avatar
// @Description Replace the authenticated user's profile picture (png, jpeg or webp)
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Image"
// @Success 200 {object} AvatarResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Router /api/v1/auth/me/avatar [put]
// @Security BearerAuth
func AvatarHandler(userStore UserStore, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := auth.PrincipalFromGin(c)
		if principal == nil {
			errors.Abort(c, errors.New(errors.CodeAuthRequired))
			return
		}

		file, err := validation.Upload(c, "avatar", maxBytes, avatarTypes...)
		if err != nil {
			errors.Abort(c, err)
			return
		}

		if err := userStore.SetAvatar(c.Request.Context(), principal.SubjectID, file.ContentType, file.Data); err != nil {
			errors.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, AvatarResponse{ContentType: file.ContentType, Size: len(file.Data)})
	}
}
