package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

type contextKey struct {
	name string
}

var principalKey = contextKey{"principal"}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by the authenticator.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// attaches p to the in-flight request and mirrors it into gin keys
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))

	c.Set("user_id", p.SubjectID)
	c.Set("user_email", p.Email)
	c.Set("user_role", string(p.Role))
}

// returns the request principal or nil
func PrincipalFromGin(c *gin.Context) *Principal {
	p, _ := PrincipalFromContext(c.Request.Context())
	return p
}

// extracts user_id from context after the authenticator ran
func GetUserID(c *gin.Context) (string, bool) {
	p := PrincipalFromGin(c)
	if p == nil {
		return "", false
	}

	return p.SubjectID, true
}
