package auth

import (
	"slices"

	"codeberg.org/dishdash/server/internal/errors"
	"codeberg.org/dishdash/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// validates the bearer token and attaches the principal to the request
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := a.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			errors.Abort(c, err)
			return
		}

		SetPrincipal(c, p)
		c.Next()
	}
}

// Require builds a rule admitting the given roles.
func Require(roles ...Role) Rule {
	return Rule{Roles: slices.Clone(roles)}
}

func (r Rule) Allows(role Role) bool {
	return slices.Contains(r.Roles, role)
}

// Authorize decides whether p may pass rule. An empty rule denies everyone.
func Authorize(p *Principal, rule Rule) error {
	if p == nil {
		return errors.New(errors.CodeAuthRequired)
	}

	if !rule.Allows(p.Role) {
		return errors.New(errors.CodePermInsufficientRole)
	}

	return nil
}

// AuthorizeOwner admits the resource owner or any role in rule.
func AuthorizeOwner(p *Principal, ownerID string, rule Rule) error {
	if p == nil {
		return errors.New(errors.CodeAuthRequired)
	}

	if ownerID != "" && p.SubjectID == ownerID {
		return nil
	}

	if rule.Allows(p.Role) {
		return nil
	}

	return errors.New(errors.CodePermNotOwner)
}

// rejects requests whose principal role is not in roles
func RequireRoles(roles ...Role) gin.HandlerFunc {
	rule := Require(roles...)

	if len(rule.Roles) == 0 {
		logger.Warn("role rule declared without roles; every request will be denied")
	}

	return func(c *gin.Context) {
		if err := Authorize(PrincipalFromGin(c), rule); err != nil {
			errors.Abort(c, err)
			return
		}

		c.Next()
	}
}

// OwnerFunc resolves the owner of the resource a request targets.
type OwnerFunc func(c *gin.Context) (string, error)

// ParamOwner treats a path parameter as the owning subject id.
func ParamOwner(param string) OwnerFunc {
	return func(c *gin.Context) (string, error) {
		return c.Param(param), nil
	}
}

// admits the resource owner or any of roles; anyone else gets PERM_002
func RequireOwnerOrRoles(owner OwnerFunc, roles ...Role) gin.HandlerFunc {
	rule := Require(roles...)

	return func(c *gin.Context) {
		p := PrincipalFromGin(c)
		if p == nil {
			errors.Abort(c, errors.New(errors.CodeAuthRequired))
			return
		}

		ownerID, err := owner(c)
		if err != nil {
			errors.Abort(c, err)
			return
		}

		if err := AuthorizeOwner(p, ownerID, rule); err != nil {
			errors.Abort(c, err)
			return
		}

		c.Next()
	}
}
