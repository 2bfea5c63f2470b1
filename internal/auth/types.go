package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is one of the closed set of platform roles.
type Role string

const (
	RoleCustomer        Role = "CUSTOMER"
	RoleRestaurantOwner Role = "RESTAURANT_OWNER"
	RoleDriver          Role = "DRIVER"
	RoleSupport         Role = "SUPPORT"
	RoleAdmin           Role = "ADMIN"
)

// Roles lists every valid role.
var Roles = []Role{RoleCustomer, RoleRestaurantOwner, RoleDriver, RoleSupport, RoleAdmin}

// ParseRole accepts only members of Roles (case-sensitive).
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}

	return "", false
}

// Principal is the identity established for one request.
type Principal struct {
	SubjectID string `json:"subjectId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// Claims is the signed token payload. Unknown claims are dropped on decode.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Config holds the shared token settings.
type Config struct {
	Secret string
	Issuer string

	// lifetime of issued tokens
	TTL time.Duration

	// clock override for tests
	Now func() time.Time
}

// Rule is the role set a protected route requires.
type Rule struct {
	Roles []Role
}
