package ratelimit

import (
	"codeberg.org/dishdash/server/internal/auth"
	"github.com/gin-gonic/gin"
)

// ByIP keys on the client address.
func ByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByUser keys on the authenticated subject, falling back to the client address
// for anonymous requests. Mount it after the authenticator.
func ByUser(c *gin.Context) string {
	if p := auth.PrincipalFromGin(c); p != nil {
		return "user:" + p.SubjectID
	}

	return ByIP(c)
}

// Global shares one counter between every caller.
func Global(*gin.Context) string {
	return "global"
}

// ByRouteAndIP keys on the matched route pattern and the client address.
func ByRouteAndIP(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	return "route:" + route + "|" + ByIP(c)
}

var keyFuncs = map[string]KeyFunc{
	"ip":       ByIP,
	"user":     ByUser,
	"global":   Global,
	"route_ip": ByRouteAndIP,
}

// KeyFuncByName resolves the key strategy names used in policy files.
func KeyFuncByName(name string) (KeyFunc, bool) {
	fn, ok := keyFuncs[name]
	return fn, ok
}
