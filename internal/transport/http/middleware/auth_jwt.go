package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-market/internal/core/auth"
	resp "estate-market/internal/transport/http/response"
)

const (
	CtxUserID = "uid"
	CtxRole   = "role"
)

// tokenFrom prefers the Authorization header and falls back to the session
// cookie set at sign-in.
func tokenFrom(c *gin.Context, cookie string) string {
	if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimPrefix(ah, "Bearer ")
	}
	if cookie != "" {
		if v, err := c.Cookie(cookie); err == nil {
			return v
		}
	}
	return ""
}

// AuthJWT requires a valid access token. With roles given, the token's role
// must be one of them.
func AuthJWT(j *auth.JWTer, cookie string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := tokenFrom(c, cookie)
		if tok == "" {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(tok)
		if errors.Is(err, auth.ErrExpiredToken) {
			resp.Abort(c, resp.CodeUnauthorized, "token expired")
			return
		}
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Set(CtxUserID, claims.UID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func UserID(c *gin.Context) string { return c.GetString(CtxUserID) }
func Role(c *gin.Context) string   { return c.GetString(CtxRole) }
