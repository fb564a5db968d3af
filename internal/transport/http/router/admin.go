package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"estate-market/internal/domain"
	"estate-market/internal/transport/http/ez"
	"estate-market/internal/transport/http/handler"
	mdw "estate-market/internal/transport/http/middleware"
)

// NewAdminEngine serves moderation under /admin/v1; every route needs the
// admin role. On top of the per-IP limit, all admin traffic shares one
// smaller bucket, checked before the token so guessing is throttled too.
func NewAdminEngine(d Deps) *gin.Engine {
	r := base(d)

	var reg Registry
	reg.Register(handler.NewAdminHandler(d.Users, d.Listings))

	g := r.Group("/admin/v1")
	if l := d.Config.Limits; l.AdminRPS > 0 {
		g.Use(mdw.RateLimit(rate.Limit(l.AdminRPS), max(1, l.AdminBurst)))
	}
	g.Use(mdw.AuthJWT(d.JWT, d.Config.JWT.CookieName, domain.RoleAdmin))
	reg.MountAllAdmin(ez.New(g, nil, d.Log))
	return r
}
