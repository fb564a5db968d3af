package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"estate-market/internal/core/auth"
	"estate-market/internal/core/config"
	"estate-market/internal/core/server"
	"estate-market/internal/imagehost"
	"estate-market/internal/service"
	"estate-market/internal/transport/http/ez"
	"estate-market/internal/transport/http/handler"
	mdw "estate-market/internal/transport/http/middleware"
	resp "estate-market/internal/transport/http/response"
)

// Deps is everything the HTTP surfaces need.
type Deps struct {
	Log      *zap.Logger
	Config   *config.Config
	JWT      *auth.JWTer
	Users    *service.UserService
	Listings *service.ListingService
	Uploader imagehost.Uploader
	// Ping checks the backing stores for /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

func base(d Deps) *gin.Engine {
	c := d.Config
	r := server.NewRouter(server.Options{Mode: server.GinMode(c.App.Env), AllowOrigins: c.App.AllowOrigins})
	r.Use(
		mdw.RequestID(),
		mdw.Recovery(d.Log),
		mdw.RateLimitPerIP(rate.Limit(c.Limits.RPS), c.Limits.Burst),
		mdw.ConcurrencyLimit(c.Limits.MaxConcurrent),
		mdw.MaxBodyBytes(c.Limits.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(c.Limits.RequestTimeoutSec)*time.Second),
		mdw.Metrics("/metrics", "/health"),
		mdw.AccessLog(d.Log, "/health", "/metrics"),
	)
	r.GET("/health", health(d.Ping))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				resp.Write(c, resp.Error(resp.CodeUnavailable, "store unavailable"))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	}
}

// NewAPIEngine serves the public API under /api.
func NewAPIEngine(d Deps) *gin.Engine {
	r := base(d)
	authH := handler.NewAuthHandler(d.Users, d.JWT, d.Config.JWT)

	var reg Registry
	reg.Register(
		authH,
		handler.NewUserHandler(d.Users, d.Listings, authH),
		handler.NewListingHandler(d.Listings),
		handler.NewUploadHandler(d.Uploader),
	)
	api := ez.New(r.Group("/api"), mdw.AuthJWT(d.JWT, d.Config.JWT.CookieName), d.Log)
	reg.MountAllAPI(api)
	return r
}
