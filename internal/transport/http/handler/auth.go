package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-market/internal/core/auth"
	"estate-market/internal/core/config"
	"estate-market/internal/domain"
	"estate-market/internal/service"
	"estate-market/internal/transport/http/ez"
)

type AuthHandler struct {
	users  *service.UserService
	jwt    *auth.JWTer
	cookie config.JWT
}

func NewAuthHandler(users *service.UserService, j *auth.JWTer, c config.JWT) *AuthHandler {
	return &AuthHandler{users: users, jwt: j, cookie: c}
}

func (h *AuthHandler) Priority() int { return 10 }

type signInIn struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignInOut struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *AuthHandler) MountAPI(e ez.EZ) {
	g := e.Group("/auth")

	ez.RegisterAction(g, ez.Action[service.SignUpInput, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/signup",
		Binder:  ez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignUpInput) (*domain.User, error) { return h.users.SignUp(c.Request.Context(), *in) },
	})

	ez.RegisterAction(g, ez.Action[signInIn, SignInOut]{
		Method: http.MethodPost,
		Path:   "/signin",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *signInIn) (SignInOut, error) {
			u, err := h.users.SignIn(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return SignInOut{}, err
			}
			tok, err := h.jwt.Issue(u.ID, u.Role)
			if err != nil {
				return SignInOut{}, ez.Internal("issue token failed", err)
			}
			h.setCookie(c, tok, int(h.cookie.TTL().Seconds()))
			return SignInOut{Token: tok, User: u}, nil
		},
	})

	g.GET("/signout", func(c *gin.Context) (any, error) {
		h.ClearCookie(c)
		return "user has been logged out", nil
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, value, maxAge, "/", "", h.cookie.CookieSecure, true)
}

func (h *AuthHandler) ClearCookie(c *gin.Context) { h.setCookie(c, "", -1) }
