package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-market/internal/domain"
	"estate-market/internal/service"
	"estate-market/internal/transport/http/ez"
	mdw "estate-market/internal/transport/http/middleware"
)

type UserHandler struct {
	users    *service.UserService
	listings *service.ListingService
	auth     *AuthHandler
}

func NewUserHandler(users *service.UserService, listings *service.ListingService, a *AuthHandler) *UserHandler {
	return &UserHandler{users: users, listings: listings, auth: a}
}

func (h *UserHandler) MountAPI(e ez.EZ) {
	g := e.Group("/user")

	ez.RegisterAction(g, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/:id",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.users.Get(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(g, ez.Action[domain.UserPatch, *domain.User]{
		Method: http.MethodPost,
		Path:   "/update/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.UserPatch) (*domain.User, error) {
			return h.users.Update(c.Request.Context(), c.Param("id"), *in, mdw.UserID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, string]{
		Method: http.MethodDelete,
		Path:   "/delete/:id",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (string, error) {
			if err := h.users.Delete(c.Request.Context(), c.Param("id"), mdw.UserID(c)); err != nil {
				return "", err
			}
			if h.auth != nil {
				h.auth.ClearCookie(c)
			}
			return "user has been deleted", nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/listings/:id",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Listing, error) {
			id := c.Param("id")
			if id != mdw.UserID(c) {
				return nil, fmt.Errorf("%w: you can only view your own listings", domain.ErrForbidden)
			}
			return h.listings.ListByOwner(c.Request.Context(), id)
		},
	})
}
