package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-market/internal/domain"
	"estate-market/internal/service"
	"estate-market/internal/transport/http/ez"
)

// AdminHandler serves moderation endpoints on the admin listener.
type AdminHandler struct {
	users    *service.UserService
	listings *service.ListingService
}

func NewAdminHandler(users *service.UserService, listings *service.ListingService) *AdminHandler {
	return &AdminHandler{users: users, listings: listings}
}

type userListQuery struct {
	Offset int    `form:"offset,default=0"`
	Limit  int    `form:"limit,default=20"`
	Q      string `form:"q"`
}

type UserListOut struct {
	Total int64         `json:"total"`
	Items []domain.User `json:"items"`
}

func (h *AdminHandler) MountAdmin(e ez.EZ) {
	admins := []string{domain.RoleAdmin}

	ez.RegisterAction(e, ez.Action[userListQuery, UserListOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Roles:  admins,
		Handler: func(c *gin.Context, in *userListQuery) (UserListOut, error) {
			items, total, err := h.users.List(c.Request.Context(), in.Offset, in.Limit, in.Q)
			if err != nil {
				return UserListOut{}, err
			}
			return UserListOut{Total: total, Items: items}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Roles:  admins,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.users.Ban(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, string]{
		Method: http.MethodDelete,
		Path:   "/listings/:id",
		Roles:  admins,
		Handler: func(c *gin.Context, _ *struct{}) (string, error) {
			if err := h.listings.Remove(c.Request.Context(), c.Param("id")); err != nil {
				return "", err
			}
			return "listing has been removed", nil
		},
	})
}
