package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-market/internal/domain"
	"estate-market/internal/feature/home"
	"estate-market/internal/service"
	"estate-market/internal/transport/http/ez"
	mdw "estate-market/internal/transport/http/middleware"
)

type ListingHandler struct {
	listings *service.ListingService
}

func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// hide reports a listing the caller does not own exactly like a missing one.
func hide(err error) error {
	if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrNotFound) {
		return ez.NotFound("listing not found")
	}
	return err
}

// ListingQuery is the query string of GET /listing/get. Flags are strings
// so that anything but "true" means "don't care".
type ListingQuery struct {
	Type       string `form:"type"`
	Offer      string `form:"offer"`
	Parking    string `form:"parking"`
	Furnished  string `form:"furnished"`
	SearchTerm string `form:"searchTerm"`
	Sort       string `form:"sort"`
	Order      string `form:"order"`
	Limit      int    `form:"limit"`
	StartIndex int    `form:"startIndex"`
}

func (q ListingQuery) Filter() domain.ListingFilter {
	return domain.ListingFilter{
		Type:       domain.ListingType(q.Type),
		Offer:      q.Offer == "true",
		Parking:    q.Parking == "true",
		Furnished:  q.Furnished == "true",
		SearchTerm: q.SearchTerm,
		Sort:       domain.SortKey(q.Sort),
		Asc:        q.Order == "asc",
		Limit:      q.Limit,
		StartIndex: q.StartIndex,
	}.Normalize()
}

type homeQuery struct {
	Filter string `form:"filter"`
}

type HomeOut struct {
	Filter   home.Filter      `json:"filter"`
	Listings []domain.Listing `json:"listings"`
}

func (h *ListingHandler) MountAPI(e ez.EZ) {
	g := e.Group("/listing")

	ez.RegisterAction(g, ez.Action[domain.ListingDraft, *domain.Listing]{
		Method: http.MethodPost,
		Path:   "/create",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.ListingDraft) (*domain.Listing, error) {
			return h.listings.Create(c.Request.Context(), *in, mdw.UserID(c))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Listing]{
		Method: http.MethodGet,
		Path:   "/get/:id",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Listing, error) {
			l, err := h.listings.Get(c.Request.Context(), c.Param("id"))
			return l, hide(err)
		},
	})

	ez.RegisterAction(g, ez.Action[ListingQuery, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/get",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *ListingQuery) ([]domain.Listing, error) {
			return h.listings.Query(c.Request.Context(), in.Filter())
		},
	})

	ez.RegisterAction(g, ez.Action[domain.ListingPatch, *domain.Listing]{
		Method: http.MethodPost,
		Path:   "/update/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *domain.ListingPatch) (*domain.Listing, error) {
			l, err := h.listings.Update(c.Request.Context(), c.Param("id"), *in, mdw.UserID(c))
			return l, hide(err)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, string]{
		Method: http.MethodDelete,
		Path:   "/delete/:id",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (string, error) {
			if err := h.listings.Delete(c.Request.Context(), c.Param("id"), mdw.UserID(c)); err != nil {
				return "", hide(err)
			}
			return "listing has been deleted", nil
		},
	})

	ez.RegisterAction(g, ez.Action[homeQuery, HomeOut]{
		Method: http.MethodGet,
		Path:   "/home",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *homeQuery) (HomeOut, error) {
			feed, err := home.Fetch(c.Request.Context(), h.listings)
			if err != nil {
				return HomeOut{}, err
			}
			f := home.ParseFilter(in.Filter)
			return HomeOut{Filter: f, Listings: home.Display(f, feed)}, nil
		},
	})
}
