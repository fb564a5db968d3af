package domain

import (
	"context"
	"sort"
	"strings"
	"time"
)

type ListingType string

const (
	TypeRent ListingType = "rent"
	TypeSale ListingType = "sale"
)

const (
	MinNameLen      = 10
	MaxNameLen      = 62
	MinRegularPrice = 5000
	MaxRegularPrice = 10_000_000
	MaxImages       = 6
)

type Listing struct {
	ID            string      `gorm:"primaryKey;size:32" bson:"_id" json:"id"`
	Name          string      `gorm:"size:62;not null;index" bson:"name" json:"name" validate:"required,min=10,max=62"`
	Description   string      `gorm:"type:text;not null" bson:"description" json:"description" validate:"required"`
	Address       string      `gorm:"size:255;not null" bson:"address" json:"address" validate:"required"`
	Type          ListingType `gorm:"size:8;not null;index" bson:"type" json:"type" validate:"oneof=rent sale"`
	Bedrooms      int         `gorm:"not null" bson:"bedrooms" json:"bedrooms" validate:"min=1,max=10"`
	Bathrooms     int         `gorm:"not null" bson:"bathrooms" json:"bathrooms" validate:"min=1,max=10"`
	RegularPrice  int64       `gorm:"column:regular_price;not null" bson:"regularPrice" json:"regularPrice" validate:"min=5000,max=10000000"`
	DiscountPrice int64       `gorm:"column:discount_price;not null" bson:"discountPrice" json:"discountPrice" validate:"min=0"`
	Offer         bool        `gorm:"not null;index" bson:"offer" json:"offer"`
	Parking       bool        `gorm:"not null" bson:"parking" json:"parking"`
	Furnished     bool        `gorm:"not null" bson:"furnished" json:"furnished"`
	ImageURLs     []string    `gorm:"column:image_urls;type:text;serializer:json" bson:"imageUrls" json:"imageUrls" validate:"min=1,max=6,dive,required"`
	UserRef       string      `gorm:"column:user_ref;size:32;not null;index" bson:"userRef" json:"userRef"`
	CreatedAt     time.Time   `gorm:"column:created_at;index" bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time   `gorm:"column:updated_at" bson:"updatedAt" json:"updatedAt"`
}

func (Listing) TableName() string { return "listings" }

// ListingDraft is the not-yet-persisted listing assembled by a client.
type ListingDraft struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	Type          ListingType `json:"type"`
	Bedrooms      int         `json:"bedrooms"`
	Bathrooms     int         `json:"bathrooms"`
	RegularPrice  int64       `json:"regularPrice"`
	DiscountPrice int64       `json:"discountPrice"`
	Offer         bool        `json:"offer"`
	Parking       bool        `json:"parking"`
	Furnished     bool        `json:"furnished"`
	ImageURLs     []string    `json:"imageUrls"`
	UserRef       string      `json:"userRef,omitempty"`
}

// NewDraft returns the defaults the creation form starts from.
func NewDraft() ListingDraft {
	return ListingDraft{
		Type:         TypeRent,
		Bedrooms:     1,
		Bathrooms:    1,
		RegularPrice: MinRegularPrice,
		ImageURLs:    []string{},
	}
}

func (d ListingDraft) Listing() Listing {
	urls := make([]string, len(d.ImageURLs))
	copy(urls, d.ImageURLs)
	return Listing{
		Name:          strings.TrimSpace(d.Name),
		Description:   strings.TrimSpace(d.Description),
		Address:       strings.TrimSpace(d.Address),
		Type:          d.Type,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.Bathrooms,
		RegularPrice:  d.RegularPrice,
		DiscountPrice: d.DiscountPrice,
		Offer:         d.Offer,
		Parking:       d.Parking,
		Furnished:     d.Furnished,
		ImageURLs:     urls,
		UserRef:       d.UserRef,
	}
}

// ListingPatch carries a partial update; nil fields are left untouched.
type ListingPatch struct {
	Name          *string      `json:"name,omitempty"`
	Description   *string      `json:"description,omitempty"`
	Address       *string      `json:"address,omitempty"`
	Type          *ListingType `json:"type,omitempty"`
	Bedrooms      *int         `json:"bedrooms,omitempty"`
	Bathrooms     *int         `json:"bathrooms,omitempty"`
	RegularPrice  *int64       `json:"regularPrice,omitempty"`
	DiscountPrice *int64       `json:"discountPrice,omitempty"`
	Offer         *bool        `json:"offer,omitempty"`
	Parking       *bool        `json:"parking,omitempty"`
	Furnished     *bool        `json:"furnished,omitempty"`
	ImageURLs     []string     `json:"imageUrls,omitempty"`
}

func (p ListingPatch) Apply(l *Listing) {
	if p.Name != nil {
		l.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		l.Description = strings.TrimSpace(*p.Description)
	}
	if p.Address != nil {
		l.Address = strings.TrimSpace(*p.Address)
	}
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Bedrooms != nil {
		l.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		l.Bathrooms = *p.Bathrooms
	}
	if p.RegularPrice != nil {
		l.RegularPrice = *p.RegularPrice
	}
	if p.DiscountPrice != nil {
		l.DiscountPrice = *p.DiscountPrice
	}
	if p.Offer != nil {
		l.Offer = *p.Offer
	}
	if p.Parking != nil {
		l.Parking = *p.Parking
	}
	if p.Furnished != nil {
		l.Furnished = *p.Furnished
	}
	if p.ImageURLs != nil {
		l.ImageURLs = append([]string(nil), p.ImageURLs...)
	}
}

type SortKey string

const (
	SortCreatedAt    SortKey = "createdAt"
	SortRegularPrice SortKey = "regularPrice"
)

const (
	DefaultQueryLimit = 9
	MaxQueryLimit     = 100
)

// ListingFilter drives Query. Boolean flags only restrict when true, the
// same way the listing search page treats an unchecked box as "any".
type ListingFilter struct {
	Type       ListingType `json:"type,omitempty"`
	Offer      bool        `json:"offer,omitempty"`
	Parking    bool        `json:"parking,omitempty"`
	Furnished  bool        `json:"furnished,omitempty"`
	SearchTerm string      `json:"searchTerm,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	StartIndex int         `json:"startIndex,omitempty"`
	Sort       SortKey     `json:"sort,omitempty"`
	Asc        bool        `json:"asc,omitempty"`
}

func (f ListingFilter) Normalize() ListingFilter {
	if f.Type != TypeRent && f.Type != TypeSale {
		f.Type = ""
	}
	f.SearchTerm = strings.TrimSpace(f.SearchTerm)
	if f.Limit <= 0 {
		f.Limit = DefaultQueryLimit
	}
	if f.Limit > MaxQueryLimit {
		f.Limit = MaxQueryLimit
	}
	if f.StartIndex < 0 {
		f.StartIndex = 0
	}
	if f.Sort != SortRegularPrice {
		f.Sort = SortCreatedAt
	}
	return f
}

// Matches reports whether l passes every predicate of f (pagination and
// ordering are not predicates).
func (f ListingFilter) Matches(l *Listing) bool {
	if f.Type != "" && l.Type != f.Type {
		return false
	}
	if f.Offer && !l.Offer {
		return false
	}
	if f.Parking && !l.Parking {
		return false
	}
	if f.Furnished && !l.Furnished {
		return false
	}
	if f.SearchTerm != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.SearchTerm)) {
		return false
	}
	return true
}

// SortListings orders ls in place by key; ties keep their relative order.
func SortListings(ls []Listing, key SortKey, asc bool) {
	less := func(a, b *Listing) bool { return a.CreatedAt.Before(b.CreatedAt) }
	if key == SortRegularPrice {
		less = func(a, b *Listing) bool { return a.RegularPrice < b.RegularPrice }
	}
	sort.SliceStable(ls, func(i, j int) bool {
		if asc {
			return less(&ls[i], &ls[j])
		}
		return less(&ls[j], &ls[i])
	})
}

type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, f ListingFilter) ([]Listing, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Listing, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
