package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loft() *Listing {
	return &Listing{
		Name:          "Cozy Downtown Loft",
		Description:   "Bright open-plan loft close to the river.",
		Address:       "12 Main St",
		Type:          TypeRent,
		Bedrooms:      2,
		Bathrooms:     1,
		RegularPrice:  15000,
		DiscountPrice: 12000,
		Offer:         true,
		Parking:       true,
		ImageURLs:     []string{"https://img.example/1.jpg"},
	}
}

func TestValidateListing_OK(t *testing.T) {
	require.NoError(t, ValidateListing(loft()))
}

func TestValidateListing_DiscountNotLower(t *testing.T) {
	l := loft()
	l.DiscountPrice = 16000
	err := ValidateListing(l)
	require.ErrorIs(t, err, ErrValidation)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "discountPrice", ve.Field)
}

func TestValidateListing_DiscountIgnoredWithoutOffer(t *testing.T) {
	l := loft()
	l.Offer = false
	l.DiscountPrice = 16000
	assert.NoError(t, ValidateListing(l))
}

func TestValidateListing_NoImages(t *testing.T) {
	l := loft()
	l.ImageURLs = nil
	ve, ok := AsValidation(ValidateListing(l))
	require.True(t, ok)
	assert.Equal(t, "imageUrls", ve.Field)
	assert.Contains(t, ve.Msg, "at least one image")
}

func TestValidateListing_TooManyImages(t *testing.T) {
	l := loft()
	l.ImageURLs = []string{"a", "b", "c", "d", "e", "f", "g"}
	ve, ok := AsValidation(ValidateListing(l))
	require.True(t, ok)
	assert.Equal(t, "imageUrls", ve.Field)
}

func TestValidateListing_FieldErrors(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Listing)
		field string
	}{
		{"short name", func(l *Listing) { l.Name = "Loft" }, "name"},
		{"long name", func(l *Listing) { l.Name = strings.Repeat("x", 63) }, "name"},
		{"no description", func(l *Listing) { l.Description = "" }, "description"},
		{"no address", func(l *Listing) { l.Address = "" }, "address"},
		{"bad type", func(l *Listing) { l.Type = "lease" }, "type"},
		{"zero bedrooms", func(l *Listing) { l.Bedrooms = 0 }, "bedrooms"},
		{"too many bathrooms", func(l *Listing) { l.Bathrooms = 11 }, "bathrooms"},
		{"cheap", func(l *Listing) { l.RegularPrice = 4999; l.Offer = false }, "regularPrice"},
		{"blank url", func(l *Listing) { l.ImageURLs = []string{""} }, "imageUrls"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			l := loft()
			tc.mut(l)
			ve, ok := AsValidation(ValidateListing(l))
			require.True(t, ok)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "name: is required", Invalid("name", "is required").Error())
	assert.Equal(t, "bad input", Invalid("", "bad input").Error())
	_, ok := AsValidation(ErrNotFound)
	assert.False(t, ok)
}
