package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListingFilter_Normalize(t *testing.T) {
	f := ListingFilter{Type: "all", SearchTerm: "  loft ", Limit: 500, StartIndex: -3, Sort: "bogus"}.Normalize()
	assert.Equal(t, ListingType(""), f.Type)
	assert.Equal(t, "loft", f.SearchTerm)
	assert.Equal(t, MaxQueryLimit, f.Limit)
	assert.Equal(t, 0, f.StartIndex)
	assert.Equal(t, SortCreatedAt, f.Sort)

	f = ListingFilter{Type: TypeSale, Sort: SortRegularPrice}.Normalize()
	assert.Equal(t, TypeSale, f.Type)
	assert.Equal(t, DefaultQueryLimit, f.Limit)
	assert.Equal(t, SortRegularPrice, f.Sort)
}

func TestListingFilter_Matches(t *testing.T) {
	l := &Listing{Name: "Cozy Downtown Loft", Type: TypeRent, Offer: true, Parking: false}
	assert.True(t, ListingFilter{}.Matches(l))
	assert.True(t, ListingFilter{Type: TypeRent, Offer: true, SearchTerm: "downtown"}.Matches(l))
	assert.False(t, ListingFilter{Type: TypeSale}.Matches(l))
	assert.False(t, ListingFilter{Parking: true}.Matches(l))
	assert.False(t, ListingFilter{Furnished: true}.Matches(l))
	assert.False(t, ListingFilter{SearchTerm: "villa"}.Matches(l))
}

func TestSortListings(t *testing.T) {
	now := time.Now()
	ls := []Listing{
		{ID: "a", RegularPrice: 300, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", RegularPrice: 100, CreatedAt: now},
		{ID: "c", RegularPrice: 200, CreatedAt: now.Add(-time.Hour)},
	}
	ids := func() []string {
		out := make([]string, len(ls))
		for i := range ls {
			out[i] = ls[i].ID
		}
		return out
	}

	SortListings(ls, SortCreatedAt, false)
	assert.Equal(t, []string{"b", "c", "a"}, ids())

	SortListings(ls, SortRegularPrice, true)
	assert.Equal(t, []string{"b", "c", "a"}, ids())

	SortListings(ls, SortRegularPrice, false)
	assert.Equal(t, []string{"a", "c", "b"}, ids())
}

func TestDraftAndPatch(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, TypeRent, d.Type)
	assert.Equal(t, int64(MinRegularPrice), d.RegularPrice)
	assert.NotNil(t, d.ImageURLs)

	d.Name = "  Seaside Cottage Retreat "
	d.ImageURLs = append(d.ImageURLs, "u1")
	l := d.Listing()
	assert.Equal(t, "Seaside Cottage Retreat", l.Name)
	l.ImageURLs[0] = "changed"
	assert.Equal(t, "u1", d.ImageURLs[0])

	name := "New name for the cottage"
	price := int64(9000)
	ListingPatch{Name: &name, RegularPrice: &price}.Apply(&l)
	assert.Equal(t, name, l.Name)
	assert.Equal(t, price, l.RegularPrice)
	assert.Equal(t, TypeRent, l.Type)
}
