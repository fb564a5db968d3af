// Package home builds the landing page feed: three small listing sections
// fetched together, then merged for display.
package home

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"estate-market/internal/domain"
)

const (
	SectionLimit = 4
	DisplayLimit = 6
)

type Filter string

const (
	FilterAll  Filter = "all"
	FilterRent Filter = "rent"
	FilterSale Filter = "sale"
)

// ParseFilter maps anything unrecognised to FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterRent, FilterSale:
		return Filter(s)
	}
	return FilterAll
}

// Source runs listing queries. Satisfied by the listing service and by the
// HTTP client.
type Source interface {
	Query(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error)
}

type Feed struct {
	Offers []domain.Listing `json:"offers"`
	Rents  []domain.Listing `json:"rents"`
	Sales  []domain.Listing `json:"sales"`
}

// Fetch runs the three section queries concurrently and waits for all of
// them. The first failure is returned and the feed is discarded.
func Fetch(ctx context.Context, src Source) (Feed, error) {
	var feed Feed
	g, gctx := errgroup.WithContext(ctx)
	sections := []struct {
		name string
		f    domain.ListingFilter
		dst  *[]domain.Listing
	}{
		{"offers", domain.ListingFilter{Offer: true, Limit: SectionLimit}, &feed.Offers},
		{"rents", domain.ListingFilter{Type: domain.TypeRent, Limit: SectionLimit}, &feed.Rents},
		{"sales", domain.ListingFilter{Type: domain.TypeSale, Limit: SectionLimit}, &feed.Sales},
	}
	for _, s := range sections {
		s := s
		g.Go(func() error {
			ls, err := src.Query(gctx, s.f)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", s.name, err)
			}
			*s.dst = ls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Feed{}, err
	}
	return feed, nil
}

// Display derives what the page shows for filter. It never touches the
// network: switching filters only recomputes from feed. The "all" view
// lists a listing once even when it sits in several sections, so its six
// slots never hold repeats.
func Display(filter Filter, feed Feed) []domain.Listing {
	var picked []domain.Listing
	switch filter {
	case FilterRent:
		picked = append(picked, feed.Rents...)
	case FilterSale:
		picked = append(picked, feed.Sales...)
	default:
		// an offer can also be a rent or sale listing; show it once
		seen := make(map[string]bool)
		for _, set := range [][]domain.Listing{feed.Offers, feed.Rents, feed.Sales} {
			for _, l := range set {
				if seen[l.ID] {
					continue
				}
				seen[l.ID] = true
				picked = append(picked, l)
			}
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].CreatedAt.After(picked[j].CreatedAt)
	})
	if len(picked) > DisplayLimit {
		picked = picked[:DisplayLimit]
	}
	if picked == nil {
		picked = []domain.Listing{}
	}
	return picked
}
