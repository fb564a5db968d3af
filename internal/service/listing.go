package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"estate-market/internal/core/cache"
	"estate-market/internal/domain"
	"estate-market/pkg/utils"
)

type ListingService struct {
	repo   domain.ListingRepository
	cached cache.Typed[domain.Listing]
	log    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewListingService wires the listing use cases. c may be nil to disable
// read-through caching.
func NewListingService(repo domain.ListingRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *ListingService {
	if l == nil {
		l = zap.NewNop()
	}
	return &ListingService{
		repo:   repo,
		cached: cache.NewTyped[domain.Listing](c, "listing", ttl),
		log:    l.Named("listing"),
		now:    time.Now,
		newID:  utils.NewID,
	}
}

// normalize clears the discount of listings that are not on offer so the
// stored value never contradicts the flag.
func normalize(l *domain.Listing) {
	if !l.Offer {
		l.DiscountPrice = 0
	}
}

func (s *ListingService) Create(ctx context.Context, draft domain.ListingDraft, ownerID string) (*domain.Listing, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if draft.UserRef != "" && draft.UserRef != ownerID {
		return nil, fmt.Errorf("%w: you can only create listings for your own account", domain.ErrForbidden)
	}
	l := draft.Listing()
	l.UserRef = ownerID
	normalize(&l)
	if err := domain.ValidateListing(&l); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	l.ID = s.newID()
	l.CreatedAt, l.UpdatedAt = now, now
	if err := s.repo.Create(ctx, &l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	s.log.Info("listing created", zap.String("listing_id", l.ID), zap.String("user_id", ownerID))
	return &l, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.cached.Get(ctx, id, func(ctx context.Context) (*domain.Listing, error) {
		return s.repo.FindByID(ctx, id)
	})
}

// owned loads id and checks requesterID owns it.
func (s *ListingService) owned(ctx context.Context, id, requesterID string) (*domain.Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if requesterID == "" || l.UserRef != requesterID {
		s.log.Warn("listing ownership denied", zap.String("listing_id", id), zap.String("user_id", requesterID))
		return nil, fmt.Errorf("%w: you can only modify your own listings", domain.ErrForbidden)
	}
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, id string, patch domain.ListingPatch, requesterID string) (*domain.Listing, error) {
	l, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	patch.Apply(l)
	normalize(l)
	if err := domain.ValidateListing(l); err != nil {
		return nil, err
	}
	l.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	s.invalidate(ctx, id)
	s.log.Info("listing updated", zap.String("listing_id", id), zap.String("user_id", requesterID))
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, id, requesterID string) error {
	if _, err := s.owned(ctx, id, requesterID); err != nil {
		return err
	}
	return s.Remove(ctx, id)
}

// Remove deletes without an ownership check. Reserved for moderation.
func (s *ListingService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info("listing deleted", zap.String("listing_id", id))
	return nil
}

// Query never fails on an empty result; it returns an empty slice.
func (s *ListingService) Query(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	out, err := s.repo.Find(ctx, f.Normalize())
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	if out == nil {
		out = []domain.Listing{}
	}
	return out, nil
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	out, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner listings: %w", err)
	}
	if out == nil {
		out = []domain.Listing{}
	}
	return out, nil
}

// DeleteByOwner removes every listing of ownerID, used when an account is
// deleted.
func (s *ListingService) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	owned, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(owned))
	for _, l := range owned {
		ids = append(ids, l.ID)
	}
	s.invalidate(ctx, ids...)
	s.log.Info("owner listings deleted", zap.String("user_id", ownerID), zap.Int64("count", n))
	return n, nil
}

func (s *ListingService) invalidate(ctx context.Context, ids ...string) {
	if err := s.cached.Invalidate(ctx, ids...); err != nil {
		s.log.Warn("cache invalidate failed", zap.Strings("listing_ids", ids), zap.Error(err))
	}
}
