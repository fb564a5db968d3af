package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"estate-market/internal/domain"
)

type ListingRepoGorm struct{ db *gorm.DB }

func NewListingRepoGorm(db *gorm.DB) *ListingRepoGorm { return &ListingRepoGorm{db: db} }

func (r *ListingRepoGorm) Create(ctx context.Context, l *domain.Listing) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *ListingRepoGorm) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *ListingRepoGorm) Update(ctx context.Context, l *domain.Listing) error {
	res := r.db.WithContext(ctx).Model(l).Select("*").Omit("created_at").Updates(l)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepoGorm) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Listing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var listingSortColumn = map[domain.SortKey]string{
	domain.SortCreatedAt:    "created_at",
	domain.SortRegularPrice: "regular_price",
}

func (r *ListingRepoGorm) Find(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	f = f.Normalize()
	q := r.db.WithContext(ctx).Model(&domain.Listing{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Offer {
		q = q.Where("offer = ?", true)
	}
	if f.Parking {
		q = q.Where("parking = ?", true)
	}
	if f.Furnished {
		q = q.Where("furnished = ?", true)
	}
	if f.SearchTerm != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+escapeLike(strings.ToLower(f.SearchTerm))+"%")
	}
	dir := " DESC"
	if f.Asc {
		dir = " ASC"
	}
	out := []domain.Listing{}
	err := q.Order(listingSortColumn[f.Sort] + dir).Order("id").
		Offset(f.StartIndex).Limit(f.Limit).
		Find(&out).Error
	return out, err
}

func (r *ListingRepoGorm) FindByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	out := []domain.Listing{}
	err := r.db.WithContext(ctx).Where("user_ref = ?", ownerID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *ListingRepoGorm) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_ref = ?", ownerID).Delete(&domain.Listing{})
	return res.RowsAffected, res.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
