package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"estate-market/internal/domain"
)

type UserRepoGorm struct{ db *gorm.DB }

func NewUserRepoGorm(db *gorm.DB) *UserRepoGorm { return &UserRepoGorm{db: db} }

func (r *UserRepoGorm) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *UserRepoGorm) first(ctx context.Context, col, val string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where(col+" = ?", val).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepoGorm) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id", id)
}

func (r *UserRepoGorm) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email", email)
}

func (r *UserRepoGorm) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username", username)
}

func (r *UserRepoGorm) List(ctx context.Context, offset, limit int, q string) ([]domain.User, int64, error) {
	base := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&domain.User{})
		if s := strings.TrimSpace(q); s != "" {
			like := "%" + escapeLike(strings.ToLower(s)) + "%"
			tx = tx.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ?", like, like)
		}
		return tx
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := []domain.User{}
	if err := base().Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepoGorm) Update(ctx context.Context, u *domain.User) error {
	res := r.db.WithContext(ctx).Model(u).Select("*").Omit("created_at").Updates(u)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepoGorm) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto domain sentinels. Duplicate detection
// goes by message so it works for both postgres and mysql without
// enabling gorm's TranslateError.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if isDupKey(err) {
		return domain.ErrConflict
	}
	return err
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
