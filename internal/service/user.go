package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"estate-market/internal/domain"
	"estate-market/pkg/utils"
)

type SignUpInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type UserService struct {
	users    domain.UserRepository
	listings *ListingService
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewUserService(users domain.UserRepository, listings *ListingService, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{
		users:    users,
		listings: listings,
		log:      l.Named("user"),
		now:      time.Now,
		newID:    utils.NewID,
	}
}

func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := domain.ValidateStruct(&in); err != nil {
		return nil, err
	}
	if err := s.usernameFree(ctx, in.Username, ""); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := &domain.User{
		ID:           s.newID(),
		Username:     in.Username,
		Email:        in.Email,
		Avatar:       domain.DefaultAvatar,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: username or email already taken", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user signed up", zap.String("user_id", u.ID))
	return u, nil
}

// usernameFree reports a taken username as a field error so forms can point
// at it. The store's unique index still catches races as ErrConflict.
func (s *UserService) usernameFree(ctx context.Context, name, selfID string) error {
	other, err := s.users.FindByUsername(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup username: %w", err)
	case other.ID == selfID:
		return nil
	}
	return domain.Invalid("username", "username already taken")
}

// SignIn checks credentials. Unknown email and wrong password are reported
// the same way.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: wrong credentials", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		s.log.Warn("sign in rejected", zap.String("user_id", u.ID))
		return nil, fmt.Errorf("%w: wrong credentials", domain.ErrUnauthorized)
	}
	if u.Banned {
		return nil, fmt.Errorf("%w: account suspended", domain.ErrForbidden)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id string, p domain.UserPatch, requesterID string) (*domain.User, error) {
	if id != requesterID {
		return nil, fmt.Errorf("%w: you can only update your own account", domain.ErrForbidden)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Username != nil {
		name := strings.TrimSpace(*p.Username)
		if len(name) < 3 || len(name) > 64 {
			return nil, domain.Invalid("username", "must be between 3 and 64 characters")
		}
		if err := s.usernameFree(ctx, name, u.ID); err != nil {
			return nil, err
		}
		u.Username = name
	}
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		if err := domain.ValidateStruct(struct {
			Email string `json:"email" validate:"required,email"`
		}{email}); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if p.Avatar != nil && strings.TrimSpace(*p.Avatar) != "" {
		u.Avatar = strings.TrimSpace(*p.Avatar)
	}
	if p.Password != nil && *p.Password != "" {
		if len(*p.Password) < 6 {
			return nil, domain.Invalid("password", "must be at least 6 characters")
		}
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: username or email already taken", domain.ErrConflict)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.log.Info("user updated", zap.String("user_id", id))
	return u, nil
}

// Delete removes the account and every listing it owns.
func (s *UserService) Delete(ctx context.Context, id, requesterID string) error {
	if id != requesterID {
		return fmt.Errorf("%w: you can only delete your own account", domain.ErrForbidden)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if s.listings != nil {
		if _, err := s.listings.DeleteByOwner(ctx, id); err != nil {
			return fmt.Errorf("delete user listings: %w", err)
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) List(ctx context.Context, offset, limit int, q string) ([]domain.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, offset, limit, q)
}

// Ban blocks future sign-ins. Tokens already issued stay valid until expiry.
func (s *UserService) Ban(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot be banned", domain.ErrForbidden)
	}
	u.Banned = true
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("ban user: %w", err)
	}
	s.log.Info("user banned", zap.String("user_id", id))
	return u, nil
}
