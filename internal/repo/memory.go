package repo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"estate-market/internal/domain"
)

// ListingRepoMemory keeps listings in process. Used by the memory store
// driver and by service tests.
type ListingRepoMemory struct {
	mu   sync.RWMutex
	rows map[string]domain.Listing
}

func NewListingRepoMemory() *ListingRepoMemory {
	return &ListingRepoMemory{rows: make(map[string]domain.Listing)}
}

func cloneListing(l domain.Listing) domain.Listing {
	l.ImageURLs = append([]string(nil), l.ImageURLs...)
	return l
}

func (r *ListingRepoMemory) Create(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[l.ID]; ok {
		return domain.ErrConflict
	}
	r.rows[l.ID] = cloneListing(*l)
	return nil
}

func (r *ListingRepoMemory) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneListing(l)
	return &out, nil
}

func (r *ListingRepoMemory) Update(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[l.ID] = cloneListing(*l)
	return nil
}

func (r *ListingRepoMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *ListingRepoMemory) Find(_ context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	f = f.Normalize()
	r.mu.RLock()
	out := make([]domain.Listing, 0, len(r.rows))
	for _, l := range r.rows {
		l := l
		if f.Matches(&l) {
			out = append(out, cloneListing(l))
		}
	}
	r.mu.RUnlock()

	// map order is random; fix it before the stable sort so ties are deterministic
	sortByID(out)
	domain.SortListings(out, f.Sort, f.Asc)
	if f.StartIndex >= len(out) {
		return []domain.Listing{}, nil
	}
	out = out[f.StartIndex:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ListingRepoMemory) FindByOwner(_ context.Context, ownerID string) ([]domain.Listing, error) {
	r.mu.RLock()
	out := []domain.Listing{}
	for _, l := range r.rows {
		if l.UserRef == ownerID {
			out = append(out, cloneListing(l))
		}
	}
	r.mu.RUnlock()
	sortByID(out)
	domain.SortListings(out, domain.SortCreatedAt, false)
	return out, nil
}

func (r *ListingRepoMemory) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, l := range r.rows {
		if l.UserRef == ownerID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func sortByID(ls []domain.Listing) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].ID < ls[j].ID })
}

type UserRepoMemory struct {
	mu   sync.RWMutex
	rows map[string]domain.User
}

func NewUserRepoMemory() *UserRepoMemory {
	return &UserRepoMemory{rows: make(map[string]domain.User)}
}

func (r *UserRepoMemory) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.ID == u.ID || x.Email == u.Email || x.Username == u.Username {
			return domain.ErrConflict
		}
	}
	r.rows[u.ID] = *u
	return nil
}

func (r *UserRepoMemory) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.rows {
		u := u
		if match(&u) {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepoMemory) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepoMemory) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepoMemory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepoMemory) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, x := range r.rows {
		if x.ID != u.ID && (x.Email == u.Email || x.Username == u.Username) {
			return domain.ErrConflict
		}
	}
	r.rows[u.ID] = *u
	return nil
}

func (r *UserRepoMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *UserRepoMemory) List(_ context.Context, offset, limit int, q string) ([]domain.User, int64, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	r.mu.RLock()
	all := make([]domain.User, 0, len(r.rows))
	for _, u := range r.rows {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			all = append(all, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.User{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}
