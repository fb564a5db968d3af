package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"estate-market/internal/core/config"
	"estate-market/internal/core/database"
	"estate-market/internal/domain"
)

// Store bundles the repositories of one backend and how to release it.
type Store struct {
	Listings domain.ListingRepository
	Users    domain.UserRepository
	Close    func(context.Context) error
	// Ping reports whether the backend is reachable.
	Ping func(context.Context) error
}

// Open builds the repositories selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return NewMemoryStore(), nil

	case "postgres", "mysql":
		dbc := cfg.DB
		dbc.Driver = cfg.Store.Driver
		db, err := database.NewGorm(dbc, l)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dbc.Driver, err)
		}
		return &Store{
			Listings: NewListingRepoGorm(db),
			Users:    NewUserRepoGorm(db),
			Close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
			Ping: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}, nil

	case "mongo", "":
		client, mdb, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		listings, users := NewListingRepoMongo(mdb), NewUserRepoMongo(mdb)
		if err := listings.EnsureIndexes(ctx); err != nil {
			l.Warn("mongo: listing indexes", zap.Error(err))
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			l.Warn("mongo: user indexes", zap.Error(err))
		}
		return &Store{
			Listings: listings,
			Users:    users,
			Close:    client.Disconnect,
			Ping:     func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		}, nil
	}
	return nil, fmt.Errorf("%w: store driver %q", database.ErrUnsupportedDriver, cfg.Store.Driver)
}

func NewMemoryStore() *Store {
	return &Store{
		Listings: NewListingRepoMemory(),
		Users:    NewUserRepoMemory(),
		Close:    func(context.Context) error { return nil },
		Ping:     func(context.Context) error { return nil },
	}
}
