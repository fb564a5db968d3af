package repo

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"estate-market/internal/domain"
)

const (
	listingsCollection = "listings"
	usersCollection    = "users"
)

type ListingRepoMongo struct{ coll *mongo.Collection }

func NewListingRepoMongo(db *mongo.Database) *ListingRepoMongo {
	return &ListingRepoMongo{coll: db.Collection(listingsCollection)}
}

// EnsureIndexes creates the indexes the query paths rely on. Idempotent.
func (r *ListingRepoMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userRef", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "offer", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *ListingRepoMongo) Create(ctx context.Context, l *domain.Listing) error {
	if _, err := r.coll.InsertOne(ctx, l); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ListingRepoMongo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepoMongo) Update(ctx context.Context, l *domain.Listing) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": l.ID}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepoMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// listingQuery renders the predicate part of f as a mongo filter.
func listingQuery(f domain.ListingFilter) bson.M {
	q := bson.M{}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Offer {
		q["offer"] = true
	}
	if f.Parking {
		q["parking"] = true
	}
	if f.Furnished {
		q["furnished"] = true
	}
	if f.SearchTerm != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.SearchTerm), Options: "i"}
	}
	return q
}

func (r *ListingRepoMongo) Find(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	f = f.Normalize()
	dir := -1
	if f.Asc {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: string(f.Sort), Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(int64(f.StartIndex)).
		SetLimit(int64(f.Limit))
	return r.findAll(ctx, listingQuery(f), opts)
}

func (r *ListingRepoMongo) FindByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findAll(ctx, bson.M{"userRef": ownerID}, opts)
}

func (r *ListingRepoMongo) findAll(ctx context.Context, q bson.M, opts *options.FindOptions) ([]domain.Listing, error) {
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	out := []domain.Listing{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ListingRepoMongo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"userRef": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
