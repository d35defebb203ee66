package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	database "github.com/FACorreiaa/cv-builder-api/app/db"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

// AuthRepo persists user credential records. Lookups return types.ErrNotFound
// when nothing matches; writes return types.ErrConflict when a uniqueness rule
// (email, google id) would be broken.
type AuthRepo interface {
	GetUserByID(ctx context.Context, userID string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*types.User, error)
	// CreateUser inserts user and returns it with id and timestamps assigned.
	CreateUser(ctx context.Context, user *types.User) (*types.User, error)
	// LinkGoogleAccount switches an existing user to the google provider.
	LinkGoogleAccount(ctx context.Context, userID, googleID string) (*types.User, error)
}

var _ AuthRepo = (*MongoAuthRepo)(nil)

type mongoUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	Contact   string             `bson:"contact"`
	Provider  string             `bson:"provider"`
	Social    types.Social       `bson:"social"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (u *mongoUser) toDomain() *types.User {
	return &types.User{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		Contact:   u.Contact,
		Provider:  types.Provider(u.Provider),
		Social:    u.Social,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type MongoAuthRepo struct {
	logger *slog.Logger
	users  *mongo.Collection
	now    func() time.Time
}

func NewMongoAuthRepo(db *mongo.Database, logger *slog.Logger) *MongoAuthRepo {
	return &MongoAuthRepo{
		logger: logger,
		users:  db.Collection(database.UsersCollection),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (r *MongoAuthRepo) findOne(ctx context.Context, filter bson.M) (*types.User, error) {
	var u mongoUser
	err := r.users.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u.toDomain(), nil
}

func (r *MongoAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, types.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoAuthRepo) GetUserByGoogleID(ctx context.Context, googleID string) (*types.User, error) {
	return r.findOne(ctx, bson.M{"social.googleId": googleID})
}

func (r *MongoAuthRepo) CreateUser(ctx context.Context, user *types.User) (*types.User, error) {
	now := r.now()
	doc := mongoUser{
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		Contact:   user.Contact,
		Provider:  string(user.Provider),
		Social:    user.Social,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create user: %w", types.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("create user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	r.logger.DebugContext(ctx, "User created", slog.String("userID", oid.Hex()), slog.String("provider", doc.Provider))
	return doc.toDomain(), nil
}

func (r *MongoAuthRepo) LinkGoogleAccount(ctx context.Context, userID, googleID string) (*types.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, types.ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"provider":        string(types.ProviderGoogle),
		"social.googleId": googleID,
		"updatedAt":       r.now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u mongoUser
	err = r.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&u)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, types.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, fmt.Errorf("link google account: %w", types.ErrConflict)
		}
		return nil, fmt.Errorf("link google account: %w", err)
	}
	return u.toDomain(), nil
}
