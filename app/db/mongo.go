package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	UsersCollection   = "users"
	ResumesCollection = "resumes"
)

// MongoPinger adapts a client to the Pinger interface.
type MongoPinger struct {
	Client *mongo.Client
}

func (p MongoPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

// ConnectMongo opens a client for uri. The connection itself is verified
// separately with WaitForDB.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration, logger *slog.Logger) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed connecting to mongo: %w", err)
	}
	logger.Info("MongoDB client created")
	return client, nil
}

// EnsureMongoIndexes creates the indexes backing the store's uniqueness rules.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	users := db.Collection(UsersCollection)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName("username")},
		{
			Keys: bson.D{{Key: "social.googleId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("google_id_unique").
				SetPartialFilterExpression(bson.M{"social.googleId": bson.M{"$exists": true}}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed creating user indexes: %w", err)
	}

	resumes := db.Collection(ResumesCollection)
	_, err = resumes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "template", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_template_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed creating resume indexes: %w", err)
	}

	logger.Info("MongoDB indexes ensured")
	return nil
}
