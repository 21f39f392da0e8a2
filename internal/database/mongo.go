package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names
const (
	UsersCollection = "users"
	CarsCollection  = "cars"
)

// MongoOptions configures the document store connection
type MongoOptions struct {
	URI       string
	Database  string
	OpTimeout time.Duration
}

// ConnectMongo connects, pings the primary and makes sure the indexes exist.
// The caller owns the returned client and must Disconnect it.
func ConnectMongo(ctx context.Context, opts MongoOptions) (*mongo.Client, *mongo.Database, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.OpTimeout > 0 {
		clientOpts.SetTimeout(opts.OpTimeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(opts.Database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, db, nil
}

// EnsureIndexes creates the unique email index and the owner lookup index.
// CreateOne is a no-op for an index that already exists with the same keys and options.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = db.Collection(CarsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("owner_created"),
	})
	if err != nil {
		return fmt.Errorf("failed to create cars owner index: %w", err)
	}

	return nil
}
