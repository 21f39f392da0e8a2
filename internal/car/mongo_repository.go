package car

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/redmonkez12/car-api/internal/database"
)

type carDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Tags        []string  `bson:"tags"`
	Images      []string  `bson:"images"`
	OwnerID     string    `bson:"ownerId"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d *carDocument) toModel() *Car {
	return &Car{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Tags:        nonNil(d.Tags),
		Images:      nonNil(d.Images),
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoRepository stores cars in the "cars" collection
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(database.CarsCollection)}
}

func (r *MongoRepository) Create(ctx context.Context, c *Car) error {
	_, err := r.coll.InsertOne(ctx, carDocument{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Tags:        nonNil(c.Tags),
		Images:      nonNil(c.Images),
		OwnerID:     c.OwnerID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]Car, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"ownerId": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}

	var docs []carDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cars: %w", err)
	}

	cars := make([]Car, 0, len(docs))
	for i := range docs {
		cars = append(cars, *docs[i].toModel())
	}
	return cars, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Car, error) {
	var doc carDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) UpdateByID(ctx context.Context, id string, fields UpdateFields) (*Car, error) {
	if fields.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if fields.Title != nil {
		set["title"] = *fields.Title
	}
	if fields.Description != nil {
		set["description"] = *fields.Description
	}
	if fields.Tags != nil {
		set["tags"] = nonNil(*fields.Tags)
	}
	if fields.Images != nil {
		set["images"] = nonNil(*fields.Images)
	}

	var doc carDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update car: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) DeleteByID(ctx context.Context, id string) (*Car, error) {
	var doc carDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete car: %w", err)
	}
	return doc.toModel(), nil
}
