package mongo

import (
	"context"
	"errors"
	"fmt"

	"quicknotes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ColorsRepo implements the notes.ColorsRepo interface for MongoDB.
// The unique index on value makes FindOrCreate race-safe.
type ColorsRepo struct {
	collection *mongo.Collection
}

// NewColorsRepo creates a new colors repository
func NewColorsRepo(parentCtx context.Context, db *mongo.Database) (*ColorsRepo, error) {
	collection := db.Collection("colors")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "value", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if err := createIndexes(ctx, collection, indexes); err != nil {
		return nil, fmt.Errorf("failed to create colors collection index: %w", err)
	}

	return &ColorsRepo{collection: collection}, nil
}

// FindOrCreate resolves the color row for a canonical value, inserting it
// when absent. Concurrent creators converge on one row via the unique index.
func (r *ColorsRepo) FindOrCreate(ctx context.Context, value string) (*notes.Color, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{"value": value}
	update := bson.M{"$setOnInsert": bson.M{"value": value}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var color notes.Color
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&color); err != nil {
		return nil, err
	}
	return &color, nil
}

// Find returns the color row by id.
func (r *ColorsRepo) Find(ctx context.Context, id bson.ObjectID) (*notes.Color, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var color notes.Color
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&color)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notes.ErrColorNotFound
		}
		return nil, err
	}
	return &color, nil
}

// Delete removes a color row. Callers only do this once the row is
// unreferenced by any note.
func (r *ColorsRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
