package mongo

import (
	"context"
	"fmt"

	"quicknotes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NoteTagsRepo implements the notes.NoteTagsRepo interface for MongoDB
type NoteTagsRepo struct {
	collection *mongo.Collection
}

// NewNoteTagsRepo creates a new note-tag links repository
func NewNoteTagsRepo(parentCtx context.Context, db *mongo.Database) (*NoteTagsRepo, error) {
	collection := db.Collection("note_tags")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "note_id", Value: 1},
				{Key: "tag_id", Value: 1},
				{Key: "owner_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		// Orphan sweep scans by tag
		{
			Keys: bson.D{{Key: "tag_id", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if err := createIndexes(ctx, collection, indexes); err != nil {
		return nil, fmt.Errorf("failed to create note_tags collection index: %w", err)
	}

	return &NoteTagsRepo{collection: collection}, nil
}

// Exists reports whether the link row is present.
func (r *NoteTagsRepo) Exists(ctx context.Context, ownerID, noteID, tagID bson.ObjectID) (bool, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, linkFilter(ownerID, noteID, tagID))
	return count > 0, err
}

// Insert adds a link row. Duplicate inserts surface notes.ErrDuplicate.
func (r *NoteTagsRepo) Insert(ctx context.Context, link *notes.NoteTag) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, link)
	if mongo.IsDuplicateKeyError(err) {
		return notes.ErrDuplicate
	}
	return err
}

// Delete removes one link row.
func (r *NoteTagsRepo) Delete(ctx context.Context, ownerID, noteID, tagID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, linkFilter(ownerID, noteID, tagID))
	return err
}

// DeleteByNote removes every link row of a note, for all owners.
func (r *NoteTagsRepo) DeleteByNote(ctx context.Context, noteID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"note_id": noteID})
	return err
}

func linkFilter(ownerID, noteID, tagID bson.ObjectID) bson.M {
	return bson.M{"owner_id": ownerID, "note_id": noteID, "tag_id": tagID}
}
