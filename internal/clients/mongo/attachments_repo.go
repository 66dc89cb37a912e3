package mongo

import (
	"context"
	"fmt"

	"quicknotes/internal/logger"
	"quicknotes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// AttachmentsRepo implements the notes.AttachmentsRepo interface for MongoDB
type AttachmentsRepo struct {
	collection *mongo.Collection
}

// NewAttachmentsRepo creates a new attachments repository
func NewAttachmentsRepo(parentCtx context.Context, db *mongo.Database) (*AttachmentsRepo, error) {
	collection := db.Collection("attachments")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "note_id", Value: 1},
				{Key: "file_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if err := createIndexes(ctx, collection, indexes); err != nil {
		return nil, fmt.Errorf("failed to create attachments collection index: %w", err)
	}

	return &AttachmentsRepo{collection: collection}, nil
}

// ForNote returns the attachments of a note for one owner, oldest first.
func (r *AttachmentsRepo) ForNote(ctx context.Context, ownerID, noteID bson.ObjectID) ([]*notes.Attachment, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID, "note_id": noteID}, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	attachments := []*notes.Attachment{}
	if err := cursor.All(ctx, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// Exists reports whether the (owner, note, file) row is present.
func (r *AttachmentsRepo) Exists(ctx context.Context, ownerID, noteID bson.ObjectID, fileID string) (bool, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"owner_id": ownerID,
		"note_id":  noteID,
		"file_id":  fileID,
	})
	return count > 0, err
}

// Insert adds an attachment row. Duplicates surface notes.ErrDuplicate.
func (r *AttachmentsRepo) Insert(ctx context.Context, a *notes.Attachment) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return notes.ErrDuplicate
	}
	return err
}

// Delete removes one attachment row by id.
func (r *AttachmentsRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByNote removes every attachment of a note.
func (r *AttachmentsRepo) DeleteByNote(ctx context.Context, noteID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"note_id": noteID})
	return err
}
