package mongo

import (
	"context"
	"errors"
	"fmt"

	"quicknotes/internal/logger"
	"quicknotes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NotesRepo implements the notes.NotesRepo interface for MongoDB
type NotesRepo struct {
	collection *mongo.Collection
}

// translateNotFound maps the driver ErrNoDocuments to the domain-level ErrNoteNotFound.
func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notes.ErrNoteNotFound
	}
	return err
}

// NewNotesRepo creates a new notes repository
func NewNotesRepo(parentCtx context.Context, db *mongo.Database) (*NotesRepo, error) {
	collection := db.Collection("notes")

	indexes := []mongo.IndexModel{
		// Default listing order: newest first per owner
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Color reference counting
		{
			Keys: bson.D{{Key: "color_id", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if err := createIndexes(ctx, collection, indexes); err != nil {
		return nil, fmt.Errorf("failed to create notes collection index: %w", err)
	}

	return &NotesRepo{collection: collection}, nil
}

// createIndexes builds the given indexes, tolerating ones that already exist.
func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	for _, indexModel := range indexes {
		_, err := collection.Indexes().CreateOne(ctx, indexModel)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				logger.L().Debug("index already exists, continuing", "collection", collection.Name())
				continue
			}
			logger.L().Error("failed to create index", "collection", collection.Name(), "error", err)
			return err
		}
	}
	return nil
}

// Create inserts a new note row.
func (r *NotesRepo) Create(ctx context.Context, note *notes.Note) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, note)
	return err
}

// Find returns the note only when ownerID owns it.
func (r *NotesRepo) Find(ctx context.Context, ownerID, noteID bson.ObjectID) (*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var note notes.Note
	err := r.collection.FindOne(ctx, bson.M{"_id": noteID, "owner_id": ownerID}).Decode(&note)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &note, nil
}

// FindByID returns the note regardless of owner. Share hydration uses this
// to resolve notes granted to the caller by other users.
func (r *NotesRepo) FindByID(ctx context.Context, noteID bson.ObjectID) (*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var note notes.Note
	err := r.collection.FindOne(ctx, bson.M{"_id": noteID}).Decode(&note)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &note, nil
}

// FindAll returns every note owned by ownerID, newest first.
func (r *NotesRepo) FindAll(ctx context.Context, ownerID bson.ObjectID) ([]*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	notesList := []*notes.Note{}
	if err := cursor.All(ctx, &notesList); err != nil {
		return nil, err
	}
	return notesList, nil
}

// Update overwrites the mutable note fields.
func (r *NotesRepo) Update(ctx context.Context, note *notes.Note) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":     note.Title,
		"content":   note.Content,
		"pinned":    note.Pinned,
		"timestamp": note.Timestamp,
		"color_id":  note.ColorID,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": note.ID, "owner_id": note.OwnerID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return notes.ErrNoteNotFound
	}
	return nil
}

// Delete removes a note belonging to the specified owner.
func (r *NotesRepo) Delete(ctx context.Context, ownerID, noteID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": noteID, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return notes.ErrNoteNotFound
	}
	return nil
}

// CountByColor reports how many notes still reference the color.
func (r *NotesRepo) CountByColor(ctx context.Context, colorID bson.ObjectID) (int64, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"color_id": colorID})
}
