package mongo

import (
	"context"
	"errors"
	"fmt"

	"quicknotes/internal/logger"
	"quicknotes/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SharesRepo implements the notes.SharesRepo interface for MongoDB
type SharesRepo struct {
	collection *mongo.Collection
}

// NewSharesRepo creates a new shares repository
func NewSharesRepo(parentCtx context.Context, db *mongo.Database) (*SharesRepo, error) {
	collection := db.Collection("shares")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "note_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "group_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if err := createIndexes(ctx, collection, indexes); err != nil {
		return nil, fmt.Errorf("failed to create shares collection index: %w", err)
	}

	return &SharesRepo{collection: collection}, nil
}

// ForNote returns every share grant of a note.
func (r *SharesRepo) ForNote(ctx context.Context, noteID bson.ObjectID) ([]*notes.Share, error) {
	return r.find(ctx, bson.M{"note_id": noteID})
}

// ForRecipient returns every share naming the user directly or through one
// of the given groups.
func (r *SharesRepo) ForRecipient(ctx context.Context, userID bson.ObjectID, groupIDs []bson.ObjectID) ([]*notes.Share, error) {
	or := bson.A{bson.M{"user_id": userID}}
	if len(groupIDs) > 0 {
		or = append(or, bson.M{"group_id": bson.M{"$in": groupIDs}})
	}
	return r.find(ctx, bson.M{"$or": or})
}

func (r *SharesRepo) find(ctx context.Context, filter bson.M) ([]*notes.Share, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	shares := []*notes.Share{}
	if err := cursor.All(ctx, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// Insert adds a share row.
func (r *SharesRepo) Insert(ctx context.Context, s *notes.Share) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if s.ID.IsZero() {
		s.ID = bson.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, s)
	return err
}

// FindByNoteAndUser returns the user share row, or notes.ErrShareNotFound.
func (r *SharesRepo) FindByNoteAndUser(ctx context.Context, noteID, userID bson.ObjectID) (*notes.Share, error) {
	return r.findOne(ctx, bson.M{"note_id": noteID, "user_id": userID})
}

// FindByNoteAndGroup returns the group share row, or notes.ErrShareNotFound.
func (r *SharesRepo) FindByNoteAndGroup(ctx context.Context, noteID, groupID bson.ObjectID) (*notes.Share, error) {
	return r.findOne(ctx, bson.M{"note_id": noteID, "group_id": groupID})
}

func (r *SharesRepo) findOne(ctx context.Context, filter bson.M) (*notes.Share, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var share notes.Share
	err := r.collection.FindOne(ctx, filter).Decode(&share)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notes.ErrShareNotFound
		}
		return nil, err
	}
	return &share, nil
}

// Delete removes one share row by id.
func (r *SharesRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByNote removes every share of a note.
func (r *SharesRepo) DeleteByNote(ctx context.Context, noteID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"note_id": noteID})
	return err
}
