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

// TagsRepo implements the notes.TagsRepo interface for MongoDB. It reads the
// note_tags collection as well: resolving a note's tags and sweeping orphans
// are join queries in the relational sense.
type TagsRepo struct {
	tags     *mongo.Collection
	noteTags *mongo.Collection
}

// NewTagsRepo creates a new tags repository
func NewTagsRepo(parentCtx context.Context, db *mongo.Database) (*TagsRepo, error) {
	tags := db.Collection("tags")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "name", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if err := createIndexes(ctx, tags, indexes); err != nil {
		return nil, fmt.Errorf("failed to create tags collection index: %w", err)
	}

	return &TagsRepo{
		tags:     tags,
		noteTags: db.Collection("note_tags"),
	}, nil
}

// FindOrCreate resolves a tag by (owner, name), inserting it when absent.
func (r *TagsRepo) FindOrCreate(ctx context.Context, ownerID bson.ObjectID, name string) (*notes.Tag, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{"owner_id": ownerID, "name": name}
	update := bson.M{"$setOnInsert": bson.M{"owner_id": ownerID, "name": name}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var tag notes.Tag
	if err := r.tags.FindOneAndUpdate(ctx, filter, update, opts).Decode(&tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// Find returns a tag row by id.
func (r *TagsRepo) Find(ctx context.Context, id bson.ObjectID) (*notes.Tag, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var tag notes.Tag
	err := r.tags.FindOne(ctx, bson.M{"_id": id}).Decode(&tag)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notes.ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// ForNote returns the tags linked to a note for one owner.
func (r *TagsRepo) ForNote(ctx context.Context, ownerID, noteID bson.ObjectID) ([]notes.Tag, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	tagIDs, err := r.noteTags.Distinct(ctx, "tag_id", bson.M{"owner_id": ownerID, "note_id": noteID}).Raw()
	if err != nil {
		return nil, err
	}

	ids, err := decodeObjectIDs(tagIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []notes.Tag{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.tags.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}

	tags := []notes.Tag{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// DropOrphans removes every tag, regardless of owner, that no note links to.
func (r *TagsRepo) DropOrphans(ctx context.Context) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	referenced, err := r.noteTags.Distinct(ctx, "tag_id", bson.M{}).Raw()
	if err != nil {
		return err
	}
	ids, err := decodeObjectIDs(referenced)
	if err != nil {
		return err
	}

	_, err = r.tags.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": ids}})
	return err
}

// decodeObjectIDs unpacks a raw distinct result into ObjectIDs.
func decodeObjectIDs(raw bson.RawArray) ([]bson.ObjectID, error) {
	values, err := raw.Values()
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, 0, len(values))
	for _, v := range values {
		id, ok := v.ObjectIDOK()
		if !ok {
			return nil, fmt.Errorf("unexpected distinct value type %s", v.Type)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
