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

// group is the stored group document.
type group struct {
	ID      bson.ObjectID   `bson:"_id,omitempty"`
	Name    string          `bson:"name"`
	Members []bson.ObjectID `bson:"members"`
}

// userDoc is the projection of a user the directory needs.
type userDoc struct {
	ID       bson.ObjectID `bson:"_id"`
	Username string        `bson:"username"`
	Admin    bool          `bson:"admin"`
}

// DirectoryRepo implements the notes.Directory contract over the users and
// groups collections.
type DirectoryRepo struct {
	users  *mongo.Collection
	groups *mongo.Collection
}

// NewDirectoryRepo creates a new directory repository
func NewDirectoryRepo(parentCtx context.Context, db *mongo.Database) (*DirectoryRepo, error) {
	groups := db.Collection("groups")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "members", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if err := createIndexes(ctx, groups, indexes); err != nil {
		return nil, fmt.Errorf("failed to create groups collection index: %w", err)
	}

	return &DirectoryRepo{
		users:  db.Collection("users"),
		groups: groups,
	}, nil
}

// IsAdmin reports whether the user is a directory administrator.
func (r *DirectoryRepo) IsAdmin(ctx context.Context, userID bson.ObjectID) (bool, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var u userDoc
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return u.Admin, nil
}

// GroupsOf returns the groups the user belongs to.
func (r *DirectoryRepo) GroupsOf(ctx context.Context, userID bson.ObjectID) ([]notes.GroupRef, error) {
	return r.findGroups(ctx, bson.M{"members": userID})
}

// AllGroups returns every group in the system.
func (r *DirectoryRepo) AllGroups(ctx context.Context) ([]notes.GroupRef, error) {
	return r.findGroups(ctx, bson.M{})
}

func (r *DirectoryRepo) findGroups(ctx context.Context, filter bson.M) ([]notes.GroupRef, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.groups.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	refs := []notes.GroupRef{}
	for cursor.Next(ctx) {
		var g group
		if err := cursor.Decode(&g); err != nil {
			return nil, err
		}
		refs = append(refs, notes.GroupRef{ID: g.ID, Name: g.Name})
	}
	return refs, cursor.Err()
}

// MembersOf returns the users belonging to a group.
func (r *DirectoryRepo) MembersOf(ctx context.Context, groupID bson.ObjectID) ([]notes.UserRef, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var g group
	if err := r.groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []notes.UserRef{}, nil
		}
		return nil, err
	}
	if len(g.Members) == 0 {
		return []notes.UserRef{}, nil
	}
	return r.findUsers(ctx, bson.M{"_id": bson.M{"$in": g.Members}})
}

// AllUsers returns every user in the system.
func (r *DirectoryRepo) AllUsers(ctx context.Context) ([]notes.UserRef, error) {
	return r.findUsers(ctx, bson.M{})
}

func (r *DirectoryRepo) findUsers(ctx context.Context, filter bson.M) ([]notes.UserRef, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	refs := []notes.UserRef{}
	for cursor.Next(ctx) {
		var u userDoc
		if err := cursor.Decode(&u); err != nil {
			return nil, err
		}
		refs = append(refs, notes.UserRef{ID: u.ID, Name: u.Username})
	}
	return refs, cursor.Err()
}

// UserName resolves a user id to its username.
func (r *DirectoryRepo) UserName(ctx context.Context, userID bson.ObjectID) (string, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var u userDoc
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// A share can outlive the account it names.
			return userID.Hex(), nil
		}
		return "", err
	}
	return u.Username, nil
}
