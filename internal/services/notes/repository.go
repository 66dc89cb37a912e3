package notes

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotesRepo stores note rows. FindAll returns the owner's notes in
// reverse-chronological order.
type NotesRepo interface {
	Create(ctx context.Context, n *Note) error
	Find(ctx context.Context, ownerID, noteID bson.ObjectID) (*Note, error)
	FindByID(ctx context.Context, noteID bson.ObjectID) (*Note, error)
	FindAll(ctx context.Context, ownerID bson.ObjectID) ([]*Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, ownerID, noteID bson.ObjectID) error
	CountByColor(ctx context.Context, colorID bson.ObjectID) (int64, error)
}

// ColorsRepo deduplicates color values. Values passed in are already
// canonical (see NormalizeColor); FindOrCreate is the only writer.
type ColorsRepo interface {
	FindOrCreate(ctx context.Context, value string) (*Color, error)
	Find(ctx context.Context, id bson.ObjectID) (*Color, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

// TagsRepo deduplicates per-user tag names and resolves the tags linked to a
// note. DropOrphans removes every tag, regardless of owner, that no note
// links to anymore.
type TagsRepo interface {
	FindOrCreate(ctx context.Context, ownerID bson.ObjectID, name string) (*Tag, error)
	Find(ctx context.Context, id bson.ObjectID) (*Tag, error)
	ForNote(ctx context.Context, ownerID, noteID bson.ObjectID) ([]Tag, error)
	DropOrphans(ctx context.Context) error
}

// NoteTagsRepo stores note-tag link rows.
type NoteTagsRepo interface {
	Exists(ctx context.Context, ownerID, noteID, tagID bson.ObjectID) (bool, error)
	Insert(ctx context.Context, link *NoteTag) error
	Delete(ctx context.Context, ownerID, noteID, tagID bson.ObjectID) error
	DeleteByNote(ctx context.Context, noteID bson.ObjectID) error
}

// AttachmentsRepo stores attachment rows keyed by external file id.
type AttachmentsRepo interface {
	ForNote(ctx context.Context, ownerID, noteID bson.ObjectID) ([]*Attachment, error)
	Exists(ctx context.Context, ownerID, noteID bson.ObjectID, fileID string) (bool, error)
	Insert(ctx context.Context, a *Attachment) error
	Delete(ctx context.Context, id bson.ObjectID) error
	DeleteByNote(ctx context.Context, noteID bson.ObjectID) error
}

// SharesRepo stores share grants. ForRecipient returns every share naming
// the user directly or through one of the given groups.
type SharesRepo interface {
	ForNote(ctx context.Context, noteID bson.ObjectID) ([]*Share, error)
	ForRecipient(ctx context.Context, userID bson.ObjectID, groupIDs []bson.ObjectID) ([]*Share, error)
	Insert(ctx context.Context, s *Share) error
	FindByNoteAndUser(ctx context.Context, noteID, userID bson.ObjectID) (*Share, error)
	FindByNoteAndGroup(ctx context.Context, noteID, groupID bson.ObjectID) (*Share, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	DeleteByNote(ctx context.Context, noteID bson.ObjectID) error
}

// Directory is the host platform's user/group directory, consumed as an
// abstract contract.
type Directory interface {
	IsAdmin(ctx context.Context, userID bson.ObjectID) (bool, error)
	GroupsOf(ctx context.Context, userID bson.ObjectID) ([]GroupRef, error)
	MembersOf(ctx context.Context, groupID bson.ObjectID) ([]UserRef, error)
	AllUsers(ctx context.Context) ([]UserRef, error)
	AllGroups(ctx context.Context) ([]GroupRef, error)
	UserName(ctx context.Context, userID bson.ObjectID) (string, error)
}

// FileURLs derives client-facing URLs for opaque attachment file ids.
type FileURLs interface {
	PreviewURL(fileID string) string
	RedirectURL(fileID string) string
}

// Transactor runs fn atomically when the storage deployment supports it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Bus defines the interface for event broadcasting
type Bus interface {
	Broadcast(ctx context.Context, ev NoteEvent)
}
