package notes

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Note is the stored note row. Presentation fields (color string, tags,
// attachments, share summary) live on NoteView and are joined in by the
// service.
type Note struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	OwnerID   bson.ObjectID `bson:"owner_id"`
	Title     string        `bson:"title"`
	Content   string        `bson:"content"`
	Timestamp int64         `bson:"timestamp"`
	ColorID   bson.ObjectID `bson:"color_id"`
	Pinned    bool          `bson:"pinned"`
}

// Color is a deduplicated color row, reference-counted by notes.
// Value is canonical uppercase "#RRGGBB".
type Color struct {
	ID    bson.ObjectID `bson:"_id,omitempty"`
	Value string        `bson:"value"`
}

// Tag is a per-user tag. (OwnerID, Name) is unique.
type Tag struct {
	ID      bson.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID bson.ObjectID `bson:"owner_id" json:"-"`
	Name    string        `bson:"name" json:"name"`
}

// NoteTag links a note to a tag for one owner. The triple is unique.
type NoteTag struct {
	ID      bson.ObjectID `bson:"_id,omitempty"`
	NoteID  bson.ObjectID `bson:"note_id"`
	TagID   bson.ObjectID `bson:"tag_id"`
	OwnerID bson.ObjectID `bson:"owner_id"`
}

// Attachment associates an externally stored file with a note.
// (OwnerID, NoteID, FileID) is unique; file ids are opaque references.
type Attachment struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	OwnerID   bson.ObjectID `bson:"owner_id"`
	NoteID    bson.ObjectID `bson:"note_id"`
	FileID    string        `bson:"file_id"`
	CreatedAt int64         `bson:"created_at"`
}

// Share grants read access to a note, either to a single user or to every
// member of a group. Exactly one of UserID/GroupID is set.
type Share struct {
	ID      bson.ObjectID `bson:"_id,omitempty"`
	NoteID  bson.ObjectID `bson:"note_id"`
	UserID  bson.ObjectID `bson:"user_id,omitempty"`
	GroupID bson.ObjectID `bson:"group_id,omitempty"`
}

// IsUserShare reports whether the share targets a single user.
func (s *Share) IsUserShare() bool { return !s.UserID.IsZero() }

// UserRef identifies a user in share candidate listings.
type UserRef struct {
	ID   bson.ObjectID `json:"id"`
	Name string        `json:"name"`
}

// GroupRef identifies a group in share candidate listings.
type GroupRef struct {
	ID   bson.ObjectID `json:"id"`
	Name string        `json:"name"`
}

// AttachmentView is an attachment enriched with the URLs the client needs.
type AttachmentView struct {
	FileID      string `json:"file_id"`
	PreviewURL  string `json:"preview_url"`
	RedirectURL string `json:"redirect_url"`
}

// NoteView is the hydrated, response-ready form of a note.
type NoteView struct {
	ID          bson.ObjectID    `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Timestamp   int64            `json:"timestamp"`
	Color       string           `json:"color" example:"#F7EB96"`
	IsPinned    bool             `json:"is_pinned"`
	IsShared    bool             `json:"is_shared"`
	SharedWith  *string          `json:"shared_with"`
	Tags        []Tag            `json:"tags"`
	Attachments []AttachmentView `json:"attachments"`
}

// CreateNoteRequest represents a note creation request
type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required" example:"Groceries"`
	Content string `json:"content" example:"milk, eggs"`
	Color   string `json:"color" validate:"omitempty,hexcolor" example:"#F7EB96"`
}

// TagInput names a desired tag on update. ID is zero for tags that do not
// exist yet; reconciliation resolves them by (owner, name).
type TagInput struct {
	ID   bson.ObjectID `json:"id"`
	Name string        `json:"name" validate:"required"`
}

// AttachmentInput names a desired attachment on update.
type AttachmentInput struct {
	FileID string `json:"file_id" validate:"required"`
}

// UpdateNoteRequest carries the full desired state of a note. Update
// reconciles stored tags and attachments against it.
type UpdateNoteRequest struct {
	Title       string            `json:"title" validate:"required" example:"Groceries"`
	Content     string            `json:"content"`
	Color       string            `json:"color" validate:"omitempty,hexcolor" example:"#FFD700"`
	IsPinned    bool              `json:"is_pinned"`
	Tags        []TagInput        `json:"tags" validate:"dive"`
	Attachments []AttachmentInput `json:"attachments" validate:"dive"`
}

// NoteResponse represents a single note response
type NoteResponse struct {
	Note *NoteView `json:"note"`
}

// ListNotesResponse represents a list of notes response
type ListNotesResponse struct {
	Notes []*NoteView `json:"notes"`
}

// ShareCandidates partitions the users and groups a note could be shared
// with into not-yet-shared and already-shared sets.
type ShareCandidates struct {
	Groups       []GroupRef `json:"groups"`
	Users        []UserRef  `json:"users"`
	SharedGroups []GroupRef `json:"shared_groups"`
	SharedUsers  []UserRef  `json:"shared_users"`
}

// NoteEvent is broadcast to every recipient's live subscribers after a
// mutation. Recipients is the owner plus everyone the note is shared with.
type NoteEvent struct {
	Type       string          `json:"type"` // "created", "updated", "deleted"
	Note       *NoteView       `json:"note"`
	Recipients []bson.ObjectID `json:"-"`
}
