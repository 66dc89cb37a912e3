package notes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"quicknotes/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repos bundles the per-entity repositories the service orchestrates.
// The service is the sole writer of every entity; repositories provide
// storage only.
type Repos struct {
	Notes       NotesRepo
	Colors      ColorsRepo
	Tags        TagsRepo
	NoteTags    NoteTagsRepo
	Attachments AttachmentsRepo
	Shares      SharesRepo
}

// Service handles notes business logic
type Service struct {
	repos        Repos
	directory    Directory
	files        FileURLs
	txn          Transactor
	bus          Bus
	defaultColor string
	log          *slog.Logger
}

// NewService creates a new notes service. defaultColor is the canonical color
// assigned to notes created without one.
func NewService(r Repos, dir Directory, files FileURLs, txn Transactor, bus Bus, defaultColor string, log *slog.Logger) *Service {
	return &Service{
		repos:        r,
		directory:    dir,
		files:        files,
		txn:          txn,
		bus:          bus,
		defaultColor: NormalizeColor(defaultColor, "#F7EB96"),
		log:          log,
	}
}

// List returns every note the user owns plus every note shared with them
// directly or through a group, all hydrated. Owned notes carry the share
// summary; shared-in notes are flagged IsShared.
func (s *Service) List(ctx context.Context, userID bson.ObjectID) (*ListNotesResponse, error) {
	owned, err := s.repos.Notes.FindAll(ctx, userID)
	if err != nil {
		s.log.Error(ErrListNotes.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrListNotes
	}

	views := make([]*NoteView, 0, len(owned))
	seen := make(map[bson.ObjectID]struct{}, len(owned))
	for _, n := range owned {
		view, err := s.hydrate(ctx, n, true)
		if err != nil {
			s.log.Error(ErrListNotes.Error(), "error", err, "user_id", userID.Hex(), "note_id", n.ID.Hex())
			return nil, ErrListNotes
		}
		views = append(views, view)
		seen[n.ID] = struct{}{}
	}

	shared, err := s.sharedInViews(ctx, userID, seen)
	if err != nil {
		s.log.Error(ErrListNotes.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrListNotes
	}
	views = append(views, shared...)

	return &ListNotesResponse{Notes: views}, nil
}

// sharedInViews resolves the notes other users shared with userID. Notes
// already present in seen (owned by the caller) are skipped, as are
// duplicate grants reaching the same note through several groups.
func (s *Service) sharedInViews(ctx context.Context, userID bson.ObjectID, seen map[bson.ObjectID]struct{}) ([]*NoteView, error) {
	groups, err := s.directory.GroupsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	groupIDs := make([]bson.ObjectID, len(groups))
	for i, g := range groups {
		groupIDs[i] = g.ID
	}

	grants, err := s.repos.Shares.ForRecipient(ctx, userID, groupIDs)
	if err != nil {
		return nil, err
	}

	var views []*NoteView
	for _, grant := range grants {
		if _, ok := seen[grant.NoteID]; ok {
			continue
		}
		seen[grant.NoteID] = struct{}{}

		note, err := s.repos.Notes.FindByID(ctx, grant.NoteID)
		if err != nil {
			if errors.Is(err, ErrNoteNotFound) {
				// stale grant, the note is gone
				continue
			}
			return nil, err
		}
		if note.OwnerID == userID {
			continue
		}

		view, err := s.hydrate(ctx, note, false)
		if err != nil {
			return nil, err
		}
		view.IsShared = true
		views = append(views, view)
	}
	return views, nil
}

// Get returns one hydrated note owned by the user. Unlike the historic
// behavior this hydrates exactly like List; a single-note read needs the
// color string and tag list just as much.
func (s *Service) Get(ctx context.Context, userID, noteID bson.ObjectID) (*NoteResponse, error) {
	note, err := s.repos.Notes.Find(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		s.log.Error("failed to get note", "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, err
	}

	view, err := s.hydrate(ctx, note, true)
	if err != nil {
		s.log.Error("failed to hydrate note", "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, err
	}
	return &NoteResponse{Note: view}, nil
}

// Create inserts a new note with the resolved color, no tags and no
// attachments, and returns it hydrated.
func (s *Service) Create(ctx context.Context, userID bson.ObjectID, req CreateNoteRequest) (*NoteResponse, error) {
	color, err := s.repos.Colors.FindOrCreate(ctx, NormalizeColor(req.Color, s.defaultColor))
	if err != nil {
		s.log.Error(ErrCreateNote.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrCreateNote
	}

	note := &Note{
		ID:        bson.NewObjectID(),
		OwnerID:   userID,
		Title:     sanitize.Clean(req.Title),
		Content:   sanitize.Clean(req.Content),
		Timestamp: time.Now().Unix(),
		ColorID:   color.ID,
		Pinned:    false,
	}

	if err := s.repos.Notes.Create(ctx, note); err != nil {
		s.log.Error(ErrCreateNote.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrCreateNote
	}

	view := &NoteView{
		ID:          note.ID,
		Title:       note.Title,
		Content:     note.Content,
		Timestamp:   note.Timestamp,
		Color:       color.Value,
		IsPinned:    false,
		Tags:        []Tag{},
		Attachments: []AttachmentView{},
	}

	s.bus.Broadcast(ctx, NoteEvent{
		Type:       "created",
		Note:       view,
		Recipients: []bson.ObjectID{userID},
	})

	return &NoteResponse{Note: view}, nil
}

// Update overwrites the note with the caller's desired state: it reconciles
// attachments and tags by set-difference over stable identifiers, swaps the
// color, and sweeps rows the change orphaned. The whole sequence runs inside
// one storage transaction. Re-submitting identical desired state produces no
// join-table writes beyond the timestamp/content overwrite.
func (s *Service) Update(ctx context.Context, userID, noteID bson.ObjectID, req UpdateNoteRequest) (*NoteResponse, error) {
	var view *NoteView

	err := s.txn.InTransaction(ctx, func(ctx context.Context) error {
		note, err := s.repos.Notes.Find(ctx, userID, noteID)
		if err != nil {
			return err
		}
		oldColorID := note.ColorID

		color, err := s.repos.Colors.FindOrCreate(ctx, NormalizeColor(req.Color, s.defaultColor))
		if err != nil {
			return err
		}

		if err := s.reconcileAttachments(ctx, userID, noteID, req.Attachments); err != nil {
			return err
		}
		if err := s.reconcileTags(ctx, userID, noteID, req.Tags); err != nil {
			return err
		}

		note.Title = sanitize.Clean(req.Title)
		note.Content = sanitize.Clean(req.Content)
		note.Pinned = req.IsPinned
		note.Timestamp = time.Now().Unix()
		note.ColorID = color.ID
		if err := s.repos.Notes.Update(ctx, note); err != nil {
			return err
		}

		view, err = s.hydrate(ctx, note, true)
		if err != nil {
			return err
		}

		if oldColorID != color.ID {
			if err := s.dropColorIfOrphaned(ctx, oldColorID); err != nil {
				return err
			}
		}

		// Purge orphan tags. The sweep is global across owners, matching the
		// historic reconciliation contract.
		return s.repos.Tags.DropOrphans(ctx)
	})
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note not found for update", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrUpdateNote.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, ErrUpdateNote
	}

	s.bus.Broadcast(ctx, NoteEvent{
		Type:       "updated",
		Note:       view,
		Recipients: s.recipients(ctx, userID, noteID),
	})

	return &NoteResponse{Note: view}, nil
}

// Delete removes the note with its shares, attachments and tag links, then
// drops the color and tags the removal orphaned. Deleting a note the caller
// does not own touches nothing and reports ErrNoteNotFound.
func (s *Service) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	// Capture the audience before the grants disappear.
	recipients := s.recipients(ctx, userID, noteID)

	err := s.txn.InTransaction(ctx, func(ctx context.Context) error {
		note, err := s.repos.Notes.Find(ctx, userID, noteID)
		if err != nil {
			return err
		}
		oldColorID := note.ColorID

		if err := s.repos.Shares.DeleteByNote(ctx, noteID); err != nil {
			return err
		}
		if err := s.repos.Notes.Delete(ctx, userID, noteID); err != nil {
			return err
		}
		if err := s.repos.Attachments.DeleteByNote(ctx, noteID); err != nil {
			return err
		}
		if err := s.repos.NoteTags.DeleteByNote(ctx, noteID); err != nil {
			return err
		}
		if err := s.dropColorIfOrphaned(ctx, oldColorID); err != nil {
			return err
		}
		return s.repos.Tags.DropOrphans(ctx)
	})
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note not found for delete", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return ErrNoteNotFound
		}
		s.log.Error(ErrDeleteNote.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return ErrDeleteNote
	}

	s.bus.Broadcast(ctx, NoteEvent{
		Type:       "deleted",
		Note:       &NoteView{ID: noteID},
		Recipients: recipients,
	})

	return nil
}

// reconcileAttachments diffs stored attachments against the desired list by
// external file id: absent ones are deleted, new ones inserted.
func (s *Service) reconcileAttachments(ctx context.Context, userID, noteID bson.ObjectID, desired []AttachmentInput) error {
	stored, err := s.repos.Attachments.ForNote(ctx, userID, noteID)
	if err != nil {
		return err
	}

	want := make(map[string]struct{}, len(desired))
	for _, a := range desired {
		want[a.FileID] = struct{}{}
	}

	for _, a := range stored {
		if _, keep := want[a.FileID]; !keep {
			if err := s.repos.Attachments.Delete(ctx, a.ID); err != nil {
				return err
			}
		}
	}

	now := time.Now().Unix()
	for _, a := range desired {
		exists, err := s.repos.Attachments.Exists(ctx, userID, noteID, a.FileID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		err = s.repos.Attachments.Insert(ctx, &Attachment{
			OwnerID:   userID,
			NoteID:    noteID,
			FileID:    a.FileID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// reconcileTags unlinks stored tags absent from the desired list (by id),
// then resolves each desired tag by (owner, name) and links it if needed.
// Tag rows themselves are not deleted here; the orphan sweep handles those.
func (s *Service) reconcileTags(ctx context.Context, userID, noteID bson.ObjectID, desired []TagInput) error {
	stored, err := s.repos.Tags.ForNote(ctx, userID, noteID)
	if err != nil {
		return err
	}

	want := make(map[bson.ObjectID]struct{}, len(desired))
	for _, t := range desired {
		if !t.ID.IsZero() {
			want[t.ID] = struct{}{}
		}
	}

	for _, t := range stored {
		if _, keep := want[t.ID]; !keep {
			if err := s.repos.NoteTags.Delete(ctx, userID, noteID, t.ID); err != nil {
				return err
			}
		}
	}

	for _, t := range desired {
		tag, err := s.repos.Tags.FindOrCreate(ctx, userID, strings.TrimSpace(t.Name))
		if err != nil {
			return err
		}
		linked, err := s.repos.NoteTags.Exists(ctx, userID, noteID, tag.ID)
		if err != nil {
			return err
		}
		if linked {
			continue
		}
		err = s.repos.NoteTags.Insert(ctx, &NoteTag{
			NoteID:  noteID,
			TagID:   tag.ID,
			OwnerID: userID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// dropColorIfOrphaned deletes the color row when no note references it.
func (s *Service) dropColorIfOrphaned(ctx context.Context, colorID bson.ObjectID) error {
	count, err := s.repos.Notes.CountByColor(ctx, colorID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.repos.Colors.Delete(ctx, colorID)
}

// hydrate assembles the response-ready view of a note: true color string,
// sanitized title, tag list and attachment list with derived URLs. The share
// summary is only computed for the owner (withShares).
func (s *Service) hydrate(ctx context.Context, note *Note, withShares bool) (*NoteView, error) {
	color, err := s.repos.Colors.Find(ctx, note.ColorID)
	if err != nil {
		return nil, err
	}

	tags, err := s.repos.Tags.ForNote(ctx, note.OwnerID, note.ID)
	if err != nil {
		return nil, err
	}

	stored, err := s.repos.Attachments.ForNote(ctx, note.OwnerID, note.ID)
	if err != nil {
		return nil, err
	}
	attachments := make([]AttachmentView, len(stored))
	for i, a := range stored {
		attachments[i] = AttachmentView{
			FileID:      a.FileID,
			PreviewURL:  s.files.PreviewURL(a.FileID),
			RedirectURL: s.files.RedirectURL(a.FileID),
		}
	}

	view := &NoteView{
		ID:          note.ID,
		Title:       sanitize.StripTags(note.Title),
		Content:     note.Content,
		Timestamp:   note.Timestamp,
		Color:       color.Value,
		IsPinned:    note.Pinned,
		Tags:        tags,
		Attachments: attachments,
	}

	if withShares {
		view.SharedWith, err = s.sharedWithSummary(ctx, note.ID)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// sharedWithSummary joins the usernames of the note's user shares into the
// display string, or nil when the note has no user shares.
func (s *Service) sharedWithSummary(ctx context.Context, noteID bson.ObjectID) (*string, error) {
	shares, err := s.repos.Shares.ForNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, sh := range shares {
		if !sh.IsUserShare() {
			continue
		}
		name, err := s.directory.UserName(ctx, sh.UserID)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil
	}
	joined := strings.Join(names, ", ")
	return &joined, nil
}

// ShareCandidates enumerates who the note could still be shared with.
// Administrators see the whole directory; everyone else sees their groups
// and those groups' members. The caller is excluded, and existing shares are
// partitioned out into the already-shared lists.
func (s *Service) ShareCandidates(ctx context.Context, userID, noteID bson.ObjectID) (*ShareCandidates, error) {
	if _, err := s.repos.Notes.Find(ctx, userID, noteID); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrShareCandidates.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, ErrShareCandidates
	}

	groups, users, err := s.candidatePool(ctx, userID)
	if err != nil {
		s.log.Error(ErrShareCandidates.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, ErrShareCandidates
	}

	shares, err := s.repos.Shares.ForNote(ctx, noteID)
	if err != nil {
		s.log.Error(ErrShareCandidates.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, ErrShareCandidates
	}

	out := &ShareCandidates{
		Groups:       []GroupRef{},
		Users:        []UserRef{},
		SharedGroups: []GroupRef{},
		SharedUsers:  []UserRef{},
	}

	sharedUsers := make(map[bson.ObjectID]struct{})
	sharedGroups := make(map[bson.ObjectID]struct{})
	for _, sh := range shares {
		if sh.IsUserShare() {
			sharedUsers[sh.UserID] = struct{}{}
		} else {
			sharedGroups[sh.GroupID] = struct{}{}
		}
	}

	for _, g := range groups {
		if _, ok := sharedGroups[g.ID]; ok {
			out.SharedGroups = append(out.SharedGroups, g)
		} else {
			out.Groups = append(out.Groups, g)
		}
	}
	for _, u := range users {
		if _, ok := sharedUsers[u.ID]; ok {
			out.SharedUsers = append(out.SharedUsers, u)
		} else {
			out.Users = append(out.Users, u)
		}
	}

	return out, nil
}

// candidatePool collects the raw group and user candidates for userID,
// deduplicated, with the caller removed.
func (s *Service) candidatePool(ctx context.Context, userID bson.ObjectID) ([]GroupRef, []UserRef, error) {
	admin, err := s.directory.IsAdmin(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var groups []GroupRef
	var users []UserRef
	if admin {
		if groups, err = s.directory.AllGroups(ctx); err != nil {
			return nil, nil, err
		}
		if users, err = s.directory.AllUsers(ctx); err != nil {
			return nil, nil, err
		}
	} else {
		if groups, err = s.directory.GroupsOf(ctx, userID); err != nil {
			return nil, nil, err
		}
		for _, g := range groups {
			members, err := s.directory.MembersOf(ctx, g.ID)
			if err != nil {
				return nil, nil, err
			}
			users = append(users, members...)
		}
	}

	seen := make(map[bson.ObjectID]struct{}, len(users))
	deduped := users[:0]
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		deduped = append(deduped, u)
	}

	return groups, deduped, nil
}

// AddUserShare grants a user read access to the note.
func (s *Service) AddUserShare(ctx context.Context, ownerID, noteID, targetID bson.ObjectID) error {
	if err := s.requireOwned(ctx, ownerID, noteID); err != nil {
		return err
	}
	err := s.repos.Shares.Insert(ctx, &Share{NoteID: noteID, UserID: targetID})
	if err != nil {
		s.log.Error("failed to add user share", "error", err, "note_id", noteID.Hex(), "target_id", targetID.Hex())
	}
	return err
}

// RemoveUserShare revokes a user's share; missing shares report ErrShareNotFound.
func (s *Service) RemoveUserShare(ctx context.Context, ownerID, noteID, targetID bson.ObjectID) error {
	if err := s.requireOwned(ctx, ownerID, noteID); err != nil {
		return err
	}
	share, err := s.repos.Shares.FindByNoteAndUser(ctx, noteID, targetID)
	if err != nil {
		return err
	}
	return s.repos.Shares.Delete(ctx, share.ID)
}

// AddGroupShare grants every member of a group read access to the note.
func (s *Service) AddGroupShare(ctx context.Context, ownerID, noteID, groupID bson.ObjectID) error {
	if err := s.requireOwned(ctx, ownerID, noteID); err != nil {
		return err
	}
	err := s.repos.Shares.Insert(ctx, &Share{NoteID: noteID, GroupID: groupID})
	if err != nil {
		s.log.Error("failed to add group share", "error", err, "note_id", noteID.Hex(), "group_id", groupID.Hex())
	}
	return err
}

// RemoveGroupShare revokes a group share; missing shares report ErrShareNotFound.
func (s *Service) RemoveGroupShare(ctx context.Context, ownerID, noteID, groupID bson.ObjectID) error {
	if err := s.requireOwned(ctx, ownerID, noteID); err != nil {
		return err
	}
	share, err := s.repos.Shares.FindByNoteAndGroup(ctx, noteID, groupID)
	if err != nil {
		return err
	}
	return s.repos.Shares.Delete(ctx, share.ID)
}

// requireOwned confirms the caller owns the note before share mutations.
func (s *Service) requireOwned(ctx context.Context, ownerID, noteID bson.ObjectID) error {
	_, err := s.repos.Notes.Find(ctx, ownerID, noteID)
	return err
}

// recipients computes the audience for a note's events: the owner plus every
// user the note is shared with, directly or via group membership. Failures
// degrade to owner-only delivery; live updates are best effort.
func (s *Service) recipients(ctx context.Context, ownerID, noteID bson.ObjectID) []bson.ObjectID {
	out := []bson.ObjectID{ownerID}
	seen := map[bson.ObjectID]struct{}{ownerID: {}}

	shares, err := s.repos.Shares.ForNote(ctx, noteID)
	if err != nil {
		s.log.Warn("failed to resolve event recipients", "error", err, "note_id", noteID.Hex())
		return out
	}

	add := func(id bson.ObjectID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	for _, sh := range shares {
		if sh.IsUserShare() {
			add(sh.UserID)
			continue
		}
		members, err := s.directory.MembersOf(ctx, sh.GroupID)
		if err != nil {
			s.log.Warn("failed to resolve group members for event", "error", err, "group_id", sh.GroupID.Hex())
			continue
		}
		for _, m := range members {
			add(m.ID)
		}
	}
	return out
}
