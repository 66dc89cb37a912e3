package notes

import "errors"

// ErrNoteNotFound - note not found or not owned by the caller.
var ErrNoteNotFound = errors.New("note not found")

// ErrShareNotFound - no share row matches the note and target.
var ErrShareNotFound = errors.New("share not found")

// ErrColorNotFound - a note references a color row that no longer exists.
var ErrColorNotFound = errors.New("color not found")

// ErrTagNotFound - tag row not found.
var ErrTagNotFound = errors.New("tag not found")

// ErrDuplicate is returned by repositories on unique-index violations.
var ErrDuplicate = errors.New("duplicate row")

// ErrCreateNote is returned when note creation fails.
var ErrCreateNote = errors.New("failed to create note")

// ErrUpdateNote is returned when note update fails.
var ErrUpdateNote = errors.New("failed to update note")

// ErrDeleteNote is returned when note deletion fails.
var ErrDeleteNote = errors.New("failed to delete note")

// ErrListNotes is returned when notes listing fails.
var ErrListNotes = errors.New("failed to list notes")

// ErrShareCandidates is returned when candidate enumeration fails.
var ErrShareCandidates = errors.New("failed to list share candidates")

// ErrCreateNotesRepo is returned when a notes repository cannot be built.
var ErrCreateNotesRepo = errors.New("failed to create notes repository")
