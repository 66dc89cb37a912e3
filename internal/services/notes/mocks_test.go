package notes

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockNotesRepo is a mock implementation of NotesRepo
type MockNotesRepo struct {
	mock.Mock
}

func (m *MockNotesRepo) Create(ctx context.Context, n *Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotesRepo) Find(ctx context.Context, ownerID, noteID bson.ObjectID) (*Note, error) {
	args := m.Called(ctx, ownerID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockNotesRepo) FindByID(ctx context.Context, noteID bson.ObjectID) (*Note, error) {
	args := m.Called(ctx, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Note), args.Error(1)
}

func (m *MockNotesRepo) FindAll(ctx context.Context, ownerID bson.ObjectID) ([]*Note, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Note), args.Error(1)
}

func (m *MockNotesRepo) Update(ctx context.Context, n *Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotesRepo) Delete(ctx context.Context, ownerID, noteID bson.ObjectID) error {
	args := m.Called(ctx, ownerID, noteID)
	return args.Error(0)
}

func (m *MockNotesRepo) CountByColor(ctx context.Context, colorID bson.ObjectID) (int64, error) {
	args := m.Called(ctx, colorID)
	return args.Get(0).(int64), args.Error(1)
}

// MockColorsRepo is a mock implementation of ColorsRepo
type MockColorsRepo struct {
	mock.Mock
}

func (m *MockColorsRepo) FindOrCreate(ctx context.Context, value string) (*Color, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Color), args.Error(1)
}

func (m *MockColorsRepo) Find(ctx context.Context, id bson.ObjectID) (*Color, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Color), args.Error(1)
}

func (m *MockColorsRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTagsRepo is a mock implementation of TagsRepo
type MockTagsRepo struct {
	mock.Mock
}

func (m *MockTagsRepo) FindOrCreate(ctx context.Context, ownerID bson.ObjectID, name string) (*Tag, error) {
	args := m.Called(ctx, ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tag), args.Error(1)
}

func (m *MockTagsRepo) Find(ctx context.Context, id bson.ObjectID) (*Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tag), args.Error(1)
}

func (m *MockTagsRepo) ForNote(ctx context.Context, ownerID, noteID bson.ObjectID) ([]Tag, error) {
	args := m.Called(ctx, ownerID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Tag), args.Error(1)
}

func (m *MockTagsRepo) DropOrphans(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockNoteTagsRepo is a mock implementation of NoteTagsRepo
type MockNoteTagsRepo struct {
	mock.Mock
}

func (m *MockNoteTagsRepo) Exists(ctx context.Context, ownerID, noteID, tagID bson.ObjectID) (bool, error) {
	args := m.Called(ctx, ownerID, noteID, tagID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNoteTagsRepo) Insert(ctx context.Context, link *NoteTag) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockNoteTagsRepo) Delete(ctx context.Context, ownerID, noteID, tagID bson.ObjectID) error {
	args := m.Called(ctx, ownerID, noteID, tagID)
	return args.Error(0)
}

func (m *MockNoteTagsRepo) DeleteByNote(ctx context.Context, noteID bson.ObjectID) error {
	args := m.Called(ctx, noteID)
	return args.Error(0)
}

// MockAttachmentsRepo is a mock implementation of AttachmentsRepo
type MockAttachmentsRepo struct {
	mock.Mock
}

func (m *MockAttachmentsRepo) ForNote(ctx context.Context, ownerID, noteID bson.ObjectID) ([]*Attachment, error) {
	args := m.Called(ctx, ownerID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Attachment), args.Error(1)
}

func (m *MockAttachmentsRepo) Exists(ctx context.Context, ownerID, noteID bson.ObjectID, fileID string) (bool, error) {
	args := m.Called(ctx, ownerID, noteID, fileID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttachmentsRepo) Insert(ctx context.Context, a *Attachment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAttachmentsRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAttachmentsRepo) DeleteByNote(ctx context.Context, noteID bson.ObjectID) error {
	args := m.Called(ctx, noteID)
	return args.Error(0)
}

// MockSharesRepo is a mock implementation of SharesRepo
type MockSharesRepo struct {
	mock.Mock
}

func (m *MockSharesRepo) ForNote(ctx context.Context, noteID bson.ObjectID) ([]*Share, error) {
	args := m.Called(ctx, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Share), args.Error(1)
}

func (m *MockSharesRepo) ForRecipient(ctx context.Context, userID bson.ObjectID, groupIDs []bson.ObjectID) ([]*Share, error) {
	args := m.Called(ctx, userID, groupIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Share), args.Error(1)
}

func (m *MockSharesRepo) Insert(ctx context.Context, s *Share) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSharesRepo) FindByNoteAndUser(ctx context.Context, noteID, userID bson.ObjectID) (*Share, error) {
	args := m.Called(ctx, noteID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Share), args.Error(1)
}

func (m *MockSharesRepo) FindByNoteAndGroup(ctx context.Context, noteID, groupID bson.ObjectID) (*Share, error) {
	args := m.Called(ctx, noteID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Share), args.Error(1)
}

func (m *MockSharesRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSharesRepo) DeleteByNote(ctx context.Context, noteID bson.ObjectID) error {
	args := m.Called(ctx, noteID)
	return args.Error(0)
}

// MockDirectory is a mock implementation of Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) IsAdmin(ctx context.Context, userID bson.ObjectID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) GroupsOf(ctx context.Context, userID bson.ObjectID) ([]GroupRef, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]GroupRef), args.Error(1)
}

func (m *MockDirectory) MembersOf(ctx context.Context, groupID bson.ObjectID) ([]UserRef, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UserRef), args.Error(1)
}

func (m *MockDirectory) AllUsers(ctx context.Context) ([]UserRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UserRef), args.Error(1)
}

func (m *MockDirectory) AllGroups(ctx context.Context) ([]GroupRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]GroupRef), args.Error(1)
}

func (m *MockDirectory) UserName(ctx context.Context, userID bson.ObjectID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// MockBus is a mock implementation of Bus
type MockBus struct {
	mock.Mock
}

func (m *MockBus) Broadcast(ctx context.Context, ev NoteEvent) {
	m.Called(ctx, ev)
}

// fakeFileURLs derives predictable URLs for assertions.
type fakeFileURLs struct{}

func (fakeFileURLs) PreviewURL(fileID string) string  { return "preview:" + fileID }
func (fakeFileURLs) RedirectURL(fileID string) string { return "redirect:" + fileID }

// passTxn runs the function directly, standing in for a real transaction.
type passTxn struct{}

func (passTxn) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// testMocks bundles every mock a service test may need.
type testMocks struct {
	notes       *MockNotesRepo
	colors      *MockColorsRepo
	tags        *MockTagsRepo
	noteTags    *MockNoteTagsRepo
	attachments *MockAttachmentsRepo
	shares      *MockSharesRepo
	directory   *MockDirectory
	bus         *MockBus
}

func (tm *testMocks) assertExpectations(t *testing.T) {
	t.Helper()
	tm.notes.AssertExpectations(t)
	tm.colors.AssertExpectations(t)
	tm.tags.AssertExpectations(t)
	tm.noteTags.AssertExpectations(t)
	tm.attachments.AssertExpectations(t)
	tm.shares.AssertExpectations(t)
	tm.directory.AssertExpectations(t)
	tm.bus.AssertExpectations(t)
}

// newServiceWithMocks wires together a Service + fresh mocks and lets the
// caller register expectations before the test starts.
func newServiceWithMocks(t *testing.T, setup func(tm *testMocks)) (*Service, *testMocks) {
	t.Helper()

	tm := &testMocks{
		notes:       new(MockNotesRepo),
		colors:      new(MockColorsRepo),
		tags:        new(MockTagsRepo),
		noteTags:    new(MockNoteTagsRepo),
		attachments: new(MockAttachmentsRepo),
		shares:      new(MockSharesRepo),
		directory:   new(MockDirectory),
		bus:         new(MockBus),
	}

	if setup != nil {
		setup(tm)
	}

	repos := Repos{
		Notes:       tm.notes,
		Colors:      tm.colors,
		Tags:        tm.tags,
		NoteTags:    tm.noteTags,
		Attachments: tm.attachments,
		Shares:      tm.shares,
	}
	svc := NewService(repos, tm.directory, fakeFileURLs{}, passTxn{}, tm.bus, "#F7EB96", silentLogger)
	return svc, tm
}
