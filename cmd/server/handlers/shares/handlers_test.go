package shares

import (
	"context"
	"encoding/json"
	"testing"

	"quicknotes/cmd/server/testutil"
	"quicknotes/internal/services/notes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MockSharesService mocks the share operations of the notes service
type MockSharesService struct {
	mock.Mock
}

func (m *MockSharesService) ShareCandidates(ctx context.Context, userID, noteID bson.ObjectID) (*notes.ShareCandidates, error) {
	args := m.Called(ctx, userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.ShareCandidates), args.Error(1)
}

func (m *MockSharesService) AddUserShare(ctx context.Context, ownerID, noteID, targetID bson.ObjectID) error {
	args := m.Called(ctx, ownerID, noteID, targetID)
	return args.Error(0)
}

func (m *MockSharesService) RemoveUserShare(ctx context.Context, ownerID, noteID, targetID bson.ObjectID) error {
	args := m.Called(ctx, ownerID, noteID, targetID)
	return args.Error(0)
}

func (m *MockSharesService) AddGroupShare(ctx context.Context, ownerID, noteID, groupID bson.ObjectID) error {
	args := m.Called(ctx, ownerID, noteID, groupID)
	return args.Error(0)
}

func (m *MockSharesService) RemoveGroupShare(ctx context.Context, ownerID, noteID, groupID bson.ObjectID) error {
	args := m.Called(ctx, ownerID, noteID, groupID)
	return args.Error(0)
}

// SharesTestSetup contains common test setup data
type SharesTestSetup struct {
	MockService *MockSharesService
	App         *fiber.App
	UserID      bson.ObjectID
	NoteID      bson.ObjectID
}

// SetupSharesTest wires the share handlers behind an injected identity
func SetupSharesTest(t *testing.T) *SharesTestSetup {
	t.Helper()

	mockService := &MockSharesService{}
	app := testutil.CreateTestApp(t)
	validator := testutil.CreateTestValidator(t)

	h := NewHandlers(mockService, validator)

	userID := bson.NewObjectID()

	notesGrp := app.Group("/api/v1/notes", testutil.InjectUser(userID.Hex(), "bob"))
	notesGrp.Get("/:id/shares/candidates", h.Candidates)
	notesGrp.Post("/:id/shares/users", h.AddUserShare)
	notesGrp.Delete("/:id/shares/users/:userId", h.RemoveUserShare)
	notesGrp.Post("/:id/shares/groups", h.AddGroupShare)
	notesGrp.Delete("/:id/shares/groups/:groupId", h.RemoveGroupShare)

	return &SharesTestSetup{
		MockService: mockService,
		App:         app,
		UserID:      userID,
		NoteID:      bson.NewObjectID(),
	}
}

func (s *SharesTestSetup) notePath(suffix string) string {
	return "/api/v1/notes/" + s.NoteID.Hex() + suffix
}

func TestShareCandidates(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		setup := SetupSharesTest(t)
		friendID := bson.NewObjectID()
		groupID := bson.NewObjectID()

		setup.MockService.On("ShareCandidates", mock.Anything, setup.UserID, setup.NoteID).
			Return(&notes.ShareCandidates{
				Groups:       []notes.GroupRef{{ID: groupID, Name: "engineering"}},
				Users:        []notes.UserRef{{ID: friendID, Name: "alice"}},
				SharedGroups: []notes.GroupRef{},
				SharedUsers:  []notes.UserRef{},
			}, nil).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("GET", setup.notePath("/shares/candidates"), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var got notes.ShareCandidates
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got.Users, 1)
		assert.Equal(t, "alice", got.Users[0].Name)
		require.Len(t, got.Groups, 1)
		assert.Equal(t, "engineering", got.Groups[0].Name)

		setup.MockService.AssertExpectations(t)
	})

	t.Run("NotOwned", func(t *testing.T) {
		setup := SetupSharesTest(t)
		setup.MockService.On("ShareCandidates", mock.Anything, setup.UserID, setup.NoteID).
			Return(nil, notes.ErrNoteNotFound).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("GET", setup.notePath("/shares/candidates"), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestAddUserShare(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		setup := SetupSharesTest(t)
		targetID := bson.NewObjectID()

		setup.MockService.On("AddUserShare", mock.Anything, setup.UserID, setup.NoteID, targetID).
			Return(nil).Once()

		body := map[string]string{"user_id": targetID.Hex()}
		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", setup.notePath("/shares/users"), body), -1)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
		setup.MockService.AssertExpectations(t)
	})

	t.Run("MalformedTargetID", func(t *testing.T) {
		setup := SetupSharesTest(t)

		body := map[string]string{"user_id": "not-an-object-id"}
		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", setup.notePath("/shares/users"), body), -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		setup.MockService.AssertNotCalled(t, "AddUserShare")
	})
}

func TestRemoveUserShare(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		setup := SetupSharesTest(t)
		targetID := bson.NewObjectID()

		setup.MockService.On("RemoveUserShare", mock.Anything, setup.UserID, setup.NoteID, targetID).
			Return(nil).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("DELETE", setup.notePath("/shares/users/"+targetID.Hex()), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
		setup.MockService.AssertExpectations(t)
	})

	t.Run("NoSuchShare", func(t *testing.T) {
		setup := SetupSharesTest(t)
		targetID := bson.NewObjectID()

		setup.MockService.On("RemoveUserShare", mock.Anything, setup.UserID, setup.NoteID, targetID).
			Return(notes.ErrShareNotFound).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("DELETE", setup.notePath("/shares/users/"+targetID.Hex()), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestGroupShares(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		setup := SetupSharesTest(t)
		groupID := bson.NewObjectID()

		setup.MockService.On("AddGroupShare", mock.Anything, setup.UserID, setup.NoteID, groupID).
			Return(nil).Once()

		body := map[string]string{"group_id": groupID.Hex()}
		resp, err := setup.App.Test(testutil.CreateJSONRequest("POST", setup.notePath("/shares/groups"), body), -1)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
		setup.MockService.AssertExpectations(t)
	})

	t.Run("Remove", func(t *testing.T) {
		setup := SetupSharesTest(t)
		groupID := bson.NewObjectID()

		setup.MockService.On("RemoveGroupShare", mock.Anything, setup.UserID, setup.NoteID, groupID).
			Return(nil).Once()

		resp, err := setup.App.Test(testutil.CreateJSONRequest("DELETE", setup.notePath("/shares/groups/"+groupID.Hex()), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
		setup.MockService.AssertExpectations(t)
	})
}
