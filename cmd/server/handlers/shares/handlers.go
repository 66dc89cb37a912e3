package shares

import (
	"context"
	"errors"

	"quicknotes/cmd/server/handlers/handlerutil"
	"quicknotes/internal/handlers/httperr"
	"quicknotes/internal/logger"
	"quicknotes/internal/services/notes"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the share operations of the notes service
type Service interface {
	ShareCandidates(ctx context.Context, userID, noteID bson.ObjectID) (*notes.ShareCandidates, error)
	AddUserShare(ctx context.Context, ownerID, noteID, targetID bson.ObjectID) error
	RemoveUserShare(ctx context.Context, ownerID, noteID, targetID bson.ObjectID) error
	AddGroupShare(ctx context.Context, ownerID, noteID, groupID bson.ObjectID) error
	RemoveGroupShare(ctx context.Context, ownerID, noteID, groupID bson.ObjectID) error
}

// AddUserShareRequest is the body for sharing a note with a user.
type AddUserShareRequest struct {
	UserID string `json:"user_id" validate:"required,len=24,hexadecimal"`
}

// AddGroupShareRequest is the body for sharing a note with a group.
type AddGroupShareRequest struct {
	GroupID string `json:"group_id" validate:"required,len=24,hexadecimal"`
}

// Handlers contains the share HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new share handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// Candidates lists the users and groups a note can still be shared with,
// next to the ones it already is.
func (h *Handlers) Candidates(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Candidates", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	resp, err := h.service.ShareCandidates(c.Context(), userID, noteID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Candidates", userID, &noteID, notes.ErrNoteNotFound)
	}

	return c.JSON(resp)
}

// AddUserShare grants a user access to the note
func (h *Handlers) AddUserShare(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "AddUserShare", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	var req AddUserShareRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "AddUserShare"); err != nil {
		return err
	}

	targetID, err := bson.ObjectIDFromHex(req.UserID)
	if err != nil {
		return httperr.InvalidInput(err)
	}

	if err := h.service.AddUserShare(c.Context(), userID, noteID, targetID); err != nil {
		return handlerutil.HandleServiceError(err, "AddUserShare", userID, &noteID, notes.ErrNoteNotFound)
	}

	return c.SendStatus(204)
}

// RemoveUserShare revokes a user's access to the note
func (h *Handlers) RemoveUserShare(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "RemoveUserShare", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	targetID, err := extractPartyID(c, "userId")
	if err != nil {
		return err
	}

	if err := h.service.RemoveUserShare(c.Context(), userID, noteID, targetID); err != nil {
		return shareError(err, "RemoveUserShare", userID, noteID)
	}

	return c.SendStatus(204)
}

// AddGroupShare grants a group access to the note
func (h *Handlers) AddGroupShare(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "AddGroupShare", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	var req AddGroupShareRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "AddGroupShare"); err != nil {
		return err
	}

	groupID, err := bson.ObjectIDFromHex(req.GroupID)
	if err != nil {
		return httperr.InvalidInput(err)
	}

	if err := h.service.AddGroupShare(c.Context(), userID, noteID, groupID); err != nil {
		return handlerutil.HandleServiceError(err, "AddGroupShare", userID, &noteID, notes.ErrNoteNotFound)
	}

	return c.SendStatus(204)
}

// RemoveGroupShare revokes a group's access to the note
func (h *Handlers) RemoveGroupShare(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "RemoveGroupShare", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	groupID, err := extractPartyID(c, "groupId")
	if err != nil {
		return err
	}

	if err := h.service.RemoveGroupShare(c.Context(), userID, noteID, groupID); err != nil {
		return shareError(err, "RemoveGroupShare", userID, noteID)
	}

	return c.SendStatus(204)
}

// extractPartyID reads a user or group object id from the URL.
func extractPartyID(c *fiber.Ctx, param string) (bson.ObjectID, error) {
	raw := c.Params(param)
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		logger.L().Warn("invalid share party id", "param", param, "value", raw, "path", c.Path(), "error", err)
		return bson.ObjectID{}, httperr.InvalidInput(err)
	}
	return id, nil
}

// shareError maps share removal failures: a missing share and a missing note
// both answer 404, everything else is a 500.
func shareError(err error, handlerName string, userID, noteID bson.ObjectID) error {
	if errors.Is(err, notes.ErrShareNotFound) {
		logger.L().Info("share not found", "handler", handlerName, "userID", userID.Hex(), "noteID", noteID.Hex())
		return handlerutil.NotFoundError(notes.ErrShareNotFound)
	}
	return handlerutil.HandleServiceError(err, handlerName, userID, &noteID, notes.ErrNoteNotFound)
}
