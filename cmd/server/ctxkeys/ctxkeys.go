// Package ctxkeys holds the fiber.Ctx locals keys shared between middlewares
// and handlers.
package ctxkeys

const (
	// UserIDKey is the locals key carrying the authenticated user's id hex.
	UserIDKey = "userID"
	// UserNameKey is the locals key carrying the authenticated username.
	UserNameKey = "userName"
	// ParentCtxKey carries the request-bound context across the websocket
	// upgrade, where the fiber context is no longer usable.
	ParentCtxKey = "parentCtx"
)
