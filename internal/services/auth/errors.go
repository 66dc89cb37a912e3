package auth

import (
	"errors"

	"quicknotes/internal/handlers/httperr"
)

// ErrGenAccessToken is returned when we cannot create a JWT.
var ErrGenAccessToken = errors.New("failed to generate access token")

// ErrInvalidCredentials masks every sign-in failure mode.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnsupportedJWTAlg is returned for algorithms the service cannot sign with.
var ErrUnsupportedJWTAlg = errors.New("unsupported JWT algorithm")

// ErrInvalidTokenMissingUserID is returned when a verified token lacks the user_id claim.
var ErrInvalidTokenMissingUserID = errors.New("invalid token: missing user_id claim")

// ErrInvalidTokenMissingUsername is returned when a verified token lacks the username claim.
var ErrInvalidTokenMissingUsername = errors.New("invalid token: missing username claim")

// ErrUnauthorized converts any token problem into the standard 401 response.
func ErrUnauthorized(err error) error {
	return httperr.Fail(httperr.E{Status: 401, Message: "Unauthorized: " + err.Error()})
}
