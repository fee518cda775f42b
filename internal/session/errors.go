// internal/session/errors.go
package session

import "errors"

// Typed failures returned by Manager operations. Handlers translate
// these into HTTP statuses and the socket layer into error frames;
// anything not in this list is an internal error.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("lobby state does not allow this")
	ErrForbidden       = errors.New("forbidden")
	ErrLobbyFull       = errors.New("lobby is full")
	ErrAlreadyMember   = errors.New("already a member of this lobby")
	ErrNotReady        = errors.New("not every member is ready")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("authentication required")
)
