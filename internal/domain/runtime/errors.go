package runtime

import "errors"

// Request-local failures. They are reported to the requesting connection
// only and never leave the room in a partially applied state.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidAmount     = errors.New("bet amount must be a positive number")
	ErrInsufficientChips = errors.New("not enough chips for that bet")
	ErrUnauthorized      = errors.New("only the host can do that")
	ErrInvalidPasscode   = errors.New("invalid room passcode")
)
