package constant

// Shared slog attribute keys.
const (
	Error     = "error"
	RoomID    = "room_id"
	PlayerID  = "player_id"
	SessionID = "session_id"
)
