package events

import (
	"encoding/json"
	"fmt"
)

// Client to server event names.
const (
	TypeCreateRoom  = "create-room"
	TypeJoinRoom    = "join-room"
	TypePlaceBet    = "place-bet"
	TypeWinPot      = "win-pot"
	TypeResetGame   = "reset-game"
	TypeReclaimHost = "reclaim-host"
)

// Server to client event names.
const (
	TypeRoomUpdate = "room-update"
	TypeError      = "error"
	TypeHostToken  = "host-token"
)

// Message is the wire envelope shared by both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewMessage wraps a payload into an envelope of the given type.
func NewMessage(eventType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return Message{Type: eventType, Data: data}, nil
}

// CreateRoomEvent allocates a room. The passcode is optional; when set,
// joining the room requires it.
type CreateRoomEvent struct {
	RoomID       string `json:"roomId"`
	InitialChips int    `json:"initialChips"`
	Passcode     string `json:"passcode,omitempty"`
}

type JoinRoomEvent struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Passcode   string `json:"passcode,omitempty"`
}

type PlaceBetEvent struct {
	RoomID string `json:"roomId"`
	Amount int    `json:"amount"`
}

type WinPotEvent struct {
	RoomID   string `json:"roomId"`
	WinnerID string `json:"winnerId"`
}

// ResetGameEvent exists for clients that send an object payload. The
// reference client sends the room id as a bare JSON string instead, see
// ParseResetGame.
type ResetGameEvent struct {
	RoomID string `json:"roomId"`
}

// ParseResetGame accepts both reset-game payload shapes: a bare room id
// string and {"roomId": "..."}.
func ParseResetGame(data json.RawMessage) (string, error) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err == nil {
		return roomID, nil
	}

	var ev ResetGameEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", fmt.Errorf("unmarshal reset-game payload: %w", err)
	}

	return ev.RoomID, nil
}

// ReclaimHostEvent rebinds host privileges to the sending connection when
// the token issued at room creation checks out.
type ReclaimHostEvent struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token"`
}

// HostTokenEvent is delivered to the room creator right after create-room.
type HostTokenEvent struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token"`
}
