package events

import (
	"encoding/json"
	"testing"
)

func TestParseResetGame_BareString(t *testing.T) {
	roomID, err := ParseResetGame(json.RawMessage(`"friday"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roomID != "friday" {
		t.Fatalf("expected friday, got %q", roomID)
	}
}

func TestParseResetGame_ObjectPayload(t *testing.T) {
	roomID, err := ParseResetGame(json.RawMessage(`{"roomId":"friday"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roomID != "friday" {
		t.Fatalf("expected friday, got %q", roomID)
	}
}

func TestParseResetGame_Garbage(t *testing.T) {
	if _, err := ParseResetGame(json.RawMessage(`12,`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestNewMessage_WrapsPayload(t *testing.T) {
	msg, err := NewMessage(TypeError, "room not found")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Type != TypeError {
		t.Fatalf("unexpected type: %q", msg.Type)
	}

	var text string
	if err := json.Unmarshal(msg.Data, &text); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if text != "room not found" {
		t.Fatalf("unexpected payload: %q", text)
	}
}
