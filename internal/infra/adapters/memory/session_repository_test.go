package memory

import (
	"sync"
	"testing"

	"github.com/vkuzmenko/chippot/internal/domain/events"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []events.Message
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, v.(events.Message))
	return nil
}

func (f *fakeConn) received() []events.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]events.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func update(version byte) events.Message {
	return events.Message{Type: events.TypeRoomUpdate, Data: []byte{'0' + version}}
}

func TestSessionRepository_BroadcastReachesOnlyRoomSubscribers(t *testing.T) {
	repo := NewSessionRepository()

	inRoom, outside := &fakeConn{}, &fakeConn{}
	repo.Add("s1", inRoom)
	repo.Add("s2", outside)
	repo.Subscribe("s1", "friday")
	repo.Subscribe("s2", "saturday")

	repo.Broadcast("friday", 2, update(2))

	if len(inRoom.received()) != 1 {
		t.Fatalf("subscriber got %d messages, expected 1", len(inRoom.received()))
	}
	if len(outside.received()) != 0 {
		t.Fatal("session in another room received a broadcast")
	}
}

func TestSessionRepository_BroadcastDropsStaleVersions(t *testing.T) {
	repo := NewSessionRepository()

	conn := &fakeConn{}
	repo.Add("s1", conn)
	repo.Subscribe("s1", "friday")

	repo.Broadcast("friday", 3, update(3))
	repo.Broadcast("friday", 2, update(2))
	repo.Broadcast("friday", 3, update(3))
	repo.Broadcast("friday", 4, update(4))

	got := conn.received()
	if len(got) != 2 {
		t.Fatalf("expected stale versions to be dropped, got %d messages", len(got))
	}
	if string(got[0].Data) != "3" || string(got[1].Data) != "4" {
		t.Fatalf("unexpected delivery order: %s then %s", got[0].Data, got[1].Data)
	}
}

func TestSessionRepository_RoomSwitchRestartsDeliveryCursor(t *testing.T) {
	repo := NewSessionRepository()

	conn := &fakeConn{}
	repo.Add("s1", conn)
	repo.Subscribe("s1", "friday")

	repo.Broadcast("friday", 9, update(9))

	// The new room is younger than the old one, so its versions start
	// below what the session already saw there.
	repo.Subscribe("s1", "saturday")
	repo.Broadcast("saturday", 2, update(2))

	got := conn.received()
	if len(got) != 2 {
		t.Fatalf("expected the new room's snapshot to be delivered, got %d messages", len(got))
	}
	if string(got[1].Data) != string(update(2).Data) {
		t.Fatalf("unexpected payload after room switch: %s", got[1].Data)
	}
}

func TestSessionRepository_SubscribeReportsVacatedRoom(t *testing.T) {
	repo := NewSessionRepository()

	repo.Add("s1", &fakeConn{})
	repo.Add("s2", &fakeConn{})
	repo.Subscribe("s1", "friday")
	repo.Subscribe("s2", "friday")

	if vacated, remaining := repo.Subscribe("s1", "saturday"); vacated != "friday" || remaining != 1 {
		t.Fatalf("expected (friday, 1), got (%s, %d)", vacated, remaining)
	}

	if vacated, remaining := repo.Subscribe("s2", "saturday"); vacated != "friday" || remaining != 0 {
		t.Fatalf("expected (friday, 0), got (%s, %d)", vacated, remaining)
	}
}

func TestSessionRepository_SubscribeFirstTimeVacatesNothing(t *testing.T) {
	repo := NewSessionRepository()

	repo.Add("s1", &fakeConn{})

	if vacated, remaining := repo.Subscribe("s1", "friday"); vacated != "" || remaining != 0 {
		t.Fatalf("expected zero values, got (%s, %d)", vacated, remaining)
	}

	// Resubscribing to the same room is not a switch.
	if vacated, remaining := repo.Subscribe("s1", "friday"); vacated != "" || remaining != 0 {
		t.Fatalf("expected zero values on rejoin, got (%s, %d)", vacated, remaining)
	}
}

func TestSessionRepository_WriteIsUnversioned(t *testing.T) {
	repo := NewSessionRepository()

	conn := &fakeConn{}
	repo.Add("s1", conn)
	repo.Subscribe("s1", "friday")

	repo.Broadcast("friday", 5, update(5))

	errMsg := events.Message{Type: events.TypeError, Data: []byte(`"nope"`)}
	repo.Write("s1", errMsg)

	got := conn.received()
	if len(got) != 2 {
		t.Fatalf("expected error delivery after a newer snapshot, got %d messages", len(got))
	}
	if got[1].Type != events.TypeError {
		t.Fatalf("expected error event, got %q", got[1].Type)
	}
}

func TestSessionRepository_RemoveReportsRemainingSubscribers(t *testing.T) {
	repo := NewSessionRepository()

	repo.Add("s1", &fakeConn{})
	repo.Add("s2", &fakeConn{})
	repo.Subscribe("s1", "friday")
	repo.Subscribe("s2", "friday")

	roomID, remaining := repo.Remove("s1")
	if roomID != "friday" || remaining != 1 {
		t.Fatalf("expected (friday, 1), got (%s, %d)", roomID, remaining)
	}

	roomID, remaining = repo.Remove("s2")
	if roomID != "friday" || remaining != 0 {
		t.Fatalf("expected (friday, 0), got (%s, %d)", roomID, remaining)
	}
}

func TestSessionRepository_RemoveUnknownSession(t *testing.T) {
	repo := NewSessionRepository()

	if roomID, remaining := repo.Remove("ghost"); roomID != "" || remaining != 0 {
		t.Fatalf("expected zero values, got (%s, %d)", roomID, remaining)
	}
}

func TestSessionRepository_WriteAfterRemoveIsNoop(t *testing.T) {
	repo := NewSessionRepository()

	conn := &fakeConn{}
	repo.Add("s1", conn)
	repo.Remove("s1")

	repo.Write("s1", events.Message{Type: events.TypeError, Data: []byte(`"late"`)})

	if len(conn.received()) != 0 {
		t.Fatal("write to a removed session must be dropped")
	}
}
