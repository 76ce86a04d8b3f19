package memory

import (
	"log/slog"
	"sync"

	"github.com/vkuzmenko/chippot/internal/application/constant"
	"github.com/vkuzmenko/chippot/internal/application/metric"
	"github.com/vkuzmenko/chippot/internal/domain/events"
)

// Conn is the subset of *websocket.Conn the repository writes to.
type Conn interface {
	WriteJSON(v any) error
}

// SessionRepository tracks live connections and their room subscription,
// and fans room snapshots out to every subscriber.
type SessionRepository interface {
	Add(sessionID string, conn Conn)

	// Remove drops the session and returns the room it was subscribed to
	// together with the subscriber count left in that room.
	Remove(sessionID string) (roomID string, remaining int)

	// Subscribe binds the session to roomID. When the session moves off a
	// different room it returns that room's id and the subscriber count
	// left there, so the caller can mark a vacated room idle.
	Subscribe(sessionID, roomID string) (vacatedRoomID string, remaining int)

	// Write delivers an unversioned message (errors, host tokens) to a
	// single session.
	Write(sessionID string, msg events.Message)

	// Broadcast delivers a versioned snapshot to every subscriber of the
	// room. A session never observes an older snapshot after a newer one:
	// writes happen under the per-session mutex and versions at or below
	// the last delivered one are dropped.
	Broadcast(roomID string, version uint64, msg events.Message)
}

type session struct {
	conn   Conn
	roomID string

	mu          sync.Mutex
	lastVersion uint64
}

func (s *session) write(version uint64, msg events.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version > 0 && version <= s.lastVersion {
		return
	}

	if err := s.conn.WriteJSON(msg); err != nil {
		slog.Error("write to websocket", slog.Any(constant.Error, err))
		return
	}

	if version > 0 {
		s.lastVersion = version
	}
}

type sessionRepository struct {
	sessions map[string]*session
	mu       sync.RWMutex
}

func NewSessionRepository() SessionRepository {
	return &sessionRepository{
		sessions: make(map[string]*session, 10),
	}
}

func (r *sessionRepository) Add(sessionID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = &session{conn: conn}

	metric.IncrementWSActiveConnections()
}

func (r *sessionRepository) Remove(sessionID string) (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[sessionID]
	if !exists {
		return "", 0
	}

	delete(r.sessions, sessionID)
	metric.DecrementWSActiveConnections()

	if s.roomID == "" {
		return "", 0
	}

	return s.roomID, r.countInRoom(s.roomID)
}

func (r *sessionRepository) Subscribe(sessionID, roomID string) (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[sessionID]
	if !exists {
		return "", 0
	}

	prev := s.roomID
	if prev == roomID {
		return "", 0
	}

	s.roomID = roomID

	// The delivery cursor only orders snapshots within one room, so a
	// fresh subscription starts over from zero.
	s.mu.Lock()
	s.lastVersion = 0
	s.mu.Unlock()

	if prev == "" {
		return "", 0
	}

	return prev, r.countInRoom(prev)
}

func (r *sessionRepository) Write(sessionID string, msg events.Message) {
	r.mu.RLock()
	s, exists := r.sessions[sessionID]
	r.mu.RUnlock()

	if !exists {
		return
	}

	s.write(0, msg)
}

func (r *sessionRepository) Broadcast(roomID string, version uint64, msg events.Message) {
	r.mu.RLock()
	subscribers := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.roomID == roomID {
			subscribers = append(subscribers, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range subscribers {
		s.write(version, msg)
	}
}

// countInRoom counts subscribers of roomID. Callers must hold r.mu.
func (r *sessionRepository) countInRoom(roomID string) int {
	count := 0
	for _, s := range r.sessions {
		if s.roomID == roomID {
			count++
		}
	}
	return count
}
