package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vkuzmenko/chippot/internal/application/constant"
	"github.com/vkuzmenko/chippot/internal/application/metric"
	"github.com/vkuzmenko/chippot/internal/domain/runtime"
)

// RoomRepository is the process-wide room registry.
type RoomRepository interface {
	// GetOrCreate allocates the room on the absence-to-presence transition
	// only: a second create for the same id returns the existing room
	// untouched, whatever initial stack it asks for.
	GetOrCreate(roomID, hostID string, initialChips int, passcodeHash []byte) (*runtime.Room, bool)

	Get(roomID string) (*runtime.Room, bool)
	Snapshots() []runtime.Snapshot

	// MarkIdle records that the room lost its last subscriber; MarkActive
	// clears the mark. The janitor evicts rooms idle longer than the TTL.
	MarkIdle(roomID string)
	MarkActive(roomID string)

	RunJanitor(ctx context.Context, ttl time.Duration)
}

type roomEntry struct {
	room      *runtime.Room
	idleSince time.Time // zero while the room has subscribers
}

type roomRepository struct {
	rooms    map[string]*roomEntry
	logLimit int
	mu       sync.RWMutex
}

func NewRoomRepository(logLimit int) RoomRepository {
	return &roomRepository{
		rooms:    make(map[string]*roomEntry),
		logLimit: logLimit,
	}
}

func (r *roomRepository) GetOrCreate(roomID, hostID string, initialChips int, passcodeHash []byte) (*runtime.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.rooms[roomID]; exists {
		return entry.room, false
	}

	room := runtime.NewRoom(roomID, hostID, initialChips, r.logLimit, passcodeHash)
	r.rooms[roomID] = &roomEntry{room: room, idleSince: time.Now()}

	metric.SetRoomsActive(len(r.rooms))

	return room, true
}

func (r *roomRepository) Get(roomID string) (*runtime.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.rooms[roomID]
	if !exists {
		return nil, false
	}

	return entry.room, true
}

func (r *roomRepository) Snapshots() []runtime.Snapshot {
	r.mu.RLock()
	rooms := make([]*runtime.Room, 0, len(r.rooms))
	for _, entry := range r.rooms {
		rooms = append(rooms, entry.room)
	}
	r.mu.RUnlock()

	snapshots := make([]runtime.Snapshot, 0, len(rooms))
	for _, room := range rooms {
		snapshots = append(snapshots, room.Snapshot())
	}

	return snapshots
}

func (r *roomRepository) MarkIdle(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.rooms[roomID]; exists {
		entry.idleSince = time.Now()
	}
}

func (r *roomRepository) MarkActive(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.rooms[roomID]; exists {
		entry.idleSince = time.Time{}
	}
}

// RunJanitor evicts rooms that sat without subscribers for longer than ttl.
// It blocks until ctx is done.
func (r *roomRepository) RunJanitor(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle(ttl)
		}
	}
}

func (r *roomRepository) evictIdle(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	for id, entry := range r.rooms {
		if !entry.idleSince.IsZero() && entry.idleSince.Before(cutoff) {
			delete(r.rooms, id)
			slog.Info("evicted idle room", slog.String(constant.RoomID, id))
		}
	}

	metric.SetRoomsActive(len(r.rooms))
}
