package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EventRepository is the room audit archive. Writes happen outside the room
// critical section and a failed write never affects room state.
type EventRepository interface {
	InsertRoom(ctx context.Context, roomID, hostID string, initialChips int) error
	InsertEvent(ctx context.Context, roomID, kind, actor string, amount int, message string) error
}

type eventRepo struct {
	db *sqlx.DB
}

func NewEventRepo(db *sqlx.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) InsertRoom(ctx context.Context, roomID, hostID string, initialChips int) error {
	query := "INSERT INTO rooms (room_id, host_id, initial_chips) VALUES ($1, $2, $3)"

	if _, err := r.db.ExecContext(ctx, query, roomID, hostID, initialChips); err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	return nil
}

func (r *eventRepo) InsertEvent(ctx context.Context, roomID, kind, actor string, amount int, message string) error {
	query := "INSERT INTO room_events (room_id, kind, actor, amount, message) VALUES ($1, $2, $3, $4, $5)"

	if _, err := r.db.ExecContext(ctx, query, roomID, kind, actor, amount, message); err != nil {
		return fmt.Errorf("insert room event: %w", err)
	}

	return nil
}

// NewNoopEventRepo is used when no archive database is configured.
func NewNoopEventRepo() EventRepository {
	return noopEventRepo{}
}

type noopEventRepo struct{}

func (noopEventRepo) InsertRoom(context.Context, string, string, int) error { return nil }

func (noopEventRepo) InsertEvent(context.Context, string, string, string, int, string) error {
	return nil
}
