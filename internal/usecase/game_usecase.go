package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vkuzmenko/chippot/internal/application/constant"
	"github.com/vkuzmenko/chippot/internal/application/metric"
	"github.com/vkuzmenko/chippot/internal/domain/events"
	"github.com/vkuzmenko/chippot/internal/domain/runtime"
	"github.com/vkuzmenko/chippot/internal/infra/adapters/memory"
	"github.com/vkuzmenko/chippot/internal/infra/adapters/postgres/repository"
)

// GameUsecase routes connection actions into the per-room state machines
// and fans accepted snapshots out to subscribers. Validation failures go
// back to the requesting session only, as an error event.
type GameUsecase interface {
	HandleCreateRoom(ctx context.Context, sessionID string, ev events.CreateRoomEvent) error
	HandleJoinRoom(ctx context.Context, sessionID string, ev events.JoinRoomEvent) error
	HandlePlaceBet(ctx context.Context, sessionID string, ev events.PlaceBetEvent) error
	HandleWinPot(ctx context.Context, sessionID string, ev events.WinPotEvent) error
	HandleResetGame(ctx context.Context, sessionID, roomID string) error
	HandleReclaimHost(ctx context.Context, sessionID string, ev events.ReclaimHostEvent) error

	HandleDisconnect(ctx context.Context, sessionID string)
}

type gameUsecase struct {
	rooms    memory.RoomRepository
	sessions memory.SessionRepository
	archive  repository.EventRepository
	tokens   HostTokenUsecase

	// requireHost gates win-pot and reset-game to the room creator.
	requireHost bool
}

func NewGameUsecase(
	rooms memory.RoomRepository,
	sessions memory.SessionRepository,
	archive repository.EventRepository,
	tokens HostTokenUsecase,
	requireHost bool,
) GameUsecase {
	return &gameUsecase{
		rooms:       rooms,
		sessions:    sessions,
		archive:     archive,
		tokens:      tokens,
		requireHost: requireHost,
	}
}

func (u *gameUsecase) HandleCreateRoom(ctx context.Context, sessionID string, ev events.CreateRoomEvent) error {
	if ev.RoomID == "" {
		u.sendError(sessionID, "room id is required")
		metric.RecordRoomAction("create", true)
		return nil
	}

	if ev.InitialChips <= 0 {
		u.sendError(sessionID, "initial chips must be a positive number")
		metric.RecordRoomAction("create", true)
		return nil
	}

	var passcodeHash []byte
	if ev.Passcode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(ev.Passcode), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash passcode: %w", err)
		}
		passcodeHash = hash
	}

	_, created := u.rooms.GetOrCreate(ev.RoomID, sessionID, ev.InitialChips, passcodeHash)
	metric.RecordRoomAction("create", false)

	if !created {
		// Idempotent create: a duplicate request must not wipe existing
		// state, and only the original creator holds the host token.
		return nil
	}

	u.record(ev.RoomID, "create", sessionID, ev.InitialChips, "room created")

	token, err := u.tokens.Issue(ev.RoomID)
	if err != nil {
		slog.Error(
			"issue host token",
			slog.Any(constant.Error, err),
			slog.String(constant.RoomID, ev.RoomID),
		)
		return nil
	}

	msg, err := events.NewMessage(events.TypeHostToken, events.HostTokenEvent{RoomID: ev.RoomID, Token: token})
	if err != nil {
		return err
	}
	u.sessions.Write(sessionID, msg)

	return nil
}

func (u *gameUsecase) HandleJoinRoom(ctx context.Context, sessionID string, ev events.JoinRoomEvent) error {
	room, ok := u.rooms.Get(ev.RoomID)
	if !ok {
		u.sendError(sessionID, runtime.ErrRoomNotFound.Error())
		metric.RecordRoomAction("join", true)
		return nil
	}

	if ev.PlayerName == "" {
		u.sendError(sessionID, "player name is required")
		metric.RecordRoomAction("join", true)
		return nil
	}

	// The hash is immutable, so the comparison runs outside the room
	// critical section.
	if hash := room.PasscodeHash(); len(hash) > 0 {
		if err := bcrypt.CompareHashAndPassword(hash, []byte(ev.Passcode)); err != nil {
			u.sendError(sessionID, runtime.ErrInvalidPasscode.Error())
			metric.RecordRoomAction("join", true)
			return nil
		}
	}

	vacated, remaining := u.sessions.Subscribe(sessionID, ev.RoomID)
	if vacated != "" && remaining == 0 {
		// Switching rooms can empty the old one, same as a disconnect.
		u.rooms.MarkIdle(vacated)
	}
	u.rooms.MarkActive(ev.RoomID)

	snap, seated := room.Join(sessionID, ev.PlayerName)
	metric.RecordRoomAction("join", false)
	if seated {
		u.record(ev.RoomID, "join", sessionID, 0, ev.PlayerName+" joined")
	}

	return u.broadcast(ev.RoomID, snap)
}

func (u *gameUsecase) HandlePlaceBet(ctx context.Context, sessionID string, ev events.PlaceBetEvent) error {
	room, ok := u.rooms.Get(ev.RoomID)
	if !ok {
		u.sendError(sessionID, runtime.ErrRoomNotFound.Error())
		metric.RecordRoomAction("bet", true)
		return nil
	}

	snap, err := room.Bet(sessionID, ev.Amount)
	if err != nil {
		u.sendError(sessionID, err.Error())
		metric.RecordRoomAction("bet", true)
		return nil
	}

	metric.RecordRoomAction("bet", false)
	u.record(ev.RoomID, "bet", sessionID, ev.Amount, "bet placed")

	return u.broadcast(ev.RoomID, snap)
}

func (u *gameUsecase) HandleWinPot(ctx context.Context, sessionID string, ev events.WinPotEvent) error {
	room, ok := u.rooms.Get(ev.RoomID)
	if !ok {
		u.sendError(sessionID, runtime.ErrRoomNotFound.Error())
		metric.RecordRoomAction("award", true)
		return nil
	}

	snap, won, err := room.AwardPot(sessionID, ev.WinnerID, u.requireHost)
	if err != nil {
		u.sendError(sessionID, err.Error())
		metric.RecordRoomAction("award", true)
		return nil
	}

	metric.RecordRoomAction("award", false)
	if won > 0 {
		u.record(ev.RoomID, "award", ev.WinnerID, won, "pot awarded")
	}

	return u.broadcast(ev.RoomID, snap)
}

func (u *gameUsecase) HandleResetGame(ctx context.Context, sessionID, roomID string) error {
	room, ok := u.rooms.Get(roomID)
	if !ok {
		u.sendError(sessionID, runtime.ErrRoomNotFound.Error())
		metric.RecordRoomAction("reset", true)
		return nil
	}

	snap, err := room.Reset(sessionID, u.requireHost)
	if err != nil {
		u.sendError(sessionID, err.Error())
		metric.RecordRoomAction("reset", true)
		return nil
	}

	metric.RecordRoomAction("reset", false)
	u.record(roomID, "reset", sessionID, 0, "game reset")

	return u.broadcast(roomID, snap)
}

func (u *gameUsecase) HandleReclaimHost(ctx context.Context, sessionID string, ev events.ReclaimHostEvent) error {
	room, ok := u.rooms.Get(ev.RoomID)
	if !ok {
		u.sendError(sessionID, runtime.ErrRoomNotFound.Error())
		return nil
	}

	if err := u.tokens.Verify(ev.RoomID, ev.Token); err != nil {
		slog.Warn(
			"host token rejected",
			slog.Any(constant.Error, err),
			slog.String(constant.RoomID, ev.RoomID),
			slog.String(constant.SessionID, sessionID),
		)
		u.sendError(sessionID, "invalid host token")
		return nil
	}

	snap := room.SetHost(sessionID)
	u.record(ev.RoomID, "reclaim-host", sessionID, 0, "host reclaimed")

	return u.broadcast(ev.RoomID, snap)
}

func (u *gameUsecase) HandleDisconnect(ctx context.Context, sessionID string) {
	roomID, remaining := u.sessions.Remove(sessionID)
	if roomID != "" && remaining == 0 {
		u.rooms.MarkIdle(roomID)
	}
}

func (u *gameUsecase) broadcast(roomID string, snap runtime.Snapshot) error {
	msg, err := events.NewMessage(events.TypeRoomUpdate, snap)
	if err != nil {
		return err
	}

	u.sessions.Broadcast(roomID, snap.Version, msg)

	return nil
}

func (u *gameUsecase) sendError(sessionID, text string) {
	msg, err := events.NewMessage(events.TypeError, text)
	if err != nil {
		slog.Error("marshal error event", slog.Any(constant.Error, err))
		return
	}

	u.sessions.Write(sessionID, msg)
}

// record archives the action without holding up the request path. The
// archive is best effort: a failed insert is logged and forgotten.
func (u *gameUsecase) record(roomID, kind, actor string, amount int, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var err error
		if kind == "create" {
			err = u.archive.InsertRoom(ctx, roomID, actor, amount)
		} else {
			err = u.archive.InsertEvent(ctx, roomID, kind, actor, amount, message)
		}

		if err != nil {
			slog.Warn(
				"archive room event",
				slog.Any(constant.Error, err),
				slog.String(constant.RoomID, roomID),
			)
		}
	}()
}
