package runtime

import (
	"fmt"
	"sync"
)

// Player is one seat in a room. Chips only move between the stack and the
// room pot, so pot + sum of stacks always equals the sum of initial stacks.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Chips int    `json:"chips"`
	Bet   int    `json:"bet"`
}

// Snapshot is an immutable copy of a room, safe to hand to any goroutine.
// Version grows by one per accepted mutation and lets slow subscribers
// detect and drop stale updates.
type Snapshot struct {
	ID      string   `json:"id"`
	Pot     int      `json:"pot"`
	HostID  string   `json:"hostId"`
	Players []Player `json:"players"`
	Logs    []string `json:"logs"`
	Version uint64   `json:"-"`
}

// Room is the single authority for one chip ledger. Every state transition
// runs under the room mutex, so concurrent actions from different
// connections are applied one at a time. Transitions are pure in-memory
// work; nothing inside the critical section blocks.
type Room struct {
	id           string
	hostID       string
	initialChips int
	passcodeHash []byte
	logLimit     int

	mu      sync.Mutex
	pot     int
	players []*Player
	logs    []string // most recent first
	version uint64
}

func NewRoom(id, hostID string, initialChips, logLimit int, passcodeHash []byte) *Room {
	return &Room{
		id:           id,
		hostID:       hostID,
		initialChips: initialChips,
		passcodeHash: passcodeHash,
		logLimit:     logLimit,
		version:      1,
	}
}

func (r *Room) ID() string { return r.id }

// PasscodeHash is set once at creation, so it needs no lock. An empty hash
// means the room is open.
func (r *Room) PasscodeHash() []byte { return r.passcodeHash }

// Join seats a new player with the room's initial stack and reports whether
// a seat was actually taken. Joining again with the same id is a no-op
// returning the current state, which absorbs the create+join pair the
// client fires back-to-back.
func (r *Room) Join(playerID, name string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.ID == playerID {
			return r.snapshot(), false
		}
	}

	r.players = append(r.players, &Player{
		ID:    playerID,
		Name:  name,
		Chips: r.initialChips,
	})
	r.appendLog(fmt.Sprintf("%s joined the room", name))
	r.version++

	return r.snapshot(), true
}

// Bet moves amount from the player's stack into the pot. The room mutex
// guarantees two racing bets from the same player each see the previously
// committed stack, so a player can never spend chips twice.
func (r *Room) Bet(playerID string, amount int) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount <= 0 {
		return Snapshot{}, ErrInvalidAmount
	}

	p := r.findPlayer(playerID)
	if p == nil {
		return Snapshot{}, ErrPlayerNotFound
	}

	if amount > p.Chips {
		return Snapshot{}, ErrInsufficientChips
	}

	p.Chips -= amount
	p.Bet += amount
	r.pot += amount
	r.appendLog(fmt.Sprintf("%s bet %d chips", p.Name, amount))
	r.version++

	return r.snapshot(), nil
}

// AwardPot hands the whole pot to the winner and closes the betting round
// for everyone. It returns the amount won. An empty pot is a silent no-op:
// the returned snapshot keeps its version, so subscribers that already saw
// it ignore the rebroadcast.
func (r *Room) AwardPot(requesterID, winnerID string, requireHost bool) (Snapshot, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requireHost && requesterID != r.hostID {
		return Snapshot{}, 0, ErrUnauthorized
	}

	winner := r.findPlayer(winnerID)
	if winner == nil {
		return Snapshot{}, 0, ErrPlayerNotFound
	}

	if r.pot == 0 {
		return r.snapshot(), 0, nil
	}

	won := r.pot
	winner.Chips += won
	r.pot = 0
	for _, p := range r.players {
		p.Bet = 0
	}
	r.appendLog(fmt.Sprintf("%s won the pot of %d chips", winner.Name, won))
	r.version++

	return r.snapshot(), won, nil
}

// Reset restores every stack to the room's initial amount and clears the
// pot and all open bets.
func (r *Room) Reset(requesterID string, requireHost bool) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requireHost && requesterID != r.hostID {
		return Snapshot{}, ErrUnauthorized
	}

	name := requesterID
	if p := r.findPlayer(requesterID); p != nil {
		name = p.Name
	}

	for _, p := range r.players {
		p.Chips = r.initialChips
		p.Bet = 0
	}
	r.pot = 0
	r.appendLog(fmt.Sprintf("Game reset by %s", name))
	r.version++

	return r.snapshot(), nil
}

// SetHost rebinds host privileges to a new connection, used when the
// original creator reconnects under a fresh session id.
func (r *Room) SetHost(hostID string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hostID == hostID {
		return r.snapshot()
	}

	r.hostID = hostID
	r.appendLog("Host privileges reclaimed")
	r.version++

	return r.snapshot()
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshot()
}

func (r *Room) findPlayer(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) appendLog(entry string) {
	r.logs = append([]string{entry}, r.logs...)
	if r.logLimit > 0 && len(r.logs) > r.logLimit {
		r.logs = r.logs[:r.logLimit]
	}
}

// snapshot deep-copies the room. Callers must hold r.mu.
func (r *Room) snapshot() Snapshot {
	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, *p)
	}

	logs := make([]string, len(r.logs))
	copy(logs, r.logs)

	return Snapshot{
		ID:      r.id,
		Pot:     r.pot,
		HostID:  r.hostID,
		Players: players,
		Logs:    logs,
		Version: r.version,
	}
}
