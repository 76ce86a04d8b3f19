package memory

import (
	"sync"
	"testing"
	"time"
)

func TestRoomRepository_GetOrCreateIsIdempotent(t *testing.T) {
	repo := NewRoomRepository(200)

	room, created := repo.GetOrCreate("friday", "host", 1000, nil)
	if !created {
		t.Fatal("expected first call to create the room")
	}
	room.Join("a", "Alice")

	again, created := repo.GetOrCreate("friday", "other-host", 50, nil)
	if created {
		t.Fatal("expected second create to be a no-op")
	}
	if again != room {
		t.Fatal("expected the same room instance back")
	}

	snap := again.Snapshot()
	if len(snap.Players) != 1 || snap.Players[0].Chips != 1000 {
		t.Fatalf("duplicate create wiped state: players=%d chips=%d",
			len(snap.Players), snap.Players[0].Chips)
	}
	if snap.HostID != "host" {
		t.Fatalf("duplicate create rebound the host: %q", snap.HostID)
	}
}

func TestRoomRepository_GetMissingRoom(t *testing.T) {
	repo := NewRoomRepository(200)

	if _, ok := repo.Get("nope"); ok {
		t.Fatal("expected lookup miss for unknown room")
	}
}

func TestRoomRepository_ConcurrentGetOrCreateSingleRoom(t *testing.T) {
	repo := NewRoomRepository(200)

	const workers = 16
	var wg sync.WaitGroup
	createdCount := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created := repo.GetOrCreate("shared", "host", 1000, nil)
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	creations := 0
	for created := range createdCount {
		if created {
			creations++
		}
	}

	if creations != 1 {
		t.Fatalf("expected exactly one creation, got %d", creations)
	}
}

func TestRoomRepository_EvictsOnlyExpiredIdleRooms(t *testing.T) {
	repo := NewRoomRepository(200).(*roomRepository)

	repo.GetOrCreate("stale", "host", 1000, nil)
	repo.GetOrCreate("busy", "host", 1000, nil)
	repo.GetOrCreate("fresh", "host", 1000, nil)

	repo.MarkActive("busy")

	// Backdate the stale room past the TTL.
	repo.mu.Lock()
	repo.rooms["stale"].idleSince = time.Now().Add(-time.Hour)
	repo.mu.Unlock()

	repo.evictIdle(30 * time.Minute)

	if _, ok := repo.Get("stale"); ok {
		t.Fatal("expected stale room to be evicted")
	}
	if _, ok := repo.Get("busy"); !ok {
		t.Fatal("room with subscribers must survive eviction")
	}
	if _, ok := repo.Get("fresh"); !ok {
		t.Fatal("recently idle room must survive eviction")
	}
}

func TestRoomRepository_Snapshots(t *testing.T) {
	repo := NewRoomRepository(200)

	room, _ := repo.GetOrCreate("friday", "host", 1000, nil)
	room.Join("a", "Alice")
	repo.GetOrCreate("saturday", "host", 500, nil)

	snapshots := repo.Snapshots()
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
}
