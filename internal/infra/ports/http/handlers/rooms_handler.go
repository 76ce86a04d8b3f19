package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vkuzmenko/chippot/internal/infra/adapters/memory"
)

type RoomsHandler struct {
	roomRepo memory.RoomRepository
}

func NewRoomsHandler(roomRepo memory.RoomRepository) *RoomsHandler {
	return &RoomsHandler{roomRepo: roomRepo}
}

type roomInfo struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Pot     int    `json:"pot"`
}

// ListRooms returns the rooms currently held in memory.
func (h *RoomsHandler) ListRooms(c echo.Context) error {
	snapshots := h.roomRepo.Snapshots()

	rooms := make([]roomInfo, 0, len(snapshots))
	for _, snap := range snapshots {
		rooms = append(rooms, roomInfo{
			ID:      snap.ID,
			Players: len(snap.Players),
			Pot:     snap.Pot,
		})
	}

	return c.JSON(http.StatusOK, rooms)
}
