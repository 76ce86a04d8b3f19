package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vkuzmenko/chippot/internal/application/config"
	"github.com/vkuzmenko/chippot/internal/application/constant"
	"github.com/vkuzmenko/chippot/internal/domain/events"
	"github.com/vkuzmenko/chippot/internal/infra/adapters/memory"
	"github.com/vkuzmenko/chippot/internal/usecase"
)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	gameUsecase usecase.GameUsecase

	sessionRepo memory.SessionRepository
}

func NewWebSocketHandler(cfg *config.Config, gameUsecase usecase.GameUsecase, sessionRepo memory.SessionRepository) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		gameUsecase: gameUsecase,
		sessionRepo: sessionRepo,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return err
	}
	defer ws.Close()

	// The session id doubles as the player id once the connection joins a
	// room, so host authorization is tied to the connection itself.
	sessionID := uuid.NewString()

	h.sessionRepo.Add(sessionID, ws)
	defer h.gameUsecase.HandleDisconnect(c.Request().Context(), sessionID)

	if err = ws.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-c.Request().Context().Done():
				return
			}
		}
	}()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		default:
			_, msg, err := ws.ReadMessage()
			if err != nil {
				h.handleWebsocketError(sessionID, err)
				return nil
			}

			actionMessage := new(events.Message)

			if err = json.Unmarshal(msg, actionMessage); err != nil {
				slog.Error("unmarshal websocket message", slog.Any(constant.Error, err))
				continue
			}

			if err = h.handleMessage(c.Request().Context(), sessionID, actionMessage); err != nil {
				slog.Error(
					"handle message",
					slog.Any(constant.Error, err),
					slog.String(constant.SessionID, sessionID),
				)
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, sessionID string, msg *events.Message) error {
	switch msg.Type {
	case events.TypeCreateRoom:
		var ev events.CreateRoomEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", msg.Type, err)
		}
		return h.gameUsecase.HandleCreateRoom(ctx, sessionID, ev)

	case events.TypeJoinRoom:
		var ev events.JoinRoomEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", msg.Type, err)
		}
		return h.gameUsecase.HandleJoinRoom(ctx, sessionID, ev)

	case events.TypePlaceBet:
		var ev events.PlaceBetEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", msg.Type, err)
		}
		return h.gameUsecase.HandlePlaceBet(ctx, sessionID, ev)

	case events.TypeWinPot:
		var ev events.WinPotEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", msg.Type, err)
		}
		return h.gameUsecase.HandleWinPot(ctx, sessionID, ev)

	case events.TypeResetGame:
		roomID, err := events.ParseResetGame(msg.Data)
		if err != nil {
			return err
		}
		return h.gameUsecase.HandleResetGame(ctx, sessionID, roomID)

	case events.TypeReclaimHost:
		var ev events.ReclaimHostEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", msg.Type, err)
		}
		return h.gameUsecase.HandleReclaimHost(ctx, sessionID, ev)

	default:
		return errors.New("unknown message type")
	}
}

func (h *WebSocketHandler) handleWebsocketError(sessionID string, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			slog.Info("client disconnected", slog.String(constant.SessionID, sessionID))
		default:
			slog.Error("websocket close error", slog.String(constant.SessionID, sessionID))
		}
		return
	}

	slog.Error(
		"websocket read",
		slog.Any(constant.Error, err),
		slog.String(constant.SessionID, sessionID),
	)
}
