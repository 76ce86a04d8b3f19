package server

import (
	"github.com/labstack/echo/v4"

	"github.com/vkuzmenko/chippot/internal/application/config"
	"github.com/vkuzmenko/chippot/internal/infra/ports/http/handlers"
	"github.com/vkuzmenko/chippot/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	wsHandler *handlers.WebSocketHandler,
	roomsHandler *handlers.RoomsHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	e.GET("/ws", wsHandler.Handle)

	api := e.Group("/api")
	{
		api.GET("/rooms", roomsHandler.ListRooms)
	}

	e.Static("/", "web")

	return e
}
