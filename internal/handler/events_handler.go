package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/service"
)

// EventsHandler upgrades teacher sessions to a websocket that streams
// typed invalidation events.
type EventsHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewEventsHandler constructs the handler.
func NewEventsHandler(service service.EventService, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		service: service,
		logger:  logger.With().Str("component", "events_handler").Logger(),
	}
}

// Register binds the websocket route.
func (h *EventsHandler) Register(router fiber.Router) {
	router.Use("/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/events", websocket.New(h.handleConnection))
}

func (h *EventsHandler) handleConnection(conn *websocket.Conn) {
	events, cleanup := h.service.Subscribe()
	defer cleanup()

	h.logger.Info().Msg("event stream connected")
	defer h.logger.Info().Msg("event stream disconnected")

	// Reads are discarded; the socket is push-only, but the read loop is
	// what detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
