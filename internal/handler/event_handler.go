package handler

import (
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/pkg/serverutils"
	internalWS "notesync-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const eventModule = "EventHandler"

// anonymousUser labels websocket sessions when auth is disabled.
const anonymousUser = "anonymous"

type EventHandler struct {
	hub         *internalWS.Hub
	logger      logger.ILogger
	authEnabled bool
	jwtSecret   string
}

func NewEventHandler(hub *internalWS.Hub, log logger.ILogger, authEnabled bool, jwtSecret string) *EventHandler {
	return &EventHandler{
		hub:         hub,
		logger:      log,
		authEnabled: authEnabled,
		jwtSecret:   jwtSecret,
	}
}

// ServeWs upgrades the request and streams note events until the peer leaves.
// Browsers cannot set headers on the handshake, so the token may also come
// from the token query parameter.
func (h *EventHandler) ServeWs(c *fiber.Ctx) error {
	userID := anonymousUser
	if h.authEnabled {
		tokenStr := serverutils.BearerToken(c)
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token (query 'token' or header 'Authorization')")
		}
		id, err := serverutils.ParseToken(tokenStr, h.jwtSecret)
		if err != nil {
			h.logger.Warn(eventModule, "Invalid token in websocket handshake", map[string]interface{}{"ip": c.IP()})
			return err
		}
		userID = id
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(eventModule, "Starting websocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info(eventModule, "Websocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *EventHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/events/ws", h.ServeWs)
}
