package handler

import (
	"strconv"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/pkg/serverutils"
	"document-qa-be/internal/service"
	internalWS "document-qa-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type NotificationHandler struct {
	service service.INotificationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(svc service.INotificationService, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: svc,
		hub:     hub,
		logger:  log,
	}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	n := r.Group("/notification/v1")
	n.Get("/", h.GetNotifications)
	n.Delete("/:id", h.Dismiss)
	n.Get("/ws", h.ServeWs)
}

// GetNotifications returns the currently pending (not yet expired) queue.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	return c.JSON(serverutils.SuccessResponse("Success list notifications", dto.ListNotificationsResponse{
		Notifications: h.service.List(),
	}))
}

// Dismiss removes one message by id. Ids are stable under concurrent
// pushes, unlike positions.
func (h *NotificationHandler) Dismiss(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid notification id")
	}

	if !h.service.RemoveById(id) {
		return fiber.NewError(fiber.StatusNotFound, "Notification not found")
	}
	return c.JSON(serverutils.SuccessResponse[any]("Notification dismissed", nil))
}

// ServeWs upgrades the connection and attaches it to the hub.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", nil)
			internalWS.ServeWs(h.hub, conn)
			h.logger.Info("NotificationHandler", "WebSocket session ended", nil)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
