package services

import (
	"go.uber.org/zap"

	"facility-crm/pkg/websocket"
)

// WebSocketNotificationServiceInterface отделяет слушателей событий от хаба, чтобы подменять его в тестах.
type WebSocketNotificationServiceInterface interface {
	SendNotification(employeeID uint64, payload interface{}, messageType string) error
}

type WebSocketNotificationService struct {
	hub    *websocket.Hub
	logger *zap.Logger
}

func NewWebSocketNotificationService(hub *websocket.Hub, logger *zap.Logger) WebSocketNotificationServiceInterface {
	return &WebSocketNotificationService{
		hub:    hub,
		logger: logger,
	}
}

func (s *WebSocketNotificationService) SendNotification(employeeID uint64, payload interface{}, messageType string) error {
	if s.hub.Connections(employeeID) == 0 {
		return nil
	}
	s.logger.Debug("Отправка WebSocket-уведомления",
		zap.Uint64("employee_id", employeeID),
		zap.String("type", messageType),
	)
	return s.hub.SendMessageToUser(employeeID, payload, messageType)
}
