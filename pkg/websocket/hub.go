package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub хранит подключения сотрудников и рассылает им сообщения.
type Hub struct {
	clients    map[uint64]map[*Client]struct{}
	Register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint64]map[*Client]struct{}),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию и отключение клиентов до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.Register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Attach регистрирует клиента; после остановки хаба соединение сразу закрывается.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.EmployeeID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.EmployeeID] = set
	}
	set[client] = struct{}{}
	h.logger.Debug("WebSocket: клиент зарегистрирован", zap.Uint64("employeeID", client.EmployeeID))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	set, ok := h.clients[client.EmployeeID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.EmployeeID)
	}
	h.logger.Debug("WebSocket: клиент отсоединен", zap.Uint64("employeeID", client.EmployeeID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			h.dropLocked(client)
		}
	}
}

// Connections: количество активных соединений сотрудника.
func (h *Hub) Connections(employeeID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[employeeID])
}

// SendMessageToUser отправляет конверт всем соединениям сотрудника.
// Клиент с переполненным буфером отключается.
func (h *Hub) SendMessageToUser(employeeID uint64, payload interface{}, messageType string) error {
	messageBytes, err := json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("Ошибка сериализации сообщения для WebSocket", zap.Error(err))
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[employeeID] {
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("WebSocket: буфер клиента переполнен, соединение закрыто", zap.Uint64("employeeID", employeeID))
			h.dropLocked(client)
		}
	}
	return nil
}
