package websocket

import "time"

// Типы сообщений, которые понимает фронтенд.
const (
	MessageActivityCreated = "activity.created"
)

// Envelope: конверт сообщения: тип подсказывает фронтенду, что делать с payload.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}
