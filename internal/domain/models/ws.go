package models

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

// WebSocketMessage - конверт всех исходящих сообщений по WebSocket.
type WebSocketMessage struct {
	Type      types.EventType `json:"type"`
	Data      any             `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewWebSocketMessage(event types.EventType, data any) WebSocketMessage {
	return WebSocketMessage{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// WSEvent - межсервисное WebSocket-событие. Сервис, у которого нет сокетов
// нужной аудитории, публикует событие в очередь, а сервис-хозяин сокетов
// доставляет его локально. Для аудитории driver переносятся и поля пуша,
// чтобы хозяин мог уйти в FCM при офлайне.
type WSEvent struct {
	Audience    types.WSAudience `json:"audience"`
	TaxiparkID  int64            `json:"taxipark_id,omitempty"`
	DriverID    int64            `json:"driver_id,omitempty"`
	ClientPhone string           `json:"client_phone,omitempty"`
	Message     WebSocketMessage `json:"message"`

	Title   string `json:"title,omitempty"`
	Body    string `json:"body,omitempty"`
	OrderID int64  `json:"order_id,omitempty"`
}

// PushMessage - сообщение в очередь пуш-уведомлений для офлайн-водителей.
type PushMessage struct {
	DriverID int64           `json:"driver_id"`
	FCMToken string          `json:"fcm_token"`
	Event    types.EventType `json:"event"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	OrderID  *int64          `json:"order_id,omitempty"`
}
