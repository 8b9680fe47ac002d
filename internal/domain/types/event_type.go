package types

// EventType - тип сообщения в WebSocket конверте {type, data, timestamp}.
type EventType string

func (t EventType) String() string {
	return string(t)
}

const (
	EventConnectionEstablished EventType = "connection_established"
	EventNewOrder              EventType = "new_order"
	EventOrderStatusUpdate     EventType = "order_status_update"
	EventOrderAccepted         EventType = "order_accepted"
	EventOrderRejected         EventType = "order_rejected"
	EventDriverArrived         EventType = "driver_arrived"
	EventOrderCompleted        EventType = "order_completed"
	EventBalanceToppedUp       EventType = "balance_topped_up"
	EventVerificationDecision  EventType = "verification_decision"
)
