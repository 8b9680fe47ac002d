package models

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type Order struct {
	ID          int64
	OrderNumber string
	ClientName  string
	ClientPhone string

	PickupAddress        string
	PickupLatitude       *float64
	PickupLongitude      *float64
	DestinationAddress   string
	DestinationLatitude  *float64
	DestinationLongitude *float64

	Price         float64
	DistanceKm    *float64
	DurationMin   *int
	Tariff        string
	PaymentMethod string
	Notes         string

	Status     types.OrderStatus
	DriverID   *int64
	TaxiparkID int64

	// Временные метки переходов. Установленная метка никогда не очищается.
	CreatedAt   time.Time
	AcceptedAt  *time.Time
	ArrivedAtA  *time.Time
	StartedToB  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Pickup returns the pickup coordinate when both components are present.
func (o *Order) Pickup() (Location, bool) {
	if o.PickupLatitude == nil || o.PickupLongitude == nil {
		return Location{}, false
	}
	return Location{
		Latitude:  *o.PickupLatitude,
		Longitude: *o.PickupLongitude,
		Address:   o.PickupAddress,
	}, true
}

// StatusChange - событие смены статуса для фанаута по WebSocket.
type StatusChange struct {
	Order     *Order
	OldStatus types.OrderStatus
	NewStatus types.OrderStatus
	ChangedAt time.Time

	// NotifyDriver поднимается, когда смену инициировал не водитель.
	NotifyDriver bool
}
