package dto

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type CreateOrderRequest struct {
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`

	PickupAddress        string   `json:"pickup_address"`
	PickupLatitude       *float64 `json:"pickup_latitude"`
	PickupLongitude      *float64 `json:"pickup_longitude"`
	DestinationAddress   string   `json:"destination_address"`
	DestinationLatitude  *float64 `json:"destination_latitude"`
	DestinationLongitude *float64 `json:"destination_longitude"`

	Price         float64  `json:"price"`
	DistanceKm    *float64 `json:"distance_km"`
	DurationMin   *int     `json:"duration_minutes"`
	Tariff        string   `json:"tariff"`
	PaymentMethod string   `json:"payment_method"`
	Notes         string   `json:"notes"`

	// DriverID назначает заказ конкретному водителю.
	// AutoMatch поручает подбор ближайшего свободного водителя сервису.
	DriverID  *int64 `json:"driver_id,omitempty"`
	AutoMatch bool   `json:"auto_match"`
}

func (r *CreateOrderRequest) Validate(v *validator.Validator) {
	// Client
	v.Check(r.ClientPhone != "", "client_phone", "must be provided")
	v.Check(len(r.ClientName) <= 100, "client_name", "must not be more than 100 characters long")

	// Pickup
	v.Check(r.PickupAddress != "", "pickup_address", "must be provided")
	v.Check(len(r.PickupAddress) <= 255, "pickup_address", "must not be more than 255 characters long")
	if r.PickupLatitude != nil {
		v.Check(*r.PickupLatitude >= -90 && *r.PickupLatitude <= 90, "pickup_latitude", "must be between -90 and 90")
	}
	if r.PickupLongitude != nil {
		v.Check(*r.PickupLongitude >= -180 && *r.PickupLongitude <= 180, "pickup_longitude", "must be between -180 and 180")
	}

	// Destination
	v.Check(len(r.DestinationAddress) <= 255, "destination_address", "must not be more than 255 characters long")
	if r.DestinationLatitude != nil {
		v.Check(*r.DestinationLatitude >= -90 && *r.DestinationLatitude <= 90, "destination_latitude", "must be between -90 and 90")
	}
	if r.DestinationLongitude != nil {
		v.Check(*r.DestinationLongitude >= -180 && *r.DestinationLongitude <= 180, "destination_longitude", "must be between -180 and 180")
	}

	// Price and tariff
	v.Check(r.Price > 0, "price", "must be greater than zero")
	v.Check(r.Tariff != "", "tariff", "must be provided")
	if r.Tariff != "" {
		v.Check(
			validator.PermittedValue(r.Tariff, types.TariffEconomy, types.TariffComfort, types.TariffBusiness),
			"tariff", "must be one of the supported tariffs",
		)
	}

	v.Check(len(r.Notes) <= 500, "notes", "must not be more than 500 characters long")

	if r.DriverID != nil {
		v.Check(*r.DriverID > 0, "driver_id", "must be a positive integer")
		v.Check(!r.AutoMatch, "auto_match", "cannot be combined with driver_id")
	}
}

func (r *CreateOrderRequest) ToModel() *models.Order {
	return &models.Order{
		ClientName:  r.ClientName,
		ClientPhone: r.ClientPhone,

		PickupAddress:        r.PickupAddress,
		PickupLatitude:       r.PickupLatitude,
		PickupLongitude:      r.PickupLongitude,
		DestinationAddress:   r.DestinationAddress,
		DestinationLatitude:  r.DestinationLatitude,
		DestinationLongitude: r.DestinationLongitude,

		Price:         r.Price,
		DistanceKm:    r.DistanceKm,
		DurationMin:   r.DurationMin,
		Tariff:        r.Tariff,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
}

// UpdateOrderRequest правит детали заказа, пока он не принят водителем.
type UpdateOrderRequest struct {
	ClientName           string   `json:"client_name"`
	PickupAddress        string   `json:"pickup_address"`
	PickupLatitude       *float64 `json:"pickup_latitude"`
	PickupLongitude      *float64 `json:"pickup_longitude"`
	DestinationAddress   string   `json:"destination_address"`
	DestinationLatitude  *float64 `json:"destination_latitude"`
	DestinationLongitude *float64 `json:"destination_longitude"`
	Price                float64  `json:"price"`
	Tariff               string   `json:"tariff"`
	PaymentMethod        string   `json:"payment_method"`
	Notes                string   `json:"notes"`
}

func (r *UpdateOrderRequest) Validate(v *validator.Validator) {
	v.Check(r.PickupAddress != "", "pickup_address", "must be provided")
	v.Check(len(r.PickupAddress) <= 255, "pickup_address", "must not be more than 255 characters long")
	v.Check(r.Price > 0, "price", "must be greater than zero")
	if r.Tariff != "" {
		v.Check(
			validator.PermittedValue(r.Tariff, types.TariffEconomy, types.TariffComfort, types.TariffBusiness),
			"tariff", "must be one of the supported tariffs",
		)
	}
	v.Check(len(r.Notes) <= 500, "notes", "must not be more than 500 characters long")
}

func (r *UpdateOrderRequest) ToModel(orderID int64) *models.Order {
	return &models.Order{
		ID:          orderID,
		ClientName:  r.ClientName,

		PickupAddress:        r.PickupAddress,
		PickupLatitude:       r.PickupLatitude,
		PickupLongitude:      r.PickupLongitude,
		DestinationAddress:   r.DestinationAddress,
		DestinationLatitude:  r.DestinationLatitude,
		DestinationLongitude: r.DestinationLongitude,

		Price:         r.Price,
		Tariff:        r.Tariff,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate(v *validator.Validator) {
	v.Check(r.Status != "", "status", "must be provided")
}

type OrderResponse struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	ClientName  string `json:"client_name,omitempty"`
	ClientPhone string `json:"client_phone"`

	PickupAddress        string   `json:"pickup_address"`
	PickupLatitude       *float64 `json:"pickup_latitude,omitempty"`
	PickupLongitude      *float64 `json:"pickup_longitude,omitempty"`
	DestinationAddress   string   `json:"destination_address,omitempty"`
	DestinationLatitude  *float64 `json:"destination_latitude,omitempty"`
	DestinationLongitude *float64 `json:"destination_longitude,omitempty"`

	Price         float64  `json:"price"`
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	DurationMin   *int     `json:"duration_minutes,omitempty"`
	Tariff        string   `json:"tariff"`
	PaymentMethod string   `json:"payment_method,omitempty"`
	Notes         string   `json:"notes,omitempty"`

	Status     types.OrderStatus `json:"status"`
	DriverID   *int64            `json:"driver_id,omitempty"`
	TaxiparkID int64             `json:"taxipark_id"`

	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	ArrivedAtA  *time.Time `json:"arrived_at_a,omitempty"`
	StartedToB  *time.Time `json:"started_to_b,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		ClientName:  o.ClientName,
		ClientPhone: o.ClientPhone,

		PickupAddress:        o.PickupAddress,
		PickupLatitude:       o.PickupLatitude,
		PickupLongitude:      o.PickupLongitude,
		DestinationAddress:   o.DestinationAddress,
		DestinationLatitude:  o.DestinationLatitude,
		DestinationLongitude: o.DestinationLongitude,

		Price:         o.Price,
		DistanceKm:    o.DistanceKm,
		DurationMin:   o.DurationMin,
		Tariff:        o.Tariff,
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,

		Status:     o.Status,
		DriverID:   o.DriverID,
		TaxiparkID: o.TaxiparkID,

		CreatedAt:   o.CreatedAt,
		AcceptedAt:  o.AcceptedAt,
		ArrivedAtA:  o.ArrivedAtA,
		StartedToB:  o.StartedToB,
		CompletedAt: o.CompletedAt,
		CancelledAt: o.CancelledAt,
	}
}

func NewOrderResponses(orders []*models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

type TopUpRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

func (r *TopUpRequest) Validate(v *validator.Validator) {
	v.Check(r.Amount > 0, "amount", "must be greater than zero")
	v.Check(len(r.Description) <= 255, "description", "must not be more than 255 characters long")
}

type TransactionResponse struct {
	ID          int64                 `json:"id"`
	Type        types.TransactionType `json:"type"`
	Amount      float64               `json:"amount"`
	Description string                `json:"description,omitempty"`
	Reference   string                `json:"reference,omitempty"`
	OrderID     *int64                `json:"order_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

func NewTransactionResponses(txs []*models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionResponse{
			ID:          tx.ID,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Description: tx.Description,
			Reference:   tx.Reference,
			OrderID:     tx.OrderID,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return out
}
