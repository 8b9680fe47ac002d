package dto

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type RegisterDriverRequest struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      string     `json:"phone"`
	Car        models.Car `json:"car"`
	CallSign   string     `json:"call_sign"`
	Tariff     string     `json:"tariff"`
	TaxiparkID int64      `json:"taxipark_id"`
}

func (r *RegisterDriverRequest) Validate(v *validator.Validator) {
	// FirstName / LastName
	v.Check(r.FirstName != "", "first_name", "must be provided")
	v.Check(len(r.FirstName) < 100, "first_name", "must be less than 100 characters")
	v.Check(len(r.LastName) < 100, "last_name", "must be less than 100 characters")

	// Phone
	v.Check(r.Phone != "", "phone", "must be provided")

	// Car
	v.Check(r.Car.Model != "", "car.model", "must be provided")
	v.Check(len(r.Car.Model) < 50, "car.model", "must be less than 50 characters")
	v.Check(r.Car.Number != "", "car.number", "must be provided")
	v.Check(len(r.Car.Number) < 12, "car.number", "must be less than 12 characters")
	v.Check(len(r.Car.Color) < 30, "car.color", "must be less than 30 characters")

	// Tariff
	v.Check(r.Tariff != "", "tariff", "must be provided")
	if r.Tariff != "" {
		v.Check(
			validator.PermittedValue(r.Tariff, types.TariffEconomy, types.TariffComfort, types.TariffBusiness),
			"tariff", "must be one of the supported tariffs",
		)
	}

	// TaxiparkID
	v.Check(r.TaxiparkID > 0, "taxipark_id", "must be provided")
}

func (r *RegisterDriverRequest) ToModel() *models.Driver {
	return &models.Driver{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.Phone,
		Car:         r.Car,
		CallSign:    r.CallSign,
		Tariff:      r.Tariff,
		TaxiparkID:  r.TaxiparkID,
	}
}

type UpdateDriverProfileRequest struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Car       models.Car `json:"car"`
	CallSign  string     `json:"call_sign"`
	Tariff    string     `json:"tariff"`
}

func (r *UpdateDriverProfileRequest) Validate(v *validator.Validator) {
	v.Check(r.FirstName != "", "first_name", "must be provided")
	v.Check(len(r.FirstName) < 100, "first_name", "must be less than 100 characters")
	v.Check(r.Car.Model != "", "car.model", "must be provided")
	v.Check(r.Car.Number != "", "car.number", "must be provided")
	if r.Tariff != "" {
		v.Check(
			validator.PermittedValue(r.Tariff, types.TariffEconomy, types.TariffComfort, types.TariffBusiness),
			"tariff", "must be one of the supported tariffs",
		)
	}
}

func (r *UpdateDriverProfileRequest) ToModel(driverID int64) *models.Driver {
	return &models.Driver{
		ID:        driverID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Car:       r.Car,
		CallSign:  r.CallSign,
		Tariff:    r.Tariff,
	}
}

type LocationUpdateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *LocationUpdateRequest) Validate(v *validator.Validator) {
	if r.Latitude != nil && r.Longitude != nil {
		v.Check(*r.Latitude >= -90 && *r.Latitude <= 90, "latitude", "must be between -90 and 90")
		v.Check(*r.Longitude >= -180 && *r.Longitude <= 180, "longitude", "must be between -180 and 180")
	} else {
		v.Check(r.Latitude != nil, "latitude", "must be provided")
		v.Check(r.Longitude != nil, "longitude", "must be provided")
	}
}

type OnlineStatusRequest struct {
	Status string `json:"status"`
}

func (r *OnlineStatusRequest) Validate(v *validator.Validator) {
	v.Check(r.Status != "", "status", "must be provided")
	if r.Status != "" {
		v.Check(
			validator.PermittedValue(r.Status, string(types.StatusOnline), string(types.StatusOffline)),
			"status", "must be online or offline",
		)
	}
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (r *SetActiveRequest) Validate(v *validator.Validator) {
	v.Check(r.IsActive != nil, "is_active", "must be provided")
}

type DriverResponse struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	Car         models.Car `json:"car"`
	CallSign    string     `json:"call_sign,omitempty"`
	Balance     float64    `json:"balance"`
	Tariff      string     `json:"tariff"`
	TaxiparkID  int64      `json:"taxipark_id"`
	IsActive    bool       `json:"is_active"`

	OnlineStatus types.OnlineStatus `json:"online_status"`
	LastOnlineAt *time.Time         `json:"last_online_at,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	PhotoVerificationStatus types.VerificationStatus `json:"photo_verification_status"`

	CreatedAt time.Time `json:"created_at"`
}

func NewDriverResponse(d *models.Driver) DriverResponse {
	return DriverResponse{
		ID:          d.ID,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Phone:       d.PhoneNumber,
		Car:         d.Car,
		CallSign:    d.CallSign,
		Balance:     d.Balance,
		Tariff:      d.Tariff,
		TaxiparkID:  d.TaxiparkID,
		IsActive:    d.IsActive,

		OnlineStatus: d.OnlineStatus,
		LastOnlineAt: d.LastOnlineAt,

		Latitude:  d.CurrentLatitude,
		Longitude: d.CurrentLongitude,

		PhotoVerificationStatus: d.PhotoVerificationStatus,

		CreatedAt: d.CreatedAt,
	}
}

func NewDriverResponses(drivers []*models.Driver) []DriverResponse {
	out := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, NewDriverResponse(d))
	}
	return out
}
