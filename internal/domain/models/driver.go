package models

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type Driver struct {
	ID          int64     // unique identifier
	FirstName   string    // first name
	LastName    string    // last name
	PhoneNumber string    // unique, normalized to +996XXXXXXXXX
	Car         Car       // embedded struct for car details
	CallSign    string    // radio call sign
	Balance     float64   // current balance, som
	Tariff      string    // Эконом, Комфорт, Бизнес
	TaxiparkID  int64     // owning taxipark
	IsActive    bool      // false when blocked by admin
	FCMToken    string    // push-notification device token, may be empty

	OnlineStatus types.OnlineStatus // online / offline
	LastOnlineAt *time.Time

	// Last reported location. Nil until the driver pings at least once.
	CurrentLatitude  *float64
	CurrentLongitude *float64

	// Denormalized copy of the latest photo verification status.
	PhotoVerificationStatus types.VerificationStatus

	CreatedAt time.Time
	UpdatedAt *time.Time
}

type Car struct {
	Model      string `json:"model"`
	Number     string `json:"number"`
	Color      string `json:"color"`
	Year       string `json:"year"`
	VIN        string `json:"vin,omitempty"`
	BodyNumber string `json:"body_number,omitempty"`
	STS        string `json:"sts,omitempty"`
}

// HasLocation reports whether the driver ever reported coordinates.
func (d *Driver) HasLocation() bool {
	return d.CurrentLatitude != nil && d.CurrentLongitude != nil
}

// DriverWithDistance - кандидат подбора с расстоянием до точки подачи.
type DriverWithDistance struct {
	Driver     *Driver `json:"driver"`
	DistanceKm float64 `json:"distance_km"`
}
