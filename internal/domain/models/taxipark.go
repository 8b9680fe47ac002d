package models

import "time"

type Taxipark struct {
	ID                int64
	Name              string
	City              string
	ContactPhone      string
	CommissionPercent float64
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         *time.Time

	// Счётчики пересчитываются по запросу, в базе не хранятся.
	DriverCount      int64
	ClientCount      int64
	ActiveOrderCount int64
}

// TaxiparkCounters holds on-demand aggregates for a single park.
type TaxiparkCounters struct {
	DriverCount      int64
	ClientCount      int64
	ActiveOrderCount int64
}
