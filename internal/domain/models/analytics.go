package models

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

// DailyOrderCount - количество заказов за календарные сутки.
type DailyOrderCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// ParkOverview - сводка парка для кабинета суперадмина.
type ParkOverview struct {
	TaxiparkID int64  `json:"taxipark_id"`
	Name       string `json:"name"`

	DriverCount      int64 `json:"driver_count"`
	OnlineDrivers    int64 `json:"online_drivers"`
	ClientCount      int64 `json:"client_count"`
	ActiveOrderCount int64 `json:"active_order_count"`

	OrdersByStatus map[types.OrderStatus]int64 `json:"orders_by_status"`
	OrdersByDay    []DailyOrderCount           `json:"orders_by_day"`

	// Доход парка: сумма списанных комиссий. Суммы пополнений для сверки.
	CommissionTotal float64 `json:"commission_total"`
	TopupTotal      float64 `json:"topup_total"`
}
