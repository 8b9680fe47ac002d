package models

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

// Transaction - строка балансовой книги водителя. Сумма отрицательная
// для комиссий, положительная для пополнений.
type Transaction struct {
	ID          int64
	DriverID    int64
	Type        types.TransactionType
	Amount      float64
	Description string
	Reference   string
	OrderID     *int64
	CreatedAt   time.Time
}
