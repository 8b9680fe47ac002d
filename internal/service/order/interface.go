package order

import (
	"context"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	Claim(ctx context.Context, orderID, driverID int64) (*models.Order, error)
	UpdateStatusFrom(ctx context.Context, orderID int64, from, to types.OrderStatus) (*models.Order, error)
	Release(ctx context.Context, orderID, driverID int64) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	List(ctx context.Context, taxiparkID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error)
	ListByDriver(ctx context.Context, driverID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error)
	ListByClientPhone(ctx context.Context, clientPhone string, filters models.Filters) ([]*models.Order, models.Metadata, error)
	ListAvailable(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Order, error)
	ActiveByDriver(ctx context.Context, driverID int64) (*models.Order, error)
	CountByDate(ctx context.Context, date time.Time) (int, error)
}

type DriverRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
}

type Ledger interface {
	ChargeCommission(ctx context.Context, driverID int64, order *models.Order) (float64, error)
}

type Matcher interface {
	FindNearest(ctx context.Context, taxiparkID int64, tariff string, pickup models.Location) (*models.DriverWithDistance, error)
}

type Notifier interface {
	NewOrder(ctx context.Context, order *models.Order)
	StatusChanged(ctx context.Context, change models.StatusChange)
}
