package park

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
)

type TaxiparkRepo interface {
	Create(ctx context.Context, park *models.Taxipark) error
	GetByID(ctx context.Context, id int64) (*models.Taxipark, error)
	Update(ctx context.Context, park *models.Taxipark) error
	List(ctx context.Context, filters models.Filters) ([]*models.Taxipark, models.Metadata, error)
	SetActive(ctx context.Context, id int64, isActive bool) error
	Counters(ctx context.Context, taxiparkID int64) (*models.TaxiparkCounters, error)
}

type DispatcherRepo interface {
	Create(ctx context.Context, d *models.Dispatcher) error
	GetByID(ctx context.Context, id int64) (*models.Dispatcher, error)
	ListByPark(ctx context.Context, taxiparkID int64) ([]*models.Dispatcher, error)
	SetActive(ctx context.Context, id int64, isActive bool) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
