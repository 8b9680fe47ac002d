package ledger

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
)

type TransactionRepo interface {
	Create(ctx context.Context, t *models.Transaction) error
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	ListByDriver(ctx context.Context, driverID int64, filters models.Filters) ([]*models.Transaction, models.Metadata, error)
}

type TaxiparkRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Taxipark, error)
}

type DriverRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	BalanceForUpdate(ctx context.Context, driverID int64) (float64, error)
	AddToBalance(ctx context.Context, driverID int64, amount float64) (float64, error)
}
