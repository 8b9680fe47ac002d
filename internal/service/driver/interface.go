package driver

import (
	"context"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type DriverRepo interface {
	Create(ctx context.Context, driver *models.Driver) error
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*models.Driver, error)
	Update(ctx context.Context, driver *models.Driver) error
	UpdateLocation(ctx context.Context, driverID int64, lat, lon float64) error
	SetOnlineStatus(ctx context.Context, driverID int64, status types.OnlineStatus) error
	List(ctx context.Context, taxiparkID int64, filters models.Filters) ([]*models.Driver, models.Metadata, error)
	MarkStaleOffline(ctx context.Context, olderThan time.Duration) ([]int64, error)
}

type TaxiparkRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Taxipark, error)
}
