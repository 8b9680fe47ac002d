package photo

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type VerificationRepo interface {
	Create(ctx context.Context, v *models.PhotoVerification) error
	GetByID(ctx context.Context, id int64) (*models.PhotoVerification, error)
	LatestByDriver(ctx context.Context, driverID int64) (*models.PhotoVerification, error)
	ListPending(ctx context.Context, taxiparkID int64) ([]*models.PhotoVerification, error)
	Decide(ctx context.Context, id int64, status types.VerificationStatus, reason string, processedBy int64) (*models.PhotoVerification, error)
}

type DriverRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	SetVerificationStatus(ctx context.Context, driverID int64, status types.VerificationStatus) error
}

type Notifier interface {
	VerificationDecision(ctx context.Context, driverID int64, status types.VerificationStatus, reason string)
}
