package client

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
)

type ClientRepo interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
}

type TaxiparkRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Taxipark, error)
}
