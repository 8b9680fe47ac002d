package auth

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type DriverRepo interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*models.Driver, error)
	UpdateFCMToken(ctx context.Context, driverID int64, token string) error
}

type ClientRepo interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	UpdateFCMToken(ctx context.Context, clientID int64, token string) error
}

type DispatcherRepo interface {
	GetByLogin(ctx context.Context, login string) (*models.Dispatcher, error)
}

type SuperadminRepo interface {
	GetByLogin(ctx context.Context, login string) (*models.Superadmin, error)
}

type RefreshTokenRepo interface {
	Save(ctx context.Context, rec *models.RefreshTokenRecord) error
	Get(ctx context.Context, userID int64, role types.UserRole) (*models.RefreshTokenRecord, error)
	Delete(ctx context.Context, userID int64, role types.UserRole) error
}

// CodeStore хранит одноразовые коды входа.
type CodeStore interface {
	Generate(ctx context.Context, role types.UserRole, phone string) (string, error)
	Verify(ctx context.Context, role types.UserRole, phone, code string) error
}

// CodeSender доставляет код на телефон.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
	IsTestPhone(phone string) bool
}

type TokenProvider interface {
	GenerateTokens(ctx context.Context, user *models.AuthUser) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Validate(ctx context.Context, token string) (*models.CustomClaims, error)
}
