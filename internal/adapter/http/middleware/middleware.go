package middleware

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

type (
	// TokenValidator разбирает и проверяет access-токен запроса.
	TokenValidator interface {
		Validate(ctx context.Context, token string) (*models.CustomClaims, error)
	}

	Middleware struct {
		tokens TokenValidator
		log    logger.Logger
	}
)

func NewMiddleware(tokens TokenValidator, log logger.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		log:    log,
	}
}
