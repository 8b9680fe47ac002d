package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/hasher"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/trm"
)

type TokenService struct {
	refreshRepo RefreshTokenRepo
	txManager   trm.TxManager
	RefreshTTL  time.Duration
	AccessTTL   time.Duration
	secret      string
	log         logger.Logger
}

func NewTokenService(secret string, refreshRepo RefreshTokenRepo, txManager trm.TxManager, refreshTTL, accessTTL time.Duration, log logger.Logger) *TokenService {
	return &TokenService{
		refreshRepo: refreshRepo,
		txManager:   txManager,
		RefreshTTL:  refreshTTL,
		AccessTTL:   accessTTL,
		secret:      secret,
		log:         log,
	}
}

func (s *TokenService) getSecret() string {
	return s.secret
}

// GenerateTokens creates a new pair of access and refresh tokens for the
// given user. The refresh token hash is stored in the database.
func (s *TokenService) GenerateTokens(ctx context.Context, user *models.AuthUser) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "generate_tokens")
	if user == nil {
		return nil, wrap.Error(ctx, errors.New("user is nil"))
	}

	issuedAt := time.Now().UTC()
	accessExp := issuedAt.Add(s.AccessTTL)
	refreshExp := issuedAt.Add(s.RefreshTTL)

	accessToken, err := s.signClaims(NewAccessClaim(user, issuedAt, s.AccessTTL))
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	refreshToken, err := s.signClaims(NewRefreshClaim(user, issuedAt, s.RefreshTTL))
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if s.refreshRepo != nil {
		record := &models.RefreshTokenRecord{
			UserID:    user.ID,
			Role:      user.Role,
			TokenHash: hasher.Hash(refreshToken),
			ExpiresAt: refreshExp,
		}

		if err := s.refreshRepo.Save(ctx, record); err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("failed to persist refresh token: %w", err))
		}
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh validates the refresh token against the stored hash and rotates
// the pair. A token that does not match the stored hash revokes the record.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "refresh_token")

	claims, err := s.Validate(ctx, refreshToken)
	if err != nil {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	if !claims.IsRefresh {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	var pair *models.TokenPair

	txErr := s.txManager.Do(ctx, func(txCtx context.Context) error {
		record, err := s.refreshRepo.Get(txCtx, claims.UserID, claims.Role)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return ErrInvalidToken
			}
			return fmt.Errorf("failed to load refresh token record: %w", err)
		}

		now := time.Now().UTC()
		if now.After(record.ExpiresAt) {
			if err := s.refreshRepo.Delete(txCtx, claims.UserID, claims.Role); err != nil {
				return fmt.Errorf("failed to revoke expired refresh token: %w", err)
			}
			return ErrExpToken
		}

		if record.TokenHash != hasher.Hash(refreshToken) {
			if err := s.refreshRepo.Delete(txCtx, claims.UserID, claims.Role); err != nil {
				return fmt.Errorf("failed to revoke mismatched refresh token: %w", err)
			}
			return ErrInvalidToken
		}

		user := &models.AuthUser{
			ID:         claims.UserID,
			Phone:      claims.Phone,
			Role:       claims.Role,
			TaxiparkID: claims.TaxiparkID,
		}

		pair, err = s.GenerateTokens(txCtx, user)
		return err
	})

	if txErr != nil {
		return nil, wrap.Error(ctx, txErr)
	}

	return pair, nil
}

// Logout drops the stored refresh token, invalidating the session.
func (s *TokenService) Logout(ctx context.Context, userID int64, role types.UserRole) error {
	ctx = wrap.WithAction(ctx, "logout")

	if err := s.refreshRepo.Delete(ctx, userID, role); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// Validate validates the given JWT token string, returning the custom claims if valid.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.CustomClaims, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	parsedToken, err := jwt.ParseWithClaims(token, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return []byte(s.getSecret()), nil
	})
	if err != nil || !parsedToken.Valid {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	mc, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	typ, _ := mc["typ"].(string)
	if typ != models.Access && typ != models.Refresh {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	userIDFloat, ok := mc["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'user_id' in token claims"))
	}

	role, _ := mc["role"].(string)
	if role == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'role' in token claims"))
	}

	phone, _ := mc["phone"].(string)

	var taxiparkID int64
	if parkFloat, ok := mc["taxipark_id"].(float64); ok {
		taxiparkID = int64(parkFloat)
	}

	expFloat, ok := mc["exp"].(float64)
	if !ok {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'exp' in token claims"))
	}

	expTime := time.Unix(int64(expFloat), 0)
	if time.Now().UTC().After(expTime) {
		return nil, wrap.Error(ctx, ErrExpToken)
	}

	claims := &models.CustomClaims{
		UserID:     int64(userIDFloat),
		Phone:      phone,
		Role:       types.UserRole(role),
		TaxiparkID: taxiparkID,
		IsRefresh:  typ == models.Refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expTime),
		},
	}

	return claims, nil
}

func (s *TokenService) signClaims(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.getSecret()))
}

func NewAccessClaim(user *models.AuthUser, issuedAt time.Time, accessTTL time.Duration) jwt.Claims {
	return jwt.MapClaims{
		"typ":         models.Access,
		"user_id":     user.ID,
		"phone":       user.Phone,
		"role":        user.Role.String(),
		"taxipark_id": user.TaxiparkID,
		"iat":         issuedAt.Unix(),
		"exp":         issuedAt.Add(accessTTL).Unix(),
	}
}

func NewRefreshClaim(user *models.AuthUser, issuedAt time.Time, refreshTTL time.Duration) jwt.Claims {
	return jwt.MapClaims{
		"typ":         models.Refresh,
		"user_id":     user.ID,
		"phone":       user.Phone,
		"role":        user.Role.String(),
		"taxipark_id": user.TaxiparkID,
		"iat":         issuedAt.Unix(),
		"exp":         issuedAt.Add(refreshTTL).Unix(),
	}
}
