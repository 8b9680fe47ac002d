package models

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/golang-jwt/jwt/v5"
)

const (
	Refresh = "refresh_token"
	Access  = "access_token"
)

type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type CustomClaims struct {
	UserID     int64          `json:"user_id"`
	Phone      string         `json:"phone,omitempty"`
	Role       types.UserRole `json:"role"`
	TaxiparkID int64          `json:"taxipark_id,omitempty"`
	IsRefresh  bool           `json:"is_refresh"`
	jwt.RegisteredClaims
}

// RefreshTokenRecord - сохранённый refresh-токен, привязанный к пользователю.
type RefreshTokenRecord struct {
	ID        int64
	UserID    int64
	Role      types.UserRole
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
