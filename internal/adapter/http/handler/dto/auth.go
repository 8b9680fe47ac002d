package dto

import (
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type RequestCodeRequest struct {
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type VerifyCodeRequest struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	Role     string `json:"role"`
	FCMToken string `json:"fcm_token,omitempty"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func ValidateRequestCode(v *validator.Validator, req *RequestCodeRequest) {
	v.Check(req.Phone != "", "phone", "must be provided")
	v.Check(req.Role != "", "role", "must be provided")
	if req.Role != "" {
		v.Check(
			validator.PermittedValue(req.Role, types.RoleDriver.String(), types.RoleClient.String()),
			"role", "must be DRIVER or CLIENT",
		)
	}
}

func ValidateVerifyCode(v *validator.Validator, req *VerifyCodeRequest) {
	v.Check(req.Phone != "", "phone", "must be provided")
	v.Check(req.Code != "", "code", "must be provided")
	v.Check(len(req.Code) <= 10, "code", "must not be more than 10 characters long")
	v.Check(req.Role != "", "role", "must be provided")
	if req.Role != "" {
		v.Check(
			validator.PermittedValue(req.Role, types.RoleDriver.String(), types.RoleClient.String()),
			"role", "must be DRIVER or CLIENT",
		)
	}
}

func ValidateLogin(v *validator.Validator, req *LoginRequest) {
	v.Check(req.Login != "", "login", "must be provided")
	v.Check(req.Password != "", "password", "must be provided")
}

func ValidateRefreshToken(v *validator.Validator, req *RefreshTokenRequest) {
	v.Check(req.RefreshToken != "", "refresh_token", "must be provided")
}

type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func NewTokenPairResponse(pair *models.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
