package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type AuthService interface {
	RequestCode(ctx context.Context, role types.UserRole, rawPhone string) error
	VerifyCode(ctx context.Context, role types.UserRole, rawPhone, code, fcmToken string) (*models.TokenPair, *models.AuthUser, error)
	LoginDispatcher(ctx context.Context, login, password string) (*models.TokenPair, *models.Dispatcher, error)
	LoginSuperadmin(ctx context.Context, login, password string) (*models.TokenPair, error)
}

type TokenService interface {
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID int64, role types.UserRole) error
}

type Auth struct {
	auth   AuthService
	tokens TokenService
	l      logger.Logger
}

func NewAuth(auth AuthService, tokens TokenService, l logger.Logger) *Auth {
	return &Auth{
		auth:   auth,
		tokens: tokens,
		l:      l,
	}
}

// RequestCode sends a one-time SMS code to the driver or client phone.
func (h *Auth) RequestCode(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "request_sms_code")

	req := &dto.RequestCodeRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateRequestCode(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.auth.RequestCode(ctx, types.UserRole(req.Role), req.Phone); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to request sms code", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"message": "code sent"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// VerifyCode exchanges a valid SMS code for a token pair.
func (h *Auth) VerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "verify_sms_code")

	req := &dto.VerifyCodeRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateVerifyCode(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tokens, user, err := h.auth.VerifyCode(ctx, types.UserRole(req.Role), req.Phone, req.Code, req.FCMToken)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to verify sms code", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"tokens": dto.NewTokenPairResponse(tokens),
		"user": envelope{
			"id":          user.ID,
			"phone":       user.Phone,
			"role":        user.Role,
			"taxipark_id": user.TaxiparkID,
		},
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// LoginDispatcher authenticates a dispatcher by login and password.
func (h *Auth) LoginDispatcher(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login_dispatcher")

	req := &dto.LoginRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateLogin(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tokens, dispatcher, err := h.auth.LoginDispatcher(ctx, req.Login, req.Password)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to login dispatcher", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{
		"tokens":     dto.NewTokenPairResponse(tokens),
		"dispatcher": dto.NewDispatcherResponse(dispatcher),
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// LoginSuperadmin authenticates the fleet superadmin.
func (h *Auth) LoginSuperadmin(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login_superadmin")

	req := &dto.LoginRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateLogin(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tokens, err := h.auth.LoginSuperadmin(ctx, req.Login, req.Password)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to login superadmin", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"tokens": dto.NewTokenPairResponse(tokens)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "refresh_token")

	req := &dto.RefreshTokenRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateRefreshToken(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tokens, err := h.tokens.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to refresh token pair", err)
		errorResponse(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	response := envelope{"tokens": dto.NewTokenPairResponse(tokens)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Logout revokes the stored refresh token of the authenticated user.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "logout")

	user := models.UserFromContext(ctx)
	if err := h.tokens.Logout(ctx, user.ID, user.Role); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to logout", err)
		domainErrorResponse(w, err)
		return
	}

	response := envelope{"message": "logged out"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_profile")

	user := models.UserFromContext(ctx)
	response := envelope{
		"user": envelope{
			"id":          user.ID,
			"phone":       user.Phone,
			"role":        user.Role,
			"taxipark_id": user.TaxiparkID,
		},
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(ctx, "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
