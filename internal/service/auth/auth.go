package auth

import (
	"context"
	"errors"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/phone"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/passhash"
)

// Фиксированный код входа для тестового номера из конфигурации.
const testCode = "1111"

// AuthService обслуживает все четыре входа: водитель и клиент по СМС-коду,
// диспетчер и суперадмин по логину с паролем.
type AuthService struct {
	driverRepo     DriverRepo
	clientRepo     ClientRepo
	dispatcherRepo DispatcherRepo
	superadminRepo SuperadminRepo
	codes          CodeStore
	sender         CodeSender
	tokens         TokenProvider
	log            logger.Logger
}

func NewAuthService(
	driverRepo DriverRepo,
	clientRepo ClientRepo,
	dispatcherRepo DispatcherRepo,
	superadminRepo SuperadminRepo,
	codes CodeStore,
	sender CodeSender,
	tokens TokenProvider,
	log logger.Logger,
) *AuthService {
	return &AuthService{
		driverRepo:     driverRepo,
		clientRepo:     clientRepo,
		dispatcherRepo: dispatcherRepo,
		superadminRepo: superadminRepo,
		codes:          codes,
		sender:         sender,
		tokens:         tokens,
		log:            log,
	}
}

// RequestCode генерирует код входа и отправляет его по СМС. Номер должен
// принадлежать зарегистрированному пользователю нужной роли.
func (s *AuthService) RequestCode(ctx context.Context, role types.UserRole, rawPhone string) error {
	ctx = wrap.WithAction(ctx, "request_sms_code")

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	if _, err := s.lookupByPhone(ctx, role, normalized); err != nil {
		return wrap.Error(ctx, err)
	}

	// Для тестового номера код фиксированный и никуда не отправляется.
	if s.sender.IsTestPhone(normalized) {
		return nil
	}

	code, err := s.codes.Generate(ctx, role, normalized)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	if err := s.sender.SendCode(ctx, normalized, code); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "sms code sent", "role", role.String())
	return nil
}

// VerifyCode проверяет код и выдаёт пару токенов. Непустой fcmToken
// сохраняется для пуш-уведомлений.
func (s *AuthService) VerifyCode(ctx context.Context, role types.UserRole, rawPhone, code, fcmToken string) (*models.TokenPair, *models.AuthUser, error) {
	ctx = wrap.WithAction(ctx, "verify_sms_code")

	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	user, err := s.lookupByPhone(ctx, role, normalized)
	if err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	if s.sender.IsTestPhone(normalized) {
		if code != testCode {
			return nil, nil, wrap.Error(ctx, types.ErrInvalidSMSCode)
		}
	} else if err := s.codes.Verify(ctx, role, normalized, code); err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	if fcmToken != "" {
		if err := s.saveFCMToken(ctx, role, user.ID, fcmToken); err != nil {
			// Не роняем вход из-за токена уведомлений.
			s.log.Warn(ctx, "failed to save fcm token", "err", err.Error())
		}
	}

	pair, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		return nil, nil, wrap.Error(ctx, ErrTokenGenerateFail)
	}

	return pair, user, nil
}

// LoginDispatcher аутентифицирует диспетчера по логину и паролю.
func (s *AuthService) LoginDispatcher(ctx context.Context, login, password string) (*models.TokenPair, *models.Dispatcher, error) {
	ctx = wrap.WithAction(ctx, "dispatcher_login")

	d, err := s.dispatcherRepo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, types.ErrDispatcherNotFound) {
			return nil, nil, wrap.Error(ctx, types.ErrInvalidCredentials)
		}
		return nil, nil, wrap.Error(ctx, err)
	}

	if !d.IsActive {
		return nil, nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	if ok, err := passhash.VerifyPassword(password, d.PasswordHash); err != nil || !ok {
		return nil, nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	user := &models.AuthUser{
		ID:         d.ID,
		Role:       types.RoleDispatcher,
		TaxiparkID: d.TaxiparkID,
	}

	pair, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		return nil, nil, wrap.Error(ctx, ErrTokenGenerateFail)
	}

	return pair, d, nil
}

// LoginSuperadmin аутентифицирует суперадмина по логину и паролю.
func (s *AuthService) LoginSuperadmin(ctx context.Context, login, password string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "superadmin_login")

	admin, err := s.superadminRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	if ok, err := passhash.VerifyPassword(password, admin.PasswordHash); err != nil || !ok {
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	user := &models.AuthUser{
		ID:   admin.ID,
		Role: types.RoleSuperadmin,
	}

	pair, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		return nil, wrap.Error(ctx, ErrTokenGenerateFail)
	}

	return pair, nil
}

func (s *AuthService) lookupByPhone(ctx context.Context, role types.UserRole, normalized string) (*models.AuthUser, error) {
	switch role {
	case types.RoleDriver:
		d, err := s.driverRepo.GetByPhone(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if !d.IsActive {
			return nil, types.ErrDriverInactive
		}
		return &models.AuthUser{
			ID:         d.ID,
			Phone:      d.PhoneNumber,
			Role:       types.RoleDriver,
			TaxiparkID: d.TaxiparkID,
		}, nil

	case types.RoleClient:
		c, err := s.clientRepo.GetByPhone(ctx, normalized)
		if err != nil {
			return nil, err
		}
		return &models.AuthUser{
			ID:         c.ID,
			Phone:      c.PhoneNumber,
			Role:       types.RoleClient,
			TaxiparkID: c.TaxiparkID,
		}, nil

	default:
		return nil, ErrActionForbidden
	}
}

func (s *AuthService) saveFCMToken(ctx context.Context, role types.UserRole, userID int64, token string) error {
	switch role {
	case types.RoleDriver:
		return s.driverRepo.UpdateFCMToken(ctx, userID, token)
	case types.RoleClient:
		return s.clientRepo.UpdateFCMToken(ctx, userID, token)
	default:
		return ErrActionForbidden
	}
}
