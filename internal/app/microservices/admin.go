package microservices

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/taxi-fleet-system/config"
	httpserver "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/server"
	repo "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/postgres"
	redisadapter "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/redis"
	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/sms"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/analytics"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/auth"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/park"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	postgresclient "github.com/Temutjin2k/taxi-fleet-system/pkg/postgres"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/trm"
)

// AdminService - кабинет суперадмина: таксопарки, диспетчеры и сводная
// аналитика. Очереди и WebSocket этому сервису не нужны.
type AdminService struct {
	postgresDB  *postgresclient.PostgreDB
	redisClient *goredis.Client

	httpServer *httpserver.API

	cfg config.Config
	log logger.Logger
}

func NewAdmin(ctx context.Context, cfg config.Config, log logger.Logger) (*AdminService, error) {
	postgresDB, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	txManager := trm.New(postgresDB.Pool)

	// repositories
	driverRepo := repo.NewDriverRepo(postgresDB.Pool)
	clientRepo := repo.NewClientRepo(postgresDB.Pool)
	dispatcherRepo := repo.NewDispatcherRepo(postgresDB.Pool)
	superadminRepo := repo.NewSuperadminRepo(postgresDB.Pool)
	refreshRepo := repo.NewRefreshTokenRepo(postgresDB.Pool)
	orderRepo := repo.NewOrderRepo(postgresDB.Pool)
	taxiparkRepo := repo.NewTaxiparkRepo(postgresDB.Pool)
	transactionRepo := repo.NewTransactionRepo(postgresDB.Pool)

	codeStore := redisadapter.NewSMSCodeStore(redisClient, cfg.SMS.CodeTTL)
	smsSender := sms.New(cfg.SMS)

	// services
	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, refreshRepo, txManager, cfg.Auth.RefreshTokenTTL, cfg.Auth.AccessTokenTTL, log)
	authSvc := auth.NewAuthService(driverRepo, clientRepo, dispatcherRepo, superadminRepo, codeStore, smsSender, tokenSvc, log)

	parkSvc := park.NewService(taxiparkRepo, dispatcherRepo, log)
	analyticsSvc := analytics.NewService(taxiparkRepo, orderRepo, driverRepo, transactionRepo, log)

	httpServer, err := httpserver.New(cfg, httpserver.Deps{
		Auth:           authSvc,
		Tokens:         tokenSvc,
		TokenValidator: tokenSvc,
		Parks:          parkSvc,
		Analytics:      analyticsSvc,
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return &AdminService{
		postgresDB:  postgresDB,
		redisClient: redisClient,
		httpServer:  httpServer,
		cfg:         cfg,
		log:         log,
	}, nil
}

func (s *AdminService) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "admin service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Admin service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *AdminService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close redis client", "error", err.Error())
		}
	}

	if s.postgresDB != nil && s.postgresDB.Pool != nil {
		s.postgresDB.Pool.Close()
	}
}
