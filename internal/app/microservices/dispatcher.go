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
	wshandler "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/ws"
	repo "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/postgres"
	rabbitadapter "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/rabbit"
	redisadapter "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/redis"
	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/sms"
	wsreg "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/ws"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/internal/notify"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/auth"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/dispatch"
	driversvc "github.com/Temutjin2k/taxi-fleet-system/internal/service/driver"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/ledger"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/match"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/order"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/photo"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	postgresclient "github.com/Temutjin2k/taxi-fleet-system/pkg/postgres"
	rabbitclient "github.com/Temutjin2k/taxi-fleet-system/pkg/rabbit"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/trm"
	wshub "github.com/Temutjin2k/taxi-fleet-system/pkg/wsHub"
)

// DispatcherService - кабинет диспетчера: парковые водители и заказы,
// пополнение баланса, фото-контроль и live-события по WebSocket. Пуши
// водителям публикуются в очередь, доставляет их driver-service.
type DispatcherService struct {
	postgresDB  *postgresclient.PostgreDB
	redisClient *goredis.Client
	rabbitMQ    *rabbitclient.RabbitMQ
	hub         *wshub.ConnectionHub
	pushBroker  *rabbitadapter.PushBroker
	notifySvc   *notify.Service

	httpServer *httpserver.API

	cfg config.Config
	log logger.Logger
}

func NewDispatcher(ctx context.Context, cfg config.Config, log logger.Logger) (*DispatcherService, error) {
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

	rabbitMQ, err := rabbitclient.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to connect to RabbitMQ", err)
		return nil, err
	}

	pushBroker := rabbitadapter.NewPushBroker(rabbitMQ, log)
	if err := pushBroker.EnsureTopology(ctx); err != nil {
		return nil, err
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
	verificationRepo := repo.NewPhotoVerificationRepo(postgresDB.Pool)

	codeStore := redisadapter.NewSMSCodeStore(redisClient, cfg.SMS.CodeTTL)
	smsSender := sms.New(cfg.SMS)

	hub := wshub.NewConnHub(log)
	registry := wsreg.NewRegistry(hub, log)

	// services
	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, refreshRepo, txManager, cfg.Auth.RefreshTokenTTL, cfg.Auth.AccessTokenTTL, log)
	authSvc := auth.NewAuthService(driverRepo, clientRepo, dispatcherRepo, superadminRepo, codeStore, smsSender, tokenSvc, log)

	notifySvc := notify.NewService(registry, pushBroker, driverRepo, types.DispatcherService, log)
	driverSvc := driversvc.NewService(driverRepo, taxiparkRepo, log)
	matcher := match.NewMatcher(driverRepo, orderRepo, log)
	ledgerSvc := ledger.NewService(transactionRepo, driverRepo, taxiparkRepo, txManager, cfg.Billing.CommissionPercent, log)
	orderSvc := order.NewService(orderRepo, driverRepo, ledgerSvc, matcher, notifySvc, txManager, log)
	dispatchSvc := dispatch.NewService(orderSvc, ledgerSvc, driverSvc, notifySvc, geocoderFor(cfg), log)
	photoSvc := photo.NewService(verificationRepo, driverRepo, notifySvc, txManager, cfg.Uploads.Dir, log)

	wsHandler := wshandler.NewHandler(registry, driverSvc, log)

	httpServer, err := httpserver.New(cfg, httpserver.Deps{
		Auth:           authSvc,
		Tokens:         tokenSvc,
		TokenValidator: tokenSvc,
		Drivers:        driverSvc,
		DriverAdmin:    dispatchSvc,
		Orders:         orderSvc,
		Dispatch:       dispatchSvc,
		Ledger:         ledgerSvc,
		TopUps:         dispatchSvc,
		Photos:         photoSvc,
		WS:             wsHandler,
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return &DispatcherService{
		postgresDB:  postgresDB,
		redisClient: redisClient,
		rabbitMQ:    rabbitMQ,
		hub:         hub,
		pushBroker:  pushBroker,
		notifySvc:   notifySvc,
		httpServer:  httpServer,
		cfg:         cfg,
		log:         log,
	}, nil
}

func (s *DispatcherService) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.close(ctx)
		s.log.Info(ctx, "dispatcher service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	// События для диспетчерских сокетов из других сервисов.
	go func() {
		if err := s.pushBroker.ConsumeWSEvents(runCtx, types.DispatcherService, s.notifySvc.HandleBridgeEvent); err != nil {
			errCh <- err
		}
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Dispatcher service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *DispatcherService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.hub != nil {
		s.hub.Close()
	}

	if s.rabbitMQ != nil {
		if err := s.rabbitMQ.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close RabbitMQ connection", "error", err.Error())
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
