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
	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/fcm"
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
	clientsvc "github.com/Temutjin2k/taxi-fleet-system/internal/service/client"
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

// staleSweepInterval - как часто проверяем молчащих водителей.
const staleSweepInterval = time.Minute

// DriverService - приложение водителя и клиента: смс-авторизация, заказы,
// баланс, фото-контроль, WebSocket и доставка пушей через FCM.
type DriverService struct {
	postgresDB  *postgresclient.PostgreDB
	redisClient *goredis.Client
	rabbitMQ    *rabbitclient.RabbitMQ
	hub         *wshub.ConnectionHub

	pushBroker *rabbitadapter.PushBroker
	fcmClient  *fcm.Client
	notifySvc  *notify.Service
	driverSvc  *driversvc.Service

	httpServer *httpserver.API

	cfg config.Config
	log logger.Logger
}

func NewDriver(ctx context.Context, cfg config.Config, log logger.Logger) (*DriverService, error) {
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
	fcmClient := fcm.New(cfg.FCM)

	hub := wshub.NewConnHub(log)
	registry := wsreg.NewRegistry(hub, log)

	// services
	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, refreshRepo, txManager, cfg.Auth.RefreshTokenTTL, cfg.Auth.AccessTokenTTL, log)
	authSvc := auth.NewAuthService(driverRepo, clientRepo, dispatcherRepo, superadminRepo, codeStore, smsSender, tokenSvc, log)

	notifySvc := notify.NewService(registry, pushBroker, driverRepo, types.DriverService, log)
	clientSvc := clientsvc.NewService(clientRepo, taxiparkRepo, log)
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
		Clients:        clientSvc,
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

	return &DriverService{
		postgresDB:  postgresDB,
		redisClient: redisClient,
		rabbitMQ:    rabbitMQ,
		hub:         hub,
		pushBroker:  pushBroker,
		fcmClient:   fcmClient,
		notifySvc:   notifySvc,
		driverSvc:   driverSvc,
		httpServer:  httpServer,
		cfg:         cfg,
		log:         log,
	}, nil
}

func (s *DriverService) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.close(ctx)
		s.log.Info(ctx, "driver service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	// Пуши водителям без живого сокета доставляем через FCM.
	go func() {
		if err := s.pushBroker.ConsumeDriverPush(runCtx, s.fcmClient.Send); err != nil {
			errCh <- err
		}
	}()

	// События для водительских и клиентских сокетов из других сервисов.
	go func() {
		if err := s.pushBroker.ConsumeWSEvents(runCtx, types.DriverService, s.notifySvc.HandleBridgeEvent); err != nil {
			errCh <- err
		}
	}()

	go s.driverSvc.RunStaleSweeper(runCtx, staleSweepInterval)

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Driver service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *DriverService) close(ctx context.Context) {
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
