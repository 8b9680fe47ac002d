package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/config"
	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/handler"
	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/middleware"
	wshandler "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/ws"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers // routes/handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health  *handler.Health
	auth    *handler.Auth
	client  *handler.Client
	driver  *handler.Driver
	order   *handler.Order
	balance *handler.Balance
	photo   *handler.Photo
	admin   *handler.Admin
	ws      *wshandler.Handler
}

// Deps carries the domain services each mode wires into its handlers.
type Deps struct {
	Auth           handler.AuthService
	Tokens         handler.TokenService
	TokenValidator middleware.TokenValidator

	Clients     handler.ClientService
	Drivers     handler.DriverService
	DriverAdmin handler.DriverAdminService
	Orders      handler.OrderService
	Dispatch    handler.DispatchService
	Ledger      handler.LedgerService
	TopUps      handler.TopUpService
	Photos      handler.PhotoService

	Parks     handler.ParkService
	Analytics handler.AnalyticsService

	WS *wshandler.Handler
}

func New(cfg config.Config, deps Deps, log logger.Logger) (*API, error) {
	if deps.Auth == nil || deps.Tokens == nil || deps.TokenValidator == nil {
		return nil, errors.New("auth services are required")
	}

	var addr string
	routes := &handlers{
		health: handler.NewHealth(string(cfg.Mode), log),
		auth:   handler.NewAuth(deps.Auth, deps.Tokens, log),
	}

	switch cfg.Mode {
	case types.DriverService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.DriverService)
		routes.client = handler.NewClient(deps.Clients, log)
		routes.driver = handler.NewDriver(deps.Drivers, deps.DriverAdmin, log)
		routes.order = handler.NewOrder(deps.Orders, deps.Dispatch, deps.Drivers, log)
		routes.balance = handler.NewBalance(deps.Ledger, deps.TopUps, log)
		routes.photo = handler.NewPhoto(deps.Photos, log)
		routes.ws = deps.WS
	case types.DispatcherService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.DispatcherService)
		routes.driver = handler.NewDriver(deps.Drivers, deps.DriverAdmin, log)
		routes.order = handler.NewOrder(deps.Orders, deps.Dispatch, deps.Drivers, log)
		routes.balance = handler.NewBalance(deps.Ledger, deps.TopUps, log)
		routes.photo = handler.NewPhoto(deps.Photos, log)
		routes.ws = deps.WS
	case types.AdminService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.AdminService)
		routes.admin = handler.NewAdmin(deps.Parks, deps.Analytics, log)
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	mid := middleware.NewMiddleware(deps.TokenValidator, log)

	api := &API{
		mode: cfg.Mode,

		mux:    http.NewServeMux(),
		routes: routes,
		m:      mid,
		addr:   addr,
		cfg:    cfg,
		log:    log,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	setupRoutes(api.mux, api.routes, api.m, api.mode, api.log)

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr, "mode", a.mode)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	metrics := a.m.Metrics(string(a.mode))
	return a.m.Recover(a.m.RequestID(a.m.Logging(metrics(a.m.Auth(a.mux)))))
}
