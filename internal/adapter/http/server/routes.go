package server

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/http/middleware"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, mode types.ServiceMode, log logger.Logger) {
	// System Health
	mux.HandleFunc("/health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux, mode, log)
	setupMetricsRoute(mux)

	switch mode {
	case types.DriverService:
		setupDriverServiceRoutes(mux, routes, m)
	case types.DispatcherService:
		setupDispatcherServiceRoutes(mux, routes, m)
	case types.AdminService:
		setupAdminServiceRoutes(mux, routes, m)
	}
}

// setupDriverServiceRoutes - mobile-facing API for drivers and clients.
func setupDriverServiceRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	// SMS auth
	mux.HandleFunc("POST /auth/request-code", routes.auth.RequestCode)
	mux.HandleFunc("POST /auth/verify-code", routes.auth.VerifyCode)
	mux.HandleFunc("POST /auth/refresh", routes.auth.Refresh)
	mux.Handle("POST /auth/logout", m.RequireRoles(routes.auth.Logout))
	mux.Handle("GET /auth/me", m.RequireRoles(routes.auth.Profile))

	// Client profile
	mux.HandleFunc("POST /clients/register", routes.client.Register)
	mux.Handle("GET /clients/me", m.RequireRoles(routes.client.Me, types.RoleClient))
	mux.Handle("PUT /clients/me", m.RequireRoles(routes.client.UpdateProfile, types.RoleClient))

	// Driver profile
	mux.Handle("GET /drivers/me", m.RequireRoles(routes.driver.Me, types.RoleDriver))
	mux.Handle("PUT /drivers/me", m.RequireRoles(routes.driver.UpdateProfile, types.RoleDriver))
	mux.Handle("POST /drivers/me/location", m.RequireRoles(routes.driver.UpdateLocation, types.RoleDriver))
	mux.Handle("POST /drivers/me/status", m.RequireRoles(routes.driver.SetOnlineStatus, types.RoleDriver))

	// Orders
	mux.Handle("POST /orders", m.RequireRoles(routes.order.Create, types.RoleClient))
	mux.Handle("GET /orders/available", m.RequireRoles(routes.order.Available, types.RoleDriver))
	mux.Handle("GET /orders/active", m.RequireRoles(routes.order.ActiveOrder, types.RoleDriver))
	mux.Handle("GET /orders/my", m.RequireRoles(routes.order.MyOrders, types.RoleDriver, types.RoleClient))
	mux.Handle("POST /orders/{order_id}/accept", m.RequireRoles(routes.order.Accept, types.RoleDriver))
	mux.Handle("POST /orders/{order_id}/status", m.RequireRoles(routes.order.UpdateStatusByDriver, types.RoleDriver))

	// Balance
	mux.Handle("GET /balance", m.RequireRoles(routes.balance.My, types.RoleDriver))
	mux.Handle("GET /balance/history", m.RequireRoles(routes.balance.History, types.RoleDriver))

	// Photo verification
	mux.Handle("POST /verification/photos", m.RequireRoles(routes.photo.Submit, types.RoleDriver))
	mux.Handle("GET /verification/status", m.RequireRoles(routes.photo.MyStatus, types.RoleDriver))

	// WebSocket
	mux.Handle("GET /ws/driver", m.RequireRoles(routes.ws.HandleDriver, types.RoleDriver))
	mux.Handle("GET /ws/client", m.RequireRoles(routes.ws.HandleClient, types.RoleClient))
}

// setupDispatcherServiceRoutes - dispatcher console API, park scoped.
func setupDispatcherServiceRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.HandleFunc("POST /auth/login", routes.auth.LoginDispatcher)
	mux.HandleFunc("POST /auth/refresh", routes.auth.Refresh)
	mux.Handle("POST /auth/logout", m.RequireRoles(routes.auth.Logout))

	// Drivers
	mux.Handle("POST /drivers", m.RequireRoles(routes.driver.Register, types.RoleDispatcher))
	mux.Handle("GET /drivers", m.RequireRoles(routes.driver.List, types.RoleDispatcher))
	mux.Handle("GET /drivers/{driver_id}", m.RequireRoles(routes.driver.Get, types.RoleDispatcher))
	mux.Handle("POST /drivers/{driver_id}/active", m.RequireRoles(routes.driver.SetActive, types.RoleDispatcher))
	mux.Handle("POST /drivers/{driver_id}/topup", m.RequireRoles(routes.balance.TopUp, types.RoleDispatcher))
	mux.Handle("GET /drivers/{driver_id}/balance", m.RequireRoles(routes.balance.DriverBalance, types.RoleDispatcher))

	// Orders
	mux.Handle("POST /orders", m.RequireRoles(routes.order.Create, types.RoleDispatcher))
	mux.Handle("GET /orders", m.RequireRoles(routes.order.ListParkOrders, types.RoleDispatcher))
	mux.Handle("GET /orders/{order_id}", m.RequireRoles(routes.order.Get, types.RoleDispatcher))
	mux.Handle("PUT /orders/{order_id}", m.RequireRoles(routes.order.UpdateDetails, types.RoleDispatcher))
	mux.Handle("POST /orders/{order_id}/status", m.RequireRoles(routes.order.UpdateStatusByDispatcher, types.RoleDispatcher))

	// Photo verification review
	mux.Handle("GET /verifications/pending", m.RequireRoles(routes.photo.ListPending, types.RoleDispatcher))
	mux.Handle("POST /verifications/{verification_id}/decide", m.RequireRoles(routes.photo.Decide, types.RoleDispatcher))

	// WebSocket
	mux.Handle("GET /ws/dispatcher", m.RequireRoles(routes.ws.HandleDispatcher, types.RoleDispatcher))
}

// setupAdminServiceRoutes - superadmin console: taxiparks, dispatchers, analytics.
func setupAdminServiceRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.HandleFunc("POST /auth/login", routes.auth.LoginSuperadmin)
	mux.HandleFunc("POST /auth/refresh", routes.auth.Refresh)
	mux.Handle("POST /auth/logout", m.RequireRoles(routes.auth.Logout))

	// Taxiparks
	mux.Handle("POST /taxiparks", m.RequireRoles(routes.admin.CreatePark, types.RoleSuperadmin))
	mux.Handle("GET /taxiparks", m.RequireRoles(routes.admin.ListParks, types.RoleSuperadmin))
	mux.Handle("GET /taxiparks/{park_id}", m.RequireRoles(routes.admin.GetPark, types.RoleSuperadmin))
	mux.Handle("PUT /taxiparks/{park_id}", m.RequireRoles(routes.admin.UpdatePark, types.RoleSuperadmin))
	mux.Handle("POST /taxiparks/{park_id}/active", m.RequireRoles(routes.admin.SetParkActive, types.RoleSuperadmin))

	// Dispatchers
	mux.Handle("POST /dispatchers", m.RequireRoles(routes.admin.CreateDispatcher, types.RoleSuperadmin))
	mux.Handle("GET /taxiparks/{park_id}/dispatchers", m.RequireRoles(routes.admin.ListDispatchers, types.RoleSuperadmin))
	mux.Handle("POST /dispatchers/{dispatcher_id}/active", m.RequireRoles(routes.admin.SetDispatcherActive, types.RoleSuperadmin))
	mux.Handle("POST /dispatchers/{dispatcher_id}/password", m.RequireRoles(routes.admin.ResetDispatcherPassword, types.RoleSuperadmin))

	// Analytics
	mux.Handle("GET /taxiparks/{park_id}/overview", m.RequireRoles(routes.admin.GetOverview, types.RoleSuperadmin))
}

// setupSwaggerRoutes configures Swagger UI endpoints based on service mode
func setupSwaggerRoutes(mux *http.ServeMux, mode types.ServiceMode, log logger.Logger) {
	var instanceName string

	switch mode {
	case types.DriverService:
		instanceName = "driver"
	case types.DispatcherService:
		instanceName = "dispatcher"
	case types.AdminService:
		instanceName = "admin"
	default:
		log.Warn(wrap.WithAction(context.Background(), "setup swagger routes"), "unknown service mode for swagger setup", "mode", mode)
		return
	}

	// Swagger UI endpoint
	swaggerURL := httpSwagger.InstanceName(instanceName)
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
