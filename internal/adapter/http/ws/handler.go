package wshandler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	wsreg "github.com/Temutjin2k/taxi-fleet-system/internal/adapter/ws"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	wshub "github.com/Temutjin2k/taxi-fleet-system/pkg/wsHub"
)

// DriverService принимает сообщения, которые водитель шлёт по сокету.
type DriverService interface {
	UpdateLocation(ctx context.Context, driverID int64, lat, lon float64) error
	SetOnlineStatus(ctx context.Context, driverID int64, status types.OnlineStatus) error
}

type Handler struct {
	registry *wsreg.Registry
	drivers  DriverService
	log      logger.Logger

	upgrader websocket.Upgrader
}

func NewHandler(registry *wsreg.Registry, drivers DriverService, log logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		drivers:  drivers,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Мобильные клиенты и пульт ходят с разных origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleDriver upgrades the driver app connection and consumes location
// and status pings until the socket closes.
func (h *Handler) HandleDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_driver_connect")
	user := models.UserFromContext(ctx)

	conn, err := h.connect(ctx, w, r, wsreg.DriverKey(user.ID), user.TaxiparkID)
	if err != nil {
		return
	}
	defer h.registry.Unregister(conn.Key())

	err = conn.Listen(func(msg map[string]any) error {
		h.handleDriverMessage(ctx, user.ID, msg)
		return nil
	})
	if err != nil {
		h.log.Debug(ctx, "driver ws closed", "driver_id", user.ID, "reason", err.Error())
	}
}

// HandleDispatcher upgrades a dispatcher console connection. The console
// only listens, so incoming frames are ignored.
func (h *Handler) HandleDispatcher(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_dispatcher_connect")
	user := models.UserFromContext(ctx)

	conn, err := h.connect(ctx, w, r, wsreg.DispatcherKey(user.ID), user.TaxiparkID)
	if err != nil {
		return
	}
	defer h.registry.Unregister(conn.Key())

	if err := conn.Listen(func(map[string]any) error { return nil }); err != nil {
		h.log.Debug(ctx, "dispatcher ws closed", "dispatcher_id", user.ID, "reason", err.Error())
	}
}

// HandleClient upgrades a client app connection keyed by phone number.
func (h *Handler) HandleClient(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_client_connect")
	user := models.UserFromContext(ctx)

	conn, err := h.connect(ctx, w, r, wsreg.ClientKey(user.Phone), user.TaxiparkID)
	if err != nil {
		return
	}
	defer h.registry.Unregister(conn.Key())

	if err := conn.Listen(func(map[string]any) error { return nil }); err != nil {
		h.log.Debug(ctx, "client ws closed", "phone", user.Phone, "reason", err.Error())
	}
}

// connect upgrades the HTTP request, registers the connection and sends
// the connection_established event.
func (h *Handler) connect(ctx context.Context, w http.ResponseWriter, r *http.Request, key string, taxiparkID int64) (*wshub.Conn, error) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(ctx, "websocket upgrade failed", "key", key, "err", err.Error())
		return nil, err
	}

	conn := wshub.NewConn(context.Background(), key, wsConn)
	if err := h.registry.Register(conn, taxiparkID); err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "failed to register ws connection", err, "key", key)
		wsConn.Close()
		return nil, err
	}

	welcome := models.NewWebSocketMessage(types.EventConnectionEstablished, map[string]any{
		"key": key,
	})
	if err := conn.Send(welcome); err != nil {
		h.log.Warn(ctx, "failed to send connection_established", "key", key, "err", err.Error())
	}

	h.log.Info(ctx, "websocket connected", "key", key, "taxipark_id", taxiparkID)
	return conn, nil
}

// handleDriverMessage разбирает входящий кадр водителя. Неизвестные типы
// молча пропускаются, чтобы не рвать соединение.
func (h *Handler) handleDriverMessage(ctx context.Context, driverID int64, msg map[string]any) {
	msgType, _ := msg["type"].(string)

	switch msgType {
	case "location":
		lat, latOK := msg["latitude"].(float64)
		lon, lonOK := msg["longitude"].(float64)
		if !latOK || !lonOK {
			h.log.Warn(ctx, "malformed location frame", "driver_id", driverID)
			return
		}
		if err := h.drivers.UpdateLocation(ctx, driverID, lat, lon); err != nil {
			h.log.Warn(ctx, "failed to update location from ws", "driver_id", driverID, "err", err.Error())
		}

	case "status":
		status, _ := msg["status"].(string)
		if status != string(types.StatusOnline) && status != string(types.StatusOffline) {
			h.log.Warn(ctx, "malformed status frame", "driver_id", driverID, "status", status)
			return
		}
		if err := h.drivers.SetOnlineStatus(ctx, driverID, types.OnlineStatus(status)); err != nil {
			h.log.Warn(ctx, "failed to set online status from ws", "driver_id", driverID, "err", err.Error())
		}

	case "ping", "":
		// Keepalive кадры.

	default:
		h.log.Debug(ctx, "unknown ws frame type", "driver_id", driverID, "type", msgType)
	}
}
