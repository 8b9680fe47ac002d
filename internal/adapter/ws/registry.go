package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/metrics"
	wshub "github.com/Temutjin2k/taxi-fleet-system/pkg/wsHub"
)

// Registry раздаёт события по WebSocket трём аудиториям: водителям,
// диспетчерам и клиентам. Соединения группируются по таксопарку, чтобы
// диспетчеры видели только события своего парка.
type Registry struct {
	hub *wshub.ConnectionHub
	l   logger.Logger

	mu    sync.Mutex
	parks map[int64]map[string]struct{} // parkID -> connection keys
	keys  map[string]int64              // connection key -> parkID
}

func NewRegistry(hub *wshub.ConnectionHub, l logger.Logger) *Registry {
	return &Registry{
		hub:   hub,
		l:     l,
		parks: make(map[int64]map[string]struct{}),
		keys:  make(map[string]int64),
	}
}

func DriverKey(driverID int64) string {
	return fmt.Sprintf("driver:%d", driverID)
}

func DispatcherKey(dispatcherID int64) string {
	return fmt.Sprintf("dispatcher:%d", dispatcherID)
}

func ClientKey(phone string) string {
	return fmt.Sprintf("client:%s", phone)
}

// Register добавляет соединение и привязывает его к парку.
// Существующее соединение с тем же ключом вытесняется.
func (r *Registry) Register(conn *wshub.Conn, taxiparkID int64) error {
	if err := r.hub.Add(conn); err != nil {
		return err
	}

	r.mu.Lock()
	key := conn.Key()
	if old, ok := r.keys[key]; ok {
		delete(r.parks[old], key)
	}
	if r.parks[taxiparkID] == nil {
		r.parks[taxiparkID] = make(map[string]struct{})
	}
	r.parks[taxiparkID][key] = struct{}{}
	r.keys[key] = taxiparkID
	r.mu.Unlock()

	metrics.WebSocketConnectionsGauge.WithLabelValues("ws").Set(float64(r.hub.Count()))
	return nil
}

// Unregister снимает соединение с учёта и закрывает его.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	if parkID, ok := r.keys[key]; ok {
		delete(r.parks[parkID], key)
		delete(r.keys, key)
	}
	r.mu.Unlock()

	if err := r.hub.Delete(key); err != nil && !errors.Is(err, wshub.ErrConnIsNotFound) {
		r.l.Warn(context.Background(), "failed to delete ws connection", "key", key, "err", err.Error())
	}

	metrics.WebSocketConnectionsGauge.WithLabelValues("ws").Set(float64(r.hub.Count()))
}

// IsConnected reports whether a live connection exists for the key.
func (r *Registry) IsConnected(key string) bool {
	return r.hub.Has(key)
}

func toEnvelope(msg models.WebSocketMessage) (map[string]any, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return m, nil
}

// SendToDriver доставляет событие водителю. Возвращает false, если
// соединения нет: тогда вызывающий уходит в пуш-очередь.
func (r *Registry) SendToDriver(ctx context.Context, driverID int64, msg models.WebSocketMessage) (bool, error) {
	const op = "Registry.SendToDriver"

	m, err := toEnvelope(msg)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.hub.SendTo(DriverKey(driverID), m); err != nil {
		if errors.Is(err, wshub.ErrConnIsNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// SendToClient доставляет событие клиенту по номеру телефона.
func (r *Registry) SendToClient(ctx context.Context, phone string, msg models.WebSocketMessage) (bool, error) {
	const op = "Registry.SendToClient"

	m, err := toEnvelope(msg)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.hub.SendTo(ClientKey(phone), m); err != nil {
		if errors.Is(err, wshub.ErrConnIsNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// BroadcastToDispatchers рассылает событие всем диспетчерам парка.
func (r *Registry) BroadcastToDispatchers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) error {
	const op = "Registry.BroadcastToDispatchers"

	m, err := toEnvelope(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	targets := make([]string, 0, len(r.parks[taxiparkID]))
	for key := range r.parks[taxiparkID] {
		targets = append(targets, key)
	}
	r.mu.Unlock()

	for _, key := range targets {
		var id int64
		if _, err := fmt.Sscanf(key, "dispatcher:%d", &id); err != nil {
			continue
		}
		if err := r.hub.SendTo(key, m); err != nil && !errors.Is(err, wshub.ErrConnIsNotFound) {
			r.l.Warn(ctx, "failed to send to dispatcher", "key", key, "err", err.Error())
		}
	}
	return nil
}

// BroadcastToParkDrivers рассылает событие всем подключённым водителям парка.
// Используется для оповещения о новом свободном заказе.
func (r *Registry) BroadcastToParkDrivers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) error {
	const op = "Registry.BroadcastToParkDrivers"

	m, err := toEnvelope(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	targets := make([]string, 0, len(r.parks[taxiparkID]))
	for key := range r.parks[taxiparkID] {
		targets = append(targets, key)
	}
	r.mu.Unlock()

	for _, key := range targets {
		var id int64
		if _, err := fmt.Sscanf(key, "driver:%d", &id); err != nil {
			continue
		}
		if err := r.hub.SendTo(key, m); err != nil && !errors.Is(err, wshub.ErrConnIsNotFound) {
			r.l.Warn(ctx, "failed to send to driver", "key", key, "err", err.Error())
		}
	}
	return nil
}

// Close закрывает все соединения.
func (r *Registry) Close() {
	r.hub.Close()

	r.mu.Lock()
	r.parks = make(map[int64]map[string]struct{})
	r.keys = make(map[string]int64)
	r.mu.Unlock()
}
