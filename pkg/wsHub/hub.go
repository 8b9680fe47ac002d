package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub хранит и управляет всеми активными WebSocket соединениями.
// Соединения ключуются строковым идентификатором вида "driver:15",
// "dispatcher:3" или "client:+996700123456".
type ConnectionHub struct {
	clients map[string]*Conn
	l       logger.Logger
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients: make(map[string]*Conn),
		l:       l,
	}
}

// Add добавляет новое соединение в хаб.
// Если соединение с этим ключом уже существует — оно закрывается.
func (h *ConnectionHub) Add(newConn *Conn) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "add_ws_connection")

	if existing, ok := h.clients[newConn.key]; ok {
		h.l.Warn(ctx,
			"replacing existing connection",
			"key", existing.key,
		)
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx,
				"failed to close existing conn",
				"key", existing.key,
				"err", err.Error(),
			)
		}
	}

	h.clients[newConn.key] = newConn
	h.wg.Add(1)

	return nil
}

// Delete удаляет и закрывает соединение по ключу
func (h *ConnectionHub) Delete(key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "ws_connection_delete")

	conn, ok := h.clients[key]
	if !ok {
		h.l.Warn(ctx,
			"delete called for unknown key",
			"key", key,
		)
		return ErrConnIsNotFound
	}

	if err := conn.Close(); err != nil {
		h.l.Warn(ctx,
			"failed to close conn",
			"key", conn.key,
			"err", err.Error(),
		)
	}

	delete(h.clients, key)
	h.wg.Done()

	return nil
}

// SendTo отправляет сообщение определённому клиенту по ключу.
// Возвращает ErrConnIsNotFound, если соединение не найдено.
func (h *ConnectionHub) SendTo(key string, msg map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.clients[key]; ok {
		return conn.Send(msg)
	}
	return ErrConnIsNotFound
}

// Has сообщает, зарегистрировано ли живое соединение по ключу.
func (h *ConnectionHub) Has(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, ok := h.clients[key]
	return ok
}

// Close закрывает каждое websocket соединение
func (h *ConnectionHub) Close() {
	ctx := wrap.WithAction(context.Background(), "hub_close")

	// копируем клиентов под локом
	h.mu.Lock()
	clients := make([]*Conn, 0, len(h.clients))
	for _, conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()
	// закрываем вне локов
	for _, conn := range clients {
		_ = h.Delete(conn.key)
	}

	h.wg.Wait()

	h.l.Info(ctx, "all websocket connections closed gracefully")
}

// Clients возвращает копию списка клиентов
func (h *ConnectionHub) Clients() map[string]*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	copyMap := make(map[string]*Conn, len(h.clients))
	for key, conn := range h.clients {
		copyMap[key] = conn
	}
	return copyMap
}

// GetConn возвращает нужное соединение по ключу
func (h *ConnectionHub) GetConn(key string) (*Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.clients[key]
	if !ok {
		return nil, ErrConnIsNotFound
	}
	return conn, nil
}

// Count возвращает количество активных соединений.
func (h *ConnectionHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}
