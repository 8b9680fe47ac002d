package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

type fakeRegistry struct {
	driverOnline bool

	driverMsgs     []models.WebSocketMessage
	clientMsgs     map[string][]models.WebSocketMessage
	dispatcherMsgs []models.WebSocketMessage
	parkMsgs       []models.WebSocketMessage
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{clientMsgs: make(map[string][]models.WebSocketMessage)}
}

func (f *fakeRegistry) SendToDriver(ctx context.Context, driverID int64, msg models.WebSocketMessage) (bool, error) {
	if !f.driverOnline {
		return false, nil
	}
	f.driverMsgs = append(f.driverMsgs, msg)
	return true, nil
}

func (f *fakeRegistry) SendToClient(ctx context.Context, phone string, msg models.WebSocketMessage) (bool, error) {
	f.clientMsgs[phone] = append(f.clientMsgs[phone], msg)
	return true, nil
}

func (f *fakeRegistry) BroadcastToDispatchers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) error {
	f.dispatcherMsgs = append(f.dispatcherMsgs, msg)
	return nil
}

func (f *fakeRegistry) BroadcastToParkDrivers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) error {
	f.parkMsgs = append(f.parkMsgs, msg)
	return nil
}

type fakeBroker struct {
	pushes []models.PushMessage
	events []models.WSEvent
}

func (f *fakeBroker) PublishDriverPush(ctx context.Context, msg models.PushMessage) error {
	f.pushes = append(f.pushes, msg)
	return nil
}

func (f *fakeBroker) PublishWSEvent(ctx context.Context, ev models.WSEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type fakeDriverRepo struct {
	fcmToken string
}

func (f *fakeDriverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	return &models.Driver{ID: id, FCMToken: f.fcmToken}, nil
}

func newService(mode types.ServiceMode) (*Service, *fakeRegistry, *fakeBroker) {
	reg := newFakeRegistry()
	broker := &fakeBroker{}
	svc := NewService(reg, broker, &fakeDriverRepo{fcmToken: "fcm-token"}, mode,
		logger.InitLogger("test", logger.LevelDebug))
	return svc, reg, broker
}

func acceptedOrder() *models.Order {
	driverID := int64(7)
	return &models.Order{
		ID:          1,
		OrderNumber: "ORD-1",
		Status:      types.OrderAccepted,
		DriverID:    &driverID,
		ClientPhone: "+996700112233",
		TaxiparkID:  3,
		Price:       300,
	}
}

// Принятие происходит в driver-service, диспетчерских сокетов там нет:
// событие для диспетчеров должно уйти в очередь, клиентское локально.
func TestStatusChanged_BridgesDispatcherEvents(t *testing.T) {
	svc, reg, broker := newService(types.DriverService)

	svc.StatusChanged(context.Background(), models.StatusChange{
		Order:     acceptedOrder(),
		OldStatus: types.OrderReceived,
		NewStatus: types.OrderAccepted,
		ChangedAt: time.Now().UTC(),
	})

	assert.Empty(t, reg.dispatcherMsgs)
	require.Len(t, broker.events, 1)
	assert.Equal(t, types.AudienceDispatchers, broker.events[0].Audience)
	assert.Equal(t, int64(3), broker.events[0].TaxiparkID)

	require.Len(t, reg.clientMsgs["+996700112233"], 1)
	assert.Equal(t, types.EventOrderAccepted, reg.clientMsgs["+996700112233"][0].Type)
}

// Диспетчерская смена статуса: водительское и клиентское события уходят в
// очередь, диспетчеры получают своё локально.
func TestStatusChanged_FromDispatcherBridgesDriverAndClient(t *testing.T) {
	svc, reg, broker := newService(types.DispatcherService)

	svc.StatusChanged(context.Background(), models.StatusChange{
		Order:        acceptedOrder(),
		OldStatus:    types.OrderAccepted,
		NewStatus:    types.OrderCancelled,
		ChangedAt:    time.Now().UTC(),
		NotifyDriver: true,
	})

	require.Len(t, reg.dispatcherMsgs, 1)

	audiences := make(map[types.WSAudience]models.WSEvent)
	for _, ev := range broker.events {
		audiences[ev.Audience] = ev
	}
	require.Contains(t, audiences, types.AudienceClient)
	require.Contains(t, audiences, types.AudienceDriver)

	driverEv := audiences[types.AudienceDriver]
	assert.Equal(t, int64(7), driverEv.DriverID)
	assert.NotEmpty(t, driverEv.Title)
	assert.Equal(t, int64(1), driverEv.OrderID)

	// Пуш решает хозяин водительских сокетов, не издатель.
	assert.Empty(t, broker.pushes)
}

func TestNewOrder_UnassignedBroadcastsToParkDrivers(t *testing.T) {
	svc, reg, broker := newService(types.DispatcherService)

	order := acceptedOrder()
	order.DriverID = nil
	order.Status = types.OrderReceived
	svc.NewOrder(context.Background(), order)

	// Водительские сокеты в другом сервисе, диспетчерские здесь.
	require.Len(t, reg.dispatcherMsgs, 1)
	assert.Empty(t, reg.parkMsgs)

	var parkEvents int
	for _, ev := range broker.events {
		if ev.Audience == types.AudienceParkDrivers {
			parkEvents++
		}
	}
	assert.Equal(t, 1, parkEvents)
}

func TestHandleBridgeEvent_DriverOffline_FallsBackToPush(t *testing.T) {
	svc, reg, broker := newService(types.DriverService)
	reg.driverOnline = false

	ev := models.WSEvent{
		Audience: types.AudienceDriver,
		DriverID: 7,
		Message:  models.NewWebSocketMessage(types.EventOrderStatusUpdate, nil),
		Title:    "Статус заказа изменён",
		Body:     "Заказ ORD-1: cancelled",
		OrderID:  1,
	}
	require.NoError(t, svc.HandleBridgeEvent(context.Background(), ev))

	require.Len(t, broker.pushes, 1)
	assert.Equal(t, int64(7), broker.pushes[0].DriverID)
	assert.Equal(t, "fcm-token", broker.pushes[0].FCMToken)
	require.NotNil(t, broker.pushes[0].OrderID)
	assert.Equal(t, int64(1), *broker.pushes[0].OrderID)
}

func TestHandleBridgeEvent_DriverOnline_NoPush(t *testing.T) {
	svc, reg, broker := newService(types.DriverService)
	reg.driverOnline = true

	ev := models.WSEvent{
		Audience: types.AudienceDriver,
		DriverID: 7,
		Message:  models.NewWebSocketMessage(types.EventOrderStatusUpdate, nil),
	}
	require.NoError(t, svc.HandleBridgeEvent(context.Background(), ev))

	assert.Len(t, reg.driverMsgs, 1)
	assert.Empty(t, broker.pushes)
}

func TestHandleBridgeEvent_DispatcherAudience(t *testing.T) {
	svc, reg, _ := newService(types.DispatcherService)

	ev := models.WSEvent{
		Audience:   types.AudienceDispatchers,
		TaxiparkID: 3,
		Message:    models.NewWebSocketMessage(types.EventNewOrder, nil),
	}
	require.NoError(t, svc.HandleBridgeEvent(context.Background(), ev))
	assert.Len(t, reg.dispatcherMsgs, 1)
}
