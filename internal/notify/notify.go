package notify

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

// Service рассылает события заказа трём аудиториям: водителю, клиенту и
// диспетчерам парка. Доставка best-effort: ошибка пишется в лог и никогда
// не роняет вызвавшую операцию.
//
// Сокеты каждой аудитории живут только в одном сервисе: водительские и
// клиентские в driver-service, диспетчерские в dispatcher-service. Событие
// для чужой аудитории уходит в очередь, его доставляет сервис-хозяин
// (HandleBridgeEvent). Водителю без живого сокета событие уходит пушем.
type Service struct {
	registry Registry
	broker   Broker
	drivers  DriverRepo
	mode     types.ServiceMode
	log      logger.Logger
}

func NewService(registry Registry, broker Broker, drivers DriverRepo, mode types.ServiceMode, log logger.Logger) *Service {
	return &Service{
		registry: registry,
		broker:   broker,
		drivers:  drivers,
		mode:     mode,
		log:      log,
	}
}

// OrderEvent - полезная нагрузка событий заказа.
type OrderEvent struct {
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      types.OrderStatus `json:"status"`
	DriverID    *int64            `json:"driver_id,omitempty"`
	ClientName  string            `json:"client_name,omitempty"`

	PickupAddress      string  `json:"pickup_address,omitempty"`
	DestinationAddress string  `json:"destination_address,omitempty"`
	Price              float64 `json:"price"`
	Tariff             string  `json:"tariff,omitempty"`
	Notes              string  `json:"notes,omitempty"`
}

func newOrderEvent(order *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:            order.ID,
		OrderNumber:        order.OrderNumber,
		Status:             order.Status,
		DriverID:           order.DriverID,
		ClientName:         order.ClientName,
		PickupAddress:      order.PickupAddress,
		DestinationAddress: order.DestinationAddress,
		Price:              order.Price,
		Tariff:             order.Tariff,
		Notes:              order.Notes,
	}
}

// eventForStatus подбирает типизированное событие для клиента.
func eventForStatus(status types.OrderStatus) types.EventType {
	switch status {
	case types.OrderAccepted:
		return types.EventOrderAccepted
	case types.OrderArrivedAtA:
		return types.EventDriverArrived
	case types.OrderCompleted:
		return types.EventOrderCompleted
	case types.OrderRejectedByDriver:
		return types.EventOrderRejected
	default:
		return types.EventOrderStatusUpdate
	}
}

// NewOrder сообщает о новом заказе: назначенному водителю лично (с пуш
// фолбэком), иначе всем водителям парка, и всегда диспетчерам.
func (s *Service) NewOrder(ctx context.Context, order *models.Order) {
	ctx = wrap.WithAction(ctx, "notify_new_order")

	payload := newOrderEvent(order)
	msg := models.NewWebSocketMessage(types.EventNewOrder, payload)

	if order.DriverID != nil {
		s.toDriver(ctx, *order.DriverID, msg,
			"Новый заказ",
			fmt.Sprintf("%s → %s, %.0f сом", order.PickupAddress, order.DestinationAddress, order.Price),
			order.ID,
		)
	} else {
		s.toParkDrivers(ctx, order.TaxiparkID, msg)
	}

	s.toDispatchers(ctx, order.TaxiparkID, msg)
}

// StatusChanged рассылает смену статуса заказа. Клиент получает
// типизированное событие, диспетчеры общий order_status_update.
func (s *Service) StatusChanged(ctx context.Context, change models.StatusChange) {
	ctx = wrap.WithAction(ctx, "notify_status_change")

	order := change.Order
	payload := newOrderEvent(order)

	if order.ClientPhone != "" {
		clientMsg := models.NewWebSocketMessage(eventForStatus(change.NewStatus), payload)
		s.toClient(ctx, order.ClientPhone, clientMsg)
	}

	dispatcherMsg := models.NewWebSocketMessage(types.EventOrderStatusUpdate, payload)
	s.toDispatchers(ctx, order.TaxiparkID, dispatcherMsg)

	// Снятому с заказа или назначенному водителю событие тоже нужно,
	// если смену инициировал не он сам.
	if change.NotifyDriver && order.DriverID != nil {
		driverMsg := models.NewWebSocketMessage(types.EventOrderStatusUpdate, payload)
		s.toDriver(ctx, *order.DriverID, driverMsg,
			"Статус заказа изменён",
			fmt.Sprintf("Заказ %s: %s", order.OrderNumber, change.NewStatus),
			order.ID,
		)
	}
}

// BalanceToppedUp сообщает водителю о пополнении баланса.
func (s *Service) BalanceToppedUp(ctx context.Context, driverID int64, amount, balance float64) {
	ctx = wrap.WithAction(ctx, "notify_topup")

	msg := models.NewWebSocketMessage(types.EventBalanceToppedUp, map[string]any{
		"amount":  amount,
		"balance": balance,
	})
	s.toDriver(ctx, driverID, msg,
		"Баланс пополнен",
		fmt.Sprintf("Зачислено %.2f сом, баланс %.2f сом", amount, balance),
		0,
	)
}

// VerificationDecision сообщает водителю решение по фотоконтролю.
func (s *Service) VerificationDecision(ctx context.Context, driverID int64, status types.VerificationStatus, reason string) {
	ctx = wrap.WithAction(ctx, "notify_verification")

	body := "Фотоконтроль пройден"
	if status == types.VerificationRejected {
		body = "Фотоконтроль отклонён: " + reason
	}

	msg := models.NewWebSocketMessage(types.EventVerificationDecision, map[string]any{
		"status": status,
		"reason": reason,
	})
	s.toDriver(ctx, driverID, msg, "Фотоконтроль", body, 0)
}

// HandleBridgeEvent доставляет событие из очереди в локальные сокеты.
// Вызывается потребителем сервиса, который хозяин аудитории события.
func (s *Service) HandleBridgeEvent(ctx context.Context, ev models.WSEvent) error {
	ctx = wrap.WithAction(ctx, "deliver_bridged_ws_event")

	switch ev.Audience {
	case types.AudienceDriver:
		delivered, err := s.registry.SendToDriver(ctx, ev.DriverID, ev.Message)
		if err != nil {
			return err
		}
		if !delivered {
			s.pushToDriver(ctx, ev.DriverID, ev.Message.Type, ev.Title, ev.Body, ev.OrderID)
		}
		return nil

	case types.AudienceClient:
		_, err := s.registry.SendToClient(ctx, ev.ClientPhone, ev.Message)
		return err

	case types.AudienceParkDrivers:
		return s.registry.BroadcastToParkDrivers(ctx, ev.TaxiparkID, ev.Message)

	case types.AudienceDispatchers:
		return s.registry.BroadcastToDispatchers(ctx, ev.TaxiparkID, ev.Message)

	default:
		return fmt.Errorf("unknown ws audience: %q", ev.Audience)
	}
}

// toDriver шлёт событие водителю. Вне driver-service уходит в очередь,
// внутри пробует сокет и при офлайне публикует пуш.
func (s *Service) toDriver(ctx context.Context, driverID int64, msg models.WebSocketMessage, title, body string, orderID int64) {
	if s.mode != types.DriverService {
		s.bridge(ctx, models.WSEvent{
			Audience: types.AudienceDriver,
			DriverID: driverID,
			Message:  msg,
			Title:    title,
			Body:     body,
			OrderID:  orderID,
		})
		return
	}

	delivered, err := s.registry.SendToDriver(ctx, driverID, msg)
	if err != nil {
		s.log.Warn(ctx, "driver socket send failed", "driver_id", driverID, "error", err)
	}
	if delivered {
		return
	}

	s.pushToDriver(ctx, driverID, msg.Type, title, body, orderID)
}

func (s *Service) toClient(ctx context.Context, phone string, msg models.WebSocketMessage) {
	if s.mode != types.DriverService {
		s.bridge(ctx, models.WSEvent{
			Audience:    types.AudienceClient,
			ClientPhone: phone,
			Message:     msg,
		})
		return
	}

	if _, err := s.registry.SendToClient(ctx, phone, msg); err != nil {
		s.log.Warn(ctx, "client notify failed", "error", err)
	}
}

func (s *Service) toParkDrivers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) {
	if s.mode != types.DriverService {
		s.bridge(ctx, models.WSEvent{
			Audience:   types.AudienceParkDrivers,
			TaxiparkID: taxiparkID,
			Message:    msg,
		})
		return
	}

	if err := s.registry.BroadcastToParkDrivers(ctx, taxiparkID, msg); err != nil {
		s.log.Warn(ctx, "park drivers broadcast failed", "taxipark_id", taxiparkID, "error", err)
	}
}

func (s *Service) toDispatchers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) {
	if s.mode != types.DispatcherService {
		s.bridge(ctx, models.WSEvent{
			Audience:   types.AudienceDispatchers,
			TaxiparkID: taxiparkID,
			Message:    msg,
		})
		return
	}

	if err := s.registry.BroadcastToDispatchers(ctx, taxiparkID, msg); err != nil {
		s.log.Warn(ctx, "dispatcher broadcast failed", "taxipark_id", taxiparkID, "error", err)
	}
}

func (s *Service) bridge(ctx context.Context, ev models.WSEvent) {
	if err := s.broker.PublishWSEvent(ctx, ev); err != nil {
		s.log.Warn(ctx, "ws event publish failed", "audience", ev.Audience, "error", err)
	}
}

// pushToDriver публикует пуш для водителя без живого сокета.
func (s *Service) pushToDriver(ctx context.Context, driverID int64, event types.EventType, title, body string, orderID int64) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		s.log.Warn(ctx, "driver lookup for push failed", "driver_id", driverID, "error", err)
		return
	}
	if driver.FCMToken == "" {
		s.log.Debug(ctx, "driver offline without fcm token", "driver_id", driverID)
		return
	}

	push := models.PushMessage{
		DriverID: driverID,
		FCMToken: driver.FCMToken,
		Event:    event,
		Title:    title,
		Body:     body,
	}
	if orderID != 0 {
		push.OrderID = &orderID
	}

	if err := s.broker.PublishDriverPush(ctx, push); err != nil {
		s.log.Warn(ctx, "push publish failed", "driver_id", driverID, "error", err)
	}
}
