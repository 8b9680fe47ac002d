package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/phone"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/metrics"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/trm"
)

const metricsService = "order"

// Service реализует жизненный цикл заказа: создание с подбором водителя,
// захват заказа водителем со списанием комиссии и охраняемые переходы
// статусов. Рассылка событий best-effort и никогда не отменяет переход.
type Service struct {
	repo     OrderRepo
	drivers  DriverRepo
	ledger   Ledger
	matcher  Matcher
	notifier Notifier
	trm      trm.TxManager

	log logger.Logger
}

func NewService(
	repo OrderRepo,
	drivers DriverRepo,
	ledger Ledger,
	matcher Matcher,
	notifier Notifier,
	txManager trm.TxManager,
	log logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		drivers:  drivers,
		ledger:   ledger,
		matcher:  matcher,
		notifier: notifier,
		trm:      txManager,
		log:      log,
	}
}

// nextStatus - единственный допустимый шаг вперёд по цепочке статусов.
var nextStatus = map[types.OrderStatus]types.OrderStatus{
	types.OrderReceived:      types.OrderAccepted,
	types.OrderAccepted:      types.OrderNavigatingToA,
	types.OrderNavigatingToA: types.OrderArrivedAtA,
	types.OrderArrivedAtA:    types.OrderNavigatingToB,
	types.OrderNavigatingToB: types.OrderCompleted,
}

func validateStatus(to types.OrderStatus, allowed []types.OrderStatus) error {
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %q, allowed: %v", types.ErrInvalidOrderStatus, to, allowed)
}

func isOpen(status types.OrderStatus) bool {
	for _, s := range types.OpenOrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Create регистрирует новый заказ в статусе received. Диспетчер может
// назначить водителя явно, заполнив DriverID; иначе при запросе
// автоподбора заказ получает ближайшего свободного водителя парка.
// Отсутствие кандидатов не ошибка, заказ остаётся в общем пуле.
func (s *Service) Create(ctx context.Context, order *models.Order, autoMatch bool) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "create_order")

	if order.ClientPhone != "" {
		normalized, err := phone.Normalize(order.ClientPhone)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		order.ClientPhone = normalized
	}

	order.Status = types.OrderReceived

	if order.DriverID != nil {
		driver, err := s.drivers.GetByID(ctx, *order.DriverID)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		if !driver.IsActive {
			return nil, wrap.Error(ctx, types.ErrDriverInactive)
		}
	} else if autoMatch {
		if pickup, ok := order.Pickup(); ok {
			match, err := s.matcher.FindNearest(ctx, order.TaxiparkID, order.Tariff, pickup)
			switch {
			case err == nil:
				order.DriverID = &match.Driver.ID
			case errors.Is(err, types.ErrNoDriverAvailable):
				s.log.Info(ctx, "no driver matched, order stays in pool", "taxipark_id", order.TaxiparkID)
			default:
				return nil, wrap.Error(ctx, err)
			}
		}
	}

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		number, err := s.generateOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("could not generate order number: %w", err)
		}
		order.OrderNumber = number

		return s.repo.Create(ctx, order)
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"driver_id", order.DriverID,
	)

	s.notifier.NewOrder(ctx, order)
	return order, nil
}

// Accept закрепляет заказ за водителем и списывает комиссию одной
// транзакцией. Проигравший гонку получает ErrOrderStatusConflict, нехватка
// баланса откатывает захват целиком.
func (s *Service) Accept(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "accept_order")

	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !driver.IsActive {
		return nil, wrap.Error(ctx, types.ErrDriverInactive)
	}

	var accepted *models.Order
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		o, err := s.repo.Claim(ctx, orderID, driverID)
		if err != nil {
			return err
		}

		if _, err := s.ledger.ChargeCommission(ctx, driverID, o); err != nil {
			// Заказ, возвращённый диспетчером в пул, уже оплачен при первом
			// принятии: повторную комиссию не берём.
			if !errors.Is(err, types.ErrCommissionAlreadyCharged) {
				return err
			}
		}

		accepted = o
		return nil
	})
	if err != nil {
		if _, ok := types.IsInsufficientBalance(err); ok {
			return nil, err
		}
		return nil, wrap.Error(ctx, err)
	}

	metrics.ActiveOrdersGauge.WithLabelValues(metricsService).Inc()
	s.log.Info(ctx, "order accepted", "order_id", orderID, "driver_id", driverID)

	s.notifier.StatusChanged(ctx, models.StatusChange{
		Order:     accepted,
		OldStatus: types.OrderReceived,
		NewStatus: types.OrderAccepted,
		ChangedAt: time.Now().UTC(),
	})

	return accepted, nil
}

// TransitionByDriver выполняет смену статуса от имени водителя. Вперёд
// только на следующий статус цепочки, отмена и отказ из любого
// нетерминального. Отказ от ещё не принятого заказа возвращает его в пул.
func (s *Service) TransitionByDriver(ctx context.Context, orderID, driverID int64, to types.OrderStatus) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "driver_order_transition")

	if err := validateStatus(to, types.DriverTransitionStatuses); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if to == types.OrderAccepted {
		return s.Accept(ctx, orderID, driverID)
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if current.DriverID == nil || *current.DriverID != driverID {
		return nil, wrap.Error(ctx, types.ErrOrderDriverMismatch)
	}

	updated, err := s.transition(ctx, current, to, driverID)
	if err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, updated, current.Status, false)
	return updated, nil
}

// TransitionByDispatcher выполняет смену статуса из диспетчерской.
// received возвращает назначенный заказ в пул, снимая водителя.
func (s *Service) TransitionByDispatcher(ctx context.Context, orderID int64, to types.OrderStatus) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "dispatcher_order_transition")

	if err := validateStatus(to, types.DispatcherTransitionStatuses); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if to == types.OrderAccepted {
		if current.DriverID == nil {
			return nil, wrap.Error(ctx, types.ErrOrderDriverMismatch)
		}
		return s.Accept(ctx, orderID, *current.DriverID)
	}

	if to == types.OrderReceived {
		if current.DriverID == nil || current.Status == types.OrderReceived {
			return nil, wrap.Error(ctx, types.ErrOrderStatusConflict)
		}
		updated, err := s.repo.Release(ctx, orderID, *current.DriverID)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		if isOpen(current.Status) {
			metrics.ActiveOrdersGauge.WithLabelValues(metricsService).Dec()
		}
		s.log.Info(ctx, "order returned to pool", "order_id", orderID)
		s.notifyTransition(ctx, updated, current.Status, true)
		return updated, nil
	}

	updated, err := s.transition(ctx, current, to, 0)
	if err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, updated, current.Status, true)
	return updated, nil
}

// transition применяет один охраняемый переход к уже загруженному заказу.
// driverID нужен только для возврата непринятого заказа в пул при отказе.
func (s *Service) transition(ctx context.Context, current *models.Order, to types.OrderStatus, driverID int64) (*models.Order, error) {
	if current.Status.IsTerminal() {
		return nil, wrap.Error(ctx, types.ErrOrderStatusConflict)
	}

	switch to {
	case types.OrderCancelled:
		// из любого нетерминального
	case types.OrderRejectedByDriver:
		if current.Status == types.OrderReceived {
			// Заказ предложен, но не принят: водитель снимается,
			// заказ остаётся доступным остальным.
			updated, err := s.repo.Release(ctx, current.ID, driverID)
			if err != nil {
				return nil, wrap.Error(ctx, err)
			}
			s.log.Info(ctx, "order offer rejected", "order_id", current.ID, "driver_id", driverID)
			return updated, nil
		}
	default:
		if nextStatus[current.Status] != to {
			return nil, wrap.Error(ctx, fmt.Errorf(
				"%w: %q after %q", types.ErrInvalidOrderStatus, to, current.Status))
		}
	}

	updated, err := s.repo.UpdateStatusFrom(ctx, current.ID, current.Status, to)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if to.IsTerminal() {
		metrics.OrdersTotal.WithLabelValues(metricsService, to.String()).Inc()
		if isOpen(current.Status) {
			metrics.ActiveOrdersGauge.WithLabelValues(metricsService).Dec()
		}
	}

	s.log.Info(ctx, "order status updated",
		"order_id", current.ID,
		"from", current.Status,
		"to", to,
	)
	return updated, nil
}

func (s *Service) notifyTransition(ctx context.Context, order *models.Order, from types.OrderStatus, notifyDriver bool) {
	// После возврата в пул у заказа уже нет водителя, событие получают
	// только клиент и диспетчеры.
	s.notifier.StatusChanged(ctx, models.StatusChange{
		Order:        order,
		OldStatus:    from,
		NewStatus:    order.Status,
		ChangedAt:    time.Now().UTC(),
		NotifyDriver: notifyDriver,
	})
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "get_order")

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return o, nil
}

// GetForDriver возвращает заказ, если он назначен водителю.
func (s *Service) GetForDriver(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "get_driver_order")

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if o.DriverID == nil || *o.DriverID != driverID {
		return nil, wrap.Error(ctx, types.ErrOrderDriverMismatch)
	}
	return o, nil
}

// UpdateDetails правит детали заказа из диспетчерской. Разрешено только
// пока заказ не принят водителем.
func (s *Service) UpdateDetails(ctx context.Context, order *models.Order) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "update_order")

	current, err := s.repo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if current.Status != types.OrderReceived {
		return nil, wrap.Error(ctx, types.ErrOrderStatusConflict)
	}

	if order.ClientPhone != "" {
		normalized, err := phone.Normalize(order.ClientPhone)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		order.ClientPhone = normalized
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	updated, err := s.repo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "order updated", "order_id", order.ID)
	return updated, nil
}

// ListByPark возвращает заказы парка c фильтром по статусам.
func (s *Service) ListByPark(ctx context.Context, taxiparkID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_park_orders")

	list, meta, err := s.repo.List(ctx, taxiparkID, statuses, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return list, meta, nil
}

// ListByDriver возвращает историю заказов водителя.
func (s *Service) ListByDriver(ctx context.Context, driverID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_driver_orders")

	list, meta, err := s.repo.ListByDriver(ctx, driverID, statuses, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return list, meta, nil
}

// ListByClientPhone возвращает историю заказов клиента.
func (s *Service) ListByClientPhone(ctx context.Context, clientPhone string, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_client_orders")

	normalized, err := phone.Normalize(clientPhone)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}

	list, meta, err := s.repo.ListByClientPhone(ctx, normalized, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return list, meta, nil
}

// ListAvailable возвращает свободные заказы парка для ленты водителя.
func (s *Service) ListAvailable(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Order, error) {
	ctx = wrap.WithAction(ctx, "list_available_orders")

	list, err := s.repo.ListAvailable(ctx, taxiparkID, tariff)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return list, nil
}

// Active возвращает текущий открытый заказ водителя, если есть.
func (s *Service) Active(ctx context.Context, driverID int64) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "active_driver_order")

	o, err := s.repo.ActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return o, nil
}
