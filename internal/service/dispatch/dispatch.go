package dispatch

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

type Orders interface {
	Create(ctx context.Context, order *models.Order, autoMatch bool) (*models.Order, error)
}

type Ledger interface {
	TopUp(ctx context.Context, driverID int64, amount float64, description string) (float64, error)
}

type Drivers interface {
	SetActive(ctx context.Context, driverID int64, isActive bool) (*models.Driver, error)
}

type Notifier interface {
	BalanceToppedUp(ctx context.Context, driverID int64, amount, balance float64)
}

type Geocoder interface {
	Resolve(ctx context.Context, address string) (lat, lon float64, err error)
}

// Service - операции диспетчерской, которым нужна оркестровка поверх
// доменных сервисов: пополнение с уведомлением водителя, блокировка,
// создание заказа с явным или автоматическим назначением.
type Service struct {
	orders   Orders
	ledger   Ledger
	drivers  Drivers
	notifier Notifier
	geocoder Geocoder // nil, если геокодирование выключено

	log logger.Logger
}

func NewService(orders Orders, ledger Ledger, drivers Drivers, notifier Notifier, geocoder Geocoder, log logger.Logger) *Service {
	return &Service{
		orders:   orders,
		ledger:   ledger,
		drivers:  drivers,
		notifier: notifier,
		geocoder: geocoder,
		log:      log,
	}
}

// CreateOrder создаёт заказ от диспетчера. Явно выбранный водитель имеет
// приоритет над автоподбором. Заказ без точки подачи перед автоподбором
// прогоняется через геокодер, неудача не блокирует создание.
func (s *Service) CreateOrder(ctx context.Context, order *models.Order, driverID *int64, autoMatch bool) (*models.Order, error) {
	ctx = wrap.WithAction(ctx, "dispatch_create_order")

	order.DriverID = driverID

	if autoMatch && order.PickupLatitude == nil && s.geocoder != nil {
		lat, lon, err := s.geocoder.Resolve(ctx, order.PickupAddress)
		if err != nil {
			s.log.Warn(ctx, "pickup address geocoding failed", "address", order.PickupAddress, "error", err.Error())
		} else {
			order.PickupLatitude = &lat
			order.PickupLongitude = &lon
		}
	}

	return s.orders.Create(ctx, order, autoMatch)
}

// TopUpDriver пополняет баланс и уведомляет водителя о зачислении.
func (s *Service) TopUpDriver(ctx context.Context, driverID int64, amount float64, description string) (float64, error) {
	ctx = wrap.WithAction(ctx, "dispatch_topup_driver")

	balance, err := s.ledger.TopUp(ctx, driverID, amount, description)
	if err != nil {
		return 0, err
	}

	s.notifier.BalanceToppedUp(ctx, driverID, amount, balance)
	return balance, nil
}

// SetDriverActive блокирует или разблокирует водителя.
func (s *Service) SetDriverActive(ctx context.Context, driverID int64, isActive bool) (*models.Driver, error) {
	ctx = wrap.WithAction(ctx, "dispatch_set_driver_active")

	driver, err := s.drivers.SetActive(ctx, driverID, isActive)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "driver active flag set", "driver_id", driverID, "is_active", isActive)
	return driver, nil
}
