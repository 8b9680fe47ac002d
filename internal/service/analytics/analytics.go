package analytics

import (
	"context"
	"math"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

// defaultOverviewDays - глубина разбивки заказов по дням.
const defaultOverviewDays = 30

type TaxiparkRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Taxipark, error)
	Counters(ctx context.Context, taxiparkID int64) (*models.TaxiparkCounters, error)
}

type OrderRepo interface {
	CountByStatusForPark(ctx context.Context, taxiparkID int64) (map[types.OrderStatus]int64, error)
	CountByDayForPark(ctx context.Context, taxiparkID int64, since time.Time) ([]models.DailyOrderCount, error)
}

type DriverRepo interface {
	CountOnlineByPark(ctx context.Context, taxiparkID int64) (int64, error)
}

type TransactionRepo interface {
	SumByTypeAndPark(ctx context.Context, taxiparkID int64, txType types.TransactionType) (float64, error)
}

// Service собирает сводку парка для кабинета суперадмина. Все цифры
// считаются запросами на момент обращения, ничего не кешируется.
type Service struct {
	parks        TaxiparkRepo
	orders       OrderRepo
	drivers      DriverRepo
	transactions TransactionRepo

	log logger.Logger
}

func NewService(
	parks TaxiparkRepo,
	orders OrderRepo,
	drivers DriverRepo,
	transactions TransactionRepo,
	log logger.Logger,
) *Service {
	return &Service{
		parks:        parks,
		orders:       orders,
		drivers:      drivers,
		transactions: transactions,
		log:          log,
	}
}

// ParkOverview строит сводку по одному парку.
func (s *Service) ParkOverview(ctx context.Context, taxiparkID int64) (*models.ParkOverview, error) {
	ctx = wrap.WithAction(ctx, "park_overview")

	park, err := s.parks.GetByID(ctx, taxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	counters, err := s.parks.Counters(ctx, taxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	online, err := s.drivers.CountOnlineByPark(ctx, taxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	byStatus, err := s.orders.CountByStatusForPark(ctx, taxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	since := time.Now().AddDate(0, 0, -defaultOverviewDays)
	byDay, err := s.orders.CountByDayForPark(ctx, taxiparkID, since)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	commission, err := s.transactions.SumByTypeAndPark(ctx, taxiparkID, types.TransactionCommission)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	topup, err := s.transactions.SumByTypeAndPark(ctx, taxiparkID, types.TransactionTopup)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return &models.ParkOverview{
		TaxiparkID:       park.ID,
		Name:             park.Name,
		DriverCount:      counters.DriverCount,
		OnlineDrivers:    online,
		ClientCount:      counters.ClientCount,
		ActiveOrderCount: counters.ActiveOrderCount,
		OrdersByStatus:   byStatus,
		OrdersByDay:      byDay,
		// Комиссии хранятся отрицательными, доход показываем по модулю.
		CommissionTotal: math.Abs(commission),
		TopupTotal:      topup,
	}, nil
}
