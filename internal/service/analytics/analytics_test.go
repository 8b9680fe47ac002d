package analytics

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

type fakeParks struct{}

func (fakeParks) GetByID(ctx context.Context, id int64) (*models.Taxipark, error) {
	if id != 1 {
		return nil, types.ErrTaxiparkNotFound
	}
	return &models.Taxipark{ID: 1, Name: "Бишкек Такси", IsActive: true}, nil
}

func (fakeParks) Counters(ctx context.Context, taxiparkID int64) (*models.TaxiparkCounters, error) {
	return &models.TaxiparkCounters{DriverCount: 20, ClientCount: 150, ActiveOrderCount: 4}, nil
}

type fakeOrders struct{}

func (fakeOrders) CountByStatusForPark(ctx context.Context, taxiparkID int64) (map[types.OrderStatus]int64, error) {
	return map[types.OrderStatus]int64{
		types.OrderCompleted: 90,
		types.OrderCancelled: 10,
		types.OrderAccepted:  4,
	}, nil
}

func (fakeOrders) CountByDayForPark(ctx context.Context, taxiparkID int64, since time.Time) ([]models.DailyOrderCount, error) {
	return []models.DailyOrderCount{
		{Day: since.AddDate(0, 0, 1), Count: 12},
		{Day: since.AddDate(0, 0, 2), Count: 9},
	}, nil
}

type fakeDrivers struct{}

func (fakeDrivers) CountOnlineByPark(ctx context.Context, taxiparkID int64) (int64, error) {
	return 7, nil
}

type fakeTransactions struct{}

func (fakeTransactions) SumByTypeAndPark(ctx context.Context, taxiparkID int64, txType types.TransactionType) (float64, error) {
	switch txType {
	case types.TransactionCommission:
		return -4500, nil
	case types.TransactionTopup:
		return 12000, nil
	}
	return 0, nil
}

func TestParkOverview(t *testing.T) {
	svc := NewService(fakeParks{}, fakeOrders{}, fakeDrivers{}, fakeTransactions{},
		logger.InitLogger("test", logger.LevelDebug))

	overview, err := svc.ParkOverview(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Бишкек Такси", overview.Name)
	assert.Equal(t, int64(20), overview.DriverCount)
	assert.Equal(t, int64(7), overview.OnlineDrivers)
	assert.Equal(t, int64(4), overview.ActiveOrderCount)
	assert.Equal(t, int64(90), overview.OrdersByStatus[types.OrderCompleted])
	assert.Len(t, overview.OrdersByDay, 2)

	// Доход по модулю, комиссии в книге отрицательные.
	assert.InDelta(t, 4500.0, overview.CommissionTotal, 1e-9)
	assert.InDelta(t, 12000.0, overview.TopupTotal, 1e-9)
}

func TestParkOverview_UnknownPark(t *testing.T) {
	svc := NewService(fakeParks{}, fakeOrders{}, fakeDrivers{}, fakeTransactions{},
		logger.InitLogger("test", logger.LevelDebug))

	_, err := svc.ParkOverview(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrTaxiparkNotFound)
}
