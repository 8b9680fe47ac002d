package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

type fakeOrders struct {
	last      *models.Order
	autoMatch bool
}

func (f *fakeOrders) Create(ctx context.Context, order *models.Order, autoMatch bool) (*models.Order, error) {
	f.last = order
	f.autoMatch = autoMatch
	order.ID = 1
	return order, nil
}

type fakeLedger struct {
	balance float64
	err     error
}

func (f *fakeLedger) TopUp(ctx context.Context, driverID int64, amount float64, description string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.balance += amount
	return f.balance, nil
}

type fakeDrivers struct{}

func (fakeDrivers) SetActive(ctx context.Context, driverID int64, isActive bool) (*models.Driver, error) {
	return &models.Driver{ID: driverID, IsActive: isActive}, nil
}

type fakeNotifier struct {
	toppedUp []int64
}

func (f *fakeNotifier) BalanceToppedUp(ctx context.Context, driverID int64, amount, balance float64) {
	f.toppedUp = append(f.toppedUp, driverID)
}

type fakeGeocoder struct {
	lat, lon float64
	err      error
	calls    int
}

func (f *fakeGeocoder) Resolve(ctx context.Context, address string) (float64, float64, error) {
	f.calls++
	return f.lat, f.lon, f.err
}

func TestCreateOrder_GeocodesPickupForAutoMatch(t *testing.T) {
	orders := &fakeOrders{}
	geocoder := &fakeGeocoder{lat: 43.238949, lon: 76.889709}
	svc := NewService(orders, &fakeLedger{}, fakeDrivers{}, &fakeNotifier{}, geocoder,
		logger.InitLogger("test", logger.LevelDebug))

	order := &models.Order{PickupAddress: "Abay 10, Almaty", TaxiparkID: 1}
	created, err := svc.CreateOrder(context.Background(), order, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 1, geocoder.calls)
	require.NotNil(t, created.PickupLatitude)
	assert.InDelta(t, 43.238949, *created.PickupLatitude, 1e-9)
	assert.InDelta(t, 76.889709, *created.PickupLongitude, 1e-9)
	assert.True(t, orders.autoMatch)
}

func TestCreateOrder_GeocoderFailureDoesNotBlock(t *testing.T) {
	orders := &fakeOrders{}
	geocoder := &fakeGeocoder{err: errors.New("rate limited")}
	svc := NewService(orders, &fakeLedger{}, fakeDrivers{}, &fakeNotifier{}, geocoder,
		logger.InitLogger("test", logger.LevelDebug))

	order := &models.Order{PickupAddress: "Abay 10, Almaty", TaxiparkID: 1}
	created, err := svc.CreateOrder(context.Background(), order, nil, true)
	require.NoError(t, err)

	assert.Nil(t, created.PickupLatitude)
	assert.True(t, orders.autoMatch)
}

func TestCreateOrder_SkipsGeocodingWhenCoordinatesPresent(t *testing.T) {
	orders := &fakeOrders{}
	geocoder := &fakeGeocoder{lat: 1, lon: 2}
	svc := NewService(orders, &fakeLedger{}, fakeDrivers{}, &fakeNotifier{}, geocoder,
		logger.InitLogger("test", logger.LevelDebug))

	lat, lon := 43.0, 76.0
	order := &models.Order{PickupAddress: "x", PickupLatitude: &lat, PickupLongitude: &lon}
	_, err := svc.CreateOrder(context.Background(), order, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 0, geocoder.calls)
	assert.Equal(t, 43.0, *orders.last.PickupLatitude)
}

func TestCreateOrder_ExplicitDriverWins(t *testing.T) {
	orders := &fakeOrders{}
	svc := NewService(orders, &fakeLedger{}, fakeDrivers{}, &fakeNotifier{}, nil,
		logger.InitLogger("test", logger.LevelDebug))

	driverID := int64(42)
	_, err := svc.CreateOrder(context.Background(), &models.Order{PickupAddress: "x"}, &driverID, false)
	require.NoError(t, err)

	require.NotNil(t, orders.last.DriverID)
	assert.Equal(t, int64(42), *orders.last.DriverID)
	assert.False(t, orders.autoMatch)
}

func TestTopUpDriver_NotifiesDriver(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewService(&fakeOrders{}, &fakeLedger{balance: 100}, fakeDrivers{}, notifier, nil,
		logger.InitLogger("test", logger.LevelDebug))

	balance, err := svc.TopUpDriver(context.Background(), 7, 500, "manual top-up")
	require.NoError(t, err)

	assert.Equal(t, 600.0, balance)
	assert.Equal(t, []int64{7}, notifier.toppedUp)
}

func TestTopUpDriver_LedgerErrorPropagates(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewService(&fakeOrders{}, &fakeLedger{err: types.ErrInvalidAmount}, fakeDrivers{}, notifier, nil,
		logger.InitLogger("test", logger.LevelDebug))

	_, err := svc.TopUpDriver(context.Background(), 7, -1, "bad")
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	assert.Empty(t, notifier.toppedUp)
}
