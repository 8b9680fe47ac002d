package match

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

func TestHaversineDistance(t *testing.T) {
	// Бишкек (Ала-Тоо) и Ош, примерно 300 км по прямой.
	dist := HaversineDistance(42.8746, 74.5698, 40.5283, 72.7985)
	assert.InDelta(t, 300, dist, 15)
}

func TestHaversineDistance_SamePoint(t *testing.T) {
	dist := HaversineDistance(42.8746, 74.5698, 42.8746, 74.5698)
	assert.True(t, math.Abs(dist) < 1e-9)
}

type fakeDriverRepo struct {
	drivers []*models.Driver
}

func (f *fakeDriverRepo) ListOnlineByPark(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Driver, error) {
	return f.drivers, nil
}

type fakeOrderRepo struct {
	busy map[int64]bool
	err  error
}

func (f *fakeOrderRepo) ActiveByDriver(ctx context.Context, driverID int64) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.busy[driverID] {
		return &models.Order{DriverID: &driverID}, nil
	}
	return nil, types.ErrOrderNotFound
}

func ptr(v float64) *float64 { return &v }

func testDriver(id int64, lat, lon float64) *models.Driver {
	return &models.Driver{
		ID:               id,
		IsActive:         true,
		OnlineStatus:     types.StatusOnline,
		CurrentLatitude:  ptr(lat),
		CurrentLongitude: ptr(lon),
	}
}

func TestMatcher_FindNearest(t *testing.T) {
	pickup := models.Location{Latitude: 42.8746, Longitude: 74.5698}

	repo := &fakeDriverRepo{drivers: []*models.Driver{
		testDriver(1, 42.88, 74.60),  // ~2.5 км
		testDriver(2, 42.8750, 74.5700), // ~50 м
		testDriver(3, 42.95, 74.70),  // дальше
	}}

	m := NewMatcher(repo, &fakeOrderRepo{}, logger.InitLogger("test", logger.LevelDebug))

	best, err := m.FindNearest(context.Background(), 1, "", pickup)
	require.NoError(t, err)
	assert.Equal(t, int64(2), best.Driver.ID)
	assert.Less(t, best.DistanceKm, 1.0)
}

func TestMatcher_FindNearest_SkipsBusy(t *testing.T) {
	pickup := models.Location{Latitude: 42.8746, Longitude: 74.5698}

	repo := &fakeDriverRepo{drivers: []*models.Driver{
		testDriver(1, 42.8750, 74.5700),
		testDriver(2, 42.88, 74.60),
	}}

	m := NewMatcher(repo, &fakeOrderRepo{busy: map[int64]bool{1: true}}, logger.InitLogger("test", logger.LevelDebug))

	best, err := m.FindNearest(context.Background(), 1, "", pickup)
	require.NoError(t, err)
	assert.Equal(t, int64(2), best.Driver.ID)
}

func TestMatcher_FindNearest_OrderRepoErrorPropagates(t *testing.T) {
	pickup := models.Location{Latitude: 42.8746, Longitude: 74.5698}

	repo := &fakeDriverRepo{drivers: []*models.Driver{
		testDriver(1, 42.8750, 74.5700),
	}}
	storageDown := errors.New("connection refused")

	m := NewMatcher(repo, &fakeOrderRepo{err: storageDown}, logger.InitLogger("test", logger.LevelDebug))

	// Сбой хранилища не делает водителя «свободным».
	_, err := m.FindNearest(context.Background(), 1, "", pickup)
	require.Error(t, err)
	assert.ErrorIs(t, err, storageDown)
	assert.NotErrorIs(t, err, types.ErrNoDriverAvailable)
}

func TestMatcher_FindNearest_OutsideRadius(t *testing.T) {
	pickup := models.Location{Latitude: 42.8746, Longitude: 74.5698}

	// Ош, за пределами 30 км.
	repo := &fakeDriverRepo{drivers: []*models.Driver{
		testDriver(1, 40.5283, 72.7985),
	}}

	m := NewMatcher(repo, &fakeOrderRepo{}, logger.InitLogger("test", logger.LevelDebug))

	_, err := m.FindNearest(context.Background(), 1, "", pickup)
	assert.ErrorIs(t, err, types.ErrNoDriverAvailable)
}

func TestMatcher_FindNearest_NoLocation(t *testing.T) {
	pickup := models.Location{Latitude: 42.8746, Longitude: 74.5698}

	repo := &fakeDriverRepo{drivers: []*models.Driver{
		{ID: 1, OnlineStatus: types.StatusOnline}, // координат нет
	}}

	m := NewMatcher(repo, &fakeOrderRepo{}, logger.InitLogger("test", logger.LevelDebug))

	_, err := m.FindNearest(context.Background(), 1, "", pickup)
	assert.ErrorIs(t, err, types.ErrNoDriverAvailable)
}

func TestMatcher_RankByDistance(t *testing.T) {
	pickup := models.Location{Latitude: 42.8746, Longitude: 74.5698}

	repo := &fakeDriverRepo{drivers: []*models.Driver{
		testDriver(1, 42.95, 74.70),
		testDriver(2, 42.8750, 74.5700),
		testDriver(3, 42.88, 74.60),
	}}

	m := NewMatcher(repo, &fakeOrderRepo{}, logger.InitLogger("test", logger.LevelDebug))

	ranked, err := m.RankByDistance(context.Background(), 1, "", pickup)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, int64(2), ranked[0].Driver.ID)
	assert.Equal(t, int64(3), ranked[1].Driver.ID)
	assert.Equal(t, int64(1), ranked[2].Driver.ID)
}
