// Package match подбирает ближайшего свободного водителя для заказа.
package match

import (
	"context"
	"errors"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

// DefaultSearchRadiusKm - радиус поиска водителя вокруг точки подачи.
const DefaultSearchRadiusKm = 30.0

type DriverRepo interface {
	ListOnlineByPark(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Driver, error)
}

type OrderRepo interface {
	ActiveByDriver(ctx context.Context, driverID int64) (*models.Order, error)
}

type Matcher struct {
	driverRepo DriverRepo
	orderRepo  OrderRepo
	radiusKm   float64
	log        logger.Logger
}

func NewMatcher(driverRepo DriverRepo, orderRepo OrderRepo, log logger.Logger) *Matcher {
	return &Matcher{
		driverRepo: driverRepo,
		orderRepo:  orderRepo,
		radiusKm:   DefaultSearchRadiusKm,
		log:        log,
	}
}

// FindNearest возвращает ближайшего свободного водителя парка к точке
// подачи. При равных дистанциях побеждает водитель, раньше вышедший на
// линию (порядок выдачи репозитория сохраняется).
func (m *Matcher) FindNearest(ctx context.Context, taxiparkID int64, tariff string, pickup models.Location) (*models.DriverWithDistance, error) {
	ctx = wrap.WithAction(ctx, "match_driver")

	drivers, err := m.driverRepo.ListOnlineByPark(ctx, taxiparkID, tariff)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	var best *models.DriverWithDistance
	for _, d := range drivers {
		if !d.HasLocation() {
			continue
		}

		dist := HaversineDistance(pickup.Latitude, pickup.Longitude, *d.CurrentLatitude, *d.CurrentLongitude)
		if dist > m.radiusKm {
			continue
		}

		// Водитель с открытым заказом не рассматривается. Свободен он
		// только при явном ErrOrderNotFound, ошибка хранилища не в счёт.
		if m.orderRepo != nil {
			_, err := m.orderRepo.ActiveByDriver(ctx, d.ID)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, types.ErrOrderNotFound):
				return nil, wrap.Error(ctx, err)
			}
		}

		if best == nil || dist < best.DistanceKm {
			best = &models.DriverWithDistance{Driver: d, DistanceKm: dist}
		}
	}

	if best == nil {
		return nil, types.ErrNoDriverAvailable
	}

	return best, nil
}

// RankByDistance сортирует водителей парка по удалению от точки подачи,
// отбрасывая тех, кто вне радиуса или без координат.
func (m *Matcher) RankByDistance(ctx context.Context, taxiparkID int64, tariff string, pickup models.Location) ([]models.DriverWithDistance, error) {
	ctx = wrap.WithAction(ctx, "rank_drivers")

	drivers, err := m.driverRepo.ListOnlineByPark(ctx, taxiparkID, tariff)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ranked := make([]models.DriverWithDistance, 0, len(drivers))
	for _, d := range drivers {
		if !d.HasLocation() {
			continue
		}
		dist := HaversineDistance(pickup.Latitude, pickup.Longitude, *d.CurrentLatitude, *d.CurrentLongitude)
		if dist > m.radiusKm {
			continue
		}
		ranked = append(ranked, models.DriverWithDistance{Driver: d, DistanceKm: dist})
	}

	// Вставками: список короткий, порядок при равной дистанции сохраняется.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].DistanceKm < ranked[j-1].DistanceKm; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	return ranked, nil
}
