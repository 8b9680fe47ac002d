package driver

import (
	"context"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/phone"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/metrics"
)

// staleAfter - порог, после которого молчащий водитель считается офлайн.
const staleAfter = 5 * time.Minute

type Service struct {
	repo     DriverRepo
	parkRepo TaxiparkRepo
	log      logger.Logger
}

func NewService(repo DriverRepo, parkRepo TaxiparkRepo, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		parkRepo: parkRepo,
		log:      log,
	}
}

// Register создаёт водителя в активном парке. Номер приводится к
// каноническому виду до записи.
func (s *Service) Register(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	ctx = wrap.WithAction(ctx, "register_driver")

	normalized, err := phone.Normalize(driver.PhoneNumber)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	driver.PhoneNumber = normalized

	park, err := s.parkRepo.GetByID(ctx, driver.TaxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !park.IsActive {
		return nil, wrap.Error(ctx, types.ErrTaxiparkInactive)
	}

	driver.IsActive = true
	driver.PhotoVerificationStatus = types.VerificationNotStarted

	if err := s.repo.Create(ctx, driver); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "driver registered", "driver_id", driver.ID, "taxipark_id", driver.TaxiparkID)
	return driver, nil
}

func (s *Service) Get(ctx context.Context, driverID int64) (*models.Driver, error) {
	ctx = wrap.WithAction(ctx, "get_driver")

	driver, err := s.repo.GetByID(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return driver, nil
}

// UpdateProfile обновляет анкету водителя. Телефон и парк не меняются.
func (s *Service) UpdateProfile(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	ctx = wrap.WithAction(ctx, "update_driver_profile")

	current, err := s.repo.GetByID(ctx, driver.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	current.FirstName = driver.FirstName
	current.LastName = driver.LastName
	current.Car = driver.Car
	current.CallSign = driver.CallSign
	current.Tariff = driver.Tariff

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return current, nil
}

// SetOnlineStatus переключает онлайн-статус. Заблокированный водитель не
// может выйти на линию.
func (s *Service) SetOnlineStatus(ctx context.Context, driverID int64, status types.OnlineStatus) error {
	ctx = wrap.WithAction(ctx, "set_driver_online_status")

	driver, err := s.repo.GetByID(ctx, driverID)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	if status == types.StatusOnline && !driver.IsActive {
		return wrap.Error(ctx, types.ErrDriverInactive)
	}

	if err := s.repo.SetOnlineStatus(ctx, driverID, status); err != nil {
		return wrap.Error(ctx, err)
	}

	switch status {
	case types.StatusOnline:
		metrics.DriversOnlineGauge.WithLabelValues("driver").Inc()
	case types.StatusOffline:
		metrics.DriversOnlineGauge.WithLabelValues("driver").Dec()
	}

	return nil
}

// UpdateLocation пишет свежую координату и продлевает признак жизни.
func (s *Service) UpdateLocation(ctx context.Context, driverID int64, lat, lon float64) error {
	ctx = wrap.WithAction(ctx, "update_driver_location")

	if err := s.repo.UpdateLocation(ctx, driverID, lat, lon); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// SetActive блокирует или разблокирует водителя. Вызывается диспетчером.
func (s *Service) SetActive(ctx context.Context, driverID int64, isActive bool) (*models.Driver, error) {
	ctx = wrap.WithAction(ctx, "set_driver_active")

	driver, err := s.repo.GetByID(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	driver.IsActive = isActive
	if err := s.repo.Update(ctx, driver); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	// Блокировка сразу снимает водителя с линии.
	if !isActive && driver.OnlineStatus == types.StatusOnline {
		if err := s.repo.SetOnlineStatus(ctx, driverID, types.StatusOffline); err != nil {
			return nil, wrap.Error(ctx, err)
		}
		driver.OnlineStatus = types.StatusOffline
	}

	s.log.Info(ctx, "driver active flag changed", "driver_id", driverID, "is_active", isActive)
	return driver, nil
}

func (s *Service) List(ctx context.Context, taxiparkID int64, filters models.Filters) ([]*models.Driver, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_drivers")

	drivers, metadata, err := s.repo.List(ctx, taxiparkID, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return drivers, metadata, nil
}

// RunStaleSweeper периодически переводит молчащих водителей в офлайн.
// Останавливается по контексту.
func (s *Service) RunStaleSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := s.repo.MarkStaleOffline(ctx, staleAfter)
			if err != nil {
				s.log.Error(ctx, "stale driver sweep failed", err)
				continue
			}
			if len(ids) > 0 {
				metrics.DriversOnlineGauge.WithLabelValues("driver").Sub(float64(len(ids)))
				s.log.Info(ctx, "stale drivers marked offline", "count", len(ids))
			}
		}
	}
}
