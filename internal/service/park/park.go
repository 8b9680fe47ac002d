package park

import (
	"context"
	"strings"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/passhash"
)

// Service управляет таксопарками и их диспетчерами. Счётчики парка
// никогда не хранятся, пересчёт выполняется запросом по требованию.
type Service struct {
	parks       TaxiparkRepo
	dispatchers DispatcherRepo
	log         logger.Logger
}

func NewService(parks TaxiparkRepo, dispatchers DispatcherRepo, log logger.Logger) *Service {
	return &Service{
		parks:       parks,
		dispatchers: dispatchers,
		log:         log,
	}
}

// CreatePark регистрирует новый таксопарк, сразу активный.
func (s *Service) CreatePark(ctx context.Context, park *models.Taxipark) (*models.Taxipark, error) {
	ctx = wrap.WithAction(ctx, "create_taxipark")

	park.Name = strings.TrimSpace(park.Name)
	park.IsActive = true

	if err := s.parks.Create(ctx, park); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "taxipark created", "taxipark_id", park.ID, "name", park.Name)
	return park, nil
}

// GetPark возвращает парк со свежими счётчиками.
func (s *Service) GetPark(ctx context.Context, id int64) (*models.Taxipark, error) {
	ctx = wrap.WithAction(ctx, "get_taxipark")

	park, err := s.parks.GetByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.recount(ctx, park); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return park, nil
}

// UpdatePark правит реквизиты парка, включая процент комиссии.
func (s *Service) UpdatePark(ctx context.Context, park *models.Taxipark) (*models.Taxipark, error) {
	ctx = wrap.WithAction(ctx, "update_taxipark")

	if err := s.parks.Update(ctx, park); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	updated, err := s.parks.GetByID(ctx, park.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "taxipark updated", "taxipark_id", park.ID)
	return updated, nil
}

// ListParks возвращает страницу парков без счётчиков: пересчёт на каждом
// элементе списка дорог, детали запрашиваются точечно.
func (s *Service) ListParks(ctx context.Context, filters models.Filters) ([]*models.Taxipark, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_taxiparks")

	list, meta, err := s.parks.List(ctx, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}
	return list, meta, nil
}

// SetParkActive включает или отключает парк целиком.
func (s *Service) SetParkActive(ctx context.Context, id int64, isActive bool) error {
	ctx = wrap.WithAction(ctx, "set_taxipark_active")

	if err := s.parks.SetActive(ctx, id, isActive); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "taxipark active flag set", "taxipark_id", id, "is_active", isActive)
	return nil
}

// RecountTaxiparkCounters пересчитывает счётчики парка по требованию.
func (s *Service) RecountTaxiparkCounters(ctx context.Context, id int64) (*models.TaxiparkCounters, error) {
	ctx = wrap.WithAction(ctx, "recount_taxipark_counters")

	counters, err := s.parks.Counters(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return counters, nil
}

func (s *Service) recount(ctx context.Context, park *models.Taxipark) error {
	counters, err := s.parks.Counters(ctx, park.ID)
	if err != nil {
		return err
	}
	park.DriverCount = counters.DriverCount
	park.ClientCount = counters.ClientCount
	park.ActiveOrderCount = counters.ActiveOrderCount
	return nil
}

// CreateDispatcher заводит диспетчера в активном парке. Пароль хранится
// только в виде хеша.
func (s *Service) CreateDispatcher(ctx context.Context, d *models.Dispatcher, password string) (*models.Dispatcher, error) {
	ctx = wrap.WithAction(ctx, "create_dispatcher")

	park, err := s.parks.GetByID(ctx, d.TaxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !park.IsActive {
		return nil, wrap.Error(ctx, types.ErrTaxiparkInactive)
	}

	hash, err := passhash.HashPassword(password)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	d.Login = strings.ToLower(strings.TrimSpace(d.Login))
	d.PasswordHash = hash
	d.IsActive = true

	if err := s.dispatchers.Create(ctx, d); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "dispatcher created", "dispatcher_id", d.ID, "taxipark_id", d.TaxiparkID)
	return d, nil
}

// ListDispatchers возвращает диспетчеров парка.
func (s *Service) ListDispatchers(ctx context.Context, taxiparkID int64) ([]*models.Dispatcher, error) {
	ctx = wrap.WithAction(ctx, "list_dispatchers")

	list, err := s.dispatchers.ListByPark(ctx, taxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return list, nil
}

// SetDispatcherActive блокирует или разблокирует диспетчера.
func (s *Service) SetDispatcherActive(ctx context.Context, id int64, isActive bool) error {
	ctx = wrap.WithAction(ctx, "set_dispatcher_active")

	if err := s.dispatchers.SetActive(ctx, id, isActive); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "dispatcher active flag set", "dispatcher_id", id, "is_active", isActive)
	return nil
}

// ResetDispatcherPassword выставляет диспетчеру новый пароль.
func (s *Service) ResetDispatcherPassword(ctx context.Context, id int64, password string) error {
	ctx = wrap.WithAction(ctx, "reset_dispatcher_password")

	if _, err := s.dispatchers.GetByID(ctx, id); err != nil {
		return wrap.Error(ctx, err)
	}

	hash, err := passhash.HashPassword(password)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	if err := s.dispatchers.UpdatePassword(ctx, id, hash); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "dispatcher password reset", "dispatcher_id", id)
	return nil
}
