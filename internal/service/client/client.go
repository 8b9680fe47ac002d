package client

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/phone"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

type Service struct {
	repo     ClientRepo
	parkRepo TaxiparkRepo
	log      logger.Logger
}

func NewService(repo ClientRepo, parkRepo TaxiparkRepo, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		parkRepo: parkRepo,
		log:      log,
	}
}

// Register создаёт клиента в активном парке. Клиент регистрируется сам,
// дальше входит по СМС-коду на этот номер.
func (s *Service) Register(ctx context.Context, client *models.Client) (*models.Client, error) {
	ctx = wrap.WithAction(ctx, "register_client")

	normalized, err := phone.Normalize(client.PhoneNumber)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	client.PhoneNumber = normalized

	park, err := s.parkRepo.GetByID(ctx, client.TaxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !park.IsActive {
		return nil, wrap.Error(ctx, types.ErrTaxiparkInactive)
	}

	client.IsActive = true

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "client registered", "client_id", client.ID, "taxipark_id", client.TaxiparkID)
	return client, nil
}

func (s *Service) Get(ctx context.Context, clientID int64) (*models.Client, error) {
	ctx = wrap.WithAction(ctx, "get_client")

	client, err := s.repo.GetByID(ctx, clientID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return client, nil
}

// UpdateProfile обновляет анкету клиента. Телефон и парк не меняются.
func (s *Service) UpdateProfile(ctx context.Context, clientID int64, name string) (*models.Client, error) {
	ctx = wrap.WithAction(ctx, "update_client_profile")

	current, err := s.repo.GetByID(ctx, clientID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	current.Name = name

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "client profile updated", "client_id", clientID)
	return current, nil
}
