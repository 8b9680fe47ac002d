package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/trm"
)

// Upload - один файл фотоконтроля. Слот именует ракурс (front, back, salon).
type Upload struct {
	Slot     string
	FileName string
	Content  io.Reader
}

// Service принимает фотографии на контроль и проводит решения диспетчера.
// Файлы лежат на диске, в базе хранится карта слот → путь. Зеркальный
// статус на водителе обновляется той же транзакцией, что и заявка.
type Service struct {
	repo      VerificationRepo
	drivers   DriverRepo
	notifier  Notifier
	txManager trm.TxManager

	uploadDir string

	log logger.Logger
}

func NewService(
	repo VerificationRepo,
	drivers DriverRepo,
	notifier Notifier,
	txManager trm.TxManager,
	uploadDir string,
	log logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		drivers:   drivers,
		notifier:  notifier,
		txManager: txManager,
		uploadDir: uploadDir,
		log:       log,
	}
}

// Submit сохраняет файлы и создаёт заявку в статусе pending. Пока заявка
// на рассмотрении, новую подать нельзя.
func (s *Service) Submit(ctx context.Context, driverID int64, uploads []Upload) (*models.PhotoVerification, error) {
	ctx = wrap.WithAction(ctx, "submit_photo_verification")

	if len(uploads) == 0 {
		return nil, wrap.Error(ctx, types.ErrNoPhotosProvided)
	}

	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	latest, err := s.repo.LatestByDriver(ctx, driverID)
	if err != nil && !errors.Is(err, types.ErrVerificationNotFound) {
		return nil, wrap.Error(ctx, err)
	}
	if latest != nil && latest.Status == types.VerificationPending {
		return nil, wrap.Error(ctx, types.ErrVerificationPending)
	}

	photos, err := s.saveFiles(driverID, uploads)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	verification := &models.PhotoVerification{
		DriverID: driverID,
		Photos:   photos,
		Status:   types.VerificationPending,
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, verification); err != nil {
			return err
		}
		return s.drivers.SetVerificationStatus(ctx, driverID, types.VerificationPending)
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "photo verification submitted",
		"driver_id", driverID,
		"verification_id", verification.ID,
		"photos", len(photos),
	)
	return verification, nil
}

// Decide закрывает pending-заявку решением диспетчера. Отклонение требует
// причины. Зеркальный статус водителя меняется той же транзакцией.
func (s *Service) Decide(ctx context.Context, verificationID int64, approve bool, reason string, processedBy int64) (*models.PhotoVerification, error) {
	ctx = wrap.WithAction(ctx, "decide_photo_verification")

	status := types.VerificationApproved
	if !approve {
		if strings.TrimSpace(reason) == "" {
			return nil, wrap.Error(ctx, types.ErrRejectionReasonEmpty)
		}
		status = types.VerificationRejected
	} else {
		reason = ""
	}

	var decided *models.PhotoVerification
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		v, err := s.repo.Decide(ctx, verificationID, status, reason, processedBy)
		if err != nil {
			return err
		}
		if err := s.drivers.SetVerificationStatus(ctx, v.DriverID, status); err != nil {
			return err
		}
		decided = v
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "photo verification decided",
		"verification_id", verificationID,
		"status", status,
		"processed_by", processedBy,
	)

	s.notifier.VerificationDecision(ctx, decided.DriverID, status, reason)
	return decided, nil
}

// Status возвращает последнюю заявку водителя. Если заявок не было,
// возвращается синтетическая со статусом not_started.
func (s *Service) Status(ctx context.Context, driverID int64) (*models.PhotoVerification, error) {
	ctx = wrap.WithAction(ctx, "photo_verification_status")

	latest, err := s.repo.LatestByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, types.ErrVerificationNotFound) {
			return &models.PhotoVerification{
				DriverID: driverID,
				Status:   types.VerificationNotStarted,
			}, nil
		}
		return nil, wrap.Error(ctx, err)
	}
	return latest, nil
}

// ListPending возвращает очередь заявок парка на рассмотрение.
func (s *Service) ListPending(ctx context.Context, taxiparkID int64) ([]*models.PhotoVerification, error) {
	ctx = wrap.WithAction(ctx, "list_pending_verifications")

	list, err := s.repo.ListPending(ctx, taxiparkID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return list, nil
}

// saveFiles пишет файлы в uploads/photo_verification/driver_<id>/.
func (s *Service) saveFiles(driverID int64, uploads []Upload) (map[string]string, error) {
	dir := filepath.Join(s.uploadDir, "photo_verification", fmt.Sprintf("driver_%d", driverID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	photos := make(map[string]string, len(uploads))
	for _, u := range uploads {
		slot := strings.TrimSpace(u.Slot)
		if slot == "" {
			return nil, types.ErrNoPhotosProvided
		}

		ext := filepath.Ext(u.FileName)
		if ext == "" {
			ext = ".jpg"
		}
		name := fmt.Sprintf("%s_%d%s", slot, time.Now().UnixNano(), ext)
		path := filepath.Join(dir, name)

		if err := writeFile(path, u.Content); err != nil {
			return nil, err
		}
		photos[slot] = path
	}
	return photos, nil
}

func writeFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
