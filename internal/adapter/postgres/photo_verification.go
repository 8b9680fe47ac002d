package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type PhotoVerificationRepo struct {
	db *pgxpool.Pool
}

func NewPhotoVerificationRepo(db *pgxpool.Pool) *PhotoVerificationRepo {
	return &PhotoVerificationRepo{db: db}
}

func (r *PhotoVerificationRepo) Create(ctx context.Context, v *models.PhotoVerification) error {
	const op = "PhotoVerificationRepo.Create"
	query := `
		INSERT INTO photo_verifications(driver_id, photos, status)
		VALUES($1, $2, $3)
		RETURNING id, submitted_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		v.DriverID, v.Photos, v.Status,
	).Scan(&v.ID, &v.SubmittedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PhotoVerificationRepo) GetByID(ctx context.Context, id int64) (*models.PhotoVerification, error) {
	const op = "PhotoVerificationRepo.GetByID"
	query := `
		SELECT id, driver_id, photos, status, rejection_reason, processed_by, processed_at, submitted_at
		FROM photo_verifications WHERE id = $1`

	var v models.PhotoVerification
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&v.ID, &v.DriverID, &v.Photos, &v.Status, &v.RejectionReason, &v.ProcessedBy, &v.ProcessedAt, &v.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

// LatestByDriver возвращает последнюю заявку водителя.
func (r *PhotoVerificationRepo) LatestByDriver(ctx context.Context, driverID int64) (*models.PhotoVerification, error) {
	const op = "PhotoVerificationRepo.LatestByDriver"
	query := `
		SELECT id, driver_id, photos, status, rejection_reason, processed_by, processed_at, submitted_at
		FROM photo_verifications
		WHERE driver_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1`

	var v models.PhotoVerification
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, driverID).Scan(
		&v.ID, &v.DriverID, &v.Photos, &v.Status, &v.RejectionReason, &v.ProcessedBy, &v.ProcessedAt, &v.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}

func (r *PhotoVerificationRepo) ListPending(ctx context.Context, taxiparkID int64) ([]*models.PhotoVerification, error) {
	const op = "PhotoVerificationRepo.ListPending"
	query := `
		SELECT v.id, v.driver_id, v.photos, v.status, v.rejection_reason, v.processed_by, v.processed_at, v.submitted_at
		FROM photo_verifications v
		JOIN drivers d ON d.id = v.driver_id
		WHERE v.status = $1 AND d.taxipark_id = $2
		ORDER BY v.submitted_at ASC`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, types.VerificationPending, taxiparkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var verifications []*models.PhotoVerification
	for rows.Next() {
		var v models.PhotoVerification
		err := rows.Scan(&v.ID, &v.DriverID, &v.Photos, &v.Status, &v.RejectionReason, &v.ProcessedBy, &v.ProcessedAt, &v.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		verifications = append(verifications, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return verifications, nil
}

// Decide закрывает заявку решением. Охраняемый переход: заявка должна быть
// в статусе pending, иначе ErrVerificationProcessed.
func (r *PhotoVerificationRepo) Decide(ctx context.Context, id int64, status types.VerificationStatus, reason string, processedBy int64) (*models.PhotoVerification, error) {
	const op = "PhotoVerificationRepo.Decide"
	query := `
		UPDATE photo_verifications
		SET status = $2, rejection_reason = $3, processed_by = $4, processed_at = now()
		WHERE id = $1 AND status = $5
		RETURNING id, driver_id, photos, status, rejection_reason, processed_by, processed_at, submitted_at`

	var v models.PhotoVerification
	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		id, status, reason, processedBy, types.VerificationPending,
	).Scan(&v.ID, &v.DriverID, &v.Photos, &v.Status, &v.RejectionReason, &v.ProcessedBy, &v.ProcessedAt, &v.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, types.ErrVerificationProcessed
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &v, nil
}
