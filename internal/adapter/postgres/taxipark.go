package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/postgres"
)

type TaxiparkRepo struct {
	db *pgxpool.Pool
}

func NewTaxiparkRepo(db *pgxpool.Pool) *TaxiparkRepo {
	return &TaxiparkRepo{db: db}
}

func (r *TaxiparkRepo) Create(ctx context.Context, park *models.Taxipark) error {
	const op = "TaxiparkRepo.Create"
	query := `
		INSERT INTO taxiparks(name, city, contact_phone, commission_percent, is_active)
		VALUES($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		park.Name, park.City, park.ContactPhone, park.CommissionPercent, park.IsActive,
	).Scan(&park.ID, &park.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrTaxiparkExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *TaxiparkRepo) GetByID(ctx context.Context, id int64) (*models.Taxipark, error) {
	const op = "TaxiparkRepo.GetByID"
	query := `
		SELECT id, name, city, contact_phone, commission_percent, is_active, created_at, updated_at
		FROM taxiparks WHERE id = $1`

	var p models.Taxipark
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.City, &p.ContactPhone, &p.CommissionPercent, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrTaxiparkNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (r *TaxiparkRepo) Update(ctx context.Context, park *models.Taxipark) error {
	const op = "TaxiparkRepo.Update"
	query := `
		UPDATE taxiparks
		SET name = $2, city = $3, contact_phone = $4, commission_percent = $5,
			is_active = $6, updated_at = now()
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query,
		park.ID, park.Name, park.City, park.ContactPhone, park.CommissionPercent, park.IsActive,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrTaxiparkExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrTaxiparkNotFound
	}
	return nil
}

func (r *TaxiparkRepo) List(ctx context.Context, filters models.Filters) ([]*models.Taxipark, models.Metadata, error) {
	const op = "TaxiparkRepo.List"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(),
			id, name, city, contact_phone, commission_percent, is_active, created_at, updated_at
		FROM taxiparks
		ORDER BY %s %s, id ASC
		LIMIT $1 OFFSET $2`, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		totalRecords int
		parks        []*models.Taxipark
	)
	for rows.Next() {
		var p models.Taxipark
		err := rows.Scan(
			&totalRecords,
			&p.ID, &p.Name, &p.City, &p.ContactPhone, &p.CommissionPercent, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
		}
		parks = append(parks, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := models.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return parks, metadata, nil
}

// Counters пересчитывает счётчики парка по фактическим строкам.
// Значения нигде не кэшируются, расхождение исключено.
func (r *TaxiparkRepo) Counters(ctx context.Context, taxiparkID int64) (*models.TaxiparkCounters, error) {
	const op = "TaxiparkRepo.Counters"
	query := `
		SELECT
			(SELECT COUNT(*) FROM drivers WHERE taxipark_id = $1),
			(SELECT COUNT(*) FROM clients WHERE taxipark_id = $1),
			(SELECT COUNT(*) FROM orders WHERE taxipark_id = $1 AND status = ANY($2))`

	var c models.TaxiparkCounters
	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		taxiparkID, statusStrings(append([]types.OrderStatus{types.OrderReceived}, types.OpenOrderStatuses...)),
	).Scan(&c.DriverCount, &c.ClientCount, &c.ActiveOrderCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func (r *TaxiparkRepo) SetActive(ctx context.Context, id int64, isActive bool) error {
	const op = "TaxiparkRepo.SetActive"
	query := `UPDATE taxiparks SET is_active = $2, updated_at = now() WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, id, isActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrTaxiparkNotFound
	}
	return nil
}
