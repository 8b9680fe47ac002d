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

type DispatcherRepo struct {
	db *pgxpool.Pool
}

func NewDispatcherRepo(db *pgxpool.Pool) *DispatcherRepo {
	return &DispatcherRepo{db: db}
}

func (r *DispatcherRepo) Create(ctx context.Context, d *models.Dispatcher) error {
	const op = "DispatcherRepo.Create"
	query := `
		INSERT INTO dispatchers(login, password_hash, full_name, taxipark_id, is_active)
		VALUES($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		d.Login, d.PasswordHash, d.FullName, d.TaxiparkID, d.IsActive,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrDispatcherLoginExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *DispatcherRepo) GetByID(ctx context.Context, id int64) (*models.Dispatcher, error) {
	const op = "DispatcherRepo.GetByID"
	query := `
		SELECT id, login, password_hash, full_name, taxipark_id, is_active, created_at
		FROM dispatchers WHERE id = $1`

	var d models.Dispatcher
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Login, &d.PasswordHash, &d.FullName, &d.TaxiparkID, &d.IsActive, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDispatcherNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &d, nil
}

func (r *DispatcherRepo) GetByLogin(ctx context.Context, login string) (*models.Dispatcher, error) {
	const op = "DispatcherRepo.GetByLogin"
	query := `
		SELECT id, login, password_hash, full_name, taxipark_id, is_active, created_at
		FROM dispatchers WHERE login = $1`

	var d models.Dispatcher
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, login).Scan(
		&d.ID, &d.Login, &d.PasswordHash, &d.FullName, &d.TaxiparkID, &d.IsActive, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDispatcherNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &d, nil
}

func (r *DispatcherRepo) ListByPark(ctx context.Context, taxiparkID int64) ([]*models.Dispatcher, error) {
	const op = "DispatcherRepo.ListByPark"
	query := `
		SELECT id, login, password_hash, full_name, taxipark_id, is_active, created_at
		FROM dispatchers
		WHERE taxipark_id = $1
		ORDER BY id ASC`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, taxiparkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var dispatchers []*models.Dispatcher
	for rows.Next() {
		var d models.Dispatcher
		err := rows.Scan(&d.ID, &d.Login, &d.PasswordHash, &d.FullName, &d.TaxiparkID, &d.IsActive, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		dispatchers = append(dispatchers, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return dispatchers, nil
}

func (r *DispatcherRepo) SetActive(ctx context.Context, id int64, isActive bool) error {
	const op = "DispatcherRepo.SetActive"
	query := `UPDATE dispatchers SET is_active = $2 WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, id, isActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDispatcherNotFound
	}
	return nil
}

func (r *DispatcherRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const op = "DispatcherRepo.UpdatePassword"
	query := `UPDATE dispatchers SET password_hash = $2 WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDispatcherNotFound
	}
	return nil
}

type SuperadminRepo struct {
	db *pgxpool.Pool
}

func NewSuperadminRepo(db *pgxpool.Pool) *SuperadminRepo {
	return &SuperadminRepo{db: db}
}

func (r *SuperadminRepo) GetByLogin(ctx context.Context, login string) (*models.Superadmin, error) {
	const op = "SuperadminRepo.GetByLogin"
	query := `
		SELECT id, login, password_hash, full_name, created_at
		FROM superadmins WHERE login = $1`

	var s models.Superadmin
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, login).Scan(
		&s.ID, &s.Login, &s.PasswordHash, &s.FullName, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}
