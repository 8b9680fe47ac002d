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

type ClientRepo struct {
	db *pgxpool.Pool
}

func NewClientRepo(db *pgxpool.Pool) *ClientRepo {
	return &ClientRepo{db: db}
}

const clientColumns = `id, name, phone_number, taxipark_id, is_active, fcm_token, created_at, updated_at`

func (r *ClientRepo) Create(ctx context.Context, client *models.Client) error {
	const op = "ClientRepo.Create"
	query := `
		INSERT INTO clients(name, phone_number, taxipark_id, is_active)
		VALUES($1, $2, $3, $4)
		RETURNING id, created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		client.Name, client.PhoneNumber, client.TaxiparkID, client.IsActive,
	).Scan(&client.ID, &client.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrClientRegistered
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	const op = "ClientRepo.GetByID"
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	var c models.Client
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.PhoneNumber, &c.TaxiparkID, &c.IsActive, &c.FCMToken, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrClientNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func (r *ClientRepo) GetByPhone(ctx context.Context, phoneNumber string) (*models.Client, error) {
	const op = "ClientRepo.GetByPhone"
	query := `SELECT ` + clientColumns + ` FROM clients WHERE phone_number = $1`

	var c models.Client
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, phoneNumber).Scan(
		&c.ID, &c.Name, &c.PhoneNumber, &c.TaxiparkID, &c.IsActive, &c.FCMToken, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrClientNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func (r *ClientRepo) Update(ctx context.Context, client *models.Client) error {
	const op = "ClientRepo.Update"
	query := `
		UPDATE clients
		SET name = $2, is_active = $3, updated_at = now()
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, client.ID, client.Name, client.IsActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepo) UpdateFCMToken(ctx context.Context, clientID int64, token string) error {
	const op = "ClientRepo.UpdateFCMToken"
	query := `UPDATE clients SET fcm_token = $2 WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, clientID, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepo) List(ctx context.Context, taxiparkID int64, filters models.Filters) ([]*models.Client, models.Metadata, error) {
	const op = "ClientRepo.List"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM clients
		WHERE taxipark_id = $1
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`, clientColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, taxiparkID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		totalRecords int
		clients      []*models.Client
	)
	for rows.Next() {
		var c models.Client
		err := rows.Scan(
			&totalRecords,
			&c.ID, &c.Name, &c.PhoneNumber, &c.TaxiparkID, &c.IsActive, &c.FCMToken, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
		}
		clients = append(clients, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := models.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return clients, metadata, nil
}
