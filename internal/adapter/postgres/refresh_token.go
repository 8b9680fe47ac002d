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

type RefreshTokenRepo struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepo(db *pgxpool.Pool) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

// Save держит по одному активному refresh-токену на пользователя и роль.
func (r *RefreshTokenRepo) Save(ctx context.Context, rec *models.RefreshTokenRecord) error {
	const op = "RefreshTokenRepo.Save"
	query := `
		INSERT INTO refresh_tokens (user_id, role, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, role)
		DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = now()
		RETURNING id, created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		rec.UserID, rec.Role, rec.TokenHash, rec.ExpiresAt,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RefreshTokenRepo) Get(ctx context.Context, userID int64, role types.UserRole) (*models.RefreshTokenRecord, error) {
	const op = "RefreshTokenRepo.Get"
	query := `
		SELECT id, user_id, role, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1 AND role = $2`

	var rec models.RefreshTokenRecord
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, userID, role).Scan(
		&rec.ID, &rec.UserID, &rec.Role, &rec.TokenHash, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

func (r *RefreshTokenRepo) Delete(ctx context.Context, userID int64, role types.UserRole) error {
	const op = "RefreshTokenRepo.Delete"
	query := `DELETE FROM refresh_tokens WHERE user_id = $1 AND role = $2`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, userID, role); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
