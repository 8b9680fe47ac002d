package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/postgres"
)

type TransactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepo(db *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Create пишет строку книги. Уникальный индекс по reference делает запись
// идемпотентной: повторная комиссия за тот же заказ отбивается базой.
func (r *TransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	const op = "TransactionRepo.Create"
	query := `
		INSERT INTO transactions(driver_id, type, amount, description, reference, order_id)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		t.DriverID, t.Type, t.Amount, t.Description, t.Reference, t.OrderID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrCommissionAlreadyCharged
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *TransactionRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	const op = "TransactionRepo.ExistsByReference"
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE reference = $1)`

	var exists bool
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, reference).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (r *TransactionRepo) ListByDriver(ctx context.Context, driverID int64, filters models.Filters) ([]*models.Transaction, models.Metadata, error) {
	const op = "TransactionRepo.ListByDriver"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(),
			id, driver_id, type, amount, description, reference, order_id, created_at
		FROM transactions
		WHERE driver_id = $1
		ORDER BY %s %s, id DESC
		LIMIT $2 OFFSET $3`, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, driverID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		totalRecords int
		transactions []*models.Transaction
	)
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&totalRecords,
			&t.ID, &t.DriverID, &t.Type, &t.Amount, &t.Description, &t.Reference, &t.OrderID, &t.CreatedAt,
		)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := models.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return transactions, metadata, nil
}

// SumByTypeAndPark агрегирует обороты книги по типу для аналитики парка.
func (r *TransactionRepo) SumByTypeAndPark(ctx context.Context, taxiparkID int64, txType types.TransactionType) (float64, error) {
	const op = "TransactionRepo.SumByTypeAndPark"
	query := `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN drivers d ON d.id = t.driver_id
		WHERE d.taxipark_id = $1 AND t.type = $2`

	var sum float64
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, taxiparkID, txType).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}
