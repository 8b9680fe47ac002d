package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

type OrderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

const orderColumns = `
	id, order_number, client_name, client_phone,
	pickup_address, pickup_latitude, pickup_longitude,
	destination_address, destination_latitude, destination_longitude,
	price, distance_km, duration_min, tariff, payment_method, notes,
	status, driver_id, taxipark_id,
	created_at, accepted_at, arrived_at_a, started_to_b, completed_at, cancelled_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.ClientName, &o.ClientPhone,
		&o.PickupAddress, &o.PickupLatitude, &o.PickupLongitude,
		&o.DestinationAddress, &o.DestinationLatitude, &o.DestinationLongitude,
		&o.Price, &o.DistanceKm, &o.DurationMin, &o.Tariff, &o.PaymentMethod, &o.Notes,
		&o.Status, &o.DriverID, &o.TaxiparkID,
		&o.CreatedAt, &o.AcceptedAt, &o.ArrivedAtA, &o.StartedToB, &o.CompletedAt, &o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	const op = "OrderRepo.Create"
	query := `
		INSERT INTO orders(
			order_number, client_name, client_phone,
			pickup_address, pickup_latitude, pickup_longitude,
			destination_address, destination_latitude, destination_longitude,
			price, distance_km, duration_min, tariff, payment_method, notes,
			status, driver_id, taxipark_id)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		order.OrderNumber, order.ClientName, order.ClientPhone,
		order.PickupAddress, order.PickupLatitude, order.PickupLongitude,
		order.DestinationAddress, order.DestinationLatitude, order.DestinationLongitude,
		order.Price, order.DistanceKm, order.DurationMin, order.Tariff, order.PaymentMethod, order.Notes,
		order.Status, order.DriverID, order.TaxiparkID,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	const op = "OrderRepo.GetByID"
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(TxorDB(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrOrderNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// Claim атомарно закрепляет заказ за водителем. Переход выполняется только
// если заказ всё ещё в статусе received и либо свободен, либо назначен этому
// же водителю: чужой водитель получит ErrOrderStatusConflict, а не молчаливую
// перезапись. Время первого принятия при повторном захвате не перетирается.
func (r *OrderRepo) Claim(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	const op = "OrderRepo.Claim"
	query := `
		UPDATE orders
		SET status = $3, driver_id = $2, accepted_at = COALESCE(accepted_at, now())
		WHERE id = $1 AND status = $4
		  AND (driver_id IS NULL OR driver_id = $2)
		RETURNING ` + orderColumns

	o, err := scanOrder(TxorDB(ctx, r.db).QueryRow(ctx, query,
		orderID, driverID, types.OrderAccepted, types.OrderReceived))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Либо заказа нет, либо его уже забрали.
			if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, types.ErrOrderStatusConflict
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// timestampColumn возвращает колонку временной метки для статуса.
// Установленные метки не очищаются при дальнейших переходах.
func timestampColumn(status types.OrderStatus) string {
	switch status {
	case types.OrderAccepted:
		return "accepted_at"
	case types.OrderArrivedAtA:
		return "arrived_at_a"
	case types.OrderNavigatingToB:
		return "started_to_b"
	case types.OrderCompleted:
		return "completed_at"
	case types.OrderCancelled, types.OrderRejectedByDriver:
		return "cancelled_at"
	default:
		return ""
	}
}

// UpdateStatusFrom выполняет охраняемый переход статуса: строка меняется
// только если текущий статус совпадает с ожидаемым.
func (r *OrderRepo) UpdateStatusFrom(ctx context.Context, orderID int64, from, to types.OrderStatus) (*models.Order, error) {
	const op = "OrderRepo.UpdateStatusFrom"

	set := "status = $3"
	if col := timestampColumn(to); col != "" {
		set += fmt.Sprintf(", %s = COALESCE(%s, now())", col, col)
	}
	query := fmt.Sprintf(`
		UPDATE orders
		SET %s
		WHERE id = $1 AND status = $2
		RETURNING %s`, set, orderColumns)

	o, err := scanOrder(TxorDB(ctx, r.db).QueryRow(ctx, query, orderID, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, types.ErrOrderStatusConflict
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// Release снимает водителя с заказа и возвращает заказ в received.
// Используется при отказе водителя от уже принятого заказа.
func (r *OrderRepo) Release(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	const op = "OrderRepo.Release"
	query := `
		UPDATE orders
		SET status = $3, driver_id = NULL
		WHERE id = $1 AND driver_id = $2 AND status = ANY($4)
		RETURNING ` + orderColumns

	o, err := scanOrder(TxorDB(ctx, r.db).QueryRow(ctx, query,
		orderID, driverID, types.OrderReceived, statusStrings(types.OpenOrderStatuses)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
				return nil, getErr
			}
			return nil, types.ErrOrderStatusConflict
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r *OrderRepo) Update(ctx context.Context, order *models.Order) error {
	const op = "OrderRepo.Update"
	query := `
		UPDATE orders
		SET client_name = $2, client_phone = $3,
			pickup_address = $4, pickup_latitude = $5, pickup_longitude = $6,
			destination_address = $7, destination_latitude = $8, destination_longitude = $9,
			price = $10, distance_km = $11, duration_min = $12,
			tariff = $13, payment_method = $14, notes = $15
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query,
		order.ID, order.ClientName, order.ClientPhone,
		order.PickupAddress, order.PickupLatitude, order.PickupLongitude,
		order.DestinationAddress, order.DestinationLatitude, order.DestinationLongitude,
		order.Price, order.DistanceKm, order.DurationMin,
		order.Tariff, order.PaymentMethod, order.Notes,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrOrderNotFound
	}
	return nil
}

func statusStrings(statuses []types.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

func (r *OrderRepo) List(ctx context.Context, taxiparkID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	const op = "OrderRepo.List"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM orders
		WHERE taxipark_id = $1
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2))
		ORDER BY %s %s, id DESC
		LIMIT $3 OFFSET $4`, orderColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query,
		taxiparkID, statusStrings(statuses), filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		totalRecords int
		orders       []*models.Order
	)
	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&totalRecords,
			&o.ID, &o.OrderNumber, &o.ClientName, &o.ClientPhone,
			&o.PickupAddress, &o.PickupLatitude, &o.PickupLongitude,
			&o.DestinationAddress, &o.DestinationLatitude, &o.DestinationLongitude,
			&o.Price, &o.DistanceKm, &o.DurationMin, &o.Tariff, &o.PaymentMethod, &o.Notes,
			&o.Status, &o.DriverID, &o.TaxiparkID,
			&o.CreatedAt, &o.AcceptedAt, &o.ArrivedAtA, &o.StartedToB, &o.CompletedAt, &o.CancelledAt,
		)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := models.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return orders, metadata, nil
}

func (r *OrderRepo) ListByDriver(ctx context.Context, driverID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	const op = "OrderRepo.ListByDriver"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM orders
		WHERE driver_id = $1
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2))
		ORDER BY %s %s, id DESC
		LIMIT $3 OFFSET $4`, orderColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query,
		driverID, statusStrings(statuses), filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		totalRecords int
		orders       []*models.Order
	)
	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&totalRecords,
			&o.ID, &o.OrderNumber, &o.ClientName, &o.ClientPhone,
			&o.PickupAddress, &o.PickupLatitude, &o.PickupLongitude,
			&o.DestinationAddress, &o.DestinationLatitude, &o.DestinationLongitude,
			&o.Price, &o.DistanceKm, &o.DurationMin, &o.Tariff, &o.PaymentMethod, &o.Notes,
			&o.Status, &o.DriverID, &o.TaxiparkID,
			&o.CreatedAt, &o.AcceptedAt, &o.ArrivedAtA, &o.StartedToB, &o.CompletedAt, &o.CancelledAt,
		)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := models.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return orders, metadata, nil
}

// ActiveByDriver возвращает текущий незавершённый заказ водителя, если есть.
func (r *OrderRepo) ActiveByDriver(ctx context.Context, driverID int64) (*models.Order, error) {
	const op = "OrderRepo.ActiveByDriver"
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY accepted_at DESC
		LIMIT 1`

	o, err := scanOrder(TxorDB(ctx, r.db).QueryRow(ctx, query, driverID, statusStrings(types.OpenOrderStatuses)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrOrderNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ListAvailable возвращает свободные заказы парка для ленты водителя.
func (r *OrderRepo) ListAvailable(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Order, error) {
	const op = "OrderRepo.ListAvailable"
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE taxipark_id = $1
		  AND status = $2
		  AND driver_id IS NULL
		  AND ($3 = '' OR tariff = $3)
		ORDER BY created_at ASC`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, taxiparkID, types.OrderReceived, tariff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.ClientName, &o.ClientPhone,
			&o.PickupAddress, &o.PickupLatitude, &o.PickupLongitude,
			&o.DestinationAddress, &o.DestinationLatitude, &o.DestinationLongitude,
			&o.Price, &o.DistanceKm, &o.DurationMin, &o.Tariff, &o.PaymentMethod, &o.Notes,
			&o.Status, &o.DriverID, &o.TaxiparkID,
			&o.CreatedAt, &o.AcceptedAt, &o.ArrivedAtA, &o.StartedToB, &o.CompletedAt, &o.CancelledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (r *OrderRepo) ListByClientPhone(ctx context.Context, clientPhone string, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	const op = "OrderRepo.ListByClientPhone"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM orders
		WHERE client_phone = $1
		ORDER BY %s %s, id DESC
		LIMIT $2 OFFSET $3`, orderColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, clientPhone, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		totalRecords int
		orders       []*models.Order
	)
	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&totalRecords,
			&o.ID, &o.OrderNumber, &o.ClientName, &o.ClientPhone,
			&o.PickupAddress, &o.PickupLatitude, &o.PickupLongitude,
			&o.DestinationAddress, &o.DestinationLatitude, &o.DestinationLongitude,
			&o.Price, &o.DistanceKm, &o.DurationMin, &o.Tariff, &o.PaymentMethod, &o.Notes,
			&o.Status, &o.DriverID, &o.TaxiparkID,
			&o.CreatedAt, &o.AcceptedAt, &o.ArrivedAtA, &o.StartedToB, &o.CompletedAt, &o.CancelledAt,
		)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := models.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return orders, metadata, nil
}

// CountByDate считает заказы за календарные сутки, нужен для порядкового
// номера в order_number.
func (r *OrderRepo) CountByDate(ctx context.Context, date time.Time) (int, error) {
	const op = "OrderRepo.CountByDate"
	query := `SELECT COUNT(*) FROM orders WHERE DATE(created_at) = $1`

	var count int
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, date.Format("2006-01-02")).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountByStatusForPark группирует заказы парка по статусам.
func (r *OrderRepo) CountByStatusForPark(ctx context.Context, taxiparkID int64) (map[types.OrderStatus]int64, error) {
	const op = "OrderRepo.CountByStatusForPark"
	query := `
		SELECT status, COUNT(*)
		FROM orders
		WHERE taxipark_id = $1
		GROUP BY status`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, taxiparkID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := make(map[types.OrderStatus]int64)
	for rows.Next() {
		var status types.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

// CountByDayForPark считает заказы парка по календарным суткам начиная
// с указанной даты, старые дни первыми.
func (r *OrderRepo) CountByDayForPark(ctx context.Context, taxiparkID int64, since time.Time) ([]models.DailyOrderCount, error) {
	const op = "OrderRepo.CountByDayForPark"
	query := `
		SELECT DATE(created_at) AS day, COUNT(*)
		FROM orders
		WHERE taxipark_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day ASC`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, taxiparkID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var counts []models.DailyOrderCount
	for rows.Next() {
		var c models.DailyOrderCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}
