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
	"github.com/Temutjin2k/taxi-fleet-system/pkg/postgres"
)

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{db: db}
}

const driverColumns = `
	id, first_name, last_name, phone_number,
	car_model, car_number, car_color, car_year, car_vin, car_body_number, car_sts,
	call_sign, balance, tariff, taxipark_id, is_active, fcm_token,
	online_status, last_online_at, current_latitude, current_longitude,
	photo_verification_status, created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.PhoneNumber,
		&d.Car.Model, &d.Car.Number, &d.Car.Color, &d.Car.Year, &d.Car.VIN, &d.Car.BodyNumber, &d.Car.STS,
		&d.CallSign, &d.Balance, &d.Tariff, &d.TaxiparkID, &d.IsActive, &d.FCMToken,
		&d.OnlineStatus, &d.LastOnlineAt, &d.CurrentLatitude, &d.CurrentLongitude,
		&d.PhotoVerificationStatus, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DriverRepo) Create(ctx context.Context, driver *models.Driver) error {
	const op = "DriverRepo.Create"
	query := `
		INSERT INTO drivers(
			first_name, last_name, phone_number,
			car_model, car_number, car_color, car_year, car_vin, car_body_number, car_sts,
			call_sign, tariff, taxipark_id, is_active, photo_verification_status)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, balance, online_status, created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		driver.FirstName, driver.LastName, driver.PhoneNumber,
		driver.Car.Model, driver.Car.Number, driver.Car.Color, driver.Car.Year,
		driver.Car.VIN, driver.Car.BodyNumber, driver.Car.STS,
		driver.CallSign, driver.Tariff, driver.TaxiparkID, driver.IsActive,
		driver.PhotoVerificationStatus,
	).Scan(&driver.ID, &driver.Balance, &driver.OnlineStatus, &driver.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrDriverRegistered
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *DriverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	const op = "DriverRepo.GetByID"
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	d, err := scanDriver(TxorDB(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func (r *DriverRepo) GetByPhone(ctx context.Context, phoneNumber string) (*models.Driver, error) {
	const op = "DriverRepo.GetByPhone"
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE phone_number = $1`

	d, err := scanDriver(TxorDB(ctx, r.db).QueryRow(ctx, query, phoneNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func (r *DriverRepo) Update(ctx context.Context, driver *models.Driver) error {
	const op = "DriverRepo.Update"
	query := `
		UPDATE drivers
		SET first_name = $2, last_name = $3,
			car_model = $4, car_number = $5, car_color = $6, car_year = $7,
			car_vin = $8, car_body_number = $9, car_sts = $10,
			call_sign = $11, tariff = $12, is_active = $13, fcm_token = $14,
			photo_verification_status = $15, updated_at = now()
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query,
		driver.ID, driver.FirstName, driver.LastName,
		driver.Car.Model, driver.Car.Number, driver.Car.Color, driver.Car.Year,
		driver.Car.VIN, driver.Car.BodyNumber, driver.Car.STS,
		driver.CallSign, driver.Tariff, driver.IsActive, driver.FCMToken,
		driver.PhotoVerificationStatus,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return types.ErrCarNumberExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepo) UpdateLocation(ctx context.Context, driverID int64, lat, lon float64) error {
	const op = "DriverRepo.UpdateLocation"
	query := `
		UPDATE drivers
		SET current_latitude = $2, current_longitude = $3, last_online_at = now()
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, lat, lon)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepo) SetOnlineStatus(ctx context.Context, driverID int64, status types.OnlineStatus) error {
	const op = "DriverRepo.SetOnlineStatus"
	query := `
		UPDATE drivers
		SET online_status = $2, last_online_at = now()
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepo) UpdateFCMToken(ctx context.Context, driverID int64, token string) error {
	const op = "DriverRepo.UpdateFCMToken"
	query := `UPDATE drivers SET fcm_token = $2 WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

// BalanceForUpdate блокирует строку водителя до конца транзакции и
// возвращает текущий баланс. Использовать только внутри trm.Do.
func (r *DriverRepo) BalanceForUpdate(ctx context.Context, driverID int64) (float64, error) {
	const op = "DriverRepo.BalanceForUpdate"
	query := `SELECT balance FROM drivers WHERE id = $1 FOR UPDATE`

	var balance float64
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, driverID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, types.ErrDriverNotFound
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

func (r *DriverRepo) AddToBalance(ctx context.Context, driverID int64, amount float64) (float64, error) {
	const op = "DriverRepo.AddToBalance"
	query := `
		UPDATE drivers
		SET balance = balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING balance`

	var balance float64
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, driverID, amount).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, types.ErrDriverNotFound
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

func (r *DriverRepo) SetVerificationStatus(ctx context.Context, driverID int64, status types.VerificationStatus) error {
	const op = "DriverRepo.SetVerificationStatus"
	query := `UPDATE drivers SET photo_verification_status = $2, updated_at = now() WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepo) List(ctx context.Context, taxiparkID int64, filters models.Filters) ([]*models.Driver, models.Metadata, error) {
	const op = "DriverRepo.List"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM drivers
		WHERE taxipark_id = $1
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`, driverColumns, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, taxiparkID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		totalRecords int
		drivers      []*models.Driver
	)
	for rows.Next() {
		var d models.Driver
		err := rows.Scan(
			&totalRecords,
			&d.ID, &d.FirstName, &d.LastName, &d.PhoneNumber,
			&d.Car.Model, &d.Car.Number, &d.Car.Color, &d.Car.Year, &d.Car.VIN, &d.Car.BodyNumber, &d.Car.STS,
			&d.CallSign, &d.Balance, &d.Tariff, &d.TaxiparkID, &d.IsActive, &d.FCMToken,
			&d.OnlineStatus, &d.LastOnlineAt, &d.CurrentLatitude, &d.CurrentLongitude,
			&d.PhotoVerificationStatus, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
		}
		drivers = append(drivers, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := models.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return drivers, metadata, nil
}

// ListOnlineByPark возвращает активных онлайн-водителей парка с известной
// геопозицией. Тариф фильтруется, если задан.
func (r *DriverRepo) ListOnlineByPark(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Driver, error) {
	const op = "DriverRepo.ListOnlineByPark"
	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE taxipark_id = $1
		  AND is_active = true
		  AND online_status = $2
		  AND current_latitude IS NOT NULL
		  AND current_longitude IS NOT NULL
		  AND ($3 = '' OR tariff = $3)
		ORDER BY last_online_at ASC NULLS LAST, id ASC`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, taxiparkID, types.StatusOnline, tariff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		var d models.Driver
		err := rows.Scan(
			&d.ID, &d.FirstName, &d.LastName, &d.PhoneNumber,
			&d.Car.Model, &d.Car.Number, &d.Car.Color, &d.Car.Year, &d.Car.VIN, &d.Car.BodyNumber, &d.Car.STS,
			&d.CallSign, &d.Balance, &d.Tariff, &d.TaxiparkID, &d.IsActive, &d.FCMToken,
			&d.OnlineStatus, &d.LastOnlineAt, &d.CurrentLatitude, &d.CurrentLongitude,
			&d.PhotoVerificationStatus, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		drivers = append(drivers, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return drivers, nil
}

// MarkStaleOffline переводит в офлайн водителей, не подававших признаков
// жизни дольше порога. Возвращает ID затронутых водителей.
func (r *DriverRepo) MarkStaleOffline(ctx context.Context, olderThan time.Duration) ([]int64, error) {
	const op = "DriverRepo.MarkStaleOffline"
	query := `
		UPDATE drivers
		SET online_status = $1
		WHERE online_status = $2
		  AND (last_online_at IS NULL OR last_online_at < now() - $3::interval)
		RETURNING id`

	interval := fmt.Sprintf("%d seconds", int(olderThan.Seconds()))
	rows, err := TxorDB(ctx, r.db).Query(ctx, query, types.StatusOffline, types.StatusOnline, interval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// CountOnlineByPark считает водителей парка в сети.
func (r *DriverRepo) CountOnlineByPark(ctx context.Context, taxiparkID int64) (int64, error) {
	const op = "DriverRepo.CountOnlineByPark"
	query := `
		SELECT COUNT(*)
		FROM drivers
		WHERE taxipark_id = $1 AND is_active = true AND online_status = $2`

	var count int64
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, taxiparkID, types.StatusOnline).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
