package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

// noopTxManager выполняет функцию без реальной транзакции.
type noopTxManager struct{}

func (noopTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeTransactionRepo struct {
	created []*models.Transaction
	refs    map[string]bool
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{refs: make(map[string]bool)}
}

func (f *fakeTransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	if f.refs[t.Reference] {
		return types.ErrCommissionAlreadyCharged
	}
	f.refs[t.Reference] = true
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTransactionRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	return f.refs[reference], nil
}

func (f *fakeTransactionRepo) ListByDriver(ctx context.Context, driverID int64, filters models.Filters) ([]*models.Transaction, models.Metadata, error) {
	var out []*models.Transaction
	for _, t := range f.created {
		if t.DriverID == driverID {
			out = append(out, t)
		}
	}
	return out, models.CalculateMetadata(len(out), filters.Page, filters.PageSize), nil
}

type fakeDriverRepo struct {
	balances map[int64]float64
}

func (f *fakeDriverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	b, ok := f.balances[id]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	return &models.Driver{ID: id, Balance: b}, nil
}

func (f *fakeDriverRepo) BalanceForUpdate(ctx context.Context, driverID int64) (float64, error) {
	b, ok := f.balances[driverID]
	if !ok {
		return 0, types.ErrDriverNotFound
	}
	return b, nil
}

func (f *fakeDriverRepo) AddToBalance(ctx context.Context, driverID int64, amount float64) (float64, error) {
	f.balances[driverID] += amount
	return f.balances[driverID], nil
}

type fakeTaxiparkRepo struct {
	percents map[int64]float64
}

func (f *fakeTaxiparkRepo) GetByID(ctx context.Context, id int64) (*models.Taxipark, error) {
	return &models.Taxipark{ID: id, CommissionPercent: f.percents[id], IsActive: true}, nil
}

func newTestService(balances map[int64]float64) (*Service, *fakeTransactionRepo, *fakeDriverRepo) {
	transactions := newFakeTransactionRepo()
	drivers := &fakeDriverRepo{balances: balances}
	parks := &fakeTaxiparkRepo{percents: map[int64]float64{2: 20}}
	svc := NewService(transactions, drivers, parks, noopTxManager{}, 15,
		logger.InitLogger("test", logger.LevelDebug))
	return svc, transactions, drivers
}

func TestCommissionAmount(t *testing.T) {
	assert.InDelta(t, 45.0, CommissionAmount(300, 15), 1e-9)
	assert.InDelta(t, 20.33, CommissionAmount(135.5, 15), 1e-9)
	assert.InDelta(t, 60.0, CommissionAmount(300, 20), 1e-9)
	assert.InDelta(t, 0.0, CommissionAmount(0, 15), 1e-9)
}

func TestCommissionAmount_RoundsToTyiyn(t *testing.T) {
	// Точное значение 15.0075, в сомах храним не мельче тыйына.
	assert.InDelta(t, 15.01, CommissionAmount(100.05, 15), 1e-9)
	// Полтыйына округляется вверх.
	assert.InDelta(t, 0.02, CommissionAmount(0.1, 15), 1e-9)
}

func TestChargeCommission_ParkPercentOverridesDefault(t *testing.T) {
	svc, _, drivers := newTestService(map[int64]float64{7: 100})

	// Парк 2 берёт 20% вместо дефолтных 15%.
	order := &models.Order{ID: 43, OrderNumber: "ORDER_20260901_002", Price: 300, TaxiparkID: 2}

	charged, err := svc.ChargeCommission(context.Background(), 7, order)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, charged, 1e-9)
	assert.InDelta(t, 40.0, drivers.balances[7], 1e-9)
}

func TestChargeCommission(t *testing.T) {
	svc, transactions, drivers := newTestService(map[int64]float64{7: 100})

	order := &models.Order{ID: 42, OrderNumber: "ORDER_20260901_001", Price: 300}

	charged, err := svc.ChargeCommission(context.Background(), 7, order)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, charged, 1e-9)
	assert.InDelta(t, 55.0, drivers.balances[7], 1e-9)

	require.Len(t, transactions.created, 1)
	tx := transactions.created[0]
	assert.Equal(t, types.TransactionCommission, tx.Type)
	assert.InDelta(t, -45.0, tx.Amount, 1e-9)
	assert.Equal(t, "COMMISSION-42", tx.Reference)
	require.NotNil(t, tx.OrderID)
	assert.Equal(t, int64(42), *tx.OrderID)
}

func TestChargeCommission_InsufficientBalance(t *testing.T) {
	svc, transactions, drivers := newTestService(map[int64]float64{7: 10})

	order := &models.Order{ID: 42, OrderNumber: "ORDER_20260901_001", Price: 300}

	_, err := svc.ChargeCommission(context.Background(), 7, order)
	require.Error(t, err)

	insufficient, ok := types.IsInsufficientBalance(err)
	require.True(t, ok)
	assert.InDelta(t, 45.0, insufficient.Required, 1e-9)
	assert.InDelta(t, 10.0, insufficient.Available, 1e-9)
	assert.InDelta(t, 35.0, insufficient.Shortfall(), 1e-9)

	// Баланс не тронут, проводок нет.
	assert.InDelta(t, 10.0, drivers.balances[7], 1e-9)
	assert.Empty(t, transactions.created)
}

func TestChargeCommission_Idempotent(t *testing.T) {
	svc, transactions, drivers := newTestService(map[int64]float64{7: 1000})

	order := &models.Order{ID: 42, OrderNumber: "ORDER_20260901_001", Price: 300}

	_, err := svc.ChargeCommission(context.Background(), 7, order)
	require.NoError(t, err)

	_, err = svc.ChargeCommission(context.Background(), 7, order)
	assert.ErrorIs(t, err, types.ErrCommissionAlreadyCharged)

	// Списание прошло ровно один раз.
	assert.InDelta(t, 955.0, drivers.balances[7], 1e-9)
	assert.Len(t, transactions.created, 1)
}

func TestTopUp(t *testing.T) {
	svc, transactions, _ := newTestService(map[int64]float64{7: 5})

	balance, err := svc.TopUp(context.Background(), 7, 500, "")
	require.NoError(t, err)
	assert.InDelta(t, 505.0, balance, 1e-9)

	require.Len(t, transactions.created, 1)
	assert.Equal(t, types.TransactionTopup, transactions.created[0].Type)
	assert.InDelta(t, 500.0, transactions.created[0].Amount, 1e-9)
}

func TestTopUp_InvalidAmount(t *testing.T) {
	svc, _, _ := newTestService(map[int64]float64{7: 5})

	_, err := svc.TopUp(context.Background(), 7, 0, "")
	assert.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = svc.TopUp(context.Background(), 7, -10, "")
	assert.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestTopUp_UnknownDriver(t *testing.T) {
	svc, _, _ := newTestService(map[int64]float64{})

	_, err := svc.TopUp(context.Background(), 99, 100, "")
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}

func TestBalanceAndHistory(t *testing.T) {
	svc, _, _ := newTestService(map[int64]float64{7: 120})

	balance, err := svc.Balance(context.Background(), 7)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, balance, 1e-9)

	_, err = svc.TopUp(context.Background(), 7, 50, "касса")
	require.NoError(t, err)

	list, meta, err := svc.History(context.Background(), 7, models.Filters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, meta.TotalRecords)
}
