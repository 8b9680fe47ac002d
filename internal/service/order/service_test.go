package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/ledger"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

type noopTxManager struct{}

func (noopTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeOrderRepo повторяет охраняемые переходы настоящего репозитория.
type fakeOrderRepo struct {
	seq    int64
	orders map[int64]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	f.seq++
	order.ID = f.seq
	order.CreatedAt = time.Now()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Claim(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if o.Status != types.OrderReceived {
		return nil, types.ErrOrderStatusConflict
	}
	if o.DriverID != nil && *o.DriverID != driverID {
		return nil, types.ErrOrderStatusConflict
	}
	o.Status = types.OrderAccepted
	o.DriverID = &driverID
	if o.AcceptedAt == nil {
		now := time.Now()
		o.AcceptedAt = &now
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateStatusFrom(ctx context.Context, orderID int64, from, to types.OrderStatus) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if o.Status != from {
		return nil, types.ErrOrderStatusConflict
	}
	now := time.Now()
	o.Status = to
	switch to {
	case types.OrderArrivedAtA:
		if o.ArrivedAtA == nil {
			o.ArrivedAtA = &now
		}
	case types.OrderNavigatingToB:
		if o.StartedToB == nil {
			o.StartedToB = &now
		}
	case types.OrderCompleted:
		if o.CompletedAt == nil {
			o.CompletedAt = &now
		}
	case types.OrderCancelled, types.OrderRejectedByDriver:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Release(ctx context.Context, orderID, driverID int64) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if o.DriverID == nil || *o.DriverID != driverID {
		return nil, types.ErrOrderStatusConflict
	}
	o.Status = types.OrderReceived
	o.DriverID = nil
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error {
	o, ok := f.orders[order.ID]
	if !ok {
		return types.ErrOrderNotFound
	}
	o.ClientName = order.ClientName
	o.ClientPhone = order.ClientPhone
	o.Price = order.Price
	o.Notes = order.Notes
	return nil
}

func (f *fakeOrderRepo) List(ctx context.Context, taxiparkID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	return nil, models.Metadata{}, nil
}

func (f *fakeOrderRepo) ListByDriver(ctx context.Context, driverID int64, statuses []types.OrderStatus, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	return nil, models.Metadata{}, nil
}

func (f *fakeOrderRepo) ListByClientPhone(ctx context.Context, clientPhone string, filters models.Filters) ([]*models.Order, models.Metadata, error) {
	return nil, models.Metadata{}, nil
}

func (f *fakeOrderRepo) ListAvailable(ctx context.Context, taxiparkID int64, tariff string) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.TaxiparkID == taxiparkID && o.Status == types.OrderReceived && o.DriverID == nil {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ActiveByDriver(ctx context.Context, driverID int64) (*models.Order, error) {
	return nil, types.ErrOrderNotFound
}

func (f *fakeOrderRepo) CountByDate(ctx context.Context, date time.Time) (int, error) {
	return len(f.orders), nil
}

type fakeDriverRepo struct {
	drivers map[int64]*models.Driver
}

func (f *fakeDriverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	return d, nil
}

type fakeLedger struct {
	charged      map[int64]int
	insufficient bool
}

func (f *fakeLedger) ChargeCommission(ctx context.Context, driverID int64, order *models.Order) (float64, error) {
	if f.insufficient {
		return 0, &types.InsufficientBalanceError{Required: 45, Available: 10, CommissionPercent: 15}
	}
	if f.charged == nil {
		f.charged = make(map[int64]int)
	}
	f.charged[order.ID]++
	if f.charged[order.ID] > 1 {
		return 0, types.ErrCommissionAlreadyCharged
	}
	return 45, nil
}

type fakeMatcher struct {
	driver *models.Driver
	err    error
}

func (f *fakeMatcher) FindNearest(ctx context.Context, taxiparkID int64, tariff string, pickup models.Location) (*models.DriverWithDistance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.DriverWithDistance{Driver: f.driver, DistanceKm: 1.2}, nil
}

type fakeNotifier struct {
	created []models.Order
	changes []models.StatusChange
}

func (f *fakeNotifier) NewOrder(ctx context.Context, order *models.Order) {
	f.created = append(f.created, *order)
}

func (f *fakeNotifier) StatusChanged(ctx context.Context, change models.StatusChange) {
	f.changes = append(f.changes, change)
}

type env struct {
	svc      *Service
	repo     *fakeOrderRepo
	ledger   *fakeLedger
	notifier *fakeNotifier
}

func newEnv(t *testing.T, matcher Matcher) *env {
	t.Helper()

	repo := newFakeOrderRepo()
	led := &fakeLedger{}
	notif := &fakeNotifier{}
	drivers := &fakeDriverRepo{drivers: map[int64]*models.Driver{
		7:  {ID: 7, IsActive: true},
		8:  {ID: 8, IsActive: true},
		99: {ID: 99, IsActive: false},
	}}

	svc := NewService(repo, drivers, led, matcher, notif, noopTxManager{},
		logger.InitLogger("test", logger.LevelDebug))

	return &env{svc: svc, repo: repo, ledger: led, notifier: notif}
}

func newOrder() *models.Order {
	lat, lon := 42.87, 74.59
	return &models.Order{
		ClientName:         "Айгуль",
		ClientPhone:        "0700112233",
		PickupAddress:      "Чуй 1",
		PickupLatitude:     &lat,
		PickupLongitude:    &lon,
		DestinationAddress: "Манас 10",
		Price:              300,
		Tariff:             types.TariffEconomy,
		TaxiparkID:         1,
	}
}

func TestCreate_AutoMatchAssignsDriver(t *testing.T) {
	e := newEnv(t, &fakeMatcher{driver: &models.Driver{ID: 7, IsActive: true}})

	created, err := e.svc.Create(context.Background(), newOrder(), true)
	require.NoError(t, err)

	assert.Equal(t, types.OrderReceived, created.Status)
	require.NotNil(t, created.DriverID)
	assert.Equal(t, int64(7), *created.DriverID)
	assert.Equal(t, "+996700112233", created.ClientPhone)
	assert.True(t, strings.HasPrefix(created.OrderNumber, "ORDER_"))
	assert.True(t, strings.HasSuffix(created.OrderNumber, "_001"))

	require.Len(t, e.notifier.created, 1)
}

func TestCreate_ExplicitDriver(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	o := newOrder()
	driverID := int64(8)
	o.DriverID = &driverID

	created, err := e.svc.Create(context.Background(), o, false)
	require.NoError(t, err)
	require.NotNil(t, created.DriverID)
	assert.Equal(t, int64(8), *created.DriverID)
}

func TestCreate_ExplicitBlockedDriver(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	o := newOrder()
	driverID := int64(99)
	o.DriverID = &driverID

	_, err := e.svc.Create(context.Background(), o, false)
	assert.ErrorIs(t, err, types.ErrDriverInactive)
}

func TestCreate_NoDriverAvailable(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), true)
	require.NoError(t, err)

	assert.Nil(t, created.DriverID)
	assert.Equal(t, types.OrderReceived, created.Status)
}

func TestCreate_SequenceNumbers(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	first, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)
	second, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(first.OrderNumber, "_001"))
	assert.True(t, strings.HasSuffix(second.OrderNumber, "_002"))
}

func TestAccept(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	accepted, err := e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, types.OrderAccepted, accepted.Status)
	require.NotNil(t, accepted.DriverID)
	assert.Equal(t, int64(7), *accepted.DriverID)
	assert.NotNil(t, accepted.AcceptedAt)
	assert.Equal(t, 1, e.ledger.charged[created.ID])

	require.Len(t, e.notifier.changes, 1)
	assert.Equal(t, types.OrderAccepted, e.notifier.changes[0].NewStatus)
}

func TestAccept_ConcurrentLoserGetsConflict(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	_, err = e.svc.Accept(context.Background(), created.ID, 8)
	assert.ErrorIs(t, err, types.ErrOrderStatusConflict)

	// Комиссия списана только с победителя.
	assert.Equal(t, 1, e.ledger.charged[created.ID])
}

func TestAccept_InsufficientBalance(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})
	e.ledger.insufficient = true

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.Error(t, err)

	insufficient, ok := types.IsInsufficientBalance(err)
	require.True(t, ok)
	assert.InDelta(t, 45.0, insufficient.Required, 1e-9)
}

func TestAccept_BlockedDriver(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	_, err = e.svc.Accept(context.Background(), created.ID, 99)
	assert.ErrorIs(t, err, types.ErrDriverInactive)
}

func TestAccept_AssignedOrderOnlyByItsDriver(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	o := newOrder()
	driverID := int64(8)
	o.DriverID = &driverID
	created, err := e.svc.Create(context.Background(), o, false)
	require.NoError(t, err)

	// Назначенный, но не принятый заказ не виден в ленте и не достаётся чужому водителю.
	available, err := e.svc.ListAvailable(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	assert.ErrorIs(t, err, types.ErrOrderStatusConflict)

	accepted, err := e.svc.Accept(context.Background(), created.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, types.OrderAccepted, accepted.Status)
}

func TestAccept_ReacceptanceKeepsFirstAcceptedAt(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	first, err := e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, first.AcceptedAt)

	_, err = e.svc.TransitionByDispatcher(context.Background(), created.ID, types.OrderReceived)
	require.NoError(t, err)

	second, err := e.svc.Accept(context.Background(), created.ID, 8)
	require.NoError(t, err)
	require.NotNil(t, second.AcceptedAt)
	assert.Equal(t, *first.AcceptedAt, *second.AcceptedAt)
}

func TestTransitionByDriver_FullChain(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)
	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	chain := []types.OrderStatus{
		types.OrderNavigatingToA,
		types.OrderArrivedAtA,
		types.OrderNavigatingToB,
		types.OrderCompleted,
	}
	var last *models.Order
	for _, status := range chain {
		last, err = e.svc.TransitionByDriver(context.Background(), created.ID, 7, status)
		require.NoError(t, err, "transition to %s", status)
		assert.Equal(t, status, last.Status)
	}

	assert.NotNil(t, last.AcceptedAt)
	assert.NotNil(t, last.ArrivedAtA)
	assert.NotNil(t, last.StartedToB)
	assert.NotNil(t, last.CompletedAt)
}

func TestTransitionByDriver_NoSkipping(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)
	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	// accepted → navigating_to_b перепрыгивает arrived_at_a
	_, err = e.svc.TransitionByDriver(context.Background(), created.ID, 7, types.OrderNavigatingToB)
	assert.ErrorIs(t, err, types.ErrInvalidOrderStatus)
}

func TestTransitionByDriver_UnknownStatus(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	_, err = e.svc.TransitionByDriver(context.Background(), created.ID, 7, types.OrderStatus("teleported"))
	assert.ErrorIs(t, err, types.ErrInvalidOrderStatus)
}

func TestTransitionByDriver_WrongDriver(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)
	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	_, err = e.svc.TransitionByDriver(context.Background(), created.ID, 8, types.OrderNavigatingToA)
	assert.ErrorIs(t, err, types.ErrOrderDriverMismatch)
}

func TestTransitionByDriver_TerminalIsFinal(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)
	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)
	_, err = e.svc.TransitionByDriver(context.Background(), created.ID, 7, types.OrderCancelled)
	require.NoError(t, err)

	_, err = e.svc.TransitionByDriver(context.Background(), created.ID, 7, types.OrderNavigatingToA)
	assert.ErrorIs(t, err, types.ErrOrderStatusConflict)
}

func TestTransitionByDriver_RejectOfferReturnsToPool(t *testing.T) {
	e := newEnv(t, &fakeMatcher{driver: &models.Driver{ID: 7, IsActive: true}})

	created, err := e.svc.Create(context.Background(), newOrder(), true)
	require.NoError(t, err)
	require.NotNil(t, created.DriverID)

	updated, err := e.svc.TransitionByDriver(context.Background(), created.ID, 7, types.OrderRejectedByDriver)
	require.NoError(t, err)

	assert.Equal(t, types.OrderReceived, updated.Status)
	assert.Nil(t, updated.DriverID)

	available, err := e.svc.ListAvailable(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, available, 1)
}

func TestTransitionByDriver_RejectAfterAcceptIsTerminal(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)
	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	updated, err := e.svc.TransitionByDriver(context.Background(), created.ID, 7, types.OrderRejectedByDriver)
	require.NoError(t, err)

	assert.Equal(t, types.OrderRejectedByDriver, updated.Status)
	assert.NotNil(t, updated.CancelledAt)
}

func TestTransitionByDispatcher_ReturnToPool(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)
	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	updated, err := e.svc.TransitionByDispatcher(context.Background(), created.ID, types.OrderReceived)
	require.NoError(t, err)

	assert.Equal(t, types.OrderReceived, updated.Status)
	assert.Nil(t, updated.DriverID)
}

func TestTransitionByDispatcher_RejectedNotAllowed(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	_, err = e.svc.TransitionByDispatcher(context.Background(), created.ID, types.OrderRejectedByDriver)
	assert.ErrorIs(t, err, types.ErrInvalidOrderStatus)
}

func TestUpdateDetails_OnlyWhileReceived(t *testing.T) {
	e := newEnv(t, &fakeMatcher{err: types.ErrNoDriverAvailable})

	created, err := e.svc.Create(context.Background(), newOrder(), false)
	require.NoError(t, err)

	created.Notes = "подъезд 3"
	updated, err := e.svc.UpdateDetails(context.Background(), created)
	require.NoError(t, err)
	assert.Equal(t, "подъезд 3", updated.Notes)

	_, err = e.svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	_, err = e.svc.UpdateDetails(context.Background(), created)
	assert.ErrorIs(t, err, types.ErrOrderStatusConflict)
}

// countingTxManager повторяет семантику настоящего менеджера: вложенные
// вызовы присоединяются к открытой транзакции, фиксирует только внешний кадр.
type countingTxManager struct {
	commits int
}

type txFrameKey struct{}

func (m *countingTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txFrameKey{}) != nil {
		return fn(ctx)
	}
	if err := fn(context.WithValue(ctx, txFrameKey{}, struct{}{})); err != nil {
		return err
	}
	m.commits++
	return nil
}

type balanceDriverRepo struct {
	balance float64
}

func (f *balanceDriverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	return &models.Driver{ID: id, IsActive: true, Balance: f.balance}, nil
}

func (f *balanceDriverRepo) BalanceForUpdate(ctx context.Context, driverID int64) (float64, error) {
	return f.balance, nil
}

func (f *balanceDriverRepo) AddToBalance(ctx context.Context, driverID int64, amount float64) (float64, error) {
	f.balance += amount
	return f.balance, nil
}

type fixedParkRepo struct{}

func (fixedParkRepo) GetByID(ctx context.Context, id int64) (*models.Taxipark, error) {
	return &models.Taxipark{ID: id, CommissionPercent: 15}, nil
}

type recordingTransactionRepo struct {
	created []*models.Transaction
}

func (f *recordingTransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	f.created = append(f.created, t)
	return nil
}

func (f *recordingTransactionRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	return false, nil
}

func (f *recordingTransactionRepo) ListByDriver(ctx context.Context, driverID int64, filters models.Filters) ([]*models.Transaction, models.Metadata, error) {
	return nil, models.Metadata{}, nil
}

// Списание комиссии выполняется внутри транзакции захвата заказа,
// настоящий сервис ledger присоединяется к ней вместо открытия своей.
func TestAccept_CommissionJoinsAcceptanceTransaction(t *testing.T) {
	log := logger.InitLogger("test", logger.LevelDebug)

	repo := newFakeOrderRepo()
	drivers := &balanceDriverRepo{balance: 500}
	txRepo := &recordingTransactionRepo{}
	txm := &countingTxManager{}

	led := ledger.NewService(txRepo, drivers, fixedParkRepo{}, txm, 15, log)
	svc := NewService(repo, drivers, led, &fakeMatcher{err: types.ErrNoDriverAvailable}, &fakeNotifier{}, txm, log)

	o := newOrder()
	o.Price = 1000
	created, err := svc.Create(context.Background(), o, false)
	require.NoError(t, err)
	before := txm.commits

	accepted, err := svc.Accept(context.Background(), created.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, types.OrderAccepted, accepted.Status)
	assert.Equal(t, before+1, txm.commits)
	require.Len(t, txRepo.created, 1)
	assert.Equal(t, -150.0, txRepo.created[0].Amount)
	assert.Equal(t, 350.0, drivers.balance)
}
