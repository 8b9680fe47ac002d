package park

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/passhash"
)

type fakeTaxiparkRepo struct {
	seq      int64
	parks    map[int64]*models.Taxipark
	counters map[int64]*models.TaxiparkCounters
}

func newFakeTaxiparkRepo() *fakeTaxiparkRepo {
	return &fakeTaxiparkRepo{
		parks:    make(map[int64]*models.Taxipark),
		counters: make(map[int64]*models.TaxiparkCounters),
	}
}

func (f *fakeTaxiparkRepo) Create(ctx context.Context, park *models.Taxipark) error {
	for _, p := range f.parks {
		if p.Name == park.Name {
			return types.ErrTaxiparkExists
		}
	}
	f.seq++
	park.ID = f.seq
	cp := *park
	f.parks[park.ID] = &cp
	return nil
}

func (f *fakeTaxiparkRepo) GetByID(ctx context.Context, id int64) (*models.Taxipark, error) {
	p, ok := f.parks[id]
	if !ok {
		return nil, types.ErrTaxiparkNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeTaxiparkRepo) Update(ctx context.Context, park *models.Taxipark) error {
	p, ok := f.parks[park.ID]
	if !ok {
		return types.ErrTaxiparkNotFound
	}
	p.Name = park.Name
	p.City = park.City
	p.CommissionPercent = park.CommissionPercent
	return nil
}

func (f *fakeTaxiparkRepo) List(ctx context.Context, filters models.Filters) ([]*models.Taxipark, models.Metadata, error) {
	var out []*models.Taxipark
	for _, p := range f.parks {
		cp := *p
		out = append(out, &cp)
	}
	return out, models.CalculateMetadata(len(out), filters.Page, filters.PageSize), nil
}

func (f *fakeTaxiparkRepo) SetActive(ctx context.Context, id int64, isActive bool) error {
	p, ok := f.parks[id]
	if !ok {
		return types.ErrTaxiparkNotFound
	}
	p.IsActive = isActive
	return nil
}

func (f *fakeTaxiparkRepo) Counters(ctx context.Context, taxiparkID int64) (*models.TaxiparkCounters, error) {
	if c, ok := f.counters[taxiparkID]; ok {
		cp := *c
		return &cp, nil
	}
	return &models.TaxiparkCounters{}, nil
}

type fakeDispatcherRepo struct {
	seq  int64
	rows map[int64]*models.Dispatcher
}

func newFakeDispatcherRepo() *fakeDispatcherRepo {
	return &fakeDispatcherRepo{rows: make(map[int64]*models.Dispatcher)}
}

func (f *fakeDispatcherRepo) Create(ctx context.Context, d *models.Dispatcher) error {
	for _, existing := range f.rows {
		if existing.Login == d.Login {
			return types.ErrDispatcherLoginExists
		}
	}
	f.seq++
	d.ID = f.seq
	cp := *d
	f.rows[d.ID] = &cp
	return nil
}

func (f *fakeDispatcherRepo) GetByID(ctx context.Context, id int64) (*models.Dispatcher, error) {
	d, ok := f.rows[id]
	if !ok {
		return nil, types.ErrDispatcherNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDispatcherRepo) ListByPark(ctx context.Context, taxiparkID int64) ([]*models.Dispatcher, error) {
	var out []*models.Dispatcher
	for _, d := range f.rows {
		if d.TaxiparkID == taxiparkID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDispatcherRepo) SetActive(ctx context.Context, id int64, isActive bool) error {
	d, ok := f.rows[id]
	if !ok {
		return types.ErrDispatcherNotFound
	}
	d.IsActive = isActive
	return nil
}

func (f *fakeDispatcherRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	d, ok := f.rows[id]
	if !ok {
		return types.ErrDispatcherNotFound
	}
	d.PasswordHash = passwordHash
	return nil
}

func newTestService() (*Service, *fakeTaxiparkRepo, *fakeDispatcherRepo) {
	parks := newFakeTaxiparkRepo()
	dispatchers := newFakeDispatcherRepo()
	svc := NewService(parks, dispatchers, logger.InitLogger("test", logger.LevelDebug))
	return svc, parks, dispatchers
}

func TestCreatePark(t *testing.T) {
	svc, _, _ := newTestService()

	park, err := svc.CreatePark(context.Background(), &models.Taxipark{
		Name: "  Ош Такси  ",
		City: "Ош",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ош Такси", park.Name)
	assert.True(t, park.IsActive)

	_, err = svc.CreatePark(context.Background(), &models.Taxipark{Name: "Ош Такси"})
	assert.ErrorIs(t, err, types.ErrTaxiparkExists)
}

func TestGetPark_RecountsCounters(t *testing.T) {
	svc, parks, _ := newTestService()

	created, err := svc.CreatePark(context.Background(), &models.Taxipark{Name: "Парк"})
	require.NoError(t, err)

	parks.counters[created.ID] = &models.TaxiparkCounters{
		DriverCount:      12,
		ClientCount:      80,
		ActiveOrderCount: 3,
	}

	got, err := svc.GetPark(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.DriverCount)
	assert.Equal(t, int64(80), got.ClientCount)
	assert.Equal(t, int64(3), got.ActiveOrderCount)
}

func TestRecountTaxiparkCounters(t *testing.T) {
	svc, parks, _ := newTestService()

	created, err := svc.CreatePark(context.Background(), &models.Taxipark{Name: "Парк"})
	require.NoError(t, err)
	parks.counters[created.ID] = &models.TaxiparkCounters{DriverCount: 5}

	counters, err := svc.RecountTaxiparkCounters(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), counters.DriverCount)
}

func TestCreateDispatcher(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreatePark(context.Background(), &models.Taxipark{Name: "Парк"})
	require.NoError(t, err)

	d, err := svc.CreateDispatcher(context.Background(), &models.Dispatcher{
		Login:      " Aliya ",
		FullName:   "Алия Сыдыкова",
		TaxiparkID: created.ID,
	}, "secret-pass")
	require.NoError(t, err)

	assert.Equal(t, "aliya", d.Login)
	assert.True(t, d.IsActive)
	assert.NotEqual(t, "secret-pass", d.PasswordHash)

	ok, err := passhash.VerifyPassword("secret-pass", d.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateDispatcher_InactivePark(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreatePark(context.Background(), &models.Taxipark{Name: "Парк"})
	require.NoError(t, err)
	require.NoError(t, svc.SetParkActive(context.Background(), created.ID, false))

	_, err = svc.CreateDispatcher(context.Background(), &models.Dispatcher{
		Login:      "aliya",
		TaxiparkID: created.ID,
	}, "secret-pass")
	assert.ErrorIs(t, err, types.ErrTaxiparkInactive)
}

func TestCreateDispatcher_DuplicateLogin(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.CreatePark(context.Background(), &models.Taxipark{Name: "Парк"})
	require.NoError(t, err)

	_, err = svc.CreateDispatcher(context.Background(), &models.Dispatcher{Login: "aliya", TaxiparkID: created.ID}, "pass1")
	require.NoError(t, err)

	_, err = svc.CreateDispatcher(context.Background(), &models.Dispatcher{Login: "ALIYA", TaxiparkID: created.ID}, "pass2")
	assert.ErrorIs(t, err, types.ErrDispatcherLoginExists)
}

func TestResetDispatcherPassword(t *testing.T) {
	svc, _, dispatchers := newTestService()

	created, err := svc.CreatePark(context.Background(), &models.Taxipark{Name: "Парк"})
	require.NoError(t, err)
	d, err := svc.CreateDispatcher(context.Background(), &models.Dispatcher{Login: "aliya", TaxiparkID: created.ID}, "old-pass")
	require.NoError(t, err)

	require.NoError(t, svc.ResetDispatcherPassword(context.Background(), d.ID, "new-pass"))

	stored := dispatchers.rows[d.ID]
	ok, err := passhash.VerifyPassword("new-pass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	err = svc.ResetDispatcherPassword(context.Background(), 404, "x")
	assert.ErrorIs(t, err, types.ErrDispatcherNotFound)
}
