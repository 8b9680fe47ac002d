package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

type fakeClientRepo struct {
	seq     int64
	clients map[int64]*models.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[int64]*models.Client)}
}

func (f *fakeClientRepo) Create(ctx context.Context, client *models.Client) error {
	for _, c := range f.clients {
		if c.PhoneNumber == client.PhoneNumber {
			return types.ErrClientRegistered
		}
	}
	f.seq++
	client.ID = f.seq
	cp := *client
	f.clients[client.ID] = &cp
	return nil
}

func (f *fakeClientRepo) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, types.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClientRepo) GetByPhone(ctx context.Context, phoneNumber string) (*models.Client, error) {
	for _, c := range f.clients {
		if c.PhoneNumber == phoneNumber {
			cp := *c
			return &cp, nil
		}
	}
	return nil, types.ErrClientNotFound
}

func (f *fakeClientRepo) Update(ctx context.Context, client *models.Client) error {
	c, ok := f.clients[client.ID]
	if !ok {
		return types.ErrClientNotFound
	}
	c.Name = client.Name
	return nil
}

type fakeParkRepo struct {
	parks map[int64]*models.Taxipark
}

func (f *fakeParkRepo) GetByID(ctx context.Context, id int64) (*models.Taxipark, error) {
	p, ok := f.parks[id]
	if !ok {
		return nil, types.ErrTaxiparkNotFound
	}
	return p, nil
}

func newService(t *testing.T) (*Service, *fakeClientRepo) {
	t.Helper()

	repo := newFakeClientRepo()
	parks := &fakeParkRepo{parks: map[int64]*models.Taxipark{
		1: {ID: 1, Name: "Demo Park", IsActive: true},
		2: {ID: 2, Name: "Closed Park", IsActive: false},
	}}
	svc := NewService(repo, parks, logger.InitLogger("test", logger.LevelDebug))
	return svc, repo
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)

	c, err := svc.Register(context.Background(), &models.Client{
		Name:        "Айгуль",
		PhoneNumber: "0700 11-22-33",
		TaxiparkID:  1,
	})

	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "+996700112233", c.PhoneNumber)
	assert.True(t, c.IsActive)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), &models.Client{
		Name: "Айгуль", PhoneNumber: "0700112233", TaxiparkID: 1,
	})
	require.NoError(t, err)

	// Другое форматирование того же номера.
	_, err = svc.Register(context.Background(), &models.Client{
		Name: "Айгуль", PhoneNumber: "+996 700 112 233", TaxiparkID: 1,
	})
	assert.ErrorIs(t, err, types.ErrClientRegistered)
}

func TestRegister_InactivePark(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), &models.Client{
		Name: "Айгуль", PhoneNumber: "0700112233", TaxiparkID: 2,
	})
	assert.ErrorIs(t, err, types.ErrTaxiparkInactive)
}

func TestRegister_UnknownPark(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), &models.Client{
		Name: "Айгуль", PhoneNumber: "0700112233", TaxiparkID: 77,
	})
	assert.ErrorIs(t, err, types.ErrTaxiparkNotFound)
}

func TestRegister_InvalidPhone(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), &models.Client{
		Name: "Айгуль", PhoneNumber: "123", TaxiparkID: 1,
	})
	assert.ErrorIs(t, err, types.ErrInvalidPhoneNumber)
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newService(t)

	c, err := svc.Register(context.Background(), &models.Client{
		Name: "Айгуль", PhoneNumber: "0700112233", TaxiparkID: 1,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(context.Background(), c.ID, "Айгуль С.")
	require.NoError(t, err)
	assert.Equal(t, "Айгуль С.", updated.Name)
	assert.Equal(t, c.PhoneNumber, updated.PhoneNumber)

	stored, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Айгуль С.", stored.Name)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.UpdateProfile(context.Background(), 404, "Имя")
	assert.ErrorIs(t, err, types.ErrClientNotFound)
}
