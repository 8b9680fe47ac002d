package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

func newTestStore(t *testing.T) (*SMSCodeStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSMSCodeStore(client, 10*time.Minute), mr
}

func TestSMSCodeStore_GenerateAndVerify(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, types.RoleDriver, "+996555123456")
	require.NoError(t, err)
	require.Len(t, code, 4)

	err = store.Verify(ctx, types.RoleDriver, "+996555123456", code)
	assert.NoError(t, err)
}

func TestSMSCodeStore_SingleUse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, types.RoleDriver, "+996555123456")
	require.NoError(t, err)

	require.NoError(t, store.Verify(ctx, types.RoleDriver, "+996555123456", code))

	// Код сгорает после первого использования.
	err = store.Verify(ctx, types.RoleDriver, "+996555123456", code)
	assert.ErrorIs(t, err, types.ErrInvalidSMSCode)
}

func TestSMSCodeStore_WrongCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, types.RoleClient, "+996555123456")
	require.NoError(t, err)

	wrong := "0000"
	if wrong == code {
		wrong = "9999"
	}

	err = store.Verify(ctx, types.RoleClient, "+996555123456", wrong)
	assert.ErrorIs(t, err, types.ErrInvalidSMSCode)

	// Неверная попытка не сжигает код.
	assert.NoError(t, store.Verify(ctx, types.RoleClient, "+996555123456", code))
}

func TestSMSCodeStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, types.RoleDriver, "+996555123456")
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	err = store.Verify(ctx, types.RoleDriver, "+996555123456", code)
	assert.ErrorIs(t, err, types.ErrInvalidSMSCode)
}

func TestSMSCodeStore_RoleIsolation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Generate(ctx, types.RoleDriver, "+996555123456")
	require.NoError(t, err)

	// Код водителя не подходит для входа клиента с тем же номером.
	err = store.Verify(ctx, types.RoleClient, "+996555123456", code)
	assert.ErrorIs(t, err, types.ErrInvalidSMSCode)
}
