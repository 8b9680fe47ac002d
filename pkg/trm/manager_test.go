package trm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/pkg/trm"
)

// countingTx counts commit/rollback calls on a transaction shared via context.
type countingTx struct {
	pgx.Tx
	commits   int
	rollbacks int
}

func (t *countingTx) Commit(ctx context.Context) error {
	t.commits++
	return nil
}

func (t *countingTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

func TestDo_JoinsExistingTransaction(t *testing.T) {
	m := trm.New(nil) // pool is not touched when the context already carries a tx
	tx := &countingTx{}
	ctx := context.WithValue(context.Background(), trm.TxKey, pgx.Tx(tx))

	var called bool
	err := m.Do(ctx, func(ctx context.Context) error {
		return m.Do(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})
	})

	require.NoError(t, err)
	assert.True(t, called)
	// only the frame that began the transaction may commit it
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)
}

func TestDo_JoinedFramePropagatesErrorWithoutRollback(t *testing.T) {
	m := trm.New(nil)
	tx := &countingTx{}
	ctx := context.WithValue(context.Background(), trm.TxKey, pgx.Tx(tx))

	boom := errors.New("boom")
	err := m.Do(ctx, func(ctx context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, tx.rollbacks)
	assert.Equal(t, 0, tx.commits)
}
