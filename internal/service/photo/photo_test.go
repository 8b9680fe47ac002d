package photo

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
)

type noopTxManager struct{}

func (noopTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeVerificationRepo struct {
	seq  int64
	rows map[int64]*models.PhotoVerification
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{rows: make(map[int64]*models.PhotoVerification)}
}

func (f *fakeVerificationRepo) Create(ctx context.Context, v *models.PhotoVerification) error {
	f.seq++
	v.ID = f.seq
	cp := *v
	f.rows[v.ID] = &cp
	return nil
}

func (f *fakeVerificationRepo) GetByID(ctx context.Context, id int64) (*models.PhotoVerification, error) {
	v, ok := f.rows[id]
	if !ok {
		return nil, types.ErrVerificationNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVerificationRepo) LatestByDriver(ctx context.Context, driverID int64) (*models.PhotoVerification, error) {
	var latest *models.PhotoVerification
	for _, v := range f.rows {
		if v.DriverID != driverID {
			continue
		}
		if latest == nil || v.ID > latest.ID {
			latest = v
		}
	}
	if latest == nil {
		return nil, types.ErrVerificationNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeVerificationRepo) ListPending(ctx context.Context, taxiparkID int64) ([]*models.PhotoVerification, error) {
	var out []*models.PhotoVerification
	for _, v := range f.rows {
		if v.Status == types.VerificationPending {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeVerificationRepo) Decide(ctx context.Context, id int64, status types.VerificationStatus, reason string, processedBy int64) (*models.PhotoVerification, error) {
	v, ok := f.rows[id]
	if !ok {
		return nil, types.ErrVerificationNotFound
	}
	if v.Status != types.VerificationPending {
		return nil, types.ErrVerificationProcessed
	}
	v.Status = status
	v.RejectionReason = reason
	v.ProcessedBy = &processedBy
	cp := *v
	return &cp, nil
}

type fakeDriverRepo struct {
	statuses map[int64]types.VerificationStatus
}

func (f *fakeDriverRepo) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	if _, ok := f.statuses[id]; !ok {
		return nil, types.ErrDriverNotFound
	}
	return &models.Driver{ID: id, PhotoVerificationStatus: f.statuses[id]}, nil
}

func (f *fakeDriverRepo) SetVerificationStatus(ctx context.Context, driverID int64, status types.VerificationStatus) error {
	f.statuses[driverID] = status
	return nil
}

type fakeNotifier struct {
	decisions []types.VerificationStatus
}

func (f *fakeNotifier) VerificationDecision(ctx context.Context, driverID int64, status types.VerificationStatus, reason string) {
	f.decisions = append(f.decisions, status)
}

func newTestService(t *testing.T) (*Service, *fakeVerificationRepo, *fakeDriverRepo, *fakeNotifier) {
	t.Helper()

	repo := newFakeVerificationRepo()
	drivers := &fakeDriverRepo{statuses: map[int64]types.VerificationStatus{
		7: types.VerificationNotStarted,
	}}
	notifier := &fakeNotifier{}

	svc := NewService(repo, drivers, notifier, noopTxManager{}, t.TempDir(),
		logger.InitLogger("test", logger.LevelDebug))
	return svc, repo, drivers, notifier
}

func uploads() []Upload {
	return []Upload{
		{Slot: "front", FileName: "front.jpg", Content: strings.NewReader("front-bytes")},
		{Slot: "salon", FileName: "salon.png", Content: strings.NewReader("salon-bytes")},
	}
}

func TestSubmit(t *testing.T) {
	svc, _, drivers, _ := newTestService(t)

	v, err := svc.Submit(context.Background(), 7, uploads())
	require.NoError(t, err)

	assert.Equal(t, types.VerificationPending, v.Status)
	assert.Equal(t, types.VerificationPending, drivers.statuses[7])
	require.Len(t, v.Photos, 2)

	// Файлы реально записаны.
	for slot, path := range v.Photos {
		data, err := os.ReadFile(path)
		require.NoError(t, err, "slot %s", slot)
		assert.NotEmpty(t, data)
	}
}

func TestSubmit_NoPhotos(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), 7, nil)
	assert.ErrorIs(t, err, types.ErrNoPhotosProvided)
}

func TestSubmit_AlreadyPending(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), 7, uploads())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), 7, uploads())
	assert.ErrorIs(t, err, types.ErrVerificationPending)
}

func TestSubmit_UnknownDriver(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), 404, uploads())
	assert.ErrorIs(t, err, types.ErrDriverNotFound)
}

func TestDecide_Approve(t *testing.T) {
	svc, _, drivers, notifier := newTestService(t)

	v, err := svc.Submit(context.Background(), 7, uploads())
	require.NoError(t, err)

	decided, err := svc.Decide(context.Background(), v.ID, true, "", 100)
	require.NoError(t, err)

	assert.Equal(t, types.VerificationApproved, decided.Status)
	assert.Equal(t, types.VerificationApproved, drivers.statuses[7])
	require.NotNil(t, decided.ProcessedBy)
	assert.Equal(t, int64(100), *decided.ProcessedBy)
	assert.Equal(t, []types.VerificationStatus{types.VerificationApproved}, notifier.decisions)
}

func TestDecide_RejectRequiresReason(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	v, err := svc.Submit(context.Background(), 7, uploads())
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), v.ID, false, "  ", 100)
	assert.ErrorIs(t, err, types.ErrRejectionReasonEmpty)

	decided, err := svc.Decide(context.Background(), v.ID, false, "номер не читается", 100)
	require.NoError(t, err)
	assert.Equal(t, types.VerificationRejected, decided.Status)
	assert.Equal(t, "номер не читается", decided.RejectionReason)
}

func TestDecide_AlreadyProcessed(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	v, err := svc.Submit(context.Background(), 7, uploads())
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), v.ID, true, "", 100)
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), v.ID, true, "", 100)
	assert.ErrorIs(t, err, types.ErrVerificationProcessed)
}

func TestStatus_NotStarted(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	v, err := svc.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, types.VerificationNotStarted, v.Status)
}

func TestStatus_AfterReject_CanResubmit(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	v, err := svc.Submit(context.Background(), 7, uploads())
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), v.ID, false, "блик на фото", 100)
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, types.VerificationRejected, status.Status)

	_, err = svc.Submit(context.Background(), 7, uploads())
	require.NoError(t, err)
}
