package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/models"
	"github.com/langchou/smartmechanic/internal/storage"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestLedger(t *testing.T, user *models.User) (*Ledger, *storage.Store, *fakeClock) {
	t.Helper()
	store := storage.New(storage.NewMemoryKV(), zap.NewNop())
	if user != nil {
		require.NoError(t, store.SaveUser(context.Background(), user))
	}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)}
	return New(store, zap.NewNop(), WithClock(clock.now)), store, clock
}

func TestAddPoints(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, &models.User{Name: "amine", Points: 20})

	user, err := l.AddPoints(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 25, user.Points)

	user, err = l.AddPoints(ctx, -30)
	require.NoError(t, err)
	assert.Equal(t, -5, user.Points)

	stored, err := store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, -5, stored.Points)
}

func TestAddPointsWithoutUser(t *testing.T) {
	l, _, _ := newTestLedger(t, nil)
	_, err := l.AddPoints(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestAwardHook(t *testing.T) {
	var reasons []Reason
	var total int
	store := storage.New(storage.NewMemoryKV(), zap.NewNop())
	require.NoError(t, store.SaveUser(context.Background(), &models.User{Name: "u"}))
	l := New(store, zap.NewNop(), WithAwardHook(func(r Reason, amount int) {
		reasons = append(reasons, r)
		total += amount
	}))

	_, err := l.Award(context.Background(), ReasonFaultDiagnosis, PointsFaultDiagnosis)
	require.NoError(t, err)
	_, err = l.Award(context.Background(), ReasonImageDiagnosis, PointsImageDiagnosis)
	require.NoError(t, err)

	assert.Equal(t, []Reason{ReasonFaultDiagnosis, ReasonImageDiagnosis}, reasons)
	assert.Equal(t, 15, total)
}

func TestRedeemProInsufficient(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, &models.User{Name: "u", Points: 499})

	_, err := l.RedeemPro(ctx)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	stored, err := store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, 499, stored.Points)
	assert.False(t, stored.IsPro)
}

func TestRedeemPro(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, &models.User{Name: "u", Points: 620})

	user, err := l.RedeemPro(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, user.Points)
	assert.True(t, user.IsPro)

	stored, err := store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, stored.Points)
	assert.True(t, stored.IsPro)

	_, err = l.RedeemPro(ctx)
	assert.ErrorIs(t, err, ErrAlreadyPro)
}

func TestUpgradeToProKeepsPoints(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t, &models.User{Name: "u", Points: 50})

	user, err := l.UpgradeToPro(ctx)
	require.NoError(t, err)
	assert.True(t, user.IsPro)
	assert.Equal(t, 50, user.Points)

	_, err = l.UpgradeToPro(ctx)
	assert.ErrorIs(t, err, ErrAlreadyPro)
}

func TestDailyGiftBoundary(t *testing.T) {
	ctx := context.Background()
	l, store, clock := newTestLedger(t, &models.User{Name: "u", Points: 0})
	t0 := clock.t

	status, err := l.GiftStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Available)

	user, err := l.ClaimDailyGift(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, user.Points)

	last, err := store.LastDailyGift(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(t0))

	clock.t = t0.Add(GiftInterval - time.Millisecond)
	_, err = l.ClaimDailyGift(ctx)
	assert.ErrorIs(t, err, ErrGiftNotReady)

	status, err = l.GiftStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.Equal(t, "0h 0m", status.TimeLeft)

	clock.t = t0.Add(GiftInterval)
	user, err = l.ClaimDailyGift(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, user.Points)
}

func TestGiftStatusTimeLeft(t *testing.T) {
	last := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	status := giftStatus(&last, last.Add(20*time.Hour+35*time.Minute))
	assert.False(t, status.Available)
	assert.Equal(t, "3h 25m", status.TimeLeft)
	assert.Equal(t, 3*time.Hour+25*time.Minute, status.Remaining)
}

func TestClaimDailyGiftWithoutUser(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newTestLedger(t, nil)

	_, err := l.ClaimDailyGift(ctx)
	assert.ErrorIs(t, err, ErrNoUser)

	last, err := store.LastDailyGift(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)
}

// failingKV 对指定键的写入返回错误
type failingKV struct {
	*storage.MemoryKV
	key string
}

var errDiskFull = errors.New("disk full")

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if key == f.key {
		return errDiskFull
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func newFailingLedger(t *testing.T, failKey string) (*Ledger, *storage.Store) {
	t.Helper()
	kv := storage.NewMemoryKV()
	seed := storage.New(kv, zap.NewNop())
	require.NoError(t, seed.SaveUser(context.Background(), &models.User{Name: "u", Points: 10}))

	store := storage.New(&failingKV{MemoryKV: kv, key: failKey}, zap.NewNop())
	return New(store, zap.NewNop()), store
}

func TestClaimDailyGiftTimestampWriteFails(t *testing.T) {
	ctx := context.Background()
	l, store := newFailingLedger(t, storage.KeyLastDailyGift)

	for i := 0; i < 3; i++ {
		_, err := l.ClaimDailyGift(ctx)
		require.ErrorIs(t, err, errDiskFull)
	}

	user, err := store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, user.Points)
	assert.Nil(t, user.LastDailyGift)
}

func TestClaimDailyGiftUserWriteFailsRestoresTimestamp(t *testing.T) {
	ctx := context.Background()
	l, store := newFailingLedger(t, storage.KeyUser)

	_, err := l.ClaimDailyGift(ctx)
	require.ErrorIs(t, err, errDiskFull)

	last, err := store.LastDailyGift(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	status, err := l.GiftStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Available)

	user, err := store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, user.Points)
}

func TestRecordShare(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t, &models.User{Name: "u"})

	user, err := l.RecordShare(ctx, ShareNative)
	require.NoError(t, err)
	assert.Equal(t, 50, user.Points)

	user, err = l.RecordShare(ctx, ShareClipboard)
	require.NoError(t, err)
	assert.Equal(t, 60, user.Points)

	_, err = l.RecordShare(ctx, ShareMethod("email"))
	assert.ErrorIs(t, err, ErrInvalidShare)
}
