package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/smartmechanic/internal/models"
)

func newTestStore(t *testing.T) (*Store, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	return New(kv, zap.NewNop()), kv
}

func TestStoreDefaultsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	user, err := s.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	lang, err := s.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.LangEnglish, lang)

	consent, err := s.CookieConsent(ctx)
	require.NoError(t, err)
	assert.False(t, consent)

	creds, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Empty(t, creds)

	records, err := s.MaintenanceRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	rate, err := s.LaborRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultLaborRate, rate)

	last, err := s.LastDailyGift(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestStoreCorruptedValuesReset(t *testing.T) {
	ctx := context.Background()
	keys := []string{
		KeyUser,
		KeyLanguage,
		KeyCookieConsent,
		KeyRegisteredUsers,
		KeyMaintenanceRecords,
		KeyLaborRate,
		KeyLastDailyGift,
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			s, kv := newTestStore(t)
			require.NoError(t, kv.Set(ctx, key, "{not json"))

			var err error
			switch key {
			case KeyUser:
				var u *models.User
				u, err = s.User(ctx)
				assert.Nil(t, u)
			case KeyLanguage:
				var l models.Language
				l, err = s.Language(ctx)
				assert.Equal(t, models.DefaultLanguage, l)
			case KeyCookieConsent:
				var c bool
				c, err = s.CookieConsent(ctx)
				assert.False(t, c)
			case KeyRegisteredUsers:
				var c []models.Credential
				c, err = s.Credentials(ctx)
				assert.Empty(t, c)
			case KeyMaintenanceRecords:
				var r []models.MaintenanceRecord
				r, err = s.MaintenanceRecords(ctx)
				assert.Empty(t, r)
			case KeyLaborRate:
				var r float64
				r, err = s.LaborRate(ctx)
				assert.Equal(t, DefaultLaborRate, r)
			case KeyLastDailyGift:
				var g *time.Time
				g, err = s.LastDailyGift(ctx)
				assert.Nil(t, g)
			}
			require.NoError(t, err)

			_, getErr := kv.Get(ctx, key)
			assert.ErrorIs(t, getErr, ErrNotFound, "corrupted key should be wiped")
		})
	}
}

func TestStoreUnsupportedLanguageReset(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	require.NoError(t, kv.Set(ctx, KeyLanguage, `"de"`))

	lang, err := s.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.LangEnglish, lang)

	_, err = kv.Get(ctx, KeyLanguage)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	in := &models.User{Name: "karim", IsRegistered: true, Points: 55}
	require.NoError(t, s.SaveUser(ctx, in))

	out, err := s.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, s.ClearUser(ctx))
	out, err = s.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestStoreLastDailyGiftMillis(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	at := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.SetLastDailyGift(ctx, at))

	raw, err := kv.Get(ctx, KeyLastDailyGift)
	require.NoError(t, err)
	assert.Equal(t, "1772353800000", raw)

	got, err := s.LastDailyGift(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, at.Equal(*got))
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	kv, err := NewSQLiteKV(ctx, filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	defer kv.Close()

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, KeyLanguage, `"fr"`))
	require.NoError(t, kv.Set(ctx, KeyLanguage, `"ar"`))

	v, err := kv.Get(ctx, KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, `"ar"`, v)

	require.NoError(t, kv.Delete(ctx, KeyLanguage))
	_, err = kv.Get(ctx, KeyLanguage)
	assert.ErrorIs(t, err, ErrNotFound)

	s := New(kv, zap.NewNop())
	require.NoError(t, s.SetLaborRate(ctx, 2500))
	rate, err := s.LaborRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, rate)
}
