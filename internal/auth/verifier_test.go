package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/langchou/smartmechanic/internal/storage"
)

func newTestVerifier(t *testing.T) (*LocalVerifier, *storage.Store) {
	t.Helper()
	store := storage.New(storage.NewMemoryKV(), zap.NewNop())
	return NewLocalVerifier(store, bcrypt.MinCost, zap.NewNop()), store
}

func TestRegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	v, store := newTestVerifier(t)

	require.NoError(t, v.Register(ctx, "karim", "s3cret"))
	require.NoError(t, v.Verify(ctx, "karim", "s3cret"))
	assert.ErrorIs(t, v.Verify(ctx, "karim", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, v.Verify(ctx, "nobody", "s3cret"), ErrInvalidCredentials)

	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.NotEqual(t, "s3cret", creds[0].PasswordHash)
	assert.NotEmpty(t, creds[0].PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVerifier(t)

	require.NoError(t, v.Register(ctx, "karim", "a"))
	assert.ErrorIs(t, v.Register(ctx, "karim", "b"), ErrUserExists)
}

func TestMissingFields(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVerifier(t)

	assert.ErrorIs(t, v.Register(ctx, "", "pw"), ErrMissingFields)
	assert.ErrorIs(t, v.Register(ctx, "  ", "pw"), ErrMissingFields)
	assert.ErrorIs(t, v.Register(ctx, "name", ""), ErrMissingFields)
	assert.ErrorIs(t, v.Verify(ctx, "", ""), ErrMissingFields)
}

func TestRegisterSocial(t *testing.T) {
	ctx := context.Background()
	v, store := newTestVerifier(t)

	name, err := v.RegisterSocial(ctx, "Facebook")
	require.NoError(t, err)
	assert.Equal(t, "Facebook User", name)

	name, err = v.RegisterSocial(ctx, "Facebook")
	require.NoError(t, err)
	assert.Equal(t, "Facebook User", name)

	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	assert.Len(t, creds, 1)

	// 社交账户没有密码，无法通过密码登录
	assert.ErrorIs(t, v.Verify(ctx, "Facebook User", "social-login"), ErrInvalidCredentials)
	assert.ErrorIs(t, v.Register(ctx, "Facebook User", "pw"), ErrUserExists)

	_, err = v.RegisterSocial(ctx, "")
	assert.ErrorIs(t, err, ErrMissingProvider)
}

func TestCostOutOfRangeFallsBack(t *testing.T) {
	v := NewLocalVerifier(nil, 99, zap.NewNop())
	assert.Equal(t, DefaultCost, v.cost)
}
