package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	f := newFixture(t, nil)
	r := NewIdentityResolver(f.svc)
	ctx := context.Background()
	acc := f.seed(t, "a@x.com", "1234")

	pair, err := f.svc.Login(ctx, acc, "d1")
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		id, err := r.Resolve(ctx, "Bearer "+pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, &Identity{AccountID: acc.ID, Email: "a@x.com", DeviceID: "d1"}, id)
	})

	t.Run("missing header", func(t *testing.T) {
		for _, raw := range []string{"", "   "} {
			_, err := r.Resolve(ctx, raw)
			assert.ErrorIs(t, err, common.ErrMissingCredentialHeader)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := r.Resolve(ctx, "Bearer nonsense")
		assert.ErrorIs(t, err, common.ErrInvalidToken)
		assert.ErrorIs(t, err, common.ErrTokenMalformed)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := r.Resolve(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		tok, err := f.svc.codec.EncodeAccess(auth.Subject{AccountID: 0, DeviceID: "d1"}, time.Minute)
		require.NoError(t, err)
		_, err = r.Resolve(ctx, tok)
		assert.ErrorIs(t, err, common.ErrUserNotFound)
	})
}

func TestResolve_Expired(t *testing.T) {
	f := newFixture(t, nil)
	r := NewIdentityResolver(f.svc)
	ctx := context.Background()
	acc := f.seed(t, "a@x.com", "1234")

	pair, err := f.svc.Login(ctx, acc, "d1")
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	_, err = r.Resolve(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestResolve_AccountGone(t *testing.T) {
	f := newFixture(t, nil)
	r := NewIdentityResolver(f.svc)
	ctx := context.Background()
	acc := f.seed(t, "a@x.com", "1234")

	pair, err := f.svc.Login(ctx, acc, "d1")
	require.NoError(t, err)
	require.NoError(t, f.rm.a.Delete(ctx, acc.ID))

	_, err = r.Resolve(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	assert.NotErrorIs(t, err, common.ErrInvalidToken)

	assert.Equal(t, []string{"user_not_found"}, f.metrics.resolve)
}

func TestResolve_StoreError(t *testing.T) {
	f := newFixture(t, nil)
	r := NewIdentityResolver(f.svc)
	acc := f.seed(t, "a@x.com", "1234")

	pair, err := f.svc.Login(context.Background(), acc, "d1")
	require.NoError(t, err)
	f.rm.a.err = errDBDown

	_, err = r.Resolve(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, errDBDown)
	assert.NotErrorIs(t, err, common.ErrInvalidToken)
	assert.Empty(t, f.metrics.resolve)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	want := &Identity{AccountID: 1, Email: "a@x.com", DeviceID: "d"}
	got, ok := IdentityFromContext(ContextWithIdentity(context.Background(), want))
	require.True(t, ok)
	assert.Same(t, want, got)
}
