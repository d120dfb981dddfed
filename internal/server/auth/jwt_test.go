package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(secret string) (*Codec, *timex.ManualClock) {
	clock := timex.NewManualClock(epoch)
	return NewCodec([]byte(secret), clock), clock
}

func TestEncodeAccessAndDecode_Success(t *testing.T) {
	t.Parallel()

	c, _ := newTestCodec("super-secret")
	subject := Subject{AccountID: 123, DeviceID: "d1", LoginMethod: "password"}

	tok, err := c.EncodeAccess(subject, time.Hour)
	require.NoError(t, err)

	claims, err := c.Decode(tok)
	require.NoError(t, err)

	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)
	assert.Equal(t, "d1", claims.DeviceID)
	assert.Equal(t, "password", claims.LoginMethod)
	assert.Equal(t, TokenUseAccess, claims.TokenUse)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, epoch.Add(time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestEncodeRefresh_NoExpClaim(t *testing.T) {
	t.Parallel()

	c, clock := newTestCodec("k")

	tok, expiresAt, err := c.EncodeRefresh(Subject{AccountID: 7, DeviceID: "d"}, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(24*time.Hour), expiresAt)

	// Validity is the store's concern, so the token keeps decoding long after.
	clock.Advance(365 * 24 * time.Hour)
	claims, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
	assert.Equal(t, TokenUseRefresh, claims.TokenUse)
}

func TestEncode_TokensDifferWithinOneSecond(t *testing.T) {
	t.Parallel()

	c, _ := newTestCodec("k")
	s := Subject{AccountID: 1, DeviceID: "d1"}

	a, _, err := c.EncodeRefresh(s, time.Hour)
	require.NoError(t, err)
	b, _, err := c.EncodeRefresh(s, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	c, clock := newTestCodec("secret")

	tok, err := c.EncodeAccess(Subject{AccountID: 1, DeviceID: "d"}, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	_, err = c.Decode(tok)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	right, _ := newTestCodec("right-secret")
	wrong, _ := newTestCodec("wrong-secret")

	tok, err := right.EncodeAccess(Subject{AccountID: 2, DeviceID: "d"}, time.Hour)
	require.NoError(t, err)

	_, err = wrong.Decode(tok)
	assert.ErrorIs(t, err, common.ErrTokenInvalidSignature)
}

func TestDecode_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	c, _ := newTestCodec("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
		DeviceID:         "d",
		TokenUse:         TokenUseAccess,
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = c.Decode(tok)
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrTokenExpired))
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	c, _ := newTestCodec("k")

	for _, raw := range []string{"", "Bearer ", "not.a.jwt", "garbage"} {
		_, err := c.Decode(raw)
		assert.ErrorIs(t, err, common.ErrTokenMalformed, "input %q", raw)
	}
}

func TestDecode_AcceptsBearerPrefix(t *testing.T) {
	t.Parallel()

	c, _ := newTestCodec("k")
	tok, err := c.EncodeAccess(Subject{AccountID: 5, DeviceID: "d"}, time.Hour)
	require.NoError(t, err)

	for _, raw := range []string{"Bearer " + tok, "bearer " + tok, "BEARER  " + tok + " "} {
		claims, err := c.Decode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "5", claims.Subject)
	}
}

func TestClaims_AccountID_BadSubject(t *testing.T) {
	t.Parallel()

	_, err := (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}).AccountID()
	assert.ErrorIs(t, err, common.ErrTokenMalformed)

	_, err = (&Claims{}).AccountID()
	assert.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestStripBearer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", StripBearer("Bearer abc"))
	assert.Equal(t, "abc", StripBearer("  abc  "))
	assert.Equal(t, "Basic abc", StripBearer("Basic abc"))
	assert.Equal(t, "", StripBearer(strings.Repeat(" ", 3)))
}
