// Package auth holds the credential primitives: the JWT codec that mints and
// parses bearer tokens, and the bcrypt password hasher.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Values of Claims.TokenUse.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims is the JWT payload. Subject carries the account id in decimal.
// Refresh tokens carry no exp: their validity lives in the token store.
type Claims struct {
	jwt.RegisteredClaims
	DeviceID    string `json:"device_id"`
	LoginMethod string `json:"login_method,omitempty"`
	TokenUse    string `json:"token_use"`
}

// AccountID parses the subject claim.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", common.ErrTokenMalformed, c.Subject)
	}
	return id, nil
}

// Subject identifies who a token is minted for.
type Subject struct {
	AccountID   int64
	DeviceID    string
	LoginMethod string
}

// Codec signs and parses HS256 tokens with a single static secret.
type Codec struct {
	secret []byte
	clock  timex.Clock
	parser *jwt.Parser
}

// NewCodec returns a Codec signing with secret and reading time from clock.
// A nil clock means the system clock.
func NewCodec(secret []byte, clock timex.Clock) *Codec {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &Codec{
		secret: secret,
		clock:  clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

func (c *Codec) claims(s Subject, use string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(s.AccountID, 10),
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		DeviceID:    s.DeviceID,
		LoginMethod: s.LoginMethod,
		TokenUse:    use,
	}
}

func (c *Codec) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// EncodeAccess mints an access token for s that expires ttl from now.
func (c *Codec) EncodeAccess(s Subject, ttl time.Duration) (string, error) {
	now := c.clock.Now()
	claims := c.claims(s, TokenUseAccess, now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return c.sign(claims)
}

// EncodeRefresh mints a refresh token for s and returns the instant, ttl
// from now, at which the store should stop honouring it.
func (c *Codec) EncodeRefresh(s Subject, ttl time.Duration) (string, time.Time, error) {
	now := c.clock.Now()
	token, err := c.sign(c.claims(s, TokenUseRefresh, now))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(ttl), nil
}

// Decode verifies token and returns its claims. An optional "Bearer " prefix
// is accepted. Errors are common.ErrTokenExpired, common.ErrTokenInvalidSignature
// or common.ErrTokenMalformed, wrapped with the parser's detail.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = StripBearer(token)
	if token == "" {
		return nil, common.ErrTokenMalformed
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	switch {
	case err == nil && parsed.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", common.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, fmt.Errorf("%w: %w", common.ErrTokenInvalidSignature, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", common.ErrTokenMalformed, err)
	default:
		return nil, common.ErrTokenMalformed
	}
}

// StripBearer removes a leading, case-insensitive "Bearer " and surrounding
// whitespace.
func StripBearer(raw string) string {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, " ")
	if ok && strings.EqualFold(scheme, common.TokenTypeBearer) {
		return strings.TrimSpace(rest)
	}
	return raw
}
