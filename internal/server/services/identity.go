package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

// Identity is the authenticated caller of a protected request.
type Identity struct {
	AccountID int64
	Email     string
	DeviceID  string
}

// IdentityResolver turns an Authorization header value into an Identity.
type IdentityResolver struct {
	users *UserService
}

// NewIdentityResolver shares codec, repositories and clock with users.
func NewIdentityResolver(users *UserService) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve validates an access token and loads its account.
//
// Failures: common.ErrMissingCredentialHeader for an empty header,
// common.ErrInvalidToken (joined with the codec error) for anything that is
// not a valid access token, common.ErrUserNotFound when the account is gone.
// Other errors are storage failures.
func (r *IdentityResolver) Resolve(ctx context.Context, rawHeader string) (*Identity, error) {
	id, outcome, err := r.resolve(ctx, rawHeader)
	if outcome != "" {
		r.users.metrics.ObserveResolve(outcome)
	}
	return id, err
}

func (r *IdentityResolver) resolve(ctx context.Context, rawHeader string) (*Identity, string, error) {
	if strings.TrimSpace(rawHeader) == "" {
		return nil, "missing", common.ErrMissingCredentialHeader
	}

	claims, err := r.users.codec.Decode(rawHeader)
	if err != nil {
		return nil, "invalid", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if claims.TokenUse != auth.TokenUseAccess {
		return nil, "invalid", fmt.Errorf("%w: not an access token", common.ErrInvalidToken)
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return nil, "invalid", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	ctx, cancel := dbx.WithTimeout(ctx, r.users.storageTimeout)
	defer cancel()

	account, err := r.users.repomanager.Accounts(r.users.db).FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "user_not_found", common.ErrUserNotFound
		}
		r.users.logger.Error(ctx, "identity lookup failed", "account_id", accountID, "error", err)
		return nil, "", fmt.Errorf("error searching account: %w", err)
	}

	return &Identity{AccountID: account.ID, Email: account.Email, DeviceID: claims.DeviceID}, "ok", nil
}

type identityKey struct{}

// ContextWithIdentity stores id in ctx for downstream handlers.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the Identity stored by ContextWithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
