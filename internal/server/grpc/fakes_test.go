package grpc

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeUsers struct {
	signup    services.SignupResult
	signupErr error

	validate    services.LoginResult
	validateErr error

	tokens   *services.TokenPair
	loginErr error

	refreshResult services.RefreshResult
	refreshErr    error
	grant         *services.AccessGrant
	grantErr      error

	outcome   services.LoginOutcome
	account   *models.Account
	accErr    error
	logoutErr error

	loginDevice  string
	logoutDevice string
	deleteArgs   []any
	update       services.ProfileUpdate
}

func (f *fakeUsers) Signup(context.Context, string, string, string) (services.SignupResult, error) {
	return f.signup, f.signupErr
}
func (f *fakeUsers) ValidateLogin(context.Context, string, string) (services.LoginResult, error) {
	return f.validate, f.validateErr
}
func (f *fakeUsers) Login(_ context.Context, _ *models.Account, deviceID string) (*services.TokenPair, error) {
	f.loginDevice = deviceID
	return f.tokens, f.loginErr
}
func (f *fakeUsers) ValidateRefresh(context.Context, string) (services.RefreshResult, error) {
	return f.refreshResult, f.refreshErr
}
func (f *fakeUsers) Refresh(int64, string) (*services.AccessGrant, error) {
	return f.grant, f.grantErr
}
func (f *fakeUsers) Logout(_ context.Context, _ int64, deviceID string) error {
	f.logoutDevice = deviceID
	return f.logoutErr
}
func (f *fakeUsers) DeleteAccount(_ context.Context, id int64, email, password string) (services.LoginOutcome, error) {
	f.deleteArgs = []any{id, email, password}
	return f.outcome, f.accErr
}
func (f *fakeUsers) UpdateProfile(_ context.Context, _ int64, _ string, upd services.ProfileUpdate) (services.LoginOutcome, *models.Account, error) {
	f.update = upd
	return f.outcome, f.account, f.accErr
}
func (f *fakeUsers) GetAccount(context.Context, int64) (*models.Account, error) {
	return f.account, f.accErr
}

type fakeResolver struct {
	id     *services.Identity
	err    error
	header string
}

func (r *fakeResolver) Resolve(_ context.Context, rawHeader string) (*services.Identity, error) {
	r.header = rawHeader
	return r.id, r.err
}

type fakeMetrics struct {
	mu    sync.Mutex
	calls [][3]string
}

func (m *fakeMetrics) ObserveRequest(transport, method, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, [3]string{transport, method, code})
}
