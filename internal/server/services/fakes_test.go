package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// --- accounts ---

type fakeAccountsRepo struct {
	mu     sync.Mutex
	rows   map[int64]*models.Account
	nextID int64
	err    error
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{rows: map[int64]*models.Account{}}
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rows {
		if r.Email == a.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	a.ID = f.nextID
	cp := *a
	f.rows[a.ID] = &cp
	return a, nil
}

func (f *fakeAccountsRepo) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rows {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) FindByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeAccountsRepo) Update(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.rows[a.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	f.rows[a.ID] = &cp
	return a, nil
}

func (f *fakeAccountsRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

// --- refresh tokens ---

type refreshKey struct {
	account int64
	device  string
	method  string
}

type fakeRefreshRepo struct {
	mu      sync.Mutex
	rows    map[refreshKey]*models.RefreshRecord
	nextID  int64
	err     error
	upserts int
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{rows: map[refreshKey]*models.RefreshRecord{}}
}

func (f *fakeRefreshRepo) Upsert(_ context.Context, rec *models.RefreshRecord) (*models.RefreshRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.upserts++
	k := refreshKey{rec.AccountID, rec.DeviceID, rec.LoginMethod}
	if old, ok := f.rows[k]; ok {
		rec.ID, rec.CreatedAt = old.ID, old.CreatedAt
	} else {
		f.nextID++
		rec.ID, rec.CreatedAt = f.nextID, rec.UpdatedAt
	}
	cp := *rec
	f.rows[k] = &cp
	return rec, nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, accountID int64, deviceID, method string) (*models.RefreshRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[refreshKey{accountID, deviceID, method}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, accountID int64, deviceID, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.rows, refreshKey{accountID, deviceID, method})
	return nil
}

func (f *fakeRefreshRepo) DeleteByAccount(_ context.Context, accountID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for k := range f.rows {
		if k.account == accountID {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

// --- manager, hasher, metrics ---

type fakeRepoManager struct {
	a *fakeAccountsRepo
	r *fakeRefreshRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{a: newFakeAccountsRepo(), r: newFakeRefreshRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository           { return m.a }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }

// plainHasher keeps unit tests fast; bcrypt itself is covered in auth and e2e tests.
type plainHasher struct{ err error }

func (h plainHasher) Hash(p string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "plain:" + p, nil
}

func (h plainHasher) Verify(p, hash string) bool {
	return strings.HasPrefix(hash, "plain:") && hash == "plain:"+p
}

type recordingMetrics struct {
	mu                              sync.Mutex
	signup, login, refresh, resolve []string
}

func (m *recordingMetrics) ObserveSignup(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signup = append(m.signup, o)
}

func (m *recordingMetrics) ObserveLogin(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.login = append(m.login, o)
}

func (m *recordingMetrics) ObserveRefresh(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = append(m.refresh, o)
}

func (m *recordingMetrics) ObserveResolve(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolve = append(m.resolve, o)
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  30 * time.Minute,
		RefreshTokenValidityDuration: 24 * time.Hour,
		StorageTimeout:               time.Second,
	}
}

type fixture struct {
	svc     *UserService
	rm      *fakeRepoManager
	clock   *timex.ManualClock
	metrics *recordingMetrics
}

func newFixture(t *testing.T, db *sql.DB) *fixture {
	t.Helper()
	f := &fixture{
		rm:      newFakeRepoManager(),
		clock:   timex.NewManualClock(epoch),
		metrics: &recordingMetrics{},
	}
	f.svc = NewUserService(db, f.rm, testConfig(),
		WithClock(f.clock), WithHasher(plainHasher{}), WithMetrics(f.metrics))
	return f
}

// seed stores an account with password pw directly in the fake.
func (f *fixture) seed(t *testing.T, email, pw string) *models.Account {
	t.Helper()
	a, err := f.rm.a.Create(context.Background(), &models.Account{
		Email: email, Name: "N", PasswordHash: "plain:" + pw, CreatedAt: epoch, UpdatedAt: epoch,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return a
}
