// Package services contains server-side business logic. This file implements
// UserService, the session manager: signup, password login, per-device
// refresh tokens, logout and account maintenance.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// TokenPair is what a successful login hands back to the device.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// AccessGrant is what a successful refresh hands back. The refresh token
// itself is unchanged until the next login.
type AccessGrant struct {
	AccessToken string
	TokenType   string
}

// ProfileUpdate describes a profile change. Empty Name or NewPassword leaves
// that field as is. OldPassword is always required.
type ProfileUpdate struct {
	Name        string
	OldPassword string
	NewPassword string
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Metrics receives one observation per decided outcome.
type Metrics interface {
	ObserveSignup(outcome string)
	ObserveLogin(outcome string)
	ObserveRefresh(outcome string)
	ObserveResolve(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveSignup(string)  {}
func (nopMetrics) ObserveLogin(string)   {}
func (nopMetrics) ObserveRefresh(string) {}
func (nopMetrics) ObserveResolve(string) {}

// Option customises a UserService.
type Option func(*UserService)

// WithClock replaces the system clock.
func WithClock(c timex.Clock) Option { return func(s *UserService) { s.clock = c } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option { return func(s *UserService) { s.logger = l } }

// WithMetrics sets the outcome recorder.
func WithMetrics(m Metrics) Option { return func(s *UserService) { s.metrics = m } }

// WithHasher replaces the bcrypt hasher built from config.
func WithHasher(h PasswordHasher) Option { return func(s *UserService) { s.hasher = h } }

// UserService is stateless between calls; everything it remembers lives in
// the account and refresh token repositories.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	codec                        *auth.Codec
	hasher                       PasswordHasher
	clock                        timex.Clock
	logger                       logging.Logger
	metrics                      Metrics
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	storageTimeout               time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, opts ...Option) *UserService {
	s := &UserService{
		db:                           db,
		repomanager:                  m,
		clock:                        timex.SystemClock{},
		logger:                       logging.NewNopLogger(),
		metrics:                      nopMetrics{},
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		storageTimeout:               cfg.StorageTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = auth.NewHasher(cfg.BcryptCost)
	}
	s.codec = auth.NewCodec([]byte(cfg.SecretKey), s.clock)
	return s
}

// Signup creates an account with a hashed password. Surrounding whitespace
// is not part of the email.
func (s *UserService) Signup(ctx context.Context, email, name, password string) (SignupResult, error) {
	email = strings.TrimSpace(email)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return SignupResult{}, err
	}

	now := s.clock.Now()
	account := &models.Account{Email: email, Name: name, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}

	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	account, err = s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.metrics.ObserveSignup(SignupEmailTaken.String())
			return SignupResult{Outcome: SignupEmailTaken}, nil
		}
		s.logger.Error(ctx, "signup failed", "email", email, "error", err)
		return SignupResult{}, fmt.Errorf("error creating account: %w", err)
	}

	s.metrics.ObserveSignup(SignupOK.String())
	s.logger.Info(ctx, "account created", "account_id", account.ID)
	return SignupResult{Outcome: SignupOK, Account: account}, nil
}

// ValidateLogin checks email and password. Only storage failures are errors.
func (s *UserService) ValidateLogin(ctx context.Context, email, password string) (LoginResult, error) {
	res, err := s.validateLogin(ctx, email, password)
	if err == nil {
		s.metrics.ObserveLogin(res.Outcome.String())
	}
	return res, err
}

func (s *UserService) validateLogin(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)

	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	account, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return LoginResult{Outcome: LoginUserNotFound}, nil
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return LoginResult{}, fmt.Errorf("error searching account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return LoginResult{Outcome: LoginInvalidPassword}, nil
	}

	return LoginResult{Outcome: LoginOK, Account: account}, nil
}

// Login mints a token pair for account on deviceID and stores the refresh
// token, replacing whatever that device held before.
func (s *UserService) Login(ctx context.Context, account *models.Account, deviceID string) (*TokenPair, error) {
	subject := auth.Subject{AccountID: account.ID, DeviceID: deviceID, LoginMethod: models.LoginMethodPassword}

	access, err := s.codec.EncodeAccess(subject, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.codec.EncodeRefresh(subject, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	_, err = s.repomanager.RefreshTokens(s.db).Upsert(ctx, &models.RefreshRecord{
		AccountID:   account.ID,
		DeviceID:    deviceID,
		LoginMethod: subject.LoginMethod,
		Token:       refresh,
		ExpiresAt:   expiresAt,
		UpdatedAt:   s.clock.Now(),
	})
	if err != nil {
		s.logger.Error(ctx, "storing refresh token failed", "account_id", account.ID, "device_id", deviceID, "error", err)
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	s.logger.Info(ctx, "login", "account_id", account.ID, "device_id", deviceID)
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: common.TokenTypeBearer}, nil
}

// ValidateRefresh checks raw in order: structure, stored record exists,
// exact match with the stored token, not past the stored expiry. A "Bearer "
// prefix decodes but never matches, so it ends as RefreshMismatched.
func (s *UserService) ValidateRefresh(ctx context.Context, raw string) (RefreshResult, error) {
	res, err := s.validateRefresh(ctx, raw)
	if err == nil {
		s.metrics.ObserveRefresh(res.Outcome.String())
	}
	return res, err
}

func (s *UserService) validateRefresh(ctx context.Context, raw string) (RefreshResult, error) {
	claims, err := s.codec.Decode(raw)
	if err != nil || claims.TokenUse != auth.TokenUseRefresh || claims.DeviceID == "" {
		return RefreshResult{Outcome: RefreshMalformed}, nil
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return RefreshResult{Outcome: RefreshMalformed}, nil
	}
	method := claims.LoginMethod
	if method == "" {
		method = models.LoginMethodPassword
	}

	res := RefreshResult{AccountID: accountID, DeviceID: claims.DeviceID, LoginMethod: method}

	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	rec, err := s.repomanager.RefreshTokens(s.db).Find(ctx, accountID, claims.DeviceID, method)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			res.Outcome = RefreshNotFound
			return res, nil
		}
		s.logger.Error(ctx, "refresh token lookup failed", "account_id", accountID, "error", err)
		return RefreshResult{}, fmt.Errorf("error searching refresh token: %w", err)
	}

	// The stored token must equal what was presented, prefix included.
	if subtle.ConstantTimeCompare([]byte(rec.Token), []byte(raw)) != 1 {
		res.Outcome = RefreshMismatched
		return res, nil
	}
	if rec.Expired(s.clock.Now()) {
		res.Outcome = RefreshExpired
		return res, nil
	}

	res.Outcome = RefreshOK
	return res, nil
}

// Refresh mints a new access token for a session ValidateRefresh accepted.
func (s *UserService) Refresh(accountID int64, deviceID string) (*AccessGrant, error) {
	access, err := s.codec.EncodeAccess(auth.Subject{
		AccountID:   accountID,
		DeviceID:    deviceID,
		LoginMethod: models.LoginMethodPassword,
	}, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &AccessGrant{AccessToken: access, TokenType: common.TokenTypeBearer}, nil
}

// Logout forgets the refresh token of deviceID. Logging out twice is fine.
func (s *UserService) Logout(ctx context.Context, accountID int64, deviceID string) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, accountID, deviceID, models.LoginMethodPassword); err != nil {
		s.logger.Error(ctx, "logout failed", "account_id", accountID, "device_id", deviceID, "error", err)
		return fmt.Errorf("error deleting refresh token: %w", err)
	}

	s.logger.Info(ctx, "logout", "account_id", accountID, "device_id", deviceID)
	return nil
}

// reauthenticate re-checks credentials for an operation on accountID.
// Credentials of a different account count as LoginUserNotFound.
func (s *UserService) reauthenticate(ctx context.Context, accountID int64, email, password string) (LoginResult, error) {
	res, err := s.validateLogin(ctx, email, password)
	if err != nil || res.Outcome != LoginOK {
		return res, err
	}
	if res.Account.ID != accountID {
		return LoginResult{Outcome: LoginUserNotFound}, nil
	}
	return res, nil
}

// DeleteAccount removes the account and all of its refresh tokens in one
// transaction after re-checking the password.
func (s *UserService) DeleteAccount(ctx context.Context, accountID int64, email, password string) (LoginOutcome, error) {
	res, err := s.reauthenticate(ctx, accountID, email, password)
	if err != nil || res.Outcome != LoginOK {
		return res.Outcome, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.RefreshTokens(tx).DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		return s.repomanager.Accounts(tx).Delete(ctx, accountID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return LoginUserNotFound, nil
		}
		s.logger.Error(ctx, "account deletion failed", "account_id", accountID, "error", err)
		return LoginOK, fmt.Errorf("error deleting account: %w", err)
	}

	s.logger.Info(ctx, "account deleted", "account_id", accountID)
	return LoginOK, nil
}

// UpdateProfile re-checks the old password, then applies upd.
func (s *UserService) UpdateProfile(ctx context.Context, accountID int64, email string, upd ProfileUpdate) (LoginOutcome, *models.Account, error) {
	res, err := s.reauthenticate(ctx, accountID, email, upd.OldPassword)
	if err != nil || res.Outcome != LoginOK {
		return res.Outcome, nil, err
	}

	account := res.Account
	if upd.Name != "" {
		account.Name = upd.Name
	}
	if upd.NewPassword != "" {
		hash, err := s.hasher.Hash(upd.NewPassword)
		if err != nil {
			return LoginOK, nil, err
		}
		account.PasswordHash = hash
	}
	account.UpdatedAt = s.clock.Now()

	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	account, err = s.repomanager.Accounts(s.db).Update(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return LoginUserNotFound, nil, nil
		}
		s.logger.Error(ctx, "profile update failed", "account_id", accountID, "error", err)
		return LoginOK, nil, fmt.Errorf("error updating account: %w", err)
	}

	return LoginOK, account, nil
}

// GetAccount returns the account or common.ErrUserNotFound.
func (s *UserService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	account, err := s.repomanager.Accounts(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}
	return account, nil
}
