package services

import (
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// LoginOutcome is the result of checking an email/password pair.
type LoginOutcome int

const (
	LoginOK LoginOutcome = iota
	LoginUserNotFound
	LoginInvalidPassword
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginOK:
		return "ok"
	case LoginUserNotFound:
		return "user_not_found"
	case LoginInvalidPassword:
		return "invalid_password"
	default:
		return "unknown"
	}
}

// Err returns the sentinel for a failed outcome and nil for LoginOK.
func (o LoginOutcome) Err() error {
	switch o {
	case LoginOK:
		return nil
	case LoginUserNotFound:
		return common.ErrUserNotFound
	default:
		return common.ErrInvalidPassword
	}
}

// LoginResult carries the account when Outcome is LoginOK.
type LoginResult struct {
	Outcome LoginOutcome
	Account *models.Account
}

// RefreshOutcome is the result of validating a refresh token.
type RefreshOutcome int

const (
	RefreshOK RefreshOutcome = iota
	RefreshMalformed
	RefreshNotFound
	RefreshMismatched
	RefreshExpired
)

func (o RefreshOutcome) String() string {
	switch o {
	case RefreshOK:
		return "ok"
	case RefreshMalformed:
		return "malformed"
	case RefreshNotFound:
		return "not_found"
	case RefreshMismatched:
		return "mismatched"
	case RefreshExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Err returns the sentinel for a failed outcome and nil for RefreshOK.
func (o RefreshOutcome) Err() error {
	switch o {
	case RefreshOK:
		return nil
	case RefreshNotFound:
		return common.ErrTokenNotFound
	case RefreshMismatched:
		return common.ErrTokenMismatched
	case RefreshExpired:
		return common.ErrTokenExpired
	default:
		return common.ErrTokenMalformed
	}
}

// RefreshResult names the session a valid refresh token belongs to.
type RefreshResult struct {
	Outcome     RefreshOutcome
	AccountID   int64
	DeviceID    string
	LoginMethod string
}

// SignupOutcome is the result of creating an account.
type SignupOutcome int

const (
	SignupOK SignupOutcome = iota
	SignupEmailTaken
)

func (o SignupOutcome) String() string {
	switch o {
	case SignupOK:
		return "ok"
	case SignupEmailTaken:
		return "email_taken"
	default:
		return "unknown"
	}
}

// Err returns common.ErrEmailTaken for SignupEmailTaken and nil for SignupOK.
func (o SignupOutcome) Err() error {
	if o == SignupOK {
		return nil
	}
	return common.ErrEmailTaken
}

// SignupResult carries the new account when Outcome is SignupOK.
type SignupResult struct {
	Outcome SignupOutcome
	Account *models.Account
}
