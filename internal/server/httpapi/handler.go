// Package httpapi exposes the account and session operations over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type userSvc interface {
	Signup(ctx context.Context, email, name, password string) (services.SignupResult, error)
	ValidateLogin(ctx context.Context, email, password string) (services.LoginResult, error)
	Login(ctx context.Context, account *models.Account, deviceID string) (*services.TokenPair, error)
	ValidateRefresh(ctx context.Context, raw string) (services.RefreshResult, error)
	Refresh(accountID int64, deviceID string) (*services.AccessGrant, error)
	Logout(ctx context.Context, accountID int64, deviceID string) error
	DeleteAccount(ctx context.Context, accountID int64, email, password string) (services.LoginOutcome, error)
	UpdateProfile(ctx context.Context, accountID int64, email string, upd services.ProfileUpdate) (services.LoginOutcome, *models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, rawHeader string) (*services.Identity, error)
}

type requestMetrics interface {
	ObserveRequest(transport, method, code string)
}

// Handler wires HTTP routes onto the user service.
type Handler struct {
	users    userSvc
	resolver identityResolver
	logger   logging.Logger
}

func NewHandler(l logging.Logger, us userSvc, r identityResolver) *Handler {
	return &Handler{users: us, resolver: r, logger: l.With("module", "http_api")}
}

// Register wires the routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /users/signup", h.handleSignup)
	mux.HandleFunc("POST /users/login", h.handleLogin)
	mux.HandleFunc("POST /users/refresh", h.handleRefresh)
	mux.Handle("GET /users/me", h.authenticated(h.handleMe))
	mux.Handle("PUT /users/me", h.authenticated(h.handleUpdateProfile))
	mux.Handle("DELETE /users/me", h.authenticated(h.handleDeleteAccount))
	mux.Handle("POST /users/logout", h.authenticated(h.handleLogout))
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(r.Context(), op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

func writeLoginOutcome(w http.ResponseWriter, o services.LoginOutcome) {
	if o == services.LoginUserNotFound {
		writeError(w, http.StatusNotFound, o.String(), o.Err().Error())
		return
	}
	writeError(w, http.StatusBadRequest, o.String(), o.Err().Error())
}

func writeRefreshOutcome(w http.ResponseWriter, o services.RefreshOutcome) {
	switch o {
	case services.RefreshNotFound:
		writeError(w, http.StatusNotFound, o.String(), o.Err().Error())
	case services.RefreshExpired:
		writeError(w, http.StatusUnauthorized, o.String(), o.Err().Error())
	default:
		writeError(w, http.StatusBadRequest, o.String(), o.Err().Error())
	}
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{ID: a.ID, Email: a.Email, Name: a.Name, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	res, err := h.users.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.internalError(w, r, "signup", err)
		return
	}
	if res.Outcome != services.SignupOK {
		writeError(w, http.StatusBadRequest, res.Outcome.String(), res.Outcome.Err().Error())
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(res.Account))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid form body")
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	deviceID := strings.TrimSpace(r.PostForm.Get("device_id"))
	if email == "" || password == "" || deviceID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email, password and device_id are required")
		return
	}

	res, err := h.users.ValidateLogin(r.Context(), email, password)
	if err != nil {
		h.internalError(w, r, "login", err)
		return
	}
	if res.Outcome != services.LoginOK {
		writeLoginOutcome(w, res.Outcome)
		return
	}

	pair, err := h.users.Login(r.Context(), res.Account, deviceID)
	if err != nil {
		h.internalError(w, r, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("refresh_token")
	if raw == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
		raw = req.RefreshToken
	}

	res, err := h.users.ValidateRefresh(r.Context(), raw)
	if err != nil {
		h.internalError(w, r, "refresh", err)
		return
	}
	if res.Outcome != services.RefreshOK {
		writeRefreshOutcome(w, res.Outcome)
		return
	}

	grant, err := h.users.Refresh(res.AccountID, res.DeviceID)
	if err != nil {
		h.internalError(w, r, "refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: grant.AccessToken, TokenType: grant.TokenType})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request, id *services.Identity) {
	account, err := h.users.GetAccount(r.Context(), id.AccountID)
	if err != nil {
		h.resolveFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request, id *services.Identity) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	outcome, account, err := h.users.UpdateProfile(r.Context(), id.AccountID, id.Email, services.ProfileUpdate{
		Name:        req.Name,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.internalError(w, r, "update profile", err)
		return
	}
	if outcome != services.LoginOK {
		writeLoginOutcome(w, outcome)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request, id *services.Identity) {
	values, err := readForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid form body")
		return
	}

	outcome, err := h.users.DeleteAccount(r.Context(), id.AccountID, id.Email, values.Get("password"))
	if err != nil {
		h.internalError(w, r, "delete account", err)
		return
	}
	if outcome != services.LoginOK {
		writeLoginOutcome(w, outcome)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request, id *services.Identity) {
	if err := h.users.Logout(r.Context(), id.AccountID, id.DeviceID); err != nil {
		h.internalError(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK"})
}
