package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type identityHandler func(w http.ResponseWriter, r *http.Request, id *services.Identity)

// authenticated resolves the Authorization header before calling next.
func (h *Handler) authenticated(next identityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			h.resolveFailure(w, r, err)
			return
		}
		next(w, r.WithContext(services.ContextWithIdentity(r.Context(), id)), id)
	})
}

func (h *Handler) resolveFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrMissingCredentialHeader):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "missing_token", err.Error())
	case errors.Is(err, common.ErrTokenExpired):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeError(w, http.StatusUnauthorized, "token_expired", common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeError(w, http.StatusUnauthorized, "invalid_token", common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "user_not_found", err.Error())
	default:
		h.internalError(w, r, "resolve identity", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument logs and counts requests by route pattern and status.
func instrument(next http.Handler, m requestMetrics, h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest("http", route, strconv.Itoa(rec.status))
		h.logger.Info(r.Context(), "request", "route", route, "status", rec.status)
	})
}
