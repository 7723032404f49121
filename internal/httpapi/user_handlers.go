package httpapi

import (
	"errors"
	"net/http"

	"crewbase.org/internal/audit"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/obs"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	User   *identity.User     `json:"user"`
	Tokens identity.TokenPair `json:"tokens"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form identity.RegisterForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, pair, err := a.identity.Register(r.Context(), form)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
	writeJSON(w, http.StatusCreated, authResponse{User: user, Tokens: pair})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form identity.LoginForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, pair, err := a.identity.Login(r.Context(), form)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.login", map[string]any{
		"user_id": user.ID,
	})
	writeJSON(w, http.StatusOK, authResponse{User: user, Tokens: pair})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	pair, err := a.identity.Tokens().Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, identity.ErrTokenReused) {
			// Either a replayed token or the losing side of a concurrent
			// rotation. Both warrant the same uniform rejection; the audit
			// trail and counter carry the theft signal.
			obs.CountTokenReuse()
			_ = audit.LogEvent(r.Context(), "auth.refresh.reuse_detected", nil)
		}
		handleIdentityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": pair})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.identity.Tokens().Revoke(r.Context(), req.RefreshToken); err != nil {
		handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func handleIdentityError(w http.ResponseWriter, r *http.Request, err error) {
	var fields identity.FieldErrors
	switch {
	case errors.As(err, &fields):
		writeFieldErrors(w, r, fields)
	case errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrTokenReused):
		writeUnauthenticated(w, r)
	case errors.Is(err, identity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, identity.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
