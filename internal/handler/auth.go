package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/auth"
	"github.com/sakif/snippets-guru/internal/guru"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/repository"
)

// Authenticator is the part of service.AuthService the handlers use.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// viewer resolves the authenticated account of r.
func viewer(r *http.Request, users Authenticator) (repository.Owner, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return repository.Owner{}, apperror.Unauthorized("authentication required")
	}

	user, err := users.GetUserByID(r.Context(), userID)
	if err != nil {
		return repository.Owner{}, apperror.Unauthorized("account no longer exists")
	}
	return repository.Owner{ID: user.ID, Username: user.Username}, nil
}

// AuthHandler serves the login exchange and the account profile.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(a Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// HandleLoginCheck exchanges credentials for a bearer token.
//
// HTTP: POST /api/login_check
func (h *AuthHandler) HandleLoginCheck(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			h.logger.Error("login failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeTyped(w, plainJSON, http.StatusOK, loginResponse{Token: token})
}

// HandleAccount returns the profile of the token's account.
//
// HTTP: GET /api/account
func (h *AuthHandler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, guru.Account{
		Username: user.Username,
		Email:    user.Email,
		Billing: guru.Billing{
			IsActive:  user.BillingActive,
			ExpiredAt: user.BillingExpiredAt,
		},
	})
}
