package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/service"
	"storefront-backend/shared/pkg/models"
)

type AccountsService interface {
	Login(ctx context.Context, email, password string) (string, models.User, error)
	CheckUser(ctx context.Context, email string) (service.UserStatus, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type AuthHandler struct {
	Accounts AccountsService
	Log      zerolog.Logger
}

// forgotPasswordMessage is the only body forgot-password ever answers with on
// valid input, so callers cannot learn whether an account exists.
const forgotPasswordMessage = "If an account exists for that email, a password reset link has been sent."

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  profileResp `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	token, u, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "email and password are required")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
	case err != nil:
		internalError(h.Log, w, r, err, "failed to sign in")
	default:
		writeJSON(w, r, http.StatusOK, loginResp{
			Token: token,
			User:  profileResp{ID: u.ID, Email: u.Email, Name: u.Name, Version: u.Version, UpdatedAt: u.UpdatedAt},
		})
	}
}

type emailReq struct {
	Email string `json:"email"`
}

func (h *AuthHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var req emailReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	st, err := h.Accounts.CheckUser(r.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "email is required")
	case err != nil:
		internalError(h.Log, w, r, err, "failed to check user")
	default:
		writeJSON(w, r, http.StatusOK, st)
	}
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	err := h.Accounts.ForgotPassword(r.Context(), req.Email)
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, r, http.StatusBadRequest, "a valid email is required")
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("forgot password failed")
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": forgotPasswordMessage})
}

type resetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	err := h.Accounts.ResetPassword(r.Context(), req.Token, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidResetToken):
		writeError(w, r, http.StatusBadRequest, "invalid or expired reset token")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case err != nil:
		internalError(h.Log, w, r, err, "failed to reset password")
	default:
		writeJSON(w, r, http.StatusOK, map[string]string{"message": "Password has been reset."})
	}
}
