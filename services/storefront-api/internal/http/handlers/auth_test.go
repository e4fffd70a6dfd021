package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"storefront-backend/services/storefront-api/internal/service"
	"storefront-backend/shared/pkg/models"
)

func TestLogin(t *testing.T) {
	acc := &fakeAccounts{token: "tok", user: models.User{ID: "u1", Email: "a@example.com"}}
	h := &AuthHandler{Accounts: acc, Log: zerolog.Nop()}

	rec := do(http.MethodPost, "/auth/login", "/auth/login", jsonBody(`{"email":"a@example.com","password":"pw"}`), h.Login, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"tok"`)
	assert.NotContains(t, rec.Body.String(), "password")

	acc.err = service.ErrInvalidCredentials
	rec = do(http.MethodPost, "/auth/login", "/auth/login", jsonBody(`{"email":"a@example.com","password":"bad"}`), h.Login, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	acc.err = service.ErrInvalidInput
	rec = do(http.MethodPost, "/auth/login", "/auth/login", jsonBody(`{}`), h.Login, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckUser(t *testing.T) {
	acc := &fakeAccounts{status: service.UserStatus{Exists: true, HasPassword: false}}
	h := &AuthHandler{Accounts: acc, Log: zerolog.Nop()}

	rec := do(http.MethodPost, "/auth/check-user", "/auth/check-user", jsonBody(`{"email":"a@example.com"}`), h.CheckUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true,"has_password":false}`, rec.Body.String())

	acc.err = service.ErrInvalidInput
	rec = do(http.MethodPost, "/auth/check-user", "/auth/check-user", jsonBody(`{"email":""}`), h.CheckUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	acc.err = errors.New("down")
	rec = do(http.MethodPost, "/auth/check-user", "/auth/check-user", jsonBody(`{"email":"a@example.com"}`), h.CheckUser, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestForgotPasswordIsGeneric(t *testing.T) {
	want := `{"message":"` + forgotPasswordMessage + `"}`
	for _, err := range []error{nil, errors.New("smtp down")} {
		acc := &fakeAccounts{err: err}
		h := &AuthHandler{Accounts: acc, Log: zerolog.Nop()}
		rec := do(http.MethodPost, "/auth/forgot-password", "/auth/forgot-password", jsonBody(`{"email":"who@example.com"}`), h.ForgotPassword, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, want, rec.Body.String())
		assert.Equal(t, "who@example.com", acc.forgotFor)
	}

	h := &AuthHandler{Accounts: &fakeAccounts{err: service.ErrInvalidInput}, Log: zerolog.Nop()}
	rec := do(http.MethodPost, "/auth/forgot-password", "/auth/forgot-password", jsonBody(`{"email":"nope"}`), h.ForgotPassword, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPassword(t *testing.T) {
	acc := &fakeAccounts{}
	h := &AuthHandler{Accounts: acc, Log: zerolog.Nop()}

	rec := do(http.MethodPost, "/auth/reset-password", "/auth/reset-password", jsonBody(`{"token":"t","password":"longenough1"}`), h.ResetPassword, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	acc.err = service.ErrInvalidResetToken
	rec = do(http.MethodPost, "/auth/reset-password", "/auth/reset-password", jsonBody(`{"token":"t","password":"longenough1"}`), h.ResetPassword, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	acc.err = service.ErrWeakPassword
	rec = do(http.MethodPost, "/auth/reset-password", "/auth/reset-password", jsonBody(`{"token":"t","password":"x"}`), h.ResetPassword, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPasswordTooLongIsBadRequest(t *testing.T) {
	acc := &fakeAccounts{err: service.ErrWeakPassword}
	h := &AuthHandler{Accounts: acc, Log: zerolog.Nop()}
	long := strings.Repeat("p", 100)

	rec := do(http.MethodPost, "/auth/reset-password", "/auth/reset-password", jsonBody(`{"token":"t","password":"`+long+`"}`), h.ResetPassword, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "72")
	assert.Equal(t, long, acc.password)
}
