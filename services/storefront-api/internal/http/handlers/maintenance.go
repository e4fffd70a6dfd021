package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront-backend/shared/pkg/cache"
	"storefront-backend/shared/pkg/models"
)

type PageInvalidator interface {
	Delete(ctx context.Context, keys ...string) (int64, error)
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type RevalidateHandler struct {
	Secret string
	Pages  PageInvalidator
	Log    zerolog.Logger
	Now    func() time.Time
}

type revalidateResp struct {
	Revalidated bool   `json:"revalidated"`
	Path        string `json:"path"`
	Removed     int64  `json:"removed"`
	Now         int64  `json:"now"`
}

// ServeHTTP drops the cached page for ?path=. A trailing "*" drops every page under the prefix.
func (h *RevalidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Secret == "" {
		h.Log.Error().Msg("revalidate called but REVALIDATE_SECRET is not configured")
		writeError(w, r, http.StatusInternalServerError, "revalidation is not configured")
		return
	}
	secret := r.URL.Query().Get("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.Secret)) != 1 {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeError(w, r, http.StatusBadRequest, "path is required")
		return
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var (
		removed int64
		err     error
	)
	if prefix, ok := strings.CutSuffix(path, "*"); ok {
		removed, err = h.Pages.DeletePrefix(r.Context(), cache.PageKey(prefix))
	} else {
		removed, err = h.Pages.Delete(r.Context(), cache.PageKey(path))
	}
	if err != nil {
		internalError(h.Log, w, r, err, "error revalidating")
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	h.Log.Info().Str("path", path).Int64("removed", removed).Msg("page revalidated")
	writeJSON(w, r, http.StatusOK, revalidateResp{Revalidated: true, Path: path, Removed: removed, Now: now().UnixMilli()})
}

type TestUserResetter interface {
	ResetTestUser(ctx context.Context) (models.User, error)
}

type DevHandler struct {
	Accounts TestUserResetter
	Log      zerolog.Logger
}

func (h *DevHandler) ResetTestUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Accounts.ResetTestUser(r.Context())
	if err != nil {
		internalError(h.Log, w, r, err, "failed to reset test user")
		return
	}
	h.Log.Warn().Str("email", u.Email).Msg("all users deleted, test user recreated")
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Test user reset",
		"user":    map[string]string{"id": u.ID, "email": u.Email, "name": u.Name},
	})
}
