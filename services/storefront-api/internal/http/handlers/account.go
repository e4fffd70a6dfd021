package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/assets"
	"storefront-backend/services/storefront-api/internal/service"
	"storefront-backend/shared/pkg/models"
)

type ProfileService interface {
	Get(ctx context.Context, email string) (models.User, error)
	UpdateName(ctx context.Context, email, name string) (models.User, error)
	UploadAvatar(ctx context.Context, email string, a service.Avatar) (models.User, error)
	Addresses(ctx context.Context, email string) ([]models.IndexedAddress, error)
	AddAddress(ctx context.Context, email string, a models.Address) ([]models.IndexedAddress, error)
	DeleteAddress(ctx context.Context, email string, index int) ([]models.IndexedAddress, error)
}

type AccountHandler struct {
	Profiles       ProfileService
	Images         assets.URLBuilder
	Log            zerolog.Logger
	MaxAvatarBytes int64
}

const defaultMaxAvatarBytes = 5 << 20

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type profileResp struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *AccountHandler) profile(u models.User) profileResp {
	return profileResp{
		ID: u.ID, Email: u.Email, Name: u.Name,
		ImageURL: h.Images.URL(u.ImageKey), Version: u.Version, UpdatedAt: u.UpdatedAt,
	}
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(w, r)
	if !ok {
		return
	}
	u, err := h.Profiles.Get(r.Context(), email)
	if err != nil {
		userError(h.Log, w, r, err, "failed to fetch profile")
		return
	}
	writeJSON(w, r, http.StatusOK, h.profile(u))
}

type updateProfileReq struct {
	Name *string `json:"name"`
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(w, r)
	if !ok {
		return
	}
	var req updateProfileReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	if req.Name == nil {
		writeError(w, r, http.StatusBadRequest, "nothing to update")
		return
	}

	u, err := h.Profiles.UpdateName(r.Context(), email, *req.Name)
	if err != nil {
		userError(h.Log, w, r, err, "failed to update profile")
		return
	}
	writeJSON(w, r, http.StatusOK, h.profile(u))
}

func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(w, r)
	if !ok {
		return
	}

	limit := h.MaxAvatarBytes
	if limit <= 0 {
		limit = defaultMaxAvatarBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size <= 0 || header.Size > limit {
		writeError(w, r, http.StatusBadRequest, "file must be between 1 byte and "+strconv.FormatInt(limit>>20, 10)+" MiB")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !avatarTypes[contentType] {
		writeError(w, r, http.StatusBadRequest, "unsupported image type")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	u, err := h.Profiles.UploadAvatar(ctx, email, service.Avatar{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		userError(h.Log, w, r, err, "failed to upload avatar")
		return
	}
	writeJSON(w, r, http.StatusOK, h.profile(u))
}

func (h *AccountHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(w, r)
	if !ok {
		return
	}
	list, err := h.Profiles.Addresses(r.Context(), email)
	if err != nil {
		userError(h.Log, w, r, err, "failed to fetch addresses")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"addresses": list})
}

func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(w, r)
	if !ok {
		return
	}
	var a models.Address
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	list, err := h.Profiles.AddAddress(r.Context(), email, a)
	if err != nil {
		userError(h.Log, w, r, err, "failed to add address")
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"addresses": list})
}

func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	email, ok := sessionEmail(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "index")))
	if err != nil || index < 0 {
		writeError(w, r, http.StatusBadRequest, "index must be a non-negative integer")
		return
	}

	list, err := h.Profiles.DeleteAddress(r.Context(), email, index)
	if err != nil {
		userError(h.Log, w, r, err, "failed to delete address")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"addresses": list})
}
