package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront-backend/services/storefront-api/internal/auth"
	"storefront-backend/services/storefront-api/internal/payments"
	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/services/storefront-api/internal/service"
	"storefront-backend/shared/pkg/models"
)

// do routes a single request through a chi router so URL params resolve.
func do(method, pattern, target string, body io.Reader, h http.HandlerFunc, email string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	req := httptest.NewRequest(method, target, body)
	if email != "" {
		c := &auth.Claims{Email: email}
		c.Subject = "u1"
		req = req.WithContext(auth.WithClaims(req.Context(), c))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

func doMultipart(h http.HandlerFunc, body io.Reader, contentType, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/user/avatar", body)
	req.Header.Set("Content-Type", contentType)
	if email != "" {
		c := &auth.Claims{Email: email}
		c.Subject = "u1"
		req = req.WithContext(auth.WithClaims(req.Context(), c))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

type fakeCatalog struct {
	categories  []models.Category
	collections []models.Collection
	products    map[string]models.Product
	byCategory  map[string][]models.Product
	err         error
}

func (f *fakeCatalog) ListCategories(context.Context) ([]models.Category, error) {
	return f.categories, f.err
}

func (f *fakeCatalog) GetCategoryBySlug(_ context.Context, slug string) (models.Category, error) {
	for _, c := range f.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return models.Category{}, repo.ErrNotFound
}

func (f *fakeCatalog) ListActiveCollections(context.Context) ([]models.Collection, error) {
	return f.collections, f.err
}

func (f *fakeCatalog) GetProductBySlug(_ context.Context, slug string) (models.Product, error) {
	if f.err != nil {
		return models.Product{}, f.err
	}
	p, ok := f.products[slug]
	if !ok {
		return models.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) ListProductsByCategory(_ context.Context, id string) ([]models.Product, error) {
	return f.byCategory[id], f.err
}

type fakeOrders struct {
	byEmail    []models.Order
	forAccount []models.Order
	gotEmail   string
	err        error
}

func (f *fakeOrders) ListByEmail(_ context.Context, email string) ([]models.Order, error) {
	f.gotEmail = email
	return f.byEmail, f.err
}

func (f *fakeOrders) ListForAccount(_ context.Context, email string) ([]models.Order, error) {
	f.gotEmail = email
	return f.forAccount, f.err
}

type fakeProfiles struct {
	user      models.User
	addresses []models.IndexedAddress
	avatar    service.Avatar
	deleted   int
	err       error
}

func (f *fakeProfiles) Get(context.Context, string) (models.User, error) { return f.user, f.err }

func (f *fakeProfiles) UpdateName(_ context.Context, _ string, name string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	f.user.Name = name
	f.user.Version++
	return f.user, nil
}

func (f *fakeProfiles) UploadAvatar(_ context.Context, _ string, a service.Avatar) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	f.avatar = a
	f.user.ImageKey = "avatars/u1/" + a.Filename
	return f.user, nil
}

func (f *fakeProfiles) Addresses(context.Context, string) ([]models.IndexedAddress, error) {
	return f.addresses, f.err
}

func (f *fakeProfiles) AddAddress(_ context.Context, _ string, a models.Address) ([]models.IndexedAddress, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.IndexedAddress{{Index: 0, Address: a}}, nil
}

func (f *fakeProfiles) DeleteAddress(_ context.Context, _ string, index int) ([]models.IndexedAddress, error) {
	f.deleted = index
	return []models.IndexedAddress{}, f.err
}

type fakeCarts struct {
	cart    models.CartState
	cleared string
	items   []models.CartItem
	at      time.Time
	err     error
}

func (f *fakeCarts) Get(context.Context, string) (models.CartState, error) { return f.cart, f.err }

func (f *fakeCarts) Replace(_ context.Context, _ string, items []models.CartItem, at time.Time) error {
	f.items, f.at = items, at
	return f.err
}

func (f *fakeCarts) Clear(_ context.Context, email string, at time.Time) error {
	f.cleared, f.at = email, at
	return f.err
}

type fakeAccounts struct {
	token     string
	user      models.User
	status    service.UserStatus
	err       error
	forgotFor string
	password  string
}

func (f *fakeAccounts) Login(context.Context, string, string) (string, models.User, error) {
	return f.token, f.user, f.err
}

func (f *fakeAccounts) CheckUser(context.Context, string) (service.UserStatus, error) {
	return f.status, f.err
}

func (f *fakeAccounts) ForgotPassword(_ context.Context, email string) error {
	f.forgotFor = email
	return f.err
}

func (f *fakeAccounts) ResetPassword(_ context.Context, _ string, password string) error {
	f.password = password
	return f.err
}

func (f *fakeAccounts) ResetTestUser(context.Context) (models.User, error) { return f.user, f.err }

type fakeProvider struct {
	intent payments.Intent
	err    error
	reason string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GetIntent(_ context.Context, id string) (payments.Intent, error) {
	if f.err != nil {
		return payments.Intent{}, f.err
	}
	in := f.intent
	in.ID = id
	return in, nil
}

func (f *fakeProvider) CancelIntent(_ context.Context, id, reason string) (payments.Intent, error) {
	f.reason = reason
	if f.err != nil {
		return payments.Intent{}, f.err
	}
	return payments.Intent{ID: id, Status: "canceled"}, nil
}

type fakePages struct {
	deleted []string
	prefix  string
	err     error
}

func (f *fakePages) Delete(_ context.Context, keys ...string) (int64, error) {
	f.deleted = append(f.deleted, keys...)
	return int64(len(keys)), f.err
}

func (f *fakePages) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	f.prefix = prefix
	return 3, f.err
}
