package service

import (
	"context"
	"io"
	"sync"
	"time"

	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/shared/pkg/models"
)

// fakeUsers is an in-memory user store with the same compare-and-swap rule as UsersPG.
type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]models.User
	events   []models.OutboxMessage
	updates  int
	getErr   error
	replaced *models.User

	// beforeUpdate runs once per Update call before the version check and may
	// mutate the stored document to simulate a concurrent writer.
	beforeUpdate func(stored *models.User)
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]models.User{}}
	for _, u := range users {
		if u.Version == 0 {
			u.Version = 1
		}
		f.users[u.Email] = u
	}
	return f
}

func clone(u models.User) models.User {
	u.Addresses = append([]models.Address(nil), u.Addresses...)
	return u
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.User{}, f.getErr
	}
	u, ok := f.users[email]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return clone(u), nil
}

func (f *fakeUsers) GetByResetTokenHash(_ context.Context, hash string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetTokenHash != "" && u.ResetTokenHash == hash {
			return clone(u), nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (f *fakeUsers) Update(_ context.Context, u models.User, events ...models.OutboxMessage) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++

	stored, ok := f.users[u.Email]
	if !ok {
		return models.User{}, repo.ErrVersionConflict
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(&stored)
		f.users[u.Email] = stored
	}
	if stored.Version != u.Version {
		return models.User{}, repo.ErrVersionConflict
	}
	u.Version++
	u.UpdatedAt = time.Now()
	f.users[u.Email] = clone(u)
	f.events = append(f.events, events...)
	return u, nil
}

func (f *fakeUsers) ReplaceAll(_ context.Context, u models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = "test-user-id"
	u.Version = 1
	f.users = map[string]models.User{u.Email: u}
	f.replaced = &u
	return u, nil
}

func (f *fakeUsers) stored(email string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.users[email])
}

type fakeLimiter struct {
	hits map[string]int64
	err  error
}

func (l *fakeLimiter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if l.err != nil {
		return 0, l.err
	}
	if l.hits == nil {
		l.hits = map[string]int64{}
	}
	l.hits[key]++
	return l.hits[key], nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID, email string) (string, error) { return "jwt-" + userID, nil }

type fakeUploader struct {
	err    error
	prefix string
	body   string
	calls  int
}

func (u *fakeUploader) Upload(_ context.Context, prefix, filename, _ string, body io.Reader, _ int64) (string, error) {
	u.calls++
	u.prefix = prefix
	b, _ := io.ReadAll(body)
	u.body = string(b)
	if u.err != nil {
		return "", u.err
	}
	return prefix + "/" + filename, nil
}
