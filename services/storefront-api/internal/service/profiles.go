package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"storefront-backend/shared/pkg/models"
)

type AssetUploader interface {
	Upload(ctx context.Context, prefix, filename, contentType string, body io.Reader, size int64) (string, error)
}

type Profiles struct {
	Users  UserStore
	Assets AssetUploader
	Now    func() time.Time
}

type Avatar struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

const maxNameLen = 100

func (s *Profiles) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Profiles) Get(ctx context.Context, email string) (models.User, error) {
	return s.Users.GetByEmail(ctx, email)
}

func (s *Profiles) UpdateName(ctx context.Context, email, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return models.User{}, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxNameLen)
	}
	return patchUser(ctx, s.Users, byEmail(s.Users, email), func(u *models.User) ([]models.OutboxMessage, error) {
		u.Name = name
		return nil, nil
	})
}

// UploadAvatar stores the binary first and only then points the user document at it.
func (s *Profiles) UploadAvatar(ctx context.Context, email string, a Avatar) (models.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	key, err := s.Assets.Upload(ctx, "avatars/"+u.ID, a.Filename, a.ContentType, a.Body, a.Size)
	if err != nil {
		return models.User{}, fmt.Errorf("upload avatar: %w", err)
	}

	return patchUser(ctx, s.Users, byEmail(s.Users, email), func(u *models.User) ([]models.OutboxMessage, error) {
		u.ImageKey = key
		return nil, nil
	})
}

func (s *Profiles) Addresses(ctx context.Context, email string) ([]models.IndexedAddress, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return models.SortedAddresses(u.Addresses), nil
}

func (s *Profiles) AddAddress(ctx context.Context, email string, a models.Address) ([]models.IndexedAddress, error) {
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	a.LastUsedAt = s.now().UTC()

	u, err := patchUser(ctx, s.Users, byEmail(s.Users, email), func(u *models.User) ([]models.OutboxMessage, error) {
		list := make([]models.Address, 0, len(u.Addresses)+1)
		list = append(list, a)
		u.Addresses = append(list, u.Addresses...)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return models.SortedAddresses(u.Addresses), nil
}

// DeleteAddress removes the address at its stored index. The index refers to
// the list the caller last read, so a concurrent write fails the call with
// repo.ErrVersionConflict rather than retrying against a shifted list.
func (s *Profiles) DeleteAddress(ctx context.Context, email string, index int) ([]models.IndexedAddress, error) {
	u, err := patchUserN(ctx, s.Users, 1, byEmail(s.Users, email), func(u *models.User) ([]models.OutboxMessage, error) {
		list, ok := models.RemoveAddress(u.Addresses, index)
		if !ok {
			return nil, ErrAddressNotFound
		}
		u.Addresses = list
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return models.SortedAddresses(u.Addresses), nil
}

func validateAddress(a models.Address) error {
	var missing []string
	for field, v := range map[string]string{
		"full_name":   a.FullName,
		"line1":       a.Line1,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(sortedCopy(missing), ", "))
	}
	return nil
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
