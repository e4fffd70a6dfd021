package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-backend/shared/pkg/models"

	"github.com/jackc/pgx/v5"
)

type UsersPG struct {
	DB     DB
	Outbox *OutboxPG
}

const userColumns = `id::text, email, coalesce(password_hash, ''), name, coalesce(image_key, ''),
	addresses, coalesce(reset_token_hash, ''), reset_token_expires_at, version, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var (
		u     models.User
		addrs []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.ImageKey,
		&addrs, &u.ResetTokenHash, &u.ResetTokenExpiresAt, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err)
	}
	if len(addrs) > 0 {
		if err := json.Unmarshal(addrs, &u.Addresses); err != nil {
			return models.User{}, fmt.Errorf("decode addresses of %s: %w", u.ID, err)
		}
	}
	if u.Addresses == nil {
		u.Addresses = []models.Address{}
	}
	return u, nil
}

func (r *UsersPG) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(r.DB.QueryRow(ctx, `select `+userColumns+` from users where email = $1`, email))
}

func (r *UsersPG) GetByResetTokenHash(ctx context.Context, hash string) (models.User, error) {
	return scanUser(r.DB.QueryRow(ctx, `select `+userColumns+` from users where reset_token_hash = $1`, hash))
}

// Update writes every mutable field of u if and only if the stored version still
// equals u.Version. The outbox messages are written in the same transaction.
func (r *UsersPG) Update(ctx context.Context, u models.User, events ...models.OutboxMessage) (models.User, error) {
	addrs := u.Addresses
	if addrs == nil {
		addrs = []models.Address{}
	}
	addrJSON, err := json.Marshal(addrs)
	if err != nil {
		return models.User{}, err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		update users
		set name = $3,
		    image_key = nullif($4, ''),
		    addresses = $5::jsonb,
		    password_hash = nullif($6, ''),
		    reset_token_hash = nullif($7, ''),
		    reset_token_expires_at = $8,
		    version = version + 1,
		    updated_at = now()
		where id = $1::uuid and version = $2
		returning version, updated_at
	`, u.ID, u.Version, u.Name, u.ImageKey, string(addrJSON), u.PasswordHash,
		u.ResetTokenHash, u.ResetTokenExpiresAt).Scan(&u.Version, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrVersionConflict
	}
	if err != nil {
		return models.User{}, err
	}

	for _, evt := range events {
		if err := r.Outbox.Enqueue(ctx, tx, evt); err != nil {
			return models.User{}, fmt.Errorf("enqueue %s: %w", evt.Type, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, err
	}
	u.Addresses = addrs
	return u, nil
}

// ReplaceAll deletes every user and inserts u as the only account.
func (r *UsersPG) ReplaceAll(ctx context.Context, u models.User) (models.User, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `delete from users`); err != nil {
		return models.User{}, fmt.Errorf("delete users: %w", err)
	}

	created, err := scanUser(tx.QueryRow(ctx, `
		insert into users (email, password_hash, name, addresses)
		values ($1, nullif($2, ''), $3, '[]'::jsonb)
		returning `+userColumns, u.Email, u.PasswordHash, u.Name))
	if err != nil {
		return models.User{}, fmt.Errorf("insert test user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, err
	}
	return created, nil
}
