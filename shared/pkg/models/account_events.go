package models

import "time"

const (
	EventPasswordResetRequested = "users.password_reset_requested"
	EventPasswordChanged        = "users.password_changed"
)

type PasswordResetRequested struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PasswordChanged struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ChangedAt time.Time `json:"changed_at"`
}

func NewPasswordResetRequestedEvent(userID string, p PasswordResetRequested) Event[PasswordResetRequested] {
	return NewEvent(EventPasswordResetRequested, userID, p)
}

func NewPasswordChangedEvent(userID string, p PasswordChanged) Event[PasswordChanged] {
	return NewEvent(EventPasswordChanged, userID, p)
}
