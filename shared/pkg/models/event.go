package models

import (
	"time"

	"github.com/google/uuid"
)

type Event[T any] struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Time    time.Time `json:"time"`
	Subject string    `json:"subject"`
	Payload T         `json:"payload"`
}

// NewEvent stamps a fresh id and time. Subject is the aggregate the event is about.
func NewEvent[T any](eventType, subject string, payload T) Event[T] {
	return Event[T]{
		ID:      uuid.NewString(),
		Type:    eventType,
		Version: 1,
		Time:    time.Now().UTC(),
		Subject: subject,
		Payload: payload,
	}
}
