package models

// OutboxMessage is an event ready to be written to the outbox table.
type OutboxMessage struct {
	ID          string
	AggregateID string
	Type        string
	Payload     any
}

func (e Event[T]) Outbox() OutboxMessage {
	return OutboxMessage{ID: e.ID, AggregateID: e.Subject, Type: e.Type, Payload: e}
}
