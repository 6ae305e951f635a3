package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCartUpdated = "CartUpdated"
	cartUpdatedSchema    = "contracts/events/cart/CartUpdated.v1.payload.schema.json"
)

// EventEnvelope is the shared envelope for v1 contracts.
type EventEnvelope struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
}

func (e EventEnvelope) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	if e.EventID == "" {
		return fmt.Errorf("missing eventId")
	}
	return nil
}

type CartUpdatedItem struct {
	ProductID   string `json:"productGUID"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

type CartUpdatedPayload struct {
	CartID     string            `json:"cartId"`
	UserID     string            `json:"userId"`
	Action     string            `json:"action"`
	ProductID  string            `json:"productGUID,omitempty"`
	ActorID    string            `json:"actorId"`
	Items      []CartUpdatedItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	Timestamp  time.Time         `json:"timestamp"`
}

type CartUpdatedEvent struct {
	EventEnvelope
	Payload CartUpdatedPayload `json:"payload"`
}

type EventMeta struct {
	CorrelationID string
	PartitionKey  string
}

func newCartUpdatedEvent(meta EventMeta, seq int64, producer string, payload CartUpdatedPayload, occurredAt time.Time) CartUpdatedEvent {
	return CartUpdatedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeCartUpdated,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: meta.CorrelationID,
			Producer:      producer,
			PartitionKey:  meta.PartitionKey,
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        cartUpdatedSchema,
		},
		Payload: payload,
	}
}
