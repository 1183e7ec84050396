package outbox

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

// NonRetryableError tells the publisher to park a row instead of retrying.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// Resolved is a decoded outbox row and the topic it goes to.
type Resolved struct {
	Topic    string
	Envelope Envelope
}

type descriptor struct {
	aggregate enums.OutboxAggregateType
	topic     string
}

// Registry routes each event type to its topic and checks it was stored
// against the expected aggregate.
type Registry struct {
	entries map[enums.OutboxEventType]descriptor
}

func NewRegistry(cfg config.PubSubConfig) (*Registry, error) {
	if cfg.DomainTopic == "" {
		return nil, errors.New("domain topic is required")
	}
	reg := &Registry{entries: map[enums.OutboxEventType]descriptor{}}
	for _, eventType := range []enums.OutboxEventType{enums.EventListingCreated, enums.EventListingClaimed, enums.EventListingExpired} {
		reg.entries[eventType] = descriptor{aggregate: enums.AggregateListing, topic: cfg.DomainTopic}
	}
	for _, eventType := range []enums.OutboxEventType{enums.EventRequestCreated, enums.EventRequestAccepted, enums.EventRequestRejected} {
		reg.entries[eventType] = descriptor{aggregate: enums.AggregateRequest, topic: cfg.DomainTopic}
	}
	return reg, nil
}

func (r *Registry) Resolve(row models.OutboxEvent) (*Resolved, error) {
	desc, ok := r.entries[row.EventType]
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("event type %q not registered", row.EventType)}
	}
	if desc.aggregate != row.AggregateType {
		return nil, NonRetryableError{Err: fmt.Errorf("event %s stored with aggregate %s, want %s", row.EventType, row.AggregateType, desc.aggregate)}
	}
	var envelope Envelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if envelope.EventID == "" {
		return nil, NonRetryableError{Err: errors.New("envelope missing event id")}
	}
	return &Resolved{Topic: desc.topic, Envelope: envelope}, nil
}
