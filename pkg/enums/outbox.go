package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateListing OutboxAggregateType = "listing"
	AggregateRequest OutboxAggregateType = "food_request"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateListing,
	AggregateRequest,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventListingCreated  OutboxEventType = "listing_created"
	EventListingClaimed  OutboxEventType = "listing_claimed"
	EventListingExpired  OutboxEventType = "listing_expired"
	EventRequestCreated  OutboxEventType = "request_created"
	EventRequestAccepted OutboxEventType = "request_accepted"
	EventRequestRejected OutboxEventType = "request_rejected"
)

var validEventTypes = []OutboxEventType{
	EventListingCreated,
	EventListingClaimed,
	EventListingExpired,
	EventRequestCreated,
	EventRequestAccepted,
	EventRequestRejected,
}

func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
