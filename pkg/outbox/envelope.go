package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

// ActorRef identifies the user whose action produced the event. System
// jobs leave it nil.
type ActorRef struct {
	UserID   uuid.UUID      `json:"userId"`
	UserType enums.UserType `json:"userType,omitempty"`
}

// Envelope is the JSON stored in outbox_events.payload and published as the
// Pub/Sub message body.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// ListingEvent is the data for listing_created, listing_claimed and
// listing_expired.
type ListingEvent struct {
	ListingID  uuid.UUID           `json:"listingId"`
	BusinessID uuid.UUID           `json:"businessId"`
	Title      string              `json:"title"`
	Status     enums.ListingStatus `json:"status"`
	// RejectedRequestIDs lists pending requests closed by the transition.
	RejectedRequestIDs []uuid.UUID `json:"rejectedRequestIds,omitempty"`
}

// RequestEvent is the data for request_created, request_accepted and
// request_rejected.
type RequestEvent struct {
	RequestID  uuid.UUID           `json:"requestId"`
	ListingID  uuid.UUID           `json:"listingId"`
	BusinessID uuid.UUID           `json:"businessId"`
	ShelterID  uuid.UUID           `json:"shelterId"`
	Status     enums.RequestStatus `json:"status"`
	PickupTime *time.Time          `json:"pickupTime,omitempty"`
	// RejectedRequestIDs lists sibling requests closed when one is accepted.
	RejectedRequestIDs []uuid.UUID `json:"rejectedRequestIds,omitempty"`
}
