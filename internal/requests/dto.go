package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

type RequestDTO struct {
	ID          uuid.UUID           `json:"id"`
	ListingID   uuid.UUID           `json:"listing_id"`
	ShelterID   uuid.UUID           `json:"shelter_id"`
	ShelterName *string             `json:"shelter_name"`
	Status      enums.RequestStatus `json:"status"`
	Message     string              `json:"message"`
	PickupTime  *time.Time          `json:"pickup_time"`
	PickupNotes *string             `json:"pickup_notes"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func FromModel(r *models.FoodRequest) *RequestDTO {
	if r == nil {
		return nil
	}
	return &RequestDTO{
		ID:          r.ID,
		ListingID:   r.ListingID,
		ShelterID:   r.ShelterID,
		ShelterName: r.ShelterName,
		Status:      r.Status,
		Message:     r.Message,
		PickupTime:  r.PickupTime,
		PickupNotes: r.PickupNotes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// BusinessRequestDTO is a request in the business inbox.
type BusinessRequestDTO struct {
	RequestDTO
	Listing *listings.Summary `json:"listing"`
}

// ShelterRequestDTO is one of a shelter's own requests with the listing it
// targets, nil when that listing is gone.
type ShelterRequestDTO struct {
	RequestDTO
	Listing *listings.ListingDTO `json:"listing"`
}

func toRequestDTOs(rows []models.FoodRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func toBusinessDTOs(rows []models.FoodRequest) []BusinessRequestDTO {
	out := make([]BusinessRequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, BusinessRequestDTO{
			RequestDTO: *FromModel(&rows[i]),
			Listing:    listings.SummaryFromModel(rows[i].Listing),
		})
	}
	return out
}

func toShelterDTOs(rows []models.FoodRequest) []ShelterRequestDTO {
	out := make([]ShelterRequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ShelterRequestDTO{
			RequestDTO: *FromModel(&rows[i]),
			Listing:    listings.FromModel(rows[i].Listing),
		})
	}
	return out
}

// CreateInput holds the free text a shelter attaches to a request.
type CreateInput struct {
	Message     string
	PickupTime  *time.Time
	PickupNotes *string
}
