package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

// FoodRequest is a shelter's claim interest in a listing.
// ListingID is not a cascading key: deleting a listing leaves its requests behind.
type FoodRequest struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	ListingID   uuid.UUID           `gorm:"column:listing_id;type:uuid;not null;index:idx_food_requests_listing"`
	ShelterID   uuid.UUID           `gorm:"column:shelter_id;type:uuid;not null;index:idx_food_requests_shelter"`
	ShelterName *string             `gorm:"column:shelter_name"`
	Status      enums.RequestStatus `gorm:"column:status;type:request_status;not null"`
	Message     string              `gorm:"column:message;not null"`
	PickupTime  *time.Time          `gorm:"column:pickup_time"`
	PickupNotes *string             `gorm:"column:pickup_notes"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Listing *Listing `gorm:"foreignKey:ListingID;references:ID"`
}

func (FoodRequest) TableName() string { return "food_requests" }

func (r *FoodRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
