package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

// Listing is a surplus food donation posted by a business.
type Listing struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	BusinessID     uuid.UUID           `gorm:"column:business_id;type:uuid;not null;index:idx_listings_business"`
	BusinessName   *string             `gorm:"column:business_name"`
	Title          string              `gorm:"column:title;not null"`
	Description    string              `gorm:"column:description;not null"`
	FoodType       enums.FoodType      `gorm:"column:food_type;type:food_type;not null"`
	Quantity       decimal.Decimal     `gorm:"column:quantity;type:numeric(12,2);not null"`
	QuantityUnit   enums.QuantityUnit  `gorm:"column:quantity_unit;type:quantity_unit;not null"`
	Serves         *string             `gorm:"column:serves"`
	ExpirationDate time.Time           `gorm:"column:expiration_date;not null"`
	PickupByTime   time.Time           `gorm:"column:pickup_by_time;not null"`
	Location       string              `gorm:"column:location;not null"`
	ImageURL       *string             `gorm:"column:image_url"`
	Status         enums.ListingStatus `gorm:"column:status;type:listing_status;not null;index:idx_listings_status"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Listing) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
