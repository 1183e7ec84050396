package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

// Profile carries the business or shelter details for a user.
type Profile struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_profiles_user"`
	UserType      enums.UserType `gorm:"column:user_type;type:user_type;not null"`
	BusinessName  *string        `gorm:"column:business_name"`
	ShelterName   *string        `gorm:"column:shelter_name"`
	Address       *string        `gorm:"column:address"`
	Phone         *string        `gorm:"column:phone"`
	Description   *string        `gorm:"column:description"`
	ContactPerson *string        `gorm:"column:contact_person"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DisplayName returns the organisation name matching the profile's type.
func (p Profile) DisplayName() string {
	switch p.UserType {
	case enums.UserTypeBusiness:
		if p.BusinessName != nil {
			return *p.BusinessName
		}
	case enums.UserTypeShelter:
		if p.ShelterName != nil {
			return *p.ShelterName
		}
	}
	return ""
}
