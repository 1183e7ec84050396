package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

type ProfileDTO struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	UserType      enums.UserType `json:"user_type"`
	BusinessName  *string        `json:"business_name"`
	ShelterName   *string        `json:"shelter_name"`
	Address       *string        `json:"address"`
	Phone         *string        `json:"phone"`
	Description   *string        `json:"description"`
	ContactPerson *string        `json:"contact_person"`
	CreatedAt     time.Time      `json:"created_at"`
}

func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:            p.ID,
		UserID:        p.UserID,
		UserType:      p.UserType,
		BusinessName:  p.BusinessName,
		ShelterName:   p.ShelterName,
		Address:       p.Address,
		Phone:         p.Phone,
		Description:   p.Description,
		ContactPerson: p.ContactPerson,
		CreatedAt:     p.CreatedAt,
	}
}

// Fields is the editable part of a profile. Nil leaves a column untouched.
type Fields struct {
	BusinessName  *string
	ShelterName   *string
	Address       *string
	Phone         *string
	Description   *string
	ContactPerson *string
}

func (f Fields) apply(p *models.Profile) {
	set := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	set(&p.BusinessName, f.BusinessName)
	set(&p.ShelterName, f.ShelterName)
	set(&p.Address, f.Address)
	set(&p.Phone, f.Phone)
	set(&p.Description, f.Description)
	set(&p.ContactPerson, f.ContactPerson)
}

func (f Fields) changes() map[string]any {
	out := map[string]any{}
	add := func(column string, v *string) {
		if v != nil {
			out[column] = *v
		}
	}
	add("business_name", f.BusinessName)
	add("shelter_name", f.ShelterName)
	add("address", f.Address)
	add("phone", f.Phone)
	add("description", f.Description)
	add("contact_person", f.ContactPerson)
	return out
}

// NewModel builds the profile created at registration.
func NewModel(userID uuid.UUID, userType enums.UserType, fields Fields) *models.Profile {
	profile := &models.Profile{UserID: userID, UserType: userType}
	fields.apply(profile)
	return profile
}
