package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodbridge-backend/api/middleware"
	"github.com/angelmondragon/foodbridge-backend/api/responses"
	"github.com/angelmondragon/foodbridge-backend/api/validators"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type profileUpdateBody struct {
	UserType      *string `json:"user_type"`
	BusinessName  *string `json:"business_name" validate:"omitempty,max=200"`
	ShelterName   *string `json:"shelter_name" validate:"omitempty,max=200"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	Phone         *string `json:"phone" validate:"omitempty,max=40"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=200"`
}

func (b profileUpdateBody) input() profiles.UpdateInput {
	return profiles.UpdateInput{
		UserType: b.UserType,
		Fields: profiles.Fields{
			BusinessName:  validators.SanitizeOptional(b.BusinessName, 200),
			ShelterName:   validators.SanitizeOptional(b.ShelterName, 200),
			Address:       validators.SanitizeOptional(b.Address, 500),
			Phone:         validators.SanitizeOptional(b.Phone, 40),
			Description:   validators.SanitizeOptional(b.Description, 2000),
			ContactPerson: validators.SanitizeOptional(b.ContactPerson, 200),
		},
	}
}

func ProfileGet(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.GetProfile(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ProfileUpdate(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body profileUpdateBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.UpdateProfile(r.Context(), middleware.UserIDFromContext(r.Context()), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
