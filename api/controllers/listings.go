package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodbridge-backend/api/middleware"
	"github.com/angelmondragon/foodbridge-backend/api/responses"
	"github.com/angelmondragon/foodbridge-backend/api/validators"
	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 4000
	maxLocationLen    = 500
	maxServesLen      = 100
)

type listingCreateBody struct {
	Title          string             `json:"title" validate:"required"`
	Description    string             `json:"description"`
	FoodType       enums.FoodType     `json:"food_type" validate:"required"`
	Quantity       decimal.Decimal    `json:"quantity"`
	QuantityUnit   enums.QuantityUnit `json:"quantity_unit" validate:"required"`
	Serves         *string            `json:"serves"`
	ExpirationDate time.Time          `json:"expiration_date" validate:"required"`
	PickupByTime   time.Time          `json:"pickup_by_time" validate:"required"`
	Location       string             `json:"location" validate:"required"`
	ImageURL       *string            `json:"image_url" validate:"omitempty,url"`
}

func (b listingCreateBody) input() listings.CreateInput {
	return listings.CreateInput{
		Title:          validators.SanitizeText(b.Title, maxTitleLen),
		Description:    validators.SanitizeText(b.Description, maxDescriptionLen),
		FoodType:       b.FoodType,
		Quantity:       b.Quantity,
		QuantityUnit:   b.QuantityUnit,
		Serves:         validators.SanitizeOptional(b.Serves, maxServesLen),
		ExpirationDate: b.ExpirationDate,
		PickupByTime:   b.PickupByTime,
		Location:       validators.SanitizeText(b.Location, maxLocationLen),
		ImageURL:       b.ImageURL,
	}
}

type listingUpdateBody struct {
	Title          *string             `json:"title"`
	Description    *string             `json:"description"`
	FoodType       *enums.FoodType     `json:"food_type"`
	Quantity       *decimal.Decimal    `json:"quantity"`
	QuantityUnit   *enums.QuantityUnit `json:"quantity_unit"`
	Serves         *string             `json:"serves"`
	ExpirationDate *time.Time          `json:"expiration_date"`
	PickupByTime   *time.Time          `json:"pickup_by_time"`
	Location       *string             `json:"location"`
	ImageURL       *string             `json:"image_url" validate:"omitempty,url"`
}

func (b listingUpdateBody) input() listings.UpdateInput {
	return listings.UpdateInput{
		Title:          validators.SanitizeOptional(b.Title, maxTitleLen),
		Description:    validators.SanitizeOptional(b.Description, maxDescriptionLen),
		FoodType:       b.FoodType,
		Quantity:       b.Quantity,
		QuantityUnit:   b.QuantityUnit,
		Serves:         validators.SanitizeOptional(b.Serves, maxServesLen),
		ExpirationDate: b.ExpirationDate,
		PickupByTime:   b.PickupByTime,
		Location:       validators.SanitizeOptional(b.Location, maxLocationLen),
		ImageURL:       b.ImageURL,
	}
}

func ListingsList(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.GetAllListings(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func ListingsMine(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.GetBusinessListings(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func ListingCreate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body listingCreateBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.CreateListing(r.Context(), middleware.UserIDFromContext(r.Context()), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

func ListingGet(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.GetListing(r.Context(), middleware.UserIDFromContext(r.Context()), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func ListingUpdate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body listingUpdateBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.UpdateListing(r.Context(), middleware.UserIDFromContext(r.Context()), listingID, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func ListingDelete(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteListing(r.Context(), middleware.UserIDFromContext(r.Context()), listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": listingID, "deleted": true})
	}
}

func ListingClaim(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.ClaimListing(r.Context(), middleware.UserIDFromContext(r.Context()), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}
