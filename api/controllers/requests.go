package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/foodbridge-backend/api/middleware"
	"github.com/angelmondragon/foodbridge-backend/api/responses"
	"github.com/angelmondragon/foodbridge-backend/api/validators"
	"github.com/angelmondragon/foodbridge-backend/internal/requests"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

const (
	maxRequestMessageLen = 2000
	maxPickupNotesLen    = 1000
)

type requestCreateBody struct {
	Message     string     `json:"message"`
	PickupTime  *time.Time `json:"pickup_time"`
	PickupNotes *string    `json:"pickup_notes"`
}

type acceptBody struct {
	PickupTime  *time.Time `json:"pickup_time"`
	PickupNotes *string    `json:"pickup_notes"`
}

func ListingRequestsList(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.GetRequestsForListing(r.Context(), middleware.UserIDFromContext(r.Context()), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func RequestCreate(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body requestCreateBody
		if err := validators.DecodeOptionalJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.CreateRequest(r.Context(), middleware.UserIDFromContext(r.Context()), listingID, requests.CreateInput{
			Message:     validators.SanitizeText(body.Message, maxRequestMessageLen),
			PickupTime:  body.PickupTime,
			PickupNotes: validators.SanitizeOptional(body.PickupNotes, maxPickupNotesLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

func RequestsBusiness(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.GetBusinessRequests(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func RequestsShelter(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.GetShelterRequests(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func RequestAccept(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body acceptBody
		if err := validators.DecodeOptionalJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.AcceptRequest(r.Context(), middleware.UserIDFromContext(r.Context()), requestID, requests.Pickup{
			Time:  body.PickupTime,
			Notes: validators.SanitizeOptional(body.PickupNotes, maxPickupNotesLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func RequestReject(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.RejectRequest(r.Context(), middleware.UserIDFromContext(r.Context()), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}
