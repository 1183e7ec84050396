package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodbridge-backend/api/middleware"
	"github.com/angelmondragon/foodbridge-backend/api/responses"
	"github.com/angelmondragon/foodbridge-backend/api/validators"
	"github.com/angelmondragon/foodbridge-backend/internal/chat"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type chatRoomBody struct {
	ListingID uuid.UUID `json:"listing_id" validate:"required"`
}

type chatMessageBody struct {
	Message string `json:"message" validate:"required"`
}

func ChatRoomsList(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := svc.GetChatRooms(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rooms)
	}
}

func ChatRoomCreate(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body chatRoomBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		room, err := svc.CreateChatRoom(r.Context(), middleware.UserIDFromContext(r.Context()), body.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, room)
	}
}

func ChatRoomGet(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := pathUUID(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		room, err := svc.GetChatRoom(r.Context(), middleware.UserIDFromContext(r.Context()), roomID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, room)
	}
}

func ChatMessagesList(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := pathUUID(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msgs, err := svc.GetChatMessages(r.Context(), middleware.UserIDFromContext(r.Context()), roomID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, msgs)
	}
}

func ChatMessageSend(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := pathUUID(r, "roomId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body chatMessageBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// length is enforced by the service so an oversized message is
		// rejected rather than cut
		text := validators.SanitizeText(body.Message, 0)
		msg, err := svc.SendMessage(r.Context(), middleware.UserIDFromContext(r.Context()), roomID, text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, msg)
	}
}

func ChatUnreadCount(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.GetUnreadMessageCount(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"count": count})
	}
}
