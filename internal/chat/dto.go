package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
)

type RoomDTO struct {
	ID              uuid.UUID  `json:"id"`
	ListingID       uuid.UUID  `json:"listing_id"`
	BusinessID      uuid.UUID  `json:"business_id"`
	ShelterID       uuid.UUID  `json:"shelter_id"`
	LastMessage     *string    `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RoomSummary is a room in the caller's room list.
type RoomSummary struct {
	RoomDTO
	ListingTitle   string `json:"listing_title"`
	OtherPartyName string `json:"other_party_name"`
}

type MessageDTO struct {
	ID         uuid.UUID `json:"id"`
	ChatRoomID uuid.UUID `json:"chat_room_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

func roomFromModel(r *models.ChatRoom) *RoomDTO {
	if r == nil {
		return nil
	}
	return &RoomDTO{
		ID:              r.ID,
		ListingID:       r.ListingID,
		BusinessID:      r.BusinessID,
		ShelterID:       r.ShelterID,
		LastMessage:     r.LastMessage,
		LastMessageTime: r.LastMessageTime,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func messageFromModel(m *models.ChatMessage) MessageDTO {
	return MessageDTO{
		ID:         m.ID,
		ChatRoomID: m.ChatRoomID,
		SenderID:   m.SenderID,
		Message:    m.Message,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}
