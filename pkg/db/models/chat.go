package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom joins one shelter and one business around a listing.
type ChatRoom struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ListingID       uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:ux_chat_rooms_listing_shelter,priority:1"`
	ShelterID       uuid.UUID  `gorm:"column:shelter_id;type:uuid;not null;uniqueIndex:ux_chat_rooms_listing_shelter,priority:2"`
	BusinessID      uuid.UUID  `gorm:"column:business_id;type:uuid;not null;index:idx_chat_rooms_business"`
	LastMessage     *string    `gorm:"column:last_message"`
	LastMessageTime *time.Time `gorm:"column:last_message_time"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *ChatRoom) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ChatMessage is a single line in a chat room.
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatRoomID uuid.UUID `gorm:"column:chat_room_id;type:uuid;not null;index:idx_chat_messages_room"`
	SenderID   uuid.UUID `gorm:"column:sender_id;type:uuid;not null"`
	Message    string    `gorm:"column:message;not null"`
	IsRead     bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (m *ChatMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
