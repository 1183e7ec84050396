package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
)

// Repository persists chat rooms and their messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	FindRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	FindRoomByListingShelter(ctx context.Context, listingID, shelterID uuid.UUID) (*models.ChatRoom, error)
	// ListRoomsForUser returns rooms where the user is either party, most
	// recently active first.
	ListRoomsForUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	ListingTitles(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID]string, error)
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error)
	// MarkRead flags as read the room's messages not sent by readerID.
	MarkRead(ctx context.Context, roomID, readerID uuid.UUID) (int64, error)
	TouchRoom(ctx context.Context, roomID uuid.UUID, lastMessage string, at time.Time) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *repository) FindRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) FindRoomByListingShelter(ctx context.Context, listingID, shelterID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND shelter_id = ?", listingID, shelterID).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) ListRoomsForUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("business_id = ? OR shelter_id = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&rooms).Error
	return rooms, err
}

func (r *repository) ListingTitles(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Select("id", "title").
		Where("id IN ?", listingIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Title
	}
	return out, nil
}

func (r *repository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *repository) ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkRead(ctx context.Context, roomID, readerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("chat_room_id = ? AND sender_id <> ? AND is_read = ?", roomID, readerID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *repository) TouchRoom(ctx context.Context, roomID uuid.UUID, lastMessage string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]any{
			"last_message":      lastMessage,
			"last_message_time": at,
			"updated_at":        at,
		}).Error
}

func (r *repository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Joins("JOIN chat_rooms ON chat_rooms.id = chat_messages.chat_room_id").
		Where("(chat_rooms.business_id = ? OR chat_rooms.shelter_id = ?)", userID, userID).
		Where("chat_messages.sender_id <> ? AND chat_messages.is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
