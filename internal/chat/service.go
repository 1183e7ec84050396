package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/pkg/db"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 4000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the per-listing conversations between a shelter and the
// donating business.
type Service interface {
	CreateChatRoom(ctx context.Context, callerID, listingID uuid.UUID) (*RoomDTO, error)
	GetChatRooms(ctx context.Context, callerID uuid.UUID) ([]RoomSummary, error)
	GetChatRoom(ctx context.Context, callerID, roomID uuid.UUID) (*RoomDTO, error)
	// GetChatMessages marks the other party's messages read and returns the
	// room history oldest first.
	GetChatMessages(ctx context.Context, callerID, roomID uuid.UUID) ([]MessageDTO, error)
	SendMessage(ctx context.Context, callerID, roomID uuid.UUID, text string) (*MessageDTO, error)
	GetUnreadMessageCount(ctx context.Context, callerID uuid.UUID) (int64, error)
}

type ServiceParams struct {
	Repo     Repository
	Listings listings.Repository
	Profiles profiles.Repository
	Tx       txRunner
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	listings listings.Repository
	profiles profiles.Repository
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("chat repository required")
	}
	if params.Listings == nil {
		return nil, errors.New("listings repository required")
	}
	if params.Profiles == nil {
		return nil, errors.New("profiles repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repo,
		listings: params.Listings,
		profiles: params.Profiles,
		tx:       params.Tx,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) CreateChatRoom(ctx context.Context, callerID, listingID uuid.UUID) (*RoomDTO, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listing, err := listings.Require(ctx, s.listings, listingID)
	if err != nil {
		return nil, err
	}
	if listing.BusinessID == callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot open a chat on your own listing")
	}

	existing, err := s.repo.FindRoomByListingShelter(ctx, listingID, callerID)
	if err == nil {
		return roomFromModel(existing), nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup chat room")
	}

	now := s.now()
	room := &models.ChatRoom{
		ListingID:  listingID,
		BusinessID: listing.BusinessID,
		ShelterID:  callerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		if db.IsUniqueViolation(err, "ux_chat_rooms_listing_shelter") {
			// lost a race with a concurrent create
			existing, findErr := s.repo.FindRoomByListingShelter(ctx, listingID, callerID)
			if findErr == nil {
				return roomFromModel(existing), nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat room")
	}
	return roomFromModel(room), nil
}

func (s *service) GetChatRooms(ctx context.Context, callerID uuid.UUID) ([]RoomSummary, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rooms, err := s.repo.ListRoomsForUser(ctx, callerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chat rooms")
	}
	if len(rooms) == 0 {
		return []RoomSummary{}, nil
	}

	listingIDs := make([]uuid.UUID, 0, len(rooms))
	partyIDs := make([]uuid.UUID, 0, len(rooms))
	for _, room := range rooms {
		listingIDs = append(listingIDs, room.ListingID)
		partyIDs = append(partyIDs, otherParty(room, callerID))
	}
	titles, err := s.repo.ListingTitles(ctx, listingIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing titles")
	}
	parties, err := s.profiles.FindByUserIDs(ctx, partyIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat parties")
	}

	out := make([]RoomSummary, 0, len(rooms))
	for i := range rooms {
		summary := RoomSummary{
			RoomDTO:      *roomFromModel(&rooms[i]),
			ListingTitle: titles[rooms[i].ListingID],
		}
		if party, ok := parties[otherParty(rooms[i], callerID)]; ok {
			summary.OtherPartyName = party.DisplayName()
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *service) GetChatRoom(ctx context.Context, callerID, roomID uuid.UUID) (*RoomDTO, error) {
	room, err := s.requireParticipant(ctx, s.repo, callerID, roomID)
	if err != nil {
		return nil, err
	}
	return roomFromModel(room), nil
}

func (s *service) GetChatMessages(ctx context.Context, callerID, roomID uuid.UUID) ([]MessageDTO, error) {
	var rows []models.ChatMessage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.requireParticipant(ctx, repo, callerID, roomID); err != nil {
			return err
		}
		if _, err := repo.MarkRead(ctx, roomID, callerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark messages read")
		}
		var err error
		rows, err = repo.ListMessages(ctx, roomID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "get messages")
	}

	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, messageFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) SendMessage(ctx context.Context, callerID, roomID uuid.UUID, text string) (*MessageDTO, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message cannot be empty")
	}
	if len(body) > MaxMessageLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "message exceeds %d characters", MaxMessageLength)
	}

	now := s.now()
	msg := &models.ChatMessage{
		ChatRoomID: roomID,
		SenderID:   callerID,
		Message:    body,
		IsRead:     false,
		CreatedAt:  now,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.requireParticipant(ctx, repo, callerID, roomID); err != nil {
			return err
		}
		if err := repo.CreateMessage(ctx, msg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
		}
		if err := repo.TouchRoom(ctx, roomID, body, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update chat room")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "send message")
	}
	dto := messageFromModel(msg)
	return &dto, nil
}

func (s *service) GetUnreadMessageCount(ctx context.Context, callerID uuid.UUID) (int64, error) {
	if callerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.CountUnread(ctx, callerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread messages")
	}
	return count, nil
}

func (s *service) requireParticipant(ctx context.Context, repo Repository, callerID, roomID uuid.UUID) (*models.ChatRoom, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	room, err := repo.FindRoom(ctx, roomID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat room not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat room")
	}
	if room.BusinessID != callerID && room.ShelterID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a participant in this chat")
	}
	return room, nil
}

func otherParty(room models.ChatRoom, callerID uuid.UUID) uuid.UUID {
	if room.BusinessID == callerID {
		return room.ShelterID
	}
	return room.BusinessID
}
