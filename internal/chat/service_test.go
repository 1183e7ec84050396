package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
)

type fixture struct {
	svc         Service
	listingRepo listings.Repository
	profiles    profiles.Repository
	clock       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	f := &fixture{
		listingRepo: listings.NewRepository(client.DB()),
		profiles:    profiles.NewRepository(client.DB()),
		clock:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(client.DB()),
		Listings: f.listingRepo,
		Profiles: f.profiles,
		Tx:       client,
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) user(t *testing.T, userType enums.UserType, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	profile := &models.Profile{UserID: id, UserType: userType}
	if userType == enums.UserTypeBusiness {
		profile.BusinessName = &name
	} else {
		profile.ShelterName = &name
	}
	require.NoError(t, f.profiles.Create(context.Background(), profile))
	return id
}

func (f *fixture) listing(t *testing.T, businessID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	listing := &models.Listing{
		BusinessID:     businessID,
		Title:          title,
		FoodType:       enums.FoodTypeProduce,
		Quantity:       decimal.NewFromInt(3),
		QuantityUnit:   enums.QuantityUnitBoxes,
		ExpirationDate: f.clock.Add(48 * time.Hour),
		PickupByTime:   f.clock.Add(24 * time.Hour),
		Location:       "Market Hall",
		Status:         enums.ListingStatusAvailable,
	}
	require.NoError(t, f.listingRepo.Create(context.Background(), listing))
	return listing.ID
}

func TestCreateChatRoomIsIdempotentPerShelter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Green Grocer")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	listingID := f.listing(t, business, "Apples")

	room, err := f.svc.CreateChatRoom(ctx, shelter, listingID)
	require.NoError(t, err)
	assert.Equal(t, business, room.BusinessID)
	assert.Equal(t, shelter, room.ShelterID)

	again, err := f.svc.CreateChatRoom(ctx, shelter, listingID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)

	_, err = f.svc.CreateChatRoom(ctx, business, listingID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.CreateChatRoom(ctx, shelter, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMessagesAndUnreadCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Green Grocer")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	room, err := f.svc.CreateChatRoom(ctx, shelter, f.listing(t, business, "Apples"))
	require.NoError(t, err)

	count, err := f.svc.GetUnreadMessageCount(ctx, business)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.svc.SendMessage(ctx, shelter, room.ID, "  Can we come at 4?  ")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, shelter, room.ID, "We have a van.")
	require.NoError(t, err)

	count, err = f.svc.GetUnreadMessageCount(ctx, business)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	count, err = f.svc.GetUnreadMessageCount(ctx, shelter)
	require.NoError(t, err)
	assert.Zero(t, count)

	msgs, err := f.svc.GetChatMessages(ctx, business, room.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Can we come at 4?", msgs[0].Message)
	assert.True(t, msgs[0].IsRead)

	count, err = f.svc.GetUnreadMessageCount(ctx, business)
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := f.svc.GetChatRoom(ctx, business, room.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "We have a van.", *got.LastMessage)
	assert.True(t, got.UpdatedAt.After(room.UpdatedAt))
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Green Grocer")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	stranger := f.user(t, enums.UserTypeShelter, "Elsewhere")
	room, err := f.svc.CreateChatRoom(ctx, shelter, f.listing(t, business, "Apples"))
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, shelter, room.ID, "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.SendMessage(ctx, stranger, room.ID, "hello")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.GetChatMessages(ctx, stranger, room.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.GetChatRoom(ctx, shelter, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetChatRoomsListsBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Green Grocer")
	s1 := f.user(t, enums.UserTypeShelter, "Hope House")
	s2 := f.user(t, enums.UserTypeShelter, "Harbor Shelter")
	apples := f.listing(t, business, "Apples")
	pears := f.listing(t, business, "Pears")

	first, err := f.svc.CreateChatRoom(ctx, s1, apples)
	require.NoError(t, err)
	second, err := f.svc.CreateChatRoom(ctx, s2, pears)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, s1, first.ID, "still there?")
	require.NoError(t, err)

	rooms, err := f.svc.GetChatRooms(ctx, business)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, first.ID, rooms[0].ID)
	assert.Equal(t, "Apples", rooms[0].ListingTitle)
	assert.Equal(t, "Hope House", rooms[0].OtherPartyName)
	assert.Equal(t, second.ID, rooms[1].ID)
	assert.Equal(t, "Harbor Shelter", rooms[1].OtherPartyName)

	mine, err := f.svc.GetChatRooms(ctx, s2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Green Grocer", mine[0].OtherPartyName)

	none, err := f.svc.GetChatRooms(ctx, f.user(t, enums.UserTypeShelter, "Quiet"))
	require.NoError(t, err)
	assert.Empty(t, none)
}
