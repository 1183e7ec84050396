package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/pkg/cache"
	"github.com/angelmondragon/foodbridge-backend/pkg/db"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/dbtest"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/outbox"
)

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox down")
}

type fixture struct {
	client      *db.Client
	svc         Service
	listingsSvc listings.Service
	repo        Repository
	listingRepo listings.Repository
	profiles    profiles.Repository
	memory      *cache.Memory
	now         time.Time
}

func newFixture(t *testing.T, emitter outbox.Emitter) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	memory := cache.NewMemory(cache.WithClock(clock))
	dispatcher := cache.NewDispatcher(cache.DispatcherParams{Cache: memory})
	if emitter == nil {
		emitter = outbox.NewService(outbox.NewRepository(client.DB()), nil)
	}

	f := &fixture{
		client:      client,
		repo:        NewRepository(client.DB()),
		listingRepo: listings.NewRepository(client.DB()),
		profiles:    profiles.NewRepository(client.DB()),
		memory:      memory,
		now:         now,
	}
	var err error
	// listings always get a working emitter so fixtures can be seeded
	f.listingsSvc, err = listings.NewService(listings.ServiceParams{
		Repo:     f.listingRepo,
		Profiles: f.profiles,
		Tx:       client,
		Outbox:   outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Cache:    dispatcher,
		Now:      clock,
	})
	require.NoError(t, err)
	f.svc, err = NewService(ServiceParams{
		Repo:     f.repo,
		Listings: f.listingRepo,
		Profiles: f.profiles,
		Tx:       client,
		Outbox:   emitter,
		Cache:    dispatcher,
		Now:      clock,
	})
	require.NoError(t, err)
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

func (f *fixture) listing(t *testing.T, businessID uuid.UUID) *listings.ListingDTO {
	t.Helper()
	created, err := f.listingsSvc.CreateListing(context.Background(), businessID, listings.CreateInput{
		Title:          "Vegetable soup",
		Description:    "Two large pots",
		FoodType:       enums.FoodTypePrepared,
		Quantity:       decimal.NewFromInt(40),
		QuantityUnit:   enums.QuantityUnitServings,
		ExpirationDate: f.now.Add(24 * time.Hour),
		PickupByTime:   f.now.Add(6 * time.Hour),
		Location:       "8 Harbor Rd",
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) cached(key string) bool {
	_, ok, _ := f.memory.Get(context.Background(), key)
	return ok
}

func (f *fixture) warm(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, f.memory.Set(context.Background(), key, []byte("[]"), time.Minute))
	}
}

func (f *fixture) statuses(t *testing.T, listingID uuid.UUID) map[enums.RequestStatus]int {
	t.Helper()
	rows, err := f.repo.ListByListing(context.Background(), listingID)
	require.NoError(t, err)
	out := map[enums.RequestStatus]int{}
	for _, row := range rows {
		out[row.Status]++
	}
	return out
}

func TestCreateRequestRequiresShelter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	l := f.listing(t, business)

	_, err := f.svc.CreateRequest(ctx, business, l.ID, CreateInput{Message: "hi"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.CreateRequest(ctx, uuid.Nil, l.ID, CreateInput{Message: "hi"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	_, err = f.svc.CreateRequest(ctx, shelter, uuid.New(), CreateInput{Message: "hi"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateRequestPersistsPending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	l := f.listing(t, business)
	f.warm(t, cache.ShelterRequests(shelter), cache.ListingRequests(l.ID), cache.BusinessRequests(business))

	notes := "side door"
	created, err := f.svc.CreateRequest(ctx, shelter, l.ID, CreateInput{Message: "we can come at 5", PickupNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusPending, created.Status)
	require.NotNil(t, created.ShelterName)
	assert.Equal(t, "Hope House", *created.ShelterName)

	assert.False(t, f.cached(cache.ShelterRequests(shelter)))
	assert.False(t, f.cached(cache.ListingRequests(l.ID)))
	assert.False(t, f.cached(cache.BusinessRequests(business)))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventRequestCreated).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// One business, one listing, two shelters request it, the first is
// accepted, and a third shelter arrives too late.
func TestAcceptScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	s1 := f.user(t, enums.UserTypeShelter, "Hope House")
	s2 := f.user(t, enums.UserTypeShelter, "Harbor Shelter")
	s3 := f.user(t, enums.UserTypeShelter, "Late Shelter")
	l1 := f.listing(t, business)

	r1, err := f.svc.CreateRequest(ctx, s1, l1.ID, CreateInput{Message: "first"})
	require.NoError(t, err)
	r2, err := f.svc.CreateRequest(ctx, s2, l1.ID, CreateInput{Message: "second"})
	require.NoError(t, err)
	f.warm(t, cache.ShelterRequests(s1), cache.ShelterRequests(s2), cache.Listing(l1.ID), cache.AllListings())

	pickupAt := f.now.Add(3 * time.Hour)
	notes := "loading dock"
	accepted, err := f.svc.AcceptRequest(ctx, business, r1.ID, Pickup{Time: &pickupAt, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.PickupTime)
	assert.True(t, pickupAt.Equal(*accepted.PickupTime))
	require.NotNil(t, accepted.PickupNotes)
	assert.Equal(t, "loading dock", *accepted.PickupNotes)

	stored, err := f.listingRepo.FindByID(ctx, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusClaimed, stored.Status)
	statuses := f.statuses(t, l1.ID)
	assert.Equal(t, 1, statuses[enums.RequestStatusAccepted])
	assert.Equal(t, 1, statuses[enums.RequestStatusRejected])
	assert.Zero(t, statuses[enums.RequestStatusPending])

	sibling, err := f.repo.FindByID(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusRejected, sibling.Status)

	for _, key := range []string{cache.ShelterRequests(s1), cache.ShelterRequests(s2), cache.Listing(l1.ID), cache.AllListings()} {
		assert.False(t, f.cached(key), key)
	}

	_, err = f.svc.CreateRequest(ctx, s3, l1.ID, CreateInput{Message: "too late"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestTerminalStatesAreIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	s1 := f.user(t, enums.UserTypeShelter, "Hope House")
	s2 := f.user(t, enums.UserTypeShelter, "Harbor Shelter")
	l := f.listing(t, business)
	r1, err := f.svc.CreateRequest(ctx, s1, l.ID, CreateInput{Message: "first"})
	require.NoError(t, err)
	r2, err := f.svc.CreateRequest(ctx, s2, l.ID, CreateInput{Message: "second"})
	require.NoError(t, err)

	_, err = f.svc.AcceptRequest(ctx, business, r1.ID, Pickup{})
	require.NoError(t, err)

	again, err := f.svc.AcceptRequest(ctx, business, r1.ID, Pickup{})
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusAccepted, again.Status)

	rejected, err := f.svc.RejectRequest(ctx, business, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusRejected, rejected.Status)

	_, err = f.svc.AcceptRequest(ctx, business, r2.ID, Pickup{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = f.svc.RejectRequest(ctx, business, r1.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	var accepted int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventRequestAccepted).Count(&accepted).Error)
	assert.EqualValues(t, 1, accepted)
}

func TestRejectRequest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	l := f.listing(t, business)
	r, err := f.svc.CreateRequest(ctx, shelter, l.ID, CreateInput{Message: "please"})
	require.NoError(t, err)
	f.warm(t, cache.ShelterRequests(shelter), cache.Listing(l.ID))

	got, err := f.svc.RejectRequest(ctx, business, r.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusRejected, got.Status)
	assert.False(t, f.cached(cache.ShelterRequests(shelter)))
	assert.True(t, f.cached(cache.Listing(l.ID)))

	stored, err := f.listingRepo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusAvailable, stored.Status)
}

func TestNonOwnerCannotDecide(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	other := f.user(t, enums.UserTypeBusiness, "Other Deli")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	l := f.listing(t, owner)
	r, err := f.svc.CreateRequest(ctx, shelter, l.ID, CreateInput{Message: "please"})
	require.NoError(t, err)

	_, err = f.svc.GetRequestsForListing(ctx, owner, l.ID)
	require.NoError(t, err)
	require.True(t, f.cached(cache.ListingRequests(l.ID)))

	_, err = f.svc.AcceptRequest(ctx, other, r.ID, Pickup{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.RejectRequest(ctx, other, r.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.GetRequestsForListing(ctx, other, l.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	assert.True(t, f.cached(cache.ListingRequests(l.ID)))
	assert.Equal(t, 1, f.statuses(t, l.ID)[enums.RequestStatusPending])
}

func TestAcceptRollsBackOnFailure(t *testing.T) {
	f := newFixture(t, failingEmitter{})
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	l := f.listing(t, business)

	pending := &models.FoodRequest{ListingID: l.ID, ShelterID: shelter, Status: enums.RequestStatusPending, Message: "please"}
	require.NoError(t, f.repo.Create(ctx, pending))
	f.warm(t, cache.Listing(l.ID))

	_, err := f.svc.AcceptRequest(ctx, business, pending.ID, Pickup{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	stored, err := f.listingRepo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusAvailable, stored.Status)
	req, err := f.repo.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusPending, req.Status)
	assert.True(t, f.cached(cache.Listing(l.ID)))
}

func TestDanglingRequests(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	l := f.listing(t, business)
	r, err := f.svc.CreateRequest(ctx, shelter, l.ID, CreateInput{Message: "please"})
	require.NoError(t, err)
	require.NoError(t, f.listingsSvc.DeleteListing(ctx, business, l.ID))

	_, err = f.svc.AcceptRequest(ctx, business, r.ID, Pickup{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.RejectRequest(ctx, business, r.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	mine, err := f.svc.GetShelterRequests(ctx, shelter)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Nil(t, mine[0].Listing)

	inbox, err := f.svc.GetBusinessRequests(ctx, business)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestReadViewsJoinListings(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	l := f.listing(t, business)
	_, err := f.svc.CreateRequest(ctx, shelter, l.ID, CreateInput{Message: "please"})
	require.NoError(t, err)

	inbox, err := f.svc.GetBusinessRequests(ctx, business)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.NotNil(t, inbox[0].Listing)
	assert.Equal(t, "Vegetable soup", inbox[0].Listing.Title)
	assert.True(t, f.cached(cache.BusinessRequests(business)))

	mine, err := f.svc.GetShelterRequests(ctx, shelter)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Listing)
	assert.Equal(t, "8 Harbor Rd", mine[0].Listing.Location)

	other, err := f.svc.GetBusinessRequests(ctx, f.user(t, enums.UserTypeBusiness, "Other Deli"))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRejectStale(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	business := f.user(t, enums.UserTypeBusiness, "Harbor Grill")
	shelter := f.user(t, enums.UserTypeShelter, "Hope House")
	l := f.listing(t, business)
	open := f.listing(t, business)
	r, err := f.svc.CreateRequest(ctx, shelter, l.ID, CreateInput{Message: "please"})
	require.NoError(t, err)
	_, err = f.svc.CreateRequest(ctx, shelter, open.ID, CreateInput{Message: "also"})
	require.NoError(t, err)

	ok, err := f.listingRepo.TransitionStatus(ctx, l.ID, enums.ListingStatusAvailable, enums.ListingStatusExpired, f.now)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := f.svc.RejectStale(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusRejected, stored.Status)
	assert.Equal(t, 1, f.statuses(t, open.ID)[enums.RequestStatusPending])

	n, err = f.svc.RejectStale(ctx, 50)
	require.NoError(t, err)
	assert.Zero(t, n)
}
