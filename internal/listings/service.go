package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/pkg/cache"
	"github.com/angelmondragon/foodbridge-backend/pkg/db"
	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
	"github.com/angelmondragon/foodbridge-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the listing side of the donation lifecycle.
type Service interface {
	CreateListing(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*ListingDTO, error)
	UpdateListing(ctx context.Context, ownerID, listingID uuid.UUID, input UpdateInput) (*ListingDTO, error)
	DeleteListing(ctx context.Context, ownerID, listingID uuid.UUID) error
	ClaimListing(ctx context.Context, ownerID, listingID uuid.UUID) (*ListingDTO, error)
	GetAllListings(ctx context.Context, callerID uuid.UUID) ([]ListingDTO, error)
	GetBusinessListings(ctx context.Context, ownerID uuid.UUID) ([]ListingDTO, error)
	GetListing(ctx context.Context, callerID, listingID uuid.UUID) (*ListingDTO, error)
	// ExpireOverdue moves available listings past their expiration date to
	// expired and rejects their pending requests. It returns how many
	// listings changed.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

type ServiceParams struct {
	Repo     Repository
	Profiles profiles.Repository
	Tx       txRunner
	Outbox   outbox.Emitter
	Cache    *cache.Dispatcher
	Metrics  *metrics.LifecycleMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	profiles profiles.Repository
	tx       txRunner
	outbox   outbox.Emitter
	cache    *cache.Dispatcher
	metrics  *metrics.LifecycleMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("listings repository required")
	}
	if params.Profiles == nil {
		return nil, errors.New("profiles repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox emitter required")
	}
	if params.Cache == nil {
		params.Cache = cache.NewDispatcher(cache.DispatcherParams{Logger: params.Logger})
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repo,
		profiles: params.Profiles,
		tx:       params.Tx,
		outbox:   params.Outbox,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) CreateListing(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*ListingDTO, error) {
	profile, err := profiles.RequireType(ctx, s.profiles, ownerID, enums.UserTypeBusiness)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	listing := &models.Listing{
		BusinessID:     ownerID,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		FoodType:       input.FoodType,
		Quantity:       input.Quantity,
		QuantityUnit:   input.QuantityUnit,
		Serves:         input.Serves,
		ExpirationDate: input.ExpirationDate.UTC(),
		PickupByTime:   input.PickupByTime.UTC(),
		Location:       input.Location,
		ImageURL:       input.ImageURL,
		Status:         enums.ListingStatusAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if name := profile.DisplayName(); name != "" {
		listing.BusinessName = &name
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, listing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
		}
		return s.outbox.Emit(ctx, tx, s.listingEvent(enums.EventListingCreated, listing, nil))
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "create listing")
	}

	s.cache.Apply(ctx, cache.ListingWrite(ownerID, uuid.Nil))
	s.metrics.Transition("listing", string(enums.ListingStatusAvailable), 1)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"listing_id":  listing.ID.String(),
		"business_id": ownerID.String(),
	}), "listing created")
	return FromModel(listing), nil
}

func (s *service) UpdateListing(ctx context.Context, ownerID, listingID uuid.UUID, input UpdateInput) (*ListingDTO, error) {
	listing, err := s.requireOwned(ctx, s.repo, ownerID, listingID)
	if err != nil {
		return nil, err
	}
	changes, err := input.changes(listing)
	if err != nil {
		return nil, err
	}
	now := s.now()
	changes["updated_at"] = now
	if err := s.repo.Update(ctx, listingID, changes); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	listing.UpdatedAt = now

	s.cache.Apply(ctx, cache.ListingWrite(ownerID, listingID))
	return FromModel(listing), nil
}

func (s *service) DeleteListing(ctx context.Context, ownerID, listingID uuid.UUID) error {
	if _, err := s.requireOwned(ctx, s.repo, ownerID, listingID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, listingID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete listing")
	}

	s.cache.Apply(ctx, cache.ListingWrite(ownerID, listingID).With(cache.ListingRequests(listingID)))
	s.logg.Info(s.logg.WithField(ctx, "listing_id", listingID.String()), "listing deleted")
	return nil
}

func (s *service) ClaimListing(ctx context.Context, ownerID, listingID uuid.UUID) (*ListingDTO, error) {
	var (
		listing  *models.Listing
		rejected []models.FoodRequest
		changed  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := s.requireOwned(ctx, repo, ownerID, listingID)
		if err != nil {
			return err
		}
		listing = found

		switch listing.Status {
		case enums.ListingStatusClaimed:
			return nil
		case enums.ListingStatusAvailable:
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing not available")
		}

		now := s.now()
		ok, err := repo.TransitionStatus(ctx, listingID, enums.ListingStatusAvailable, enums.ListingStatusClaimed, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim listing")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing not available")
		}
		listing.Status = enums.ListingStatusClaimed
		listing.UpdatedAt = now

		rejected, err = repo.RejectPendingRequests(ctx, listingID, uuid.Nil, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject pending requests")
		}
		changed = true
		return s.outbox.Emit(ctx, tx, s.listingEvent(enums.EventListingClaimed, listing, rejected))
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "claim listing")
	}
	if !changed {
		return FromModel(listing), nil
	}

	s.cache.Apply(ctx, cache.ListingWrite(ownerID, listingID).Merge(
		cache.RequestWrite(ownerID, listingID, ShelterIDs(rejected)...),
	))
	s.metrics.Transition("listing", string(enums.ListingStatusClaimed), 1)
	s.metrics.Transition("request", string(enums.RequestStatusRejected), len(rejected))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"listing_id":        listingID.String(),
		"rejected_requests": len(rejected),
	}), "listing claimed")
	return FromModel(listing), nil
}

func (s *service) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	overdue, err := s.repo.ListOverdue(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue listings")
	}

	expired := 0
	for i := range overdue {
		listing := &overdue[i]
		var rejected []models.FoodRequest
		ok := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			var err error
			ok, err = repo.TransitionStatus(ctx, listing.ID, enums.ListingStatusAvailable, enums.ListingStatusExpired, now)
			if err != nil || !ok {
				return err
			}
			listing.Status = enums.ListingStatusExpired
			rejected, err = repo.RejectPendingRequests(ctx, listing.ID, uuid.Nil, now)
			if err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventListingExpired,
				AggregateType: enums.AggregateListing,
				AggregateID:   listing.ID,
				Data:          listingEventData(listing, rejected),
				OccurredAt:    now,
			})
		})
		if err != nil {
			return expired, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "expire listing")
		}
		if !ok {
			continue
		}
		expired++
		s.cache.Apply(ctx, cache.ListingWrite(listing.BusinessID, listing.ID).Merge(
			cache.RequestWrite(listing.BusinessID, listing.ID, ShelterIDs(rejected)...),
		))
		s.metrics.Transition("request", string(enums.RequestStatusRejected), len(rejected))
	}
	s.metrics.Transition("listing", string(enums.ListingStatusExpired), expired)
	return expired, nil
}

func (s *service) GetAllListings(ctx context.Context, callerID uuid.UUID) ([]ListingDTO, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return cache.Fetch(ctx, s.cache, cache.AllListings(), s.cache.Policy().Shared, func(ctx context.Context) ([]ListingDTO, error) {
		rows, err := s.repo.ListAvailable(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
		}
		return fromModels(rows), nil
	})
}

func (s *service) GetBusinessListings(ctx context.Context, ownerID uuid.UUID) ([]ListingDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return cache.Fetch(ctx, s.cache, cache.BusinessListings(ownerID), s.cache.Policy().Entity, func(ctx context.Context) ([]ListingDTO, error) {
		rows, err := s.repo.ListByBusiness(ctx, ownerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list business listings")
		}
		return fromModels(rows), nil
	})
}

func (s *service) GetListing(ctx context.Context, callerID, listingID uuid.UUID) (*ListingDTO, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return cache.Fetch(ctx, s.cache, cache.Listing(listingID), s.cache.Policy().Entity, func(ctx context.Context) (*ListingDTO, error) {
		listing, err := Require(ctx, s.repo, listingID)
		if err != nil {
			return nil, err
		}
		return FromModel(listing), nil
	})
}

// Require loads a listing, mapping a missing row to NotFound.
func Require(ctx context.Context, repo Repository, listingID uuid.UUID) (*models.Listing, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	listing, err := repo.FindByID(ctx, listingID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

func (s *service) requireOwned(ctx context.Context, repo Repository, ownerID, listingID uuid.UUID) (*models.Listing, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listing, err := Require(ctx, repo, listingID)
	if err != nil {
		return nil, err
	}
	if listing.BusinessID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another business")
	}
	return listing, nil
}

func (s *service) listingEvent(eventType enums.OutboxEventType, listing *models.Listing, rejected []models.FoodRequest) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateListing,
		AggregateID:   listing.ID,
		Actor:         &outbox.ActorRef{UserID: listing.BusinessID, UserType: enums.UserTypeBusiness},
		Data:          listingEventData(listing, rejected),
		OccurredAt:    s.now(),
	}
}

func listingEventData(listing *models.Listing, rejected []models.FoodRequest) outbox.ListingEvent {
	event := outbox.ListingEvent{
		ListingID:  listing.ID,
		BusinessID: listing.BusinessID,
		Title:      listing.Title,
		Status:     listing.Status,
	}
	for _, req := range rejected {
		event.RejectedRequestIDs = append(event.RejectedRequestIDs, req.ID)
	}
	return event
}

// ShelterIDs returns the distinct requesters of reqs.
func ShelterIDs(reqs []models.FoodRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(reqs))
	out := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		if _, ok := seen[req.ShelterID]; ok {
			continue
		}
		seen[req.ShelterID] = struct{}{}
		out = append(out, req.ShelterID)
	}
	return out
}
