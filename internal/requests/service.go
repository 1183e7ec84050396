package requests

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/internal/listings"
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

// Service manages the request side of the donation lifecycle.
type Service interface {
	CreateRequest(ctx context.Context, shelterID, listingID uuid.UUID, input CreateInput) (*RequestDTO, error)
	AcceptRequest(ctx context.Context, ownerID, requestID uuid.UUID, pickup Pickup) (*RequestDTO, error)
	RejectRequest(ctx context.Context, ownerID, requestID uuid.UUID) (*RequestDTO, error)
	GetRequestsForListing(ctx context.Context, ownerID, listingID uuid.UUID) ([]RequestDTO, error)
	GetBusinessRequests(ctx context.Context, ownerID uuid.UUID) ([]BusinessRequestDTO, error)
	GetShelterRequests(ctx context.Context, shelterID uuid.UUID) ([]ShelterRequestDTO, error)
	// RejectStale rejects pending requests left on listings that are no
	// longer available and returns how many changed.
	RejectStale(ctx context.Context, limit int) (int, error)
}

type ServiceParams struct {
	Repo     Repository
	Listings listings.Repository
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
	listings listings.Repository
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
		return nil, errors.New("requests repository required")
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
		listings: params.Listings,
		profiles: params.Profiles,
		tx:       params.Tx,
		outbox:   params.Outbox,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      params.Now,
	}, nil
}

func (s *service) CreateRequest(ctx context.Context, shelterID, listingID uuid.UUID, input CreateInput) (*RequestDTO, error) {
	profile, err := profiles.RequireType(ctx, s.profiles, shelterID, enums.UserTypeShelter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req := &models.FoodRequest{
		ListingID:   listingID,
		ShelterID:   shelterID,
		Status:      enums.RequestStatusPending,
		Message:     input.Message,
		PickupNotes: input.PickupNotes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.PickupTime != nil {
		t := input.PickupTime.UTC()
		req.PickupTime = &t
	}
	if name := profile.DisplayName(); name != "" {
		req.ShelterName = &name
	}

	var listing *models.Listing
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := listings.Require(ctx, s.listings.WithTx(tx), listingID)
		if err != nil {
			return err
		}
		if found.Status != enums.ListingStatusAvailable {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing not available")
		}
		listing = found
		if err := s.repo.WithTx(tx).Create(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
		}
		return s.outbox.Emit(ctx, tx, s.requestEvent(enums.EventRequestCreated, req, listing, nil,
			&outbox.ActorRef{UserID: shelterID, UserType: enums.UserTypeShelter}))
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "create request")
	}

	s.cache.Apply(ctx, cache.RequestWrite(listing.BusinessID, listingID, shelterID))
	s.metrics.Transition("request", string(enums.RequestStatusPending), 1)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"request_id": req.ID.String(),
		"listing_id": listingID.String(),
	}), "request created")
	return FromModel(req), nil
}

func (s *service) AcceptRequest(ctx context.Context, ownerID, requestID uuid.UUID, pickup Pickup) (*RequestDTO, error) {
	var (
		req      *models.FoodRequest
		listing  *models.Listing
		rejected []models.FoodRequest
		changed  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listingRepo := s.listings.WithTx(tx)

		var err error
		req, listing, err = s.requireOwned(ctx, repo, listingRepo, ownerID, requestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case enums.RequestStatusAccepted:
			return nil
		case enums.RequestStatusRejected:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already rejected")
		}

		now := s.now()
		ok, err := listingRepo.TransitionStatus(ctx, listing.ID, enums.ListingStatusAvailable, enums.ListingStatusClaimed, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim listing")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing not available")
		}
		listing.Status = enums.ListingStatusClaimed

		ok, err = repo.Accept(ctx, req.ID, pickup, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request no longer pending")
		}
		req.Status = enums.RequestStatusAccepted
		req.UpdatedAt = now
		if pickup.Time != nil {
			t := pickup.Time.UTC()
			req.PickupTime = &t
		}
		if pickup.Notes != nil {
			notes := *pickup.Notes
			req.PickupNotes = &notes
		}

		rejected, err = listingRepo.RejectPendingRequests(ctx, listing.ID, req.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling requests")
		}
		changed = true
		return s.outbox.Emit(ctx, tx, s.requestEvent(enums.EventRequestAccepted, req, listing, rejected,
			&outbox.ActorRef{UserID: ownerID, UserType: enums.UserTypeBusiness}))
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "accept request")
	}
	if !changed {
		return FromModel(req), nil
	}

	shelters := append([]uuid.UUID{req.ShelterID}, listings.ShelterIDs(rejected)...)
	s.cache.Apply(ctx, cache.ListingWrite(ownerID, listing.ID).Merge(
		cache.RequestWrite(ownerID, listing.ID, shelters...),
	))
	s.metrics.Transition("request", string(enums.RequestStatusAccepted), 1)
	s.metrics.Transition("request", string(enums.RequestStatusRejected), len(rejected))
	s.metrics.Transition("listing", string(enums.ListingStatusClaimed), 1)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"request_id":        req.ID.String(),
		"listing_id":        listing.ID.String(),
		"rejected_requests": len(rejected),
	}), "request accepted")
	return FromModel(req), nil
}

func (s *service) RejectRequest(ctx context.Context, ownerID, requestID uuid.UUID) (*RequestDTO, error) {
	var (
		req     *models.FoodRequest
		listing *models.Listing
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		req, listing, err = s.requireOwned(ctx, repo, s.listings.WithTx(tx), ownerID, requestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case enums.RequestStatusRejected:
			return nil
		case enums.RequestStatusAccepted:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already accepted")
		}

		now := s.now()
		ok, err := repo.Reject(ctx, req.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request no longer pending")
		}
		req.Status = enums.RequestStatusRejected
		req.UpdatedAt = now
		changed = true
		return s.outbox.Emit(ctx, tx, s.requestEvent(enums.EventRequestRejected, req, listing, nil,
			&outbox.ActorRef{UserID: ownerID, UserType: enums.UserTypeBusiness}))
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "reject request")
	}
	if changed {
		s.cache.Apply(ctx, cache.RequestWrite(ownerID, listing.ID, req.ShelterID))
		s.metrics.Transition("request", string(enums.RequestStatusRejected), 1)
	}
	return FromModel(req), nil
}

func (s *service) RejectStale(ctx context.Context, limit int) (int, error) {
	stale, err := s.repo.ListStalePending(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale requests")
	}

	rejected := 0
	for i := range stale {
		req := &stale[i]
		ok := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			now := s.now()
			var err error
			ok, err = s.repo.WithTx(tx).Reject(ctx, req.ID, now)
			if err != nil || !ok {
				return err
			}
			req.Status = enums.RequestStatusRejected
			req.UpdatedAt = now
			return s.outbox.Emit(ctx, tx, s.requestEvent(enums.EventRequestRejected, req, req.Listing, nil, nil))
		})
		if err != nil {
			return rejected, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "reject stale request")
		}
		if !ok {
			continue
		}
		rejected++
		if req.Listing != nil {
			s.cache.Apply(ctx, cache.RequestWrite(req.Listing.BusinessID, req.ListingID, req.ShelterID))
		}
	}
	s.metrics.Transition("request", string(enums.RequestStatusRejected), rejected)
	return rejected, nil
}

func (s *service) GetRequestsForListing(ctx context.Context, ownerID, listingID uuid.UUID) ([]RequestDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listing, err := listings.Require(ctx, s.listings, listingID)
	if err != nil {
		return nil, err
	}
	if listing.BusinessID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another business")
	}
	return cache.Fetch(ctx, s.cache, cache.ListingRequests(listingID), s.cache.Policy().Shared, func(ctx context.Context) ([]RequestDTO, error) {
		rows, err := s.repo.ListByListing(ctx, listingID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listing requests")
		}
		return toRequestDTOs(rows), nil
	})
}

func (s *service) GetBusinessRequests(ctx context.Context, ownerID uuid.UUID) ([]BusinessRequestDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return cache.Fetch(ctx, s.cache, cache.BusinessRequests(ownerID), s.cache.Policy().Shared, func(ctx context.Context) ([]BusinessRequestDTO, error) {
		rows, err := s.repo.ListForBusiness(ctx, ownerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list business requests")
		}
		return toBusinessDTOs(rows), nil
	})
}

func (s *service) GetShelterRequests(ctx context.Context, shelterID uuid.UUID) ([]ShelterRequestDTO, error) {
	if shelterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return cache.Fetch(ctx, s.cache, cache.ShelterRequests(shelterID), s.cache.Policy().Shared, func(ctx context.Context) ([]ShelterRequestDTO, error) {
		rows, err := s.repo.ListForShelter(ctx, shelterID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shelter requests")
		}
		return toShelterDTOs(rows), nil
	})
}

// requireOwned resolves a request and its listing and checks the caller
// owns the listing. A dangling request reports the listing as missing.
func (s *service) requireOwned(ctx context.Context, repo Repository, listingRepo listings.Repository, ownerID, requestID uuid.UUID) (*models.FoodRequest, *models.Listing, error) {
	if ownerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if requestID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	req, err := repo.FindByID(ctx, requestID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	listing, err := listings.Require(ctx, listingRepo, req.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if listing.BusinessID != ownerID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "request is on another business's listing")
	}
	return req, listing, nil
}

func (s *service) requestEvent(eventType enums.OutboxEventType, req *models.FoodRequest, listing *models.Listing, rejected []models.FoodRequest, actor *outbox.ActorRef) outbox.DomainEvent {
	data := outbox.RequestEvent{
		RequestID:  req.ID,
		ListingID:  req.ListingID,
		ShelterID:  req.ShelterID,
		Status:     req.Status,
		PickupTime: req.PickupTime,
	}
	if listing != nil {
		data.BusinessID = listing.BusinessID
	}
	for _, sibling := range rejected {
		data.RejectedRequestIDs = append(data.RejectedRequestIDs, sibling.ID)
	}
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateRequest,
		AggregateID:   req.ID,
		Actor:         actor,
		Data:          data,
		OccurredAt:    s.now(),
	}
}
