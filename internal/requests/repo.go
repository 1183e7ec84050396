package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

// Repository persists food requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.FoodRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FoodRequest, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.FoodRequest, error)
	// ListForBusiness returns requests on listings owned by businessID with
	// the listing preloaded.
	ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]models.FoodRequest, error)
	// ListForShelter returns the shelter's requests. Listing is nil when the
	// listing was deleted.
	ListForShelter(ctx context.Context, shelterID uuid.UUID) ([]models.FoodRequest, error)
	// Accept moves a pending request to accepted, overriding the pickup
	// fields that are set. It reports false when the request was not pending.
	Accept(ctx context.Context, id uuid.UUID, pickup Pickup, now time.Time) (bool, error)
	// Reject moves a pending request to rejected.
	Reject(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// ListStalePending returns pending requests whose listing is no longer
	// available, with the listing preloaded.
	ListStalePending(ctx context.Context, limit int) ([]models.FoodRequest, error)
}

// Pickup carries optional pickup overrides applied on accept.
type Pickup struct {
	Time  *time.Time
	Notes *string
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

func (r *repository) Create(ctx context.Context, req *models.FoodRequest) error {
	return r.db.WithContext(ctx).Omit("Listing").Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FoodRequest, error) {
	var req models.FoodRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.FoodRequest, error) {
	var rows []models.FoodRequest
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]models.FoodRequest, error) {
	var rows []models.FoodRequest
	err := r.db.WithContext(ctx).
		Joins("JOIN listings ON listings.id = food_requests.listing_id").
		Where("listings.business_id = ?", businessID).
		Preload("Listing").
		Order("food_requests.created_at DESC, food_requests.id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListForShelter(ctx context.Context, shelterID uuid.UUID) ([]models.FoodRequest, error) {
	var rows []models.FoodRequest
	err := r.db.WithContext(ctx).
		Where("shelter_id = ?", shelterID).
		Preload("Listing").
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Accept(ctx context.Context, id uuid.UUID, pickup Pickup, now time.Time) (bool, error) {
	changes := map[string]any{"status": enums.RequestStatusAccepted, "updated_at": now}
	if pickup.Time != nil {
		changes["pickup_time"] = pickup.Time.UTC()
	}
	if pickup.Notes != nil {
		changes["pickup_notes"] = *pickup.Notes
	}
	return r.transition(ctx, id, changes)
}

func (r *repository) Reject(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return r.transition(ctx, id, map[string]any{"status": enums.RequestStatusRejected, "updated_at": now})
}

func (r *repository) transition(ctx context.Context, id uuid.UUID, changes map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FoodRequest{}).
		Where("id = ? AND status = ?", id, enums.RequestStatusPending).
		Updates(changes)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListStalePending(ctx context.Context, limit int) ([]models.FoodRequest, error) {
	var rows []models.FoodRequest
	query := r.db.WithContext(ctx).
		Joins("JOIN listings ON listings.id = food_requests.listing_id").
		Where("food_requests.status = ? AND listings.status IN ?", enums.RequestStatusPending,
			[]enums.ListingStatus{enums.ListingStatusClaimed, enums.ListingStatusExpired}).
		Preload("Listing").
		Order("food_requests.created_at ASC, food_requests.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}
