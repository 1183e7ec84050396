package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
)

// Repository persists listings and the request side effects of listing
// transitions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListAvailable(ctx context.Context) ([]models.Listing, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, changes map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	// TransitionStatus moves the listing from one status to another and
	// reports false when it was not in the from status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ListingStatus, now time.Time) (bool, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Listing, error)
	// RejectPendingRequests rejects every pending request on the listing
	// except the one given and returns the requests it changed.
	RejectPendingRequests(ctx context.Context, listingID, except uuid.UUID, now time.Time) ([]models.FoodRequest, error)
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

func (r *repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) ListAvailable(ctx context.Context) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ListingStatusAvailable).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Listing{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ListingStatus, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Listing, error) {
	var rows []models.Listing
	query := r.db.WithContext(ctx).
		Where("status = ? AND expiration_date < ?", enums.ListingStatusAvailable, now).
		Order("expiration_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) RejectPendingRequests(ctx context.Context, listingID, except uuid.UUID, now time.Time) ([]models.FoodRequest, error) {
	query := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ?", listingID, enums.RequestStatusPending)
	if except != uuid.Nil {
		query = query.Where("id <> ?", except)
	}
	var pending []models.FoodRequest
	if err := query.Find(&pending).Error; err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(pending))
	for _, req := range pending {
		ids = append(ids, req.ID)
	}
	err := r.db.WithContext(ctx).
		Model(&models.FoodRequest{}).
		Where("id IN ? AND status = ?", ids, enums.RequestStatusPending).
		Updates(map[string]any{"status": enums.RequestStatusRejected, "updated_at": now}).Error
	if err != nil {
		return nil, err
	}
	for i := range pending {
		pending[i].Status = enums.RequestStatusRejected
		pending[i].UpdatedAt = now
	}
	return pending, nil
}
