package listings

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodbridge-backend/pkg/db/models"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
)

type ListingDTO struct {
	ID             uuid.UUID           `json:"id"`
	BusinessID     uuid.UUID           `json:"business_id"`
	BusinessName   *string             `json:"business_name"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	FoodType       enums.FoodType      `json:"food_type"`
	Quantity       decimal.Decimal     `json:"quantity"`
	QuantityUnit   enums.QuantityUnit  `json:"quantity_unit"`
	Serves         *string             `json:"serves"`
	ExpirationDate time.Time           `json:"expiration_date"`
	PickupByTime   time.Time           `json:"pickup_by_time"`
	Location       string              `json:"location"`
	ImageURL       *string             `json:"image_url"`
	Status         enums.ListingStatus `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func FromModel(l *models.Listing) *ListingDTO {
	if l == nil {
		return nil
	}
	return &ListingDTO{
		ID:             l.ID,
		BusinessID:     l.BusinessID,
		BusinessName:   l.BusinessName,
		Title:          l.Title,
		Description:    l.Description,
		FoodType:       l.FoodType,
		Quantity:       l.Quantity,
		QuantityUnit:   l.QuantityUnit,
		Serves:         l.Serves,
		ExpirationDate: l.ExpirationDate,
		PickupByTime:   l.PickupByTime,
		Location:       l.Location,
		ImageURL:       l.ImageURL,
		Status:         l.Status,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func fromModels(rows []models.Listing) []ListingDTO {
	out := make([]ListingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// Summary is the slice of a listing shown next to a request in the
// business inbox.
type Summary struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	FoodType     enums.FoodType      `json:"food_type"`
	Quantity     decimal.Decimal     `json:"quantity"`
	QuantityUnit enums.QuantityUnit  `json:"quantity_unit"`
	PickupByTime time.Time           `json:"pickup_by_time"`
	Status       enums.ListingStatus `json:"status"`
}

func SummaryFromModel(l *models.Listing) *Summary {
	if l == nil {
		return nil
	}
	return &Summary{
		ID:           l.ID,
		Title:        l.Title,
		FoodType:     l.FoodType,
		Quantity:     l.Quantity,
		QuantityUnit: l.QuantityUnit,
		PickupByTime: l.PickupByTime,
		Status:       l.Status,
	}
}

type CreateInput struct {
	Title          string
	Description    string
	FoodType       enums.FoodType
	Quantity       decimal.Decimal
	QuantityUnit   enums.QuantityUnit
	Serves         *string
	ExpirationDate time.Time
	PickupByTime   time.Time
	Location       string
	ImageURL       *string
}

func (in CreateInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	case strings.TrimSpace(in.Location) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	case !in.FoodType.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid food_type %q", in.FoodType)
	case !in.QuantityUnit.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid quantity_unit %q", in.QuantityUnit)
	case in.ExpirationDate.IsZero() || in.PickupByTime.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "expiration_date and pickup_by_time are required")
	}
	return nil
}

// UpdateInput is a partial edit; nil fields are left alone. Status is not
// editable here, transitions go through the lifecycle operations.
type UpdateInput struct {
	Title          *string
	Description    *string
	FoodType       *enums.FoodType
	Quantity       *decimal.Decimal
	QuantityUnit   *enums.QuantityUnit
	Serves         *string
	ExpirationDate *time.Time
	PickupByTime   *time.Time
	Location       *string
	ImageURL       *string
}

// changes validates the set fields, applies them to l and returns the
// column map to persist.
func (in UpdateInput) changes(l *models.Listing) (map[string]any, error) {
	out := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		l.Title = *in.Title
		out["title"] = l.Title
	}
	if in.Description != nil {
		l.Description = *in.Description
		out["description"] = l.Description
	}
	if in.FoodType != nil {
		if !in.FoodType.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid food_type %q", *in.FoodType)
		}
		l.FoodType = *in.FoodType
		out["food_type"] = l.FoodType
	}
	if in.Quantity != nil {
		l.Quantity = *in.Quantity
		out["quantity"] = l.Quantity
	}
	if in.QuantityUnit != nil {
		if !in.QuantityUnit.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid quantity_unit %q", *in.QuantityUnit)
		}
		l.QuantityUnit = *in.QuantityUnit
		out["quantity_unit"] = l.QuantityUnit
	}
	if in.Serves != nil {
		v := *in.Serves
		l.Serves = &v
		out["serves"] = v
	}
	if in.ExpirationDate != nil {
		l.ExpirationDate = in.ExpirationDate.UTC()
		out["expiration_date"] = l.ExpirationDate
	}
	if in.PickupByTime != nil {
		l.PickupByTime = in.PickupByTime.UTC()
		out["pickup_by_time"] = l.PickupByTime
	}
	if in.Location != nil {
		if strings.TrimSpace(*in.Location) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location cannot be empty")
		}
		l.Location = *in.Location
		out["location"] = l.Location
	}
	if in.ImageURL != nil {
		v := *in.ImageURL
		l.ImageURL = &v
		out["image_url"] = v
	}
	return out, nil
}
