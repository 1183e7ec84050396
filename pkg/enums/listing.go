package enums

import "fmt"

// ListingStatus maps to the listing_status enum in Postgres.
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusClaimed   ListingStatus = "claimed"
	ListingStatusExpired   ListingStatus = "expired"
)

var validListingStatuses = []ListingStatus{
	ListingStatusAvailable,
	ListingStatusClaimed,
	ListingStatusExpired,
}

func (s ListingStatus) String() string { return string(s) }

// IsValid checks whether the status matches the canonical enum.
func (s ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseListingStatus converts raw strings into ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}

// FoodType categorises a listing.
type FoodType string

const (
	FoodTypePrepared FoodType = "prepared"
	FoodTypeProduce  FoodType = "produce"
	FoodTypeBakery   FoodType = "bakery"
	FoodTypeCanned   FoodType = "canned"
	FoodTypeDairy    FoodType = "dairy"
	FoodTypeOther    FoodType = "other"
)

var validFoodTypes = []FoodType{
	FoodTypePrepared,
	FoodTypeProduce,
	FoodTypeBakery,
	FoodTypeCanned,
	FoodTypeDairy,
	FoodTypeOther,
}

func (f FoodType) String() string { return string(f) }

func (f FoodType) IsValid() bool {
	for _, candidate := range validFoodTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

func ParseFoodType(value string) (FoodType, error) {
	for _, candidate := range validFoodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid food type %q", value)
}

// QuantityUnit is the unit a listing quantity is expressed in.
type QuantityUnit string

const (
	QuantityUnitServings QuantityUnit = "servings"
	QuantityUnitPounds   QuantityUnit = "pounds"
	QuantityUnitItems    QuantityUnit = "items"
	QuantityUnitBoxes    QuantityUnit = "boxes"
)

var validQuantityUnits = []QuantityUnit{
	QuantityUnitServings,
	QuantityUnitPounds,
	QuantityUnitItems,
	QuantityUnitBoxes,
}

func (u QuantityUnit) String() string { return string(u) }

func (u QuantityUnit) IsValid() bool {
	for _, candidate := range validQuantityUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

func ParseQuantityUnit(value string) (QuantityUnit, error) {
	for _, candidate := range validQuantityUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity unit %q", value)
}
