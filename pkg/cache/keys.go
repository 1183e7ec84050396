package cache

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default TTL policy.
const (
	SharedTTL = 5 * time.Second
	EntityTTL = 10 * time.Second
)

// Policy holds the TTLs applied to shared list views and to single
// entity or by-owner views.
type Policy struct {
	Shared time.Duration
	Entity time.Duration
}

// DefaultPolicy returns the 5s/10s policy.
func DefaultPolicy() Policy {
	return Policy{Shared: SharedTTL, Entity: EntityTTL}
}

const (
	viewAllListings      = "all_listings"
	viewBusinessListings = "business_listings"
	viewListing          = "listing"
	viewListingRequests  = "listing_requests"
	viewBusinessRequests = "business_requests"
	viewShelterRequests  = "shelter_requests"
)

func AllListings() string { return viewAllListings }

func BusinessListings(businessID uuid.UUID) string {
	return viewBusinessListings + "_" + businessID.String()
}

func Listing(listingID uuid.UUID) string {
	return viewListing + "_" + listingID.String()
}

func ListingRequests(listingID uuid.UUID) string {
	return viewListingRequests + "_" + listingID.String()
}

func BusinessRequests(businessID uuid.UUID) string {
	return viewBusinessRequests + "_" + businessID.String()
}

func ShelterRequests(shelterID uuid.UUID) string {
	return viewShelterRequests + "_" + shelterID.String()
}

// viewOf strips the trailing id so metrics stay low-cardinality.
func viewOf(key string) string {
	idx := strings.LastIndex(key, "_")
	if idx <= 0 {
		return key
	}
	if _, err := uuid.Parse(key[idx+1:]); err != nil {
		return key
	}
	return key[:idx]
}
