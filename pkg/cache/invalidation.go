package cache

import (
	"sort"

	"github.com/google/uuid"
)

// Invalidation is the set of keys a mutation made stale. Mutations return
// one and the Dispatcher applies it after the write commits.
type Invalidation []string

func Invalidate(keys ...string) Invalidation {
	return Invalidation(keys)
}

// With returns a copy extended by keys.
func (inv Invalidation) With(keys ...string) Invalidation {
	out := make(Invalidation, 0, len(inv)+len(keys))
	out = append(out, inv...)
	return append(out, keys...)
}

// Merge combines several invalidations.
func (inv Invalidation) Merge(others ...Invalidation) Invalidation {
	out := inv.With()
	for _, other := range others {
		out = append(out, other...)
	}
	return out
}

// Keys returns the distinct, non-empty keys in a stable order.
func (inv Invalidation) Keys() []string {
	seen := make(map[string]struct{}, len(inv))
	keys := make([]string, 0, len(inv))
	for _, key := range inv {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (inv Invalidation) Empty() bool {
	return len(inv.Keys()) == 0
}

// ListingWrite covers the views touched by creating, updating or deleting
// a listing owned by businessID.
func ListingWrite(businessID, listingID uuid.UUID) Invalidation {
	inv := Invalidate(AllListings(), BusinessListings(businessID))
	if listingID != uuid.Nil {
		inv = inv.With(Listing(listingID))
	}
	return inv
}

// RequestWrite covers the views touched when a request on listingID
// changes. Every affected shelter's own view is included.
func RequestWrite(businessID, listingID uuid.UUID, shelterIDs ...uuid.UUID) Invalidation {
	inv := Invalidate(ListingRequests(listingID), BusinessRequests(businessID))
	for _, shelterID := range shelterIDs {
		inv = inv.With(ShelterRequests(shelterID))
	}
	return inv
}
