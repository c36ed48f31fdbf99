package usecase

import (
	"sort"

	"foodshare/internal/domain/entity"
	"foodshare/pkg/geo"
)

// SearchQuery narrows discovery. A nil RadiusKm with an Origin means unbounded.
type SearchQuery struct {
	Origin   *geo.Point
	RadiusKm *float64
	Category *entity.Category
}

// RankedListing is a listing with its distance from the search origin, when one was given.
type RankedListing struct {
	*entity.Listing
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty"`
}

// RankListings filters a snapshot of listings and orders it for display.
// With an origin: nearest first, ties newest first. Without: newest first.
// The snapshot is not modified.
func RankListings(snapshot []*entity.Listing, query SearchQuery) []RankedListing {
	ranked := make([]RankedListing, 0, len(snapshot))

	for _, listing := range snapshot {
		if listing.Status != entity.ListingAvailable {
			continue
		}
		if query.Category != nil && listing.Category != *query.Category {
			continue
		}

		item := RankedListing{Listing: listing}
		if query.Origin != nil {
			d := geo.DistanceKm(query.Origin.Latitude, query.Origin.Longitude, listing.Latitude, listing.Longitude)
			if query.RadiusKm != nil && !(d <= *query.RadiusKm) {
				continue
			}
			item.DistanceKm = &d
			item.DistanceLabel = geo.FormatDistance(d)
		}
		ranked = append(ranked, item)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.DistanceKm != nil && b.DistanceKm != nil && *a.DistanceKm != *b.DistanceKm {
			return *a.DistanceKm < *b.DistanceKm
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return ranked
}
