package service

import "context"

type GeocodedAddress struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Geocoder resolves coordinates before a listing enters the data model.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodedAddress, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}
