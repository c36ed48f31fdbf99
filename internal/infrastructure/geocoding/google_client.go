// Package geocoding resolves street addresses through the Google Maps Geocoding API.
package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"

	"foodshare/internal/domain/service"
	"foodshare/pkg/errors"
)

const CodeGeocodingFailed = "GEOCODING_FAILED"

type mapsAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

type GoogleGeocoder struct {
	api mapsAPI
}

func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{api: client}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*service.GeocodedAddress, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.Validation("address is required")
	}

	results, err := g.api.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, upstream(err)
	}
	if len(results) == 0 {
		return nil, errors.NotFound("Address", nil)
	}

	best := results[0]
	return &service.GeocodedAddress{
		FormattedAddress: best.FormattedAddress,
		Latitude:         best.Geometry.Location.Lat,
		Longitude:        best.Geometry.Location.Lng,
	}, nil
}

func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	results, err := g.api.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return "", upstream(err)
	}
	if len(results) == 0 {
		return "", errors.NotFound("Address", nil)
	}
	return results[0].FormattedAddress, nil
}

func upstream(err error) error {
	return errors.New(CodeGeocodingFailed, "Geocoding service unavailable", http.StatusBadGateway, err)
}
