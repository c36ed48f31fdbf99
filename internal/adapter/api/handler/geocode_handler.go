package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"foodshare/internal/domain/service"
	"foodshare/pkg/errors"
	"foodshare/pkg/geo"
	"foodshare/pkg/response"
)

type GeocodeHandler struct {
	geocoder service.Geocoder
}

func NewGeocodeHandler(geocoder service.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{
		geocoder: geocoder,
	}
}

func (h *GeocodeHandler) Geocode(c echo.Context) error {
	address := c.QueryParam("address")
	if address == "" {
		return response.Error(c, errors.Validation("address is required"))
	}

	result, err := h.geocoder.Geocode(c.Request().Context(), address)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

func (h *GeocodeHandler) ReverseGeocode(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return response.Error(c, errors.Validation("lat must be a number"))
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return response.Error(c, errors.Validation("lng must be a number"))
	}
	if !geo.ValidCoordinates(lat, lng) {
		return response.Error(c, errors.Validation("coordinates are out of range"))
	}

	address, err := h.geocoder.ReverseGeocode(c.Request().Context(), lat, lng)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, service.GeocodedAddress{
		FormattedAddress: address,
		Latitude:         lat,
		Longitude:        lng,
	})
}
