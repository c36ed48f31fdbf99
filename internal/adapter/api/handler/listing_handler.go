package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/entity"
	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
	"foodshare/pkg/geo"
	"foodshare/pkg/response"
)

type ListingHandler struct {
	listingUseCase  *usecase.ListingUseCase
	defaultRadiusKm float64
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase, defaultRadiusKm float64) *ListingHandler {
	return &ListingHandler{
		listingUseCase:  listingUseCase,
		defaultRadiusKm: defaultRadiusKm,
	}
}

// SearchListings serves GET /v1/listings?category=&lat=&lng=&radius_km=.
// With lat and lng, results are limited to radius_km (or the default radius).
func (h *ListingHandler) SearchListings(c echo.Context) error {
	var query usecase.SearchQuery

	if category := c.QueryParam("category"); category != "" {
		cat := entity.Category(category)
		query.Category = &cat
	}

	latStr, lngStr := c.QueryParam("lat"), c.QueryParam("lng")
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return response.Error(c, errors.Validation("lat must be a number"))
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return response.Error(c, errors.Validation("lng must be a number"))
		}
		query.Origin = &geo.Point{Latitude: lat, Longitude: lng}

		radius := h.defaultRadiusKm
		if radiusStr := c.QueryParam("radius_km"); radiusStr != "" {
			radius, err = strconv.ParseFloat(radiusStr, 64)
			if err != nil {
				return response.Error(c, errors.Validation("radius_km must be a number"))
			}
		}
		if radius > 0 || c.QueryParam("radius_km") != "" {
			query.RadiusKm = &radius
		}
	}

	ranked, err := h.listingUseCase.Search(c.Request().Context(), query)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, ranked)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listingUseCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req usecase.CreateListingInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.Create(c.Request().Context(), middleware.ActorFrom(c), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, listing)
}

func (h *ListingHandler) GetMyListings(c echo.Context) error {
	listings, err := h.listingUseCase.ListByDonor(c.Request().Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listings)
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	var req usecase.UpdateListingInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.Update(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) DeleteListing(c echo.Context) error {
	if err := h.listingUseCase.Delete(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Listing deleted"})
}

func (h *ListingHandler) ClaimListing(c echo.Context) error {
	listing, err := h.listingUseCase.Claim(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) UnclaimListing(c echo.Context) error {
	listing, err := h.listingUseCase.Unclaim(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) CompleteListing(c echo.Context) error {
	listing, err := h.listingUseCase.Complete(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) GetMyClaims(c echo.Context) error {
	listings, err := h.listingUseCase.ListClaimedBy(c.Request().Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listings)
}
