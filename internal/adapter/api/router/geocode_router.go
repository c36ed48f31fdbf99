package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
)

func SetupGeocodeRouter(e *echo.Echo) {
	geocodeHandler := handler.GetGeocodeHandler()
	if geocodeHandler == nil {
		return
	}

	geocode := e.Group("/v1/geocode")
	geocode.GET("", geocodeHandler.Geocode)
	geocode.GET("/reverse", geocodeHandler.ReverseGeocode)
}
