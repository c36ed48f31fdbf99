package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupListingRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	listingHandler := handler.GetListingHandler()

	// Public routes
	listings := e.Group("/v1/listings")
	listings.GET("", listingHandler.SearchListings)
	listings.GET("/:id", listingHandler.GetListing)

	// Recipient and party actions
	authenticated := e.Group("/v1/listings")
	authenticated.Use(authMiddleware.Authenticate)
	authenticated.POST("/:id/claim", listingHandler.ClaimListing)
	authenticated.POST("/:id/complete", listingHandler.CompleteListing)

	// Donor routes
	mine := e.Group("/v1/my-listings")
	mine.Use(authMiddleware.Authenticate)
	mine.POST("", listingHandler.CreateListing)
	mine.GET("", listingHandler.GetMyListings)
	mine.PUT("/:id", listingHandler.UpdateListing)
	mine.DELETE("/:id", listingHandler.DeleteListing)
	mine.POST("/:id/unclaim", listingHandler.UnclaimListing)

	e.GET("/v1/my-claims", listingHandler.GetMyClaims, authMiddleware.Authenticate)
}
