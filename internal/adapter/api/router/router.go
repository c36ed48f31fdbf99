package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
)

// Setup registers every route. metricsHandler may be nil.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, metricsHandler http.Handler) {
	SetupHealthRouter(e, metricsHandler)
	SetupListingRouter(e, authMiddleware)
	SetupMessageRouter(e, authMiddleware)
	SetupNotificationRouter(e, authMiddleware)
	SetupUserRouter(e, authMiddleware)
	SetupUploadRouter(e, authMiddleware)
	SetupGeocodeRouter(e)
}
