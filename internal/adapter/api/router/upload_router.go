package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

// SetupUploadRouter is a no-op when no blob store was configured.
func SetupUploadRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	uploadHandler := handler.GetUploadHandler()
	if uploadHandler == nil {
		return
	}

	e.POST("/v1/uploads", uploadHandler.UploadImage, authMiddleware.Authenticate)
}
