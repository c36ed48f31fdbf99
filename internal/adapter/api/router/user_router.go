package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	users := e.Group("/v1/users")
	users.GET("/me", userHandler.GetMe, authMiddleware.Authenticate)
	users.PUT("/me", userHandler.UpdateMe, authMiddleware.Authenticate)
	users.GET("/:id", userHandler.GetUser)
	users.POST("/:id/ratings", userHandler.RateUser, authMiddleware.Authenticate)
}
