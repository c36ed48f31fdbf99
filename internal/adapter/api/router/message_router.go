package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	messageHandler := handler.GetMessageHandler()

	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)
	messages.POST("", messageHandler.SendMessage)
	messages.PATCH("/:id/read", messageHandler.MarkMessageRead)

	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)
	conversations.GET("", messageHandler.GetConversations)
	conversations.GET("/:partnerId", messageHandler.GetConversation)
	conversations.POST("/:partnerId/read", messageHandler.MarkConversationRead)
}
