package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req usecase.SendMessageInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.Send(c.Request().Context(), middleware.ActorFrom(c), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *MessageHandler) MarkMessageRead(c echo.Context) error {
	if err := h.messageUseCase.MarkRead(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"is_read": true})
}

func (h *MessageHandler) GetConversations(c echo.Context) error {
	conversations, err := h.messageUseCase.Conversations(c.Request().Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversations)
}

// GetConversation returns the caller's thread with partnerId, oldest first.
func (h *MessageHandler) GetConversation(c echo.Context) error {
	thread, err := h.messageUseCase.Thread(c.Request().Context(), middleware.ActorFrom(c).ID, c.Param("partnerId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, thread)
}

func (h *MessageHandler) MarkConversationRead(c echo.Context) error {
	marked, err := h.messageUseCase.MarkConversationRead(c.Request().Context(), middleware.ActorFrom(c), c.Param("partnerId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"marked": marked})
}
