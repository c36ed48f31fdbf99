package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
	"foodshare/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	items, total, err := h.notificationUseCase.List(c.Request().Context(), middleware.ActorFrom(c), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, items, total, p.Page, p.PageSize)
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notificationUseCase.UnreadCount(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int64{"unread": count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	if err := h.notificationUseCase.MarkRead(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"is_read": true})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	marked, err := h.notificationUseCase.MarkAllRead(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"marked": marked})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	if err := h.notificationUseCase.Delete(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Notification deleted"})
}
