package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

func (h *UserHandler) GetMe(c echo.Context) error {
	user, err := h.userUseCase.GetProfile(c.Request().Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req usecase.UpdateProfileInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := middleware.ActorFrom(c).ID
	email, _ := c.Get("email").(string)

	user, err := h.userUseCase.UpsertProfile(c.Request().Context(), uid, email, req)
	if err != nil {
		return response.Error(c, err)
	}
	logger.Debug("Profile updated for %s", uid)
	return response.Success(c, user)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userUseCase.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user.Public())
}

func (h *UserHandler) RateUser(c echo.Context) error {
	var req usecase.RateUserInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.RateUser(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"user_id":        user.ID,
		"average_rating": user.AverageRating(),
		"rating_count":   user.RatingCount,
	})
}
