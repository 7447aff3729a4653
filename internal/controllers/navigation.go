package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"facility-crm/internal/dto"
	"facility-crm/internal/services"
	"facility-crm/pkg/modalstack"
	"facility-crm/pkg/utils"
)

type NavigationController struct {
	navigationService services.NavigationServiceInterface
	logger            *zap.Logger
}

func NewNavigationController(navigationService services.NavigationServiceInterface, logger *zap.Logger) *NavigationController {
	return &NavigationController{navigationService: navigationService, logger: logger}
}

// GetModals разрешает ?modal=type:id,... в слои с заголовками; невидимые карточки выпадают.
func (c *NavigationController) GetModals(ctx echo.Context) error {
	res, err := c.navigationService.ResolveModals(ctx.Request().Context(), ctx.QueryParam(modalstack.QueryParam))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Стек карточек получен", http.StatusOK)
}

func (c *NavigationController) OpenModal(ctx echo.Context) error {
	var payload dto.OpenModalDTO
	if err := utils.BindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.navigationService.OpenModal(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Карточка открыта", http.StatusOK)
}

func (c *NavigationController) CloseModal(ctx echo.Context) error {
	var payload dto.CloseModalDTO
	if err := utils.BindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.navigationService.CloseModal(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Карточка закрыта", http.StatusOK)
}
