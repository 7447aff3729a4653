package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"facility-crm/internal/dto"
	"facility-crm/internal/services"
	"facility-crm/pkg/utils"
)

type BuildingController struct {
	buildingService services.BuildingServiceInterface
	logger          *zap.Logger
}

func NewBuildingController(buildingService services.BuildingServiceInterface, logger *zap.Logger) *BuildingController {
	return &BuildingController{buildingService: buildingService, logger: logger}
}

func (c *BuildingController) GetBuildings(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.buildingService.GetBuildings(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список зданий получен", http.StatusOK, total)
}

func (c *BuildingController) FindBuilding(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.buildingService.FindBuilding(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Здание получено", http.StatusOK)
}

func (c *BuildingController) CreateBuilding(ctx echo.Context) error {
	var payload dto.CreateBuildingDTO
	if err := utils.BindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.buildingService.CreateBuilding(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Здание создано", http.StatusCreated)
}

func (c *BuildingController) UpdateBuilding(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateBuildingDTO
	if payload.Sent, err = utils.BindPatch(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.buildingService.UpdateBuilding(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Здание обновлено", http.StatusOK)
}

func (c *BuildingController) DeleteBuilding(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.buildingService.DeleteBuilding(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "Здание удалено", http.StatusOK)
}
