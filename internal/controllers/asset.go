package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"facility-crm/internal/dto"
	"facility-crm/internal/services"
	"facility-crm/pkg/utils"
)

type AssetController struct {
	assetService services.AssetServiceInterface
	logger       *zap.Logger
}

func NewAssetController(assetService services.AssetServiceInterface, logger *zap.Logger) *AssetController {
	return &AssetController{assetService: assetService, logger: logger}
}

func (c *AssetController) GetAssets(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.assetService.GetAssets(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список оборудования получен", http.StatusOK, total)
}

func (c *AssetController) FindAsset(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.assetService.FindAsset(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование получено", http.StatusOK)
}

func (c *AssetController) CreateAsset(ctx echo.Context) error {
	var payload dto.CreateAssetDTO
	if err := utils.BindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.assetService.CreateAsset(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование добавлено", http.StatusCreated)
}

func (c *AssetController) UpdateAsset(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateAssetDTO
	if payload.Sent, err = utils.BindPatch(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.assetService.UpdateAsset(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование обновлено", http.StatusOK)
}

func (c *AssetController) DeleteAsset(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.assetService.DeleteAsset(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "Оборудование удалено", http.StatusOK)
}
