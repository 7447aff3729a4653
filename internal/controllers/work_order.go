package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"facility-crm/internal/dto"
	"facility-crm/internal/services"
	"facility-crm/pkg/utils"
)

type WorkOrderController struct {
	workOrderService services.WorkOrderServiceInterface
	logger           *zap.Logger
}

func NewWorkOrderController(workOrderService services.WorkOrderServiceInterface, logger *zap.Logger) *WorkOrderController {
	return &WorkOrderController{workOrderService: workOrderService, logger: logger}
}

func (c *WorkOrderController) GetWorkOrders(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.workOrderService.GetWorkOrders(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявки успешно получены", http.StatusOK, total)
}

func (c *WorkOrderController) FindWorkOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.workOrderService.FindWorkOrder(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка получена", http.StatusOK)
}

func (c *WorkOrderController) CreateWorkOrder(ctx echo.Context) error {
	var payload dto.CreateWorkOrderDTO
	if err := utils.BindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.workOrderService.CreateWorkOrder(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка успешно создана", http.StatusCreated)
}

func (c *WorkOrderController) UpdateWorkOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateWorkOrderDTO
	if payload.Sent, err = utils.BindPatch(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.workOrderService.UpdateWorkOrder(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка обновлена", http.StatusOK)
}

func (c *WorkOrderController) TransitionWorkOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.TransitionWorkOrderDTO
	if err := utils.BindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.workOrderService.TransitionWorkOrder(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Статус заявки изменён", http.StatusOK)
}

func (c *WorkOrderController) DeleteWorkOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.workOrderService.DeleteWorkOrder(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "Заявка удалена", http.StatusOK)
}

func (c *WorkOrderController) GetActivity(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.workOrderService.GetActivity(ctx.Request().Context(), id, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Лента событий заявки получена", http.StatusOK, total)
}

func (c *WorkOrderController) AddComment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateCommentDTO
	if err := utils.BindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.workOrderService.AddComment(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "Комментарий добавлен", http.StatusCreated)
}

func (c *WorkOrderController) ExportWorkOrders(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	f, err := c.workOrderService.ExportWorkOrders(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer f.Close()
	return c.respondWithXLSX(ctx, f)
}

func (c *WorkOrderController) respondWithXLSX(ctx echo.Context, f *excelize.File) error {
	fileName := fmt.Sprintf("work_orders_%s.xlsx", time.Now().Format("2006-01-02_15-04"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	if err := f.Write(ctx.Response().Writer); err != nil {
		c.logger.Error("Не удалось записать Excel-файл в ответ", zap.Error(err))
		return err
	}
	return nil
}
