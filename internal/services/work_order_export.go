package services

import (
	"context"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Заявки"

var exportHeaders = []interface{}{
	"ID", "Название", "Здание", "Статус", "Приоритет", "Исполнитель", "Автор",
	"Создана", "Запланирована", "Начата", "Выполнена", "Отменена", "Причина отмены",
}

// ExportWorkOrders выгружает в xlsx тот же список, что видит сотрудник, без пагинации.
func (s *WorkOrderService) ExportWorkOrders(ctx context.Context, filter types.Filter) (*excelize.File, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.WorkOrdersExport, *authCtx) || !authz.CanDo(authz.WorkOrdersView, *authCtx) {
		return nil, apperrors.ErrForbidden
	}
	filter.WithPagination = false

	items, _, err := s.workOrderRepo.GetWorkOrders(ctx, filter, visibilityOf(authCtx))
	if err != nil {
		s.logger.Error("WorkOrderService: ошибка выборки для выгрузки", zap.Error(err))
		return nil, err
	}
	f, err := buildWorkOrdersWorkbook(listOf(items, workOrderToDTO))
	if err != nil {
		s.logger.Error("WorkOrderService: ошибка формирования xlsx", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Выгрузка заявок", zap.Int("rows", len(items)), zap.Uint64("actor_id", authCtx.Actor.ID))
	return f, nil
}

func buildWorkOrdersWorkbook(items []dto.WorkOrderDTO) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "M1", style); err != nil {
		return nil, err
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := workOrderRow(item)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(exportSheet, "B", "C", 35)
	_ = f.SetColWidth(exportSheet, "D", "G", 20)
	_ = f.SetColWidth(exportSheet, "H", "L", 18)
	_ = f.SetColWidth(exportSheet, "M", "M", 40)
	return f, nil
}

func workOrderRow(w dto.WorkOrderDTO) []interface{} {
	name := func(e *dto.ShortEmployeeDTO) string {
		if e == nil {
			return ""
		}
		return e.FullName
	}
	building := ""
	if w.Building != nil {
		building = w.Building.Name
	}
	reason := ""
	if w.CancelReason != nil {
		reason = *w.CancelReason
	}
	return []interface{}{
		w.ID,
		w.Title,
		building,
		label(statusLabels, &w.Status),
		label(priorityLabels, &w.Priority),
		name(w.Assignee),
		name(w.Creator),
		w.CreatedAt,
		w.ScheduledFor,
		w.StartedAt,
		w.CompletedAt,
		w.CanceledAt,
		reason,
	}
}
