package repositories

import (
	"context"
	"errors"
	"fmt"

	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	workOrderTable = "work_orders"
	workOrderFrom  = `work_orders w
		INNER JOIN buildings b ON b.id = w.building_id
		LEFT JOIN employees ae ON ae.id = w.assignee_id
		LEFT JOIN employees ce ON ce.id = w.creator_id`
)

const workOrderColumns = `w.id, w.title, w.description, w.building_id, w.asset_id, w.incident_id, w.creator_id,
	w.assignee_id, w.department_id, w.status, w.priority, w.scheduled_for, w.started_at, w.completed_at,
	w.canceled_at, w.cancel_reason, w.created_at, w.updated_at, w.deleted_at, b.name, ae.full_name, ce.full_name`

var workOrderListSpec = listSpec{
	searchColumns: []string{"w.title", "w.description", "b.name"},
	filterFields: map[string]string{
		"id":            "w.id",
		"status":        "w.status",
		"priority":      "w.priority",
		"building_id":   "w.building_id",
		"asset_id":      "w.asset_id",
		"incident_id":   "w.incident_id",
		"assignee_id":   "w.assignee_id",
		"creator_id":    "w.creator_id",
		"department_id": "w.department_id",
	},
	sortFields: map[string]string{
		"id":            "w.id",
		"title":         "w.title",
		"priority":      "w.priority",
		"status":        "w.status",
		"scheduled_for": "w.scheduled_for",
		"created_at":    "w.created_at",
		"updated_at":    "w.updated_at",
	},
	defaultSort: "w.created_at DESC",
}

type WorkOrderRepositoryInterface interface {
	GetWorkOrders(ctx context.Context, filter types.Filter, scope VisibilityScope) ([]entities.WorkOrder, uint64, error)
	FindWorkOrder(ctx context.Context, id uint64) (*entities.WorkOrder, error)
	FindWorkOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.WorkOrder, error)
	CreateWorkOrderInTx(ctx context.Context, tx pgx.Tx, order entities.WorkOrder) (uint64, error)
	UpdateWorkOrderInTx(ctx context.Context, tx pgx.Tx, id uint64, payload dto.UpdateWorkOrderDTO) error
	SaveTransitionInTx(ctx context.Context, tx pgx.Tx, order entities.WorkOrder) error
	DeleteWorkOrderInTx(ctx context.Context, tx pgx.Tx, id uint64) error
}

type WorkOrderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewWorkOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) WorkOrderRepositoryInterface {
	return &WorkOrderRepository{storage: storage, logger: logger}
}

func scanWorkOrder(row pgx.Row) (*entities.WorkOrder, error) {
	var w entities.WorkOrder
	err := row.Scan(
		&w.ID, &w.Title, &w.Description, &w.BuildingID, &w.AssetID, &w.IncidentID, &w.CreatorID,
		&w.AssigneeID, &w.DepartmentID, &w.Status, &w.Priority, &w.ScheduledFor, &w.StartedAt, &w.CompletedAt,
		&w.CanceledAt, &w.CancelReason, &w.CreatedAt, &w.UpdatedAt, &w.DeletedAt, &w.BuildingName, &w.AssigneeName, &w.CreatorName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
	}
	return &w, nil
}

func (r *WorkOrderRepository) scoped(b sq.SelectBuilder, filter types.Filter, scope VisibilityScope) sq.SelectBuilder {
	b = b.Where(sq.Eq{"w.deleted_at": nil})
	if cond := scope.condition("w", entities.ActivityEntityWorkOrder, "creator_id", "assignee_id"); cond != nil {
		b = b.Where(cond)
	}
	return workOrderListSpec.where(b, filter)
}

func (r *WorkOrderRepository) GetWorkOrders(ctx context.Context, filter types.Filter, scope VisibilityScope) ([]entities.WorkOrder, uint64, error) {
	countQuery, countArgs, err := r.scoped(psql.Select("COUNT(w.id)").From(workOrderFrom), filter, scope).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета заявок: %w", err)
	}
	if total == 0 {
		return []entities.WorkOrder{}, 0, nil
	}

	b := r.scoped(psql.Select(workOrderColumns).From(workOrderFrom), filter, scope)
	query, args, err := page(workOrderListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	orders := make([]entities.WorkOrder, 0)
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *w)
	}
	return orders, total, rows.Err()
}

func (r *WorkOrderRepository) FindWorkOrder(ctx context.Context, id uint64) (*entities.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM ` + workOrderFrom + ` WHERE w.id = $1 AND w.deleted_at IS NULL`
	return scanWorkOrder(r.storage.QueryRow(ctx, query, id))
}

// FindWorkOrderForUpdateInTx блокирует строку заявки до конца транзакции.
func (r *WorkOrderRepository) FindWorkOrderForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM ` + workOrderFrom + ` WHERE w.id = $1 AND w.deleted_at IS NULL FOR UPDATE OF w`
	return scanWorkOrder(pick(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *WorkOrderRepository) CreateWorkOrderInTx(ctx context.Context, tx pgx.Tx, order entities.WorkOrder) (uint64, error) {
	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, `
		INSERT INTO work_orders (title, description, building_id, asset_id, incident_id, creator_id,
			assignee_id, department_id, status, priority, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		order.Title, order.Description, order.BuildingID, order.AssetID, order.IncidentID, order.CreatorID,
		order.AssigneeID, order.DepartmentID, order.Status, order.Priority, order.ScheduledFor,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *WorkOrderRepository) UpdateWorkOrderInTx(ctx context.Context, tx pgx.Tx, id uint64, payload dto.UpdateWorkOrderDTO) error {
	b := psql.Update(workOrderTable).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	var changed bool

	if payload.Title.Valid {
		b = b.Set("title", payload.Title.String)
		hasChanges = true
	}
	if payload.Priority.Valid {
		b = b.Set("priority", payload.Priority.String)
		hasChanges = true
	}
	b, changed = setNullable(b, payload.Sent, "description", payload.Description.Valid, payload.Description.String)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "asset_id", payload.AssetID.Valid, payload.AssetID.Uint64)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "department_id", payload.DepartmentID.Valid, payload.DepartmentID.Uint64)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "scheduled_for", payload.ScheduledFor.Valid, payload.ScheduledFor.Time)
	hasChanges = hasChanges || changed
	if !hasChanges {
		return nil
	}

	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveTransitionInTx записывает статус, исполнителя и служебные отметки времени.
func (r *WorkOrderRepository) SaveTransitionInTx(ctx context.Context, tx pgx.Tx, order entities.WorkOrder) error {
	result, err := pick(r.storage, tx).Exec(ctx, `
		UPDATE work_orders SET status = $2, assignee_id = $3, started_at = $4, completed_at = $5,
			canceled_at = $6, cancel_reason = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		order.ID, order.Status, order.AssigneeID, order.StartedAt, order.CompletedAt, order.CanceledAt, order.CancelReason,
	)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *WorkOrderRepository) DeleteWorkOrderInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		`UPDATE work_orders SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
