package repositories

import (
	"context"
	"fmt"

	"facility-crm/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ActivityRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, activity entities.Activity) (*entities.Activity, error)
	FindByEntity(ctx context.Context, entityType string, entityID uint64, limit, offset uint64) ([]entities.Activity, uint64, error)
	IsParticipant(ctx context.Context, entityType string, entityID, employeeID uint64) (bool, error)
}

type ActivityRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewActivityRepository(storage *pgxpool.Pool, logger *zap.Logger) ActivityRepositoryInterface {
	return &ActivityRepository{storage: storage, logger: logger}
}

func (r *ActivityRepository) CreateInTx(ctx context.Context, tx pgx.Tx, a entities.Activity) (*entities.Activity, error) {
	err := pick(r.storage, tx).QueryRow(ctx, `
		INSERT INTO activity_log (entity_type, entity_id, actor_id, event_type, old_value, new_value, comment, tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		a.EntityType, a.EntityID, a.ActorID, a.EventType, a.OldValue, a.NewValue, a.Comment, a.TxID,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи события: %w", mapPgError(err))
	}
	return &a, nil
}

// FindByEntity: лента событий от старых к новым вместе с ФИО автора.
func (r *ActivityRepository) FindByEntity(ctx context.Context, entityType string, entityID uint64, limit, offset uint64) ([]entities.Activity, uint64, error) {
	var total uint64
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_log WHERE entity_type = $1 AND entity_id = $2`, entityType, entityID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета событий: %w", err)
	}
	if total == 0 {
		return []entities.Activity{}, 0, nil
	}

	b := psql.Select(
		"a.id", "a.entity_type", "a.entity_id", "a.actor_id", "a.event_type", "a.old_value",
		"a.new_value", "a.comment", "a.tx_id", "a.created_at", "e.full_name",
	).
		From("activity_log a").
		LeftJoin("employees e ON e.id = a.actor_id").
		Where("a.entity_type = ? AND a.entity_id = ?", entityType, entityID).
		OrderBy("a.created_at ASC", "a.id ASC")
	if limit > 0 {
		b = b.Limit(limit).Offset(offset)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения ленты событий: %w", err)
	}
	defer rows.Close()

	items := make([]entities.Activity, 0)
	for rows.Next() {
		var a entities.Activity
		if err := rows.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.ActorID, &a.EventType, &a.OldValue,
			&a.NewValue, &a.Comment, &a.TxID, &a.CreatedAt, &a.ActorName); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования события: %w", err)
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// IsParticipant: сотрудник оставлял события в ленте записи.
func (r *ActivityRepository) IsParticipant(ctx context.Context, entityType string, entityID, employeeID uint64) (bool, error) {
	var exists bool
	err := r.storage.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM activity_log WHERE entity_type = $1 AND entity_id = $2 AND actor_id = $3)`,
		entityType, entityID, employeeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки участия: %w", err)
	}
	return exists, nil
}
