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
	positionTable   = "positions"
	positionColumns = "p.id, p.name, p.department_id, p.created_at, p.updated_at"
)

var positionListSpec = listSpec{
	searchColumns: []string{"p.name"},
	filterFields:  map[string]string{"id": "p.id", "department_id": "p.department_id"},
	sortFields:    map[string]string{"id": "p.id", "name": "p.name", "created_at": "p.created_at"},
	defaultSort:   "p.name ASC",
}

type PositionRepositoryInterface interface {
	GetPositions(ctx context.Context, filter types.Filter) ([]entities.Position, uint64, error)
	FindPosition(ctx context.Context, id uint64) (*entities.Position, error)
	CreatePosition(ctx context.Context, position entities.Position) (*entities.Position, error)
	UpdatePosition(ctx context.Context, id uint64, payload dto.UpdatePositionDTO) (*entities.Position, error)
	DeletePosition(ctx context.Context, id uint64) error
}

type PositionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPositionRepository(storage *pgxpool.Pool, logger *zap.Logger) PositionRepositoryInterface {
	return &PositionRepository{storage: storage, logger: logger}
}

func scanPosition(row pgx.Row) (*entities.Position, error) {
	var p entities.Position
	err := row.Scan(&p.ID, &p.Name, &p.DepartmentID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования должности: %w", err)
	}
	return &p, nil
}

func (r *PositionRepository) GetPositions(ctx context.Context, filter types.Filter) ([]entities.Position, uint64, error) {
	countQuery, countArgs, err := positionListSpec.where(psql.Select("COUNT(*)").From(positionTable+" p"), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета должностей: %w", err)
	}
	if total == 0 {
		return []entities.Position{}, 0, nil
	}

	b := positionListSpec.where(psql.Select(positionColumns).From(positionTable+" p"), filter)
	query, args, err := page(positionListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка должностей: %w", err)
	}
	defer rows.Close()

	positions := make([]entities.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, 0, err
		}
		positions = append(positions, *p)
	}
	return positions, total, rows.Err()
}

func (r *PositionRepository) FindPosition(ctx context.Context, id uint64) (*entities.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions p WHERE p.id = $1`
	return scanPosition(r.storage.QueryRow(ctx, query, id))
}

func (r *PositionRepository) CreatePosition(ctx context.Context, position entities.Position) (*entities.Position, error) {
	query := `INSERT INTO positions (name, department_id) VALUES ($1, $2)
		RETURNING id, name, department_id, created_at, updated_at`
	created, err := scanPosition(r.storage.QueryRow(ctx, query, position.Name, position.DepartmentID))
	if err != nil {
		return nil, mapPgError(err)
	}
	return created, nil
}

func (r *PositionRepository) UpdatePosition(ctx context.Context, id uint64, payload dto.UpdatePositionDTO) (*entities.Position, error) {
	b := psql.Update(positionTable).Where(sq.Eq{"id": id}).Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	if payload.Name.Valid {
		b = b.Set("name", payload.Name.String)
		hasChanges = true
	}
	if payload.DepartmentID.Valid {
		b = b.Set("department_id", payload.DepartmentID.Uint64)
		hasChanges = true
	} else if payload.Sent.IsNull("department_id") {
		b = b.Set("department_id", nil)
		hasChanges = true
	}
	if !hasChanges {
		return r.FindPosition(ctx, id)
	}

	query, args, err := b.Suffix("RETURNING id, name, department_id, created_at, updated_at").ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPosition(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

func (r *PositionRepository) DeletePosition(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
