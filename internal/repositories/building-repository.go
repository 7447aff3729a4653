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
	buildingTable   = "buildings"
	buildingFrom    = "buildings b LEFT JOIN clients c ON c.id = b.client_id"
	buildingColumns = "b.id, b.name, b.address, b.client_id, b.floors, b.area_sqm::float8, b.status, b.created_at, b.updated_at, c.name"
)

var buildingListSpec = listSpec{
	searchColumns: []string{"b.name", "b.address"},
	filterFields:  map[string]string{"id": "b.id", "client_id": "b.client_id", "status": "b.status"},
	sortFields:    map[string]string{"id": "b.id", "name": "b.name", "created_at": "b.created_at", "area_sqm": "b.area_sqm"},
	defaultSort:   "b.name ASC",
}

type BuildingRepositoryInterface interface {
	GetBuildings(ctx context.Context, filter types.Filter) ([]entities.Building, uint64, error)
	FindBuilding(ctx context.Context, id uint64) (*entities.Building, error)
	CreateBuilding(ctx context.Context, building entities.Building) (*entities.Building, error)
	UpdateBuilding(ctx context.Context, id uint64, payload dto.UpdateBuildingDTO) (*entities.Building, error)
	DeleteBuilding(ctx context.Context, id uint64) error
}

type BuildingRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewBuildingRepository(storage *pgxpool.Pool, logger *zap.Logger) BuildingRepositoryInterface {
	return &BuildingRepository{storage: storage, logger: logger}
}

func scanBuilding(row pgx.Row) (*entities.Building, error) {
	var b entities.Building
	err := row.Scan(&b.ID, &b.Name, &b.Address, &b.ClientID, &b.Floors, &b.AreaSqm, &b.Status,
		&b.CreatedAt, &b.UpdatedAt, &b.ClientName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования здания: %w", err)
	}
	return &b, nil
}

func (r *BuildingRepository) GetBuildings(ctx context.Context, filter types.Filter) ([]entities.Building, uint64, error) {
	countQuery, countArgs, err := buildingListSpec.where(psql.Select("COUNT(b.id)").From(buildingFrom), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета зданий: %w", err)
	}
	if total == 0 {
		return []entities.Building{}, 0, nil
	}

	b := buildingListSpec.where(psql.Select(buildingColumns).From(buildingFrom), filter)
	query, args, err := page(buildingListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка зданий: %w", err)
	}
	defer rows.Close()

	buildings := make([]entities.Building, 0)
	for rows.Next() {
		item, err := scanBuilding(rows)
		if err != nil {
			return nil, 0, err
		}
		buildings = append(buildings, *item)
	}
	return buildings, total, rows.Err()
}

func (r *BuildingRepository) FindBuilding(ctx context.Context, id uint64) (*entities.Building, error) {
	query := `SELECT ` + buildingColumns + ` FROM ` + buildingFrom + ` WHERE b.id = $1`
	return scanBuilding(r.storage.QueryRow(ctx, query, id))
}

func (r *BuildingRepository) CreateBuilding(ctx context.Context, building entities.Building) (*entities.Building, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO buildings (name, address, client_id, floors, area_sqm, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		building.Name, building.Address, building.ClientID, building.Floors, building.AreaSqm, building.Status,
	).Scan(&id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return r.FindBuilding(ctx, id)
}

func (r *BuildingRepository) UpdateBuilding(ctx context.Context, id uint64, payload dto.UpdateBuildingDTO) (*entities.Building, error) {
	b := psql.Update(buildingTable).Where(sq.Eq{"id": id}).Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	var changed bool

	if payload.Name.Valid {
		b = b.Set("name", payload.Name.String)
		hasChanges = true
	}
	if payload.Address.Valid {
		b = b.Set("address", payload.Address.String)
		hasChanges = true
	}
	if payload.Status.Valid {
		b = b.Set("status", payload.Status.String)
		hasChanges = true
	}
	b, changed = setNullable(b, payload.Sent, "client_id", payload.ClientID.Valid, payload.ClientID.Uint64)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "floors", payload.Floors.Valid, payload.Floors.Int)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "area_sqm", payload.AreaSqm.Valid, payload.AreaSqm.Float64)
	hasChanges = hasChanges || changed
	if !hasChanges {
		return r.FindBuilding(ctx, id)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.FindBuilding(ctx, id)
}

func (r *BuildingRepository) DeleteBuilding(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM buildings WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
