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
	assetTable   = "assets"
	assetFrom    = "assets a INNER JOIN buildings b ON b.id = a.building_id"
	assetColumns = "a.id, a.name, a.building_id, a.category, a.serial_number, a.status, a.installed_at, a.created_at, a.updated_at, b.name"
)

var assetListSpec = listSpec{
	searchColumns: []string{"a.name", "a.serial_number", "a.category"},
	filterFields: map[string]string{
		"id":          "a.id",
		"building_id": "a.building_id",
		"category":    "a.category",
		"status":      "a.status",
	},
	sortFields:  map[string]string{"id": "a.id", "name": "a.name", "installed_at": "a.installed_at", "created_at": "a.created_at"},
	defaultSort: "a.name ASC",
}

type AssetRepositoryInterface interface {
	GetAssets(ctx context.Context, filter types.Filter) ([]entities.Asset, uint64, error)
	FindAsset(ctx context.Context, id uint64) (*entities.Asset, error)
	CreateAsset(ctx context.Context, asset entities.Asset) (*entities.Asset, error)
	UpdateAsset(ctx context.Context, id uint64, payload dto.UpdateAssetDTO) (*entities.Asset, error)
	DeleteAsset(ctx context.Context, id uint64) error
}

type AssetRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAssetRepository(storage *pgxpool.Pool, logger *zap.Logger) AssetRepositoryInterface {
	return &AssetRepository{storage: storage, logger: logger}
}

func scanAsset(row pgx.Row) (*entities.Asset, error) {
	var a entities.Asset
	err := row.Scan(&a.ID, &a.Name, &a.BuildingID, &a.Category, &a.SerialNumber, &a.Status, &a.InstalledAt,
		&a.CreatedAt, &a.UpdatedAt, &a.BuildingName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования оборудования: %w", err)
	}
	return &a, nil
}

func (r *AssetRepository) GetAssets(ctx context.Context, filter types.Filter) ([]entities.Asset, uint64, error) {
	countQuery, countArgs, err := assetListSpec.where(psql.Select("COUNT(a.id)").From(assetFrom), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета оборудования: %w", err)
	}
	if total == 0 {
		return []entities.Asset{}, 0, nil
	}

	b := assetListSpec.where(psql.Select(assetColumns).From(assetFrom), filter)
	query, args, err := page(assetListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка оборудования: %w", err)
	}
	defer rows.Close()

	assets := make([]entities.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, err
		}
		assets = append(assets, *a)
	}
	return assets, total, rows.Err()
}

func (r *AssetRepository) FindAsset(ctx context.Context, id uint64) (*entities.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM ` + assetFrom + ` WHERE a.id = $1`
	return scanAsset(r.storage.QueryRow(ctx, query, id))
}

func (r *AssetRepository) CreateAsset(ctx context.Context, asset entities.Asset) (*entities.Asset, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO assets (name, building_id, category, serial_number, status, installed_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		asset.Name, asset.BuildingID, asset.Category, asset.SerialNumber, asset.Status, asset.InstalledAt,
	).Scan(&id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return r.FindAsset(ctx, id)
}

func (r *AssetRepository) UpdateAsset(ctx context.Context, id uint64, payload dto.UpdateAssetDTO) (*entities.Asset, error) {
	b := psql.Update(assetTable).Where(sq.Eq{"id": id}).Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	var changed bool

	if payload.Name.Valid {
		b = b.Set("name", payload.Name.String)
		hasChanges = true
	}
	if payload.BuildingID.Valid {
		b = b.Set("building_id", payload.BuildingID.Uint64)
		hasChanges = true
	}
	if payload.Category.Valid {
		b = b.Set("category", payload.Category.String)
		hasChanges = true
	}
	if payload.Status.Valid {
		b = b.Set("status", payload.Status.String)
		hasChanges = true
	}
	b, changed = setNullable(b, payload.Sent, "serial_number", payload.SerialNumber.Valid, payload.SerialNumber.String)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "installed_at", payload.InstalledAt.Valid, payload.InstalledAt.Time)
	hasChanges = hasChanges || changed
	if !hasChanges {
		return r.FindAsset(ctx, id)
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
	return r.FindAsset(ctx, id)
}

func (r *AssetRepository) DeleteAsset(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
