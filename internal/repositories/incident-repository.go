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
	incidentTable = "incidents"
	incidentFrom  = `incidents i
		INNER JOIN buildings b ON b.id = i.building_id
		LEFT JOIN employees re ON re.id = i.reporter_id`
)

const incidentColumns = `i.id, i.title, i.description, i.building_id, i.asset_id, i.reporter_id, i.department_id,
	i.severity, i.status, i.reported_at, i.resolved_at, i.created_at, i.updated_at, i.deleted_at, b.name, re.full_name`

var incidentListSpec = listSpec{
	searchColumns: []string{"i.title", "i.description", "b.name"},
	filterFields: map[string]string{
		"id":            "i.id",
		"status":        "i.status",
		"severity":      "i.severity",
		"building_id":   "i.building_id",
		"asset_id":      "i.asset_id",
		"reporter_id":   "i.reporter_id",
		"department_id": "i.department_id",
	},
	sortFields: map[string]string{
		"id":          "i.id",
		"title":       "i.title",
		"severity":    "i.severity",
		"status":      "i.status",
		"reported_at": "i.reported_at",
		"created_at":  "i.created_at",
	},
	defaultSort: "i.reported_at DESC",
}

type IncidentRepositoryInterface interface {
	GetIncidents(ctx context.Context, filter types.Filter, scope VisibilityScope) ([]entities.Incident, uint64, error)
	FindIncident(ctx context.Context, id uint64) (*entities.Incident, error)
	FindIncidentForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error)
	CreateIncidentInTx(ctx context.Context, tx pgx.Tx, incident entities.Incident) (uint64, error)
	UpdateIncidentInTx(ctx context.Context, tx pgx.Tx, id uint64, payload dto.UpdateIncidentDTO) error
	SaveStatusInTx(ctx context.Context, tx pgx.Tx, incident entities.Incident) error
	DeleteIncidentInTx(ctx context.Context, tx pgx.Tx, id uint64) error
}

type IncidentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewIncidentRepository(storage *pgxpool.Pool, logger *zap.Logger) IncidentRepositoryInterface {
	return &IncidentRepository{storage: storage, logger: logger}
}

func scanIncident(row pgx.Row) (*entities.Incident, error) {
	var i entities.Incident
	err := row.Scan(
		&i.ID, &i.Title, &i.Description, &i.BuildingID, &i.AssetID, &i.ReporterID, &i.DepartmentID,
		&i.Severity, &i.Status, &i.ReportedAt, &i.ResolvedAt, &i.CreatedAt, &i.UpdatedAt, &i.DeletedAt,
		&i.BuildingName, &i.ReporterName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования инцидента: %w", err)
	}
	return &i, nil
}

func (r *IncidentRepository) scoped(b sq.SelectBuilder, filter types.Filter, scope VisibilityScope) sq.SelectBuilder {
	b = b.Where(sq.Eq{"i.deleted_at": nil})
	if cond := scope.condition("i", entities.ActivityEntityIncident, "reporter_id"); cond != nil {
		b = b.Where(cond)
	}
	return incidentListSpec.where(b, filter)
}

func (r *IncidentRepository) GetIncidents(ctx context.Context, filter types.Filter, scope VisibilityScope) ([]entities.Incident, uint64, error) {
	countQuery, countArgs, err := r.scoped(psql.Select("COUNT(i.id)").From(incidentFrom), filter, scope).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета инцидентов: %w", err)
	}
	if total == 0 {
		return []entities.Incident{}, 0, nil
	}

	b := r.scoped(psql.Select(incidentColumns).From(incidentFrom), filter, scope)
	query, args, err := page(incidentListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка инцидентов: %w", err)
	}
	defer rows.Close()

	incidents := make([]entities.Incident, 0)
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, 0, err
		}
		incidents = append(incidents, *i)
	}
	return incidents, total, rows.Err()
}

func (r *IncidentRepository) FindIncident(ctx context.Context, id uint64) (*entities.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM ` + incidentFrom + ` WHERE i.id = $1 AND i.deleted_at IS NULL`
	return scanIncident(r.storage.QueryRow(ctx, query, id))
}

func (r *IncidentRepository) FindIncidentForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM ` + incidentFrom + ` WHERE i.id = $1 AND i.deleted_at IS NULL FOR UPDATE OF i`
	return scanIncident(pick(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *IncidentRepository) CreateIncidentInTx(ctx context.Context, tx pgx.Tx, incident entities.Incident) (uint64, error) {
	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, `
		INSERT INTO incidents (title, description, building_id, asset_id, reporter_id, department_id, severity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		incident.Title, incident.Description, incident.BuildingID, incident.AssetID, incident.ReporterID,
		incident.DepartmentID, incident.Severity, incident.Status,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *IncidentRepository) UpdateIncidentInTx(ctx context.Context, tx pgx.Tx, id uint64, payload dto.UpdateIncidentDTO) error {
	b := psql.Update(incidentTable).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	var changed bool

	if payload.Title.Valid {
		b = b.Set("title", payload.Title.String)
		hasChanges = true
	}
	if payload.Severity.Valid {
		b = b.Set("severity", payload.Severity.String)
		hasChanges = true
	}
	b, changed = setNullable(b, payload.Sent, "description", payload.Description.Valid, payload.Description.String)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "asset_id", payload.AssetID.Valid, payload.AssetID.Uint64)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "department_id", payload.DepartmentID.Valid, payload.DepartmentID.Uint64)
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

func (r *IncidentRepository) SaveStatusInTx(ctx context.Context, tx pgx.Tx, incident entities.Incident) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		`UPDATE incidents SET status = $2, resolved_at = $3, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		incident.ID, incident.Status, incident.ResolvedAt)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *IncidentRepository) DeleteIncidentInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		`UPDATE incidents SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
