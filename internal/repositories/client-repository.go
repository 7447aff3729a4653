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

const clientTable = "clients"

const clientColumns = `c.id, c.name, c.type, c.email, c.phone, c.contact_person, c.notes,
	(SELECT COUNT(*) FROM buildings b WHERE b.client_id = c.id) AS buildings_count,
	c.created_at, c.updated_at`

var clientListSpec = listSpec{
	searchColumns: []string{"c.name", "c.email", "c.phone", "c.contact_person"},
	filterFields:  map[string]string{"id": "c.id", "type": "c.type"},
	sortFields:    map[string]string{"id": "c.id", "name": "c.name", "created_at": "c.created_at"},
	defaultSort:   "c.name ASC",
}

type ClientRepositoryInterface interface {
	GetClients(ctx context.Context, filter types.Filter) ([]entities.Client, uint64, error)
	FindClient(ctx context.Context, id uint64) (*entities.Client, error)
	CreateClient(ctx context.Context, client entities.Client) (*entities.Client, error)
	UpdateClient(ctx context.Context, id uint64, payload dto.UpdateClientDTO) (*entities.Client, error)
	DeleteClient(ctx context.Context, id uint64) error
}

type ClientRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewClientRepository(storage *pgxpool.Pool, logger *zap.Logger) ClientRepositoryInterface {
	return &ClientRepository{storage: storage, logger: logger}
}

func scanClient(row pgx.Row) (*entities.Client, error) {
	var c entities.Client
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Email, &c.Phone, &c.ContactPerson, &c.Notes,
		&c.BuildingsCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования клиента: %w", err)
	}
	return &c, nil
}

func (r *ClientRepository) GetClients(ctx context.Context, filter types.Filter) ([]entities.Client, uint64, error) {
	countQuery, countArgs, err := clientListSpec.where(psql.Select("COUNT(*)").From(clientTable+" c"), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета клиентов: %w", err)
	}
	if total == 0 {
		return []entities.Client{}, 0, nil
	}

	b := clientListSpec.where(psql.Select(clientColumns).From(clientTable+" c"), filter)
	query, args, err := page(clientListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка клиентов: %w", err)
	}
	defer rows.Close()

	clients := make([]entities.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *c)
	}
	return clients, total, rows.Err()
}

func (r *ClientRepository) FindClient(ctx context.Context, id uint64) (*entities.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients c WHERE c.id = $1`
	return scanClient(r.storage.QueryRow(ctx, query, id))
}

func (r *ClientRepository) CreateClient(ctx context.Context, client entities.Client) (*entities.Client, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO clients (name, type, email, phone, contact_person, notes)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		client.Name, client.Type, client.Email, client.Phone, client.ContactPerson, client.Notes,
	).Scan(&id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return r.FindClient(ctx, id)
}

func (r *ClientRepository) UpdateClient(ctx context.Context, id uint64, payload dto.UpdateClientDTO) (*entities.Client, error) {
	b := psql.Update(clientTable).Where(sq.Eq{"id": id}).Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	var changed bool

	if payload.Name.Valid {
		b = b.Set("name", payload.Name.String)
		hasChanges = true
	}
	if payload.Type.Valid {
		b = b.Set("type", payload.Type.String)
		hasChanges = true
	}
	b, changed = setNullable(b, payload.Sent, "email", payload.Email.Valid, payload.Email.String)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "phone", payload.Phone.Valid, payload.Phone.String)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "contact_person", payload.ContactPerson.Valid, payload.ContactPerson.String)
	hasChanges = hasChanges || changed
	b, changed = setNullable(b, payload.Sent, "notes", payload.Notes.Valid, payload.Notes.String)
	hasChanges = hasChanges || changed
	if !hasChanges {
		return r.FindClient(ctx, id)
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
	return r.FindClient(ctx, id)
}

// DeleteClient: клиент со зданиями не удаляется (FK RESTRICT → ErrConflict).
func (r *ClientRepository) DeleteClient(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
