package repositories

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Коды ошибок PostgreSQL, которые превращаются в ошибки API.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// listSpec описывает, по каким колонкам сущности можно искать, фильтровать и сортировать.
type listSpec struct {
	searchColumns []string
	filterFields  map[string]string
	sortFields    map[string]string
	defaultSort   string
}

func splitFilterValue(value interface{}) []string {
	raw := strings.Split(fmt.Sprintf("%v", value), ",")
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// where применяет поиск (ILIKE по searchColumns) и фильтры filter[...].
// Значение "null" превращается в IS NULL.
func (s listSpec) where(b sq.SelectBuilder, filter types.Filter) sq.SelectBuilder {
	if filter.Search != "" && len(s.searchColumns) > 0 {
		pattern := "%" + filter.Search + "%"
		conditions := sq.Or{}
		for _, col := range s.searchColumns {
			conditions = append(conditions, sq.ILike{col: pattern})
		}
		b = b.Where(conditions)
	}

	keys := make([]string, 0, len(filter.Filter))
	for key := range filter.Filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		column, ok := s.filterFields[key]
		if !ok {
			continue
		}
		items := splitFilterValue(filter.Filter[key])
		switch {
		case len(items) == 0:
			continue
		case len(items) == 1 && items[0] == "null":
			b = b.Where(sq.Eq{column: nil})
		case len(items) == 1:
			b = b.Where(sq.Eq{column: items[0]})
		default:
			b = b.Where(sq.Eq{column: items})
		}
	}
	return b
}

func (s listSpec) order(b sq.SelectBuilder, filter types.Filter) sq.SelectBuilder {
	fields := make([]string, 0, len(filter.Sort))
	for field := range filter.Sort {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	orderBy := make([]string, 0, len(fields))
	for _, field := range fields {
		column, ok := s.sortFields[field]
		if !ok {
			continue
		}
		direction := "ASC"
		if strings.EqualFold(filter.Sort[field], "desc") {
			direction = "DESC"
		}
		orderBy = append(orderBy, column+" "+direction)
	}
	if len(orderBy) == 0 && s.defaultSort != "" {
		orderBy = append(orderBy, s.defaultSort)
	}
	return b.OrderBy(orderBy...)
}

func page(b sq.SelectBuilder, filter types.Filter) sq.SelectBuilder {
	if !filter.WithPagination || filter.Limit <= 0 {
		return b
	}
	return b.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
}

// mapPgError переводит нарушения ограничений БД в ошибки API.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		if strings.HasPrefix(pgErr.Message, "update or delete") {
			return fmt.Errorf("%w: запись используется (%s)", apperrors.ErrConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: связанная запись не найдена (%s)", apperrors.ErrBadRequest, pgErr.ConstraintName)
	case pgUniqueViolation:
		return fmt.Errorf("%w: запись уже существует (%s)", apperrors.ErrConflict, pgErr.ConstraintName)
	case pgCheckViolation:
		return fmt.Errorf("%w: нарушено ограничение %s", apperrors.ErrBadRequest, pgErr.ConstraintName)
	}
	return err
}

// uniqueIDs убирает повторы, сохраняя порядок.
func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// setNullable добавляет колонку в UPDATE: значение, если поле прислано,
// или NULL, если клиент явно прислал null. Второе значение — было ли изменение.
func setNullable(b sq.UpdateBuilder, sent types.SentFields, column string, valid bool, value interface{}) (sq.UpdateBuilder, bool) {
	switch {
	case valid:
		return b.Set(column, value), true
	case sent.IsNull(column):
		return b.Set(column, nil), true
	}
	return b, false
}
