package repositories

import (
	"facility-crm/internal/authz"

	sq "github.com/Masterminds/squirrel"
)

// VisibilityScope ограничивает списки заявок и инцидентов областью сотрудника.
type VisibilityScope struct {
	Level        authz.Scope
	EmployeeID   uint64
	DepartmentID *uint64
}

// condition строит WHERE для области. ownColumns — колонки "мои записи"
// (автор, исполнитель), entityType — тип для поиска участия в ленте событий.
func (v VisibilityScope) condition(alias string, entityType string, ownColumns ...string) sq.Sqlizer {
	if v.Level >= authz.ScopeLevelAll {
		return nil
	}
	if v.Level == authz.ScopeNone {
		return sq.Expr("1 = 0")
	}

	own := sq.Or{}
	for _, col := range ownColumns {
		own = append(own, sq.Eq{alias + "." + col: v.EmployeeID})
	}
	own = append(own, sq.Expr(
		"EXISTS (SELECT 1 FROM activity_log al WHERE al.entity_type = ? AND al.entity_id = "+alias+".id AND al.actor_id = ?)",
		entityType, v.EmployeeID,
	))

	if v.Level >= authz.ScopeLevelDepartment && v.DepartmentID != nil {
		return sq.Or{sq.Eq{alias + ".department_id": *v.DepartmentID}, own}
	}
	return own
}
