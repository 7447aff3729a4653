package authz

import (
	"strings"

	"facility-crm/internal/entities"
)

type Context struct {
	Actor             *entities.Employee
	Permissions       *EffectivePermissions
	Target            interface{}
	IsParticipant     bool
	CurrentPermission string
}

func (c *Context) HasPermission(permission string) bool {
	if c.Permissions == nil {
		return false
	}
	return c.Permissions.Allows(permission)
}

// Scope: уровень видимости записей для списков и ABAC-проверок.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeLevelOwn
	ScopeLevelDepartment
	ScopeLevelAll
)

// ScopeOf возвращает самый широкий доступный сотруднику уровень области.
func ScopeOf(perms *EffectivePermissions) Scope {
	if perms == nil {
		return ScopeNone
	}
	switch {
	case perms.Allows(ScopeAll):
		return ScopeLevelAll
	case perms.Allows(ScopeDepartment):
		return ScopeLevelDepartment
	case perms.Allows(ScopeOwn):
		return ScopeLevelOwn
	}
	return ScopeNone
}

func getAction(permission string) string {
	parts := strings.Split(permission, ":")
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return ""
}

func sameDepartment(a, b *uint64) bool {
	return a != nil && b != nil && *a == *b
}

// canAccessWorkOrder: логика для рабочих заявок
func canAccessWorkOrder(ctx Context, target *entities.WorkOrder) bool {
	actor := ctx.Actor
	scope := ScopeOf(ctx.Permissions)

	if scope >= ScopeLevelAll {
		return true
	}
	if scope >= ScopeLevelDepartment && sameDepartment(actor.DepartmentID, target.DepartmentID) {
		return true
	}
	if scope >= ScopeLevelOwn {
		isCreator := target.CreatorID == actor.ID
		isAssignee := target.AssigneeID != nil && *target.AssigneeID == actor.ID
		if isCreator || isAssignee || ctx.IsParticipant {
			return true
		}
	}
	return false
}

// canAccessIncident: инциденты видит автор, департамент или глобальная область.
func canAccessIncident(ctx Context, target *entities.Incident) bool {
	actor := ctx.Actor
	scope := ScopeOf(ctx.Permissions)

	if scope >= ScopeLevelAll {
		return true
	}
	if scope >= ScopeLevelDepartment && sameDepartment(actor.DepartmentID, target.DepartmentID) {
		return true
	}
	if scope >= ScopeLevelOwn && (target.ReporterID == actor.ID || ctx.IsParticipant) {
		return true
	}
	return false
}

// canAccessEmployee: "телефонная книга". Карточку видят все, править можно строго по иерархии.
func canAccessEmployee(ctx Context, target *entities.Employee) bool {
	actor := ctx.Actor
	action := getAction(ctx.CurrentPermission)

	if action == "view" {
		return true
	}
	if actor.ID == target.ID && action == "update" {
		return true
	}
	scope := ScopeOf(ctx.Permissions)
	if scope >= ScopeLevelAll {
		return true
	}
	if scope >= ScopeLevelDepartment && sameDepartment(actor.DepartmentID, target.DepartmentID) {
		return true
	}
	return false
}

func CanDo(permission string, ctx Context) bool {
	allowed := canDo(permission, ctx)
	recordDecision(permission, allowed)
	return allowed
}

func canDo(permission string, ctx Context) bool {
	// 1. Фиксация права
	ctx.CurrentPermission = permission

	// 2. Есть ли право вообще (RBAC с учётом запретов)
	if !ctx.HasPermission(permission) {
		return false
	}

	// 3. Без цели — разрешено (например создание или справочники)
	if ctx.Target == nil {
		return true
	}

	// 4. Суперпользователь проходит ABAC без проверок области
	if ctx.HasPermission(Superuser) {
		return true
	}

	// 5. Проверка цели (ABAC)
	if ctx.Actor == nil {
		return false
	}
	switch target := ctx.Target.(type) {
	case *entities.WorkOrder:
		return canAccessWorkOrder(ctx, target)
	case *entities.Incident:
		return canAccessIncident(ctx, target)
	case *entities.Employee:
		return canAccessEmployee(ctx, target)
	}

	return true
}
