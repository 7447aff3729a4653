package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"facility-crm/internal/entities"
)

func permsOf(keys ...string) *EffectivePermissions {
	eff := Resolve(Subject{}, Sources{RoleKeys: keys}, DefaultMaxDepartmentDepth)
	return &eff
}

func TestScopeOf(t *testing.T) {
	assert.Equal(t, ScopeNone, ScopeOf(nil))
	assert.Equal(t, ScopeNone, ScopeOf(permsOf(WorkOrdersView)))
	assert.Equal(t, ScopeLevelOwn, ScopeOf(permsOf(ScopeOwn)))
	assert.Equal(t, ScopeLevelDepartment, ScopeOf(permsOf(ScopeOwn, ScopeDepartment)))
	assert.Equal(t, ScopeLevelAll, ScopeOf(permsOf(ScopeDepartment, ScopeAll)))
	assert.Equal(t, ScopeLevelAll, ScopeOf(permsOf(Superuser)))
}

func TestCanDo_WithoutTarget(t *testing.T) {
	ctx := Context{Permissions: permsOf(WorkOrdersCreate)}

	assert.True(t, CanDo(WorkOrdersCreate, ctx))
	assert.False(t, CanDo(WorkOrdersDelete, ctx))
	assert.False(t, CanDo(WorkOrdersCreate, Context{}), "без вычисленных прав доступ запрещён")
}

func TestCanDo_WorkOrderScopes(t *testing.T) {
	actor := &entities.Employee{ID: 10, DepartmentID: u64(3)}
	assignee := uint64(10)

	own := &entities.WorkOrder{ID: 1, CreatorID: 99, AssigneeID: &assignee, DepartmentID: u64(4)}
	sameDept := &entities.WorkOrder{ID: 2, CreatorID: 99, DepartmentID: u64(3)}
	foreign := &entities.WorkOrder{ID: 3, CreatorID: 99, DepartmentID: u64(4)}

	t.Run("own", func(t *testing.T) {
		ctx := Context{Actor: actor, Permissions: permsOf(WorkOrdersView, ScopeOwn)}
		ctx.Target = own
		assert.True(t, CanDo(WorkOrdersView, ctx))
		ctx.Target = sameDept
		assert.False(t, CanDo(WorkOrdersView, ctx))
		ctx.IsParticipant = true
		assert.True(t, CanDo(WorkOrdersView, ctx), "участник видит заявку")
	})

	t.Run("department", func(t *testing.T) {
		ctx := Context{Actor: actor, Permissions: permsOf(WorkOrdersView, ScopeDepartment)}
		ctx.Target = sameDept
		assert.True(t, CanDo(WorkOrdersView, ctx))
		ctx.Target = foreign
		assert.False(t, CanDo(WorkOrdersView, ctx))
	})

	t.Run("all", func(t *testing.T) {
		ctx := Context{Actor: actor, Permissions: permsOf(WorkOrdersView, ScopeAll), Target: foreign}
		assert.True(t, CanDo(WorkOrdersView, ctx))
	})

	t.Run("no scope", func(t *testing.T) {
		ctx := Context{Actor: actor, Permissions: permsOf(WorkOrdersView), Target: own}
		assert.False(t, CanDo(WorkOrdersView, ctx))
	})

	t.Run("superuser", func(t *testing.T) {
		ctx := Context{Actor: actor, Permissions: permsOf(Superuser), Target: foreign}
		assert.True(t, CanDo(WorkOrdersDelete, ctx))
	})
}

func TestCanDo_Incident(t *testing.T) {
	actor := &entities.Employee{ID: 5, DepartmentID: u64(2)}
	mine := &entities.Incident{ID: 1, ReporterID: 5}
	other := &entities.Incident{ID: 2, ReporterID: 6, DepartmentID: u64(2)}

	ctx := Context{Actor: actor, Permissions: permsOf(IncidentsUpdate, ScopeOwn), Target: mine}
	assert.True(t, CanDo(IncidentsUpdate, ctx))
	ctx.Target = other
	assert.False(t, CanDo(IncidentsUpdate, ctx))

	ctx.Permissions = permsOf(IncidentsUpdate, ScopeDepartment)
	assert.True(t, CanDo(IncidentsUpdate, ctx))
}

func TestCanDo_Employee(t *testing.T) {
	actor := &entities.Employee{ID: 1, DepartmentID: u64(2)}
	self := &entities.Employee{ID: 1, DepartmentID: u64(2)}
	colleague := &entities.Employee{ID: 2, DepartmentID: u64(2)}
	stranger := &entities.Employee{ID: 3, DepartmentID: u64(9)}

	ctx := Context{Actor: actor, Permissions: permsOf(EmployeesView, EmployeesUpdate)}

	ctx.Target = stranger
	assert.True(t, CanDo(EmployeesView, ctx), "карточку сотрудника видят все с правом просмотра")
	assert.False(t, CanDo(EmployeesUpdate, ctx))

	ctx.Target = self
	assert.True(t, CanDo(EmployeesUpdate, ctx))

	ctx.Target = colleague
	assert.False(t, CanDo(EmployeesUpdate, ctx))
	ctx.Permissions = permsOf(EmployeesUpdate, ScopeDepartment)
	assert.True(t, CanDo(EmployeesUpdate, ctx))
}

func TestCanDo_DenyBeatsScope(t *testing.T) {
	eff := Resolve(Subject{}, Sources{
		RoleKeys:       []string{WorkOrdersView, ScopeAll},
		EmployeeDenies: []string{WorkOrdersView},
	}, DefaultMaxDepartmentDepth)

	ctx := Context{Actor: &entities.Employee{ID: 1}, Permissions: &eff, Target: &entities.WorkOrder{CreatorID: 1}}
	assert.False(t, CanDo(WorkOrdersView, ctx))
}

func TestCanDo_UnknownTargetPassesAfterRBAC(t *testing.T) {
	ctx := Context{
		Actor:       &entities.Employee{ID: 1},
		Permissions: permsOf(BuildingsUpdate),
		Target:      &entities.Building{ID: 1},
	}
	assert.True(t, CanDo(BuildingsUpdate, ctx))
	assert.False(t, CanDo(BuildingsDelete, ctx))
}
