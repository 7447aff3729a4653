package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) *uint64 { return &v }

// Дерево: 1 (Компания) -> 2 (Эксплуатация) -> 3 (Служба инженеров)
func testDepartments() map[uint64]DepartmentNode {
	return map[uint64]DepartmentNode{
		1: {ID: 1},
		2: {ID: 2, ParentID: u64(1)},
		3: {ID: 3, ParentID: u64(2)},
	}
}

func TestResolve_UnionOfRoleDepartmentAndEmployee(t *testing.T) {
	src := Sources{
		RoleKeys:    []string{BuildingsView, WorkOrdersView},
		Departments: testDepartments(),
		DepartmentKeys: map[uint64][]string{
			1: {ClientsView},
			3: {WorkOrdersTransition},
		},
		EmployeeGrants: []string{AssetsUpdate},
	}

	eff := Resolve(Subject{EmployeeID: 7, RoleID: 1, DepartmentID: u64(3)}, src, DefaultMaxDepartmentDepth)

	assert.Equal(t, []string{AssetsUpdate, BuildingsView, ClientsView, WorkOrdersTransition, WorkOrdersView}, eff.Keys())
	assert.Equal(t, []uint64{3, 2, 1}, eff.DepartmentChain)
	assert.False(t, eff.Truncated)

	assert.Equal(t, SourceRole, eff.Granted[BuildingsView].Source)
	assert.Equal(t, SourceEmployee, eff.Granted[AssetsUpdate].Source)

	clients := eff.Granted[ClientsView]
	assert.Equal(t, SourceDepartment, clients.Source)
	require.NotNil(t, clients.DepartmentID)
	assert.Equal(t, uint64(1), *clients.DepartmentID)
	assert.Equal(t, 2, clients.Depth)
}

func TestResolve_NearestDepartmentWinsSourceLabel(t *testing.T) {
	src := Sources{
		Departments: testDepartments(),
		DepartmentKeys: map[uint64][]string{
			1: {IncidentsView},
			2: {IncidentsView},
		},
	}

	eff := Resolve(Subject{DepartmentID: u64(3)}, src, DefaultMaxDepartmentDepth)

	g := eff.Granted[IncidentsView]
	require.NotNil(t, g.DepartmentID)
	assert.Equal(t, uint64(2), *g.DepartmentID, "ближайший департамент должен быть источником")
	assert.Equal(t, 1, g.Depth)
}

func TestResolve_EmployeeOverrideRelabelsRoleGrant(t *testing.T) {
	src := Sources{RoleKeys: []string{ClientsView}, EmployeeGrants: []string{ClientsView}}

	eff := Resolve(Subject{}, src, DefaultMaxDepartmentDepth)

	assert.Equal(t, SourceEmployee, eff.Granted[ClientsView].Source)
}

func TestResolve_DenyAppliedLast(t *testing.T) {
	src := Sources{
		RoleKeys:       []string{BuildingsView, BuildingsUpdate},
		Departments:    testDepartments(),
		DepartmentKeys: map[uint64][]string{2: {ClientsView}},
		EmployeeGrants: []string{BuildingsDelete},
		EmployeeDenies: []string{BuildingsUpdate, ClientsView, BuildingsDelete},
	}

	eff := Resolve(Subject{DepartmentID: u64(3)}, src, DefaultMaxDepartmentDepth)

	assert.Equal(t, []string{BuildingsView}, eff.Keys())
	assert.False(t, eff.Allows(BuildingsUpdate))
	assert.False(t, eff.Allows(ClientsView))
	assert.False(t, eff.Allows(BuildingsDelete), "запрет сильнее индивидуального разрешения")
	assert.Equal(t, []string{BuildingsDelete, BuildingsUpdate, ClientsView}, eff.DeniedKeys())
}

func TestResolve_WildcardDenyStripsWholeResource(t *testing.T) {
	src := Sources{
		RoleKeys:       []string{"buildings:*", BuildingsView, ClientsView},
		EmployeeDenies: []string{"buildings:*"},
	}

	eff := Resolve(Subject{}, src, DefaultMaxDepartmentDepth)

	assert.Equal(t, []string{ClientsView}, eff.Keys())
	assert.False(t, eff.Allows(BuildingsView))
	assert.False(t, eff.Allows(BuildingsCreate))
}

func TestResolve_NoDepartment(t *testing.T) {
	eff := Resolve(Subject{EmployeeID: 1}, Sources{RoleKeys: []string{RolesView}}, DefaultMaxDepartmentDepth)

	assert.Empty(t, eff.DepartmentChain)
	assert.False(t, eff.Truncated)
	assert.True(t, eff.Allows(RolesView))
}

func TestDepartmentChain_DepthBound(t *testing.T) {
	chain, truncated := DepartmentChain(u64(3), testDepartments(), 2)
	assert.Equal(t, []uint64{3, 2}, chain)
	assert.True(t, truncated)

	chain, truncated = DepartmentChain(u64(3), testDepartments(), 3)
	assert.Equal(t, []uint64{3, 2, 1}, chain)
	assert.False(t, truncated, "корень достигнут ровно на границе")

	chain, truncated = DepartmentChain(u64(3), testDepartments(), 0)
	assert.Empty(t, chain)
	assert.True(t, truncated)
}

func TestDepartmentChain_CycleAndMissingParent(t *testing.T) {
	cyclic := map[uint64]DepartmentNode{
		1: {ID: 1, ParentID: u64(2)},
		2: {ID: 2, ParentID: u64(1)},
	}
	chain, truncated := DepartmentChain(u64(1), cyclic, 50)
	assert.Equal(t, []uint64{1, 2}, chain)
	assert.False(t, truncated)

	orphan := map[uint64]DepartmentNode{5: {ID: 5, ParentID: u64(99)}}
	chain, _ = DepartmentChain(u64(5), orphan, 50)
	assert.Equal(t, []uint64{5}, chain)

	chain, _ = DepartmentChain(u64(42), orphan, 50)
	assert.Empty(t, chain)
}

func TestDecide(t *testing.T) {
	eff := Resolve(Subject{}, Sources{
		RoleKeys:       []string{"assets:*", WorkOrdersView},
		EmployeeDenies: []string{AssetsDelete},
	}, DefaultMaxDepartmentDepth)

	d := eff.Decide("assets", "update")
	assert.True(t, d.Allowed)
	assert.Equal(t, "assets:*", d.MatchedBy)
	assert.Equal(t, SourceRole, d.Source)

	d = eff.Decide("assets", "delete")
	assert.False(t, d.Allowed)
	assert.Equal(t, AssetsDelete, d.DeniedBy)

	d = eff.Decide("work_orders", "view")
	assert.True(t, d.Allowed)
	assert.Equal(t, WorkOrdersView, d.MatchedBy)

	d = eff.Decide("clients", "view")
	assert.False(t, d.Allowed)
	assert.Empty(t, d.DeniedBy)
}

func TestSuperuser(t *testing.T) {
	eff := Resolve(Subject{}, Sources{
		RoleKeys:       []string{Superuser},
		EmployeeDenies: []string{ClientsDelete},
	}, DefaultMaxDepartmentDepth)

	assert.True(t, eff.Allows(BuildingsDelete))
	assert.True(t, eff.Allows(ScopeAll))
	assert.False(t, eff.Allows(ClientsDelete), "явный запрет сильнее superuser")

	revoked := Resolve(Subject{}, Sources{
		RoleKeys:       []string{Superuser},
		EmployeeDenies: []string{Superuser},
	}, DefaultMaxDepartmentDepth)
	assert.False(t, revoked.Allows(BuildingsView))
}

func TestMatchesKey(t *testing.T) {
	assert.True(t, matchesKey("work_orders:view", "work_orders:view"))
	assert.True(t, matchesKey("work_orders:*", "work_orders:transition"))
	assert.False(t, matchesKey("work_orders:*", "work_order_templates:view"))
	assert.False(t, matchesKey("*", "work_orders:view"))
	assert.False(t, matchesKey("superuser", "work_orders:view"))
}

func TestToMap(t *testing.T) {
	eff := Resolve(Subject{}, Sources{
		RoleKeys:       []string{ClientsView, ClientsUpdate},
		EmployeeDenies: []string{ClientsUpdate},
	}, DefaultMaxDepartmentDepth)

	assert.Equal(t, map[string]bool{ClientsView: true}, eff.ToMap())
}
