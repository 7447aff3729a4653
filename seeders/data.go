package seeders

import "facility-crm/internal/authz"

type roleSeed struct {
	Name        string
	Description string
	Permissions []string
}

// rolesData: роли по умолчанию и их права.
var rolesData = []roleSeed{
	{
		Name:        "Администратор",
		Description: "Полный доступ к системе",
		Permissions: []string{authz.Superuser},
	},
	{
		Name:        "Диспетчер",
		Description: "Принимает и распределяет заявки по всем объектам",
		Permissions: []string{
			"work_orders:*",
			"incidents:*",
			authz.BuildingsView,
			authz.ClientsView,
			authz.AssetsView,
			authz.EmployeesView,
			authz.StructureView,
			authz.ScopeAll,
		},
	},
	{
		Name:        "Инженер",
		Description: "Выполняет заявки своего департамента",
		Permissions: []string{
			authz.WorkOrdersView,
			authz.WorkOrdersUpdate,
			authz.WorkOrdersTransition,
			authz.IncidentsCreate,
			authz.IncidentsView,
			authz.BuildingsView,
			authz.AssetsView,
			authz.AssetsUpdate,
			authz.EmployeesView,
			authz.ScopeDepartment,
		},
	},
	{
		Name:        "Наблюдатель",
		Description: "Видит только собственные заявки",
		Permissions: []string{
			authz.WorkOrdersView,
			authz.WorkOrdersCreate,
			authz.IncidentsView,
			authz.IncidentsCreate,
			authz.ScopeOwn,
		},
	},
}

type departmentSeed struct {
	Name     string
	Children []departmentSeed
}

var departmentsData = departmentSeed{
	Name: "Управляющая компания",
	Children: []departmentSeed{
		{
			Name: "Эксплуатация",
			Children: []departmentSeed{
				{Name: "Служба инженеров"},
				{Name: "Клининг"},
			},
		},
		{Name: "Диспетчерская"},
		{Name: "Бухгалтерия"},
	},
}

const (
	adminRoleName = "Администратор"
	adminFullName = "Администратор Системы"
	adminEmail    = "admin@facility-crm.local"
)
