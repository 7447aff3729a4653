// internal/authz/permissions.go
package authz

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Глобальные
	Superuser = "superuser"

	// Рабочие заявки (Work orders)
	WorkOrdersCreate     = "work_orders:create"
	WorkOrdersView       = "work_orders:view"
	WorkOrdersUpdate     = "work_orders:update"
	WorkOrdersDelete     = "work_orders:delete"
	WorkOrdersTransition = "work_orders:transition"
	WorkOrdersExport     = "work_orders:export"

	// Инциденты
	IncidentsCreate = "incidents:create"
	IncidentsView   = "incidents:view"
	IncidentsUpdate = "incidents:update"
	IncidentsDelete = "incidents:delete"

	// Здания
	BuildingsCreate = "buildings:create"
	BuildingsView   = "buildings:view"
	BuildingsUpdate = "buildings:update"
	BuildingsDelete = "buildings:delete"

	// Клиенты
	ClientsCreate = "clients:create"
	ClientsView   = "clients:view"
	ClientsUpdate = "clients:update"
	ClientsDelete = "clients:delete"

	// Оборудование (Assets)
	AssetsCreate = "assets:create"
	AssetsView   = "assets:view"
	AssetsUpdate = "assets:update"
	AssetsDelete = "assets:delete"

	// Сотрудники
	EmployeesCreate      = "employees:create"
	EmployeesView        = "employees:view"
	EmployeesUpdate      = "employees:update"
	EmployeesDelete      = "employees:delete"
	EmployeesPermissions = "employees:permissions"

	// Роли
	RolesCreate = "roles:create"
	RolesView   = "roles:view"
	RolesUpdate = "roles:update"
	RolesDelete = "roles:delete"

	// Пермишены
	PermissionsView   = "permissions:view"
	PermissionsManage = "permissions:manage"

	// Структура (департаменты и должности)
	StructureCreate = "structure:create"
	StructureView   = "structure:view"
	StructureUpdate = "structure:update"
	StructureDelete = "structure:delete"

	// Модификаторы Области (Scopes)
	ScopeOwn        = "scope:own"
	ScopeDepartment = "scope:department"
	ScopeAll        = "scope:all"
)

// Wildcard: действие, совпадающее с любым действием ресурса ("buildings:*").
const Wildcard = "*"

// Catalog: полный список ключей, которые наполняет сидер.
var Catalog = map[string]string{
	Superuser:            "Полный доступ ко всему",
	WorkOrdersCreate:     "Создание рабочих заявок",
	WorkOrdersView:       "Просмотр рабочих заявок",
	WorkOrdersUpdate:     "Редактирование рабочих заявок",
	WorkOrdersDelete:     "Удаление рабочих заявок",
	WorkOrdersTransition: "Смена статуса рабочих заявок",
	WorkOrdersExport:     "Выгрузка рабочих заявок в Excel",
	IncidentsCreate:      "Регистрация инцидентов",
	IncidentsView:        "Просмотр инцидентов",
	IncidentsUpdate:      "Редактирование инцидентов",
	IncidentsDelete:      "Удаление инцидентов",
	BuildingsCreate:      "Создание зданий",
	BuildingsView:        "Просмотр зданий",
	BuildingsUpdate:      "Редактирование зданий",
	BuildingsDelete:      "Удаление зданий",
	ClientsCreate:        "Создание клиентов",
	ClientsView:          "Просмотр клиентов",
	ClientsUpdate:        "Редактирование клиентов",
	ClientsDelete:        "Удаление клиентов",
	AssetsCreate:         "Создание оборудования",
	AssetsView:           "Просмотр оборудования",
	AssetsUpdate:         "Редактирование оборудования",
	AssetsDelete:         "Удаление оборудования",
	EmployeesCreate:      "Создание сотрудников",
	EmployeesView:        "Просмотр сотрудников",
	EmployeesUpdate:      "Редактирование сотрудников",
	EmployeesDelete:      "Удаление сотрудников",
	EmployeesPermissions: "Управление индивидуальными правами сотрудников",
	RolesCreate:          "Создание ролей",
	RolesView:            "Просмотр ролей",
	RolesUpdate:          "Редактирование ролей",
	RolesDelete:          "Удаление ролей",
	PermissionsView:      "Просмотр справочника прав",
	PermissionsManage:    "Управление справочником прав",
	StructureCreate:      "Создание департаментов и должностей",
	StructureView:        "Просмотр оргструктуры",
	StructureUpdate:      "Редактирование оргструктуры",
	StructureDelete:      "Удаление элементов оргструктуры",
	ScopeOwn:             "Область: собственные записи",
	ScopeDepartment:      "Область: записи своего департамента",
	ScopeAll:             "Область: все записи",
}
