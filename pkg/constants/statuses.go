package constants

// --- СТАТУСЫ РАБОЧИХ ЗАЯВОК (совпадают со значениями в БД) ---
const (
	WorkOrderCreated    = "created"
	WorkOrderAssigned   = "assigned"
	WorkOrderInProgress = "in_progress"
	WorkOrderCompleted  = "completed"
	WorkOrderCanceled   = "canceled"
)

// --- СТАТУСЫ ИНЦИДЕНТОВ ---
const (
	IncidentOpen          = "open"
	IncidentInvestigating = "investigating"
	IncidentResolved      = "resolved"
	IncidentClosed        = "closed"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	EmployeeStatusActive   = "ACTIVE"
	EmployeeStatusInactive = "INACTIVE"
)

const (
	BuildingStatusActive   = "active"
	BuildingStatusInactive = "inactive"
)

const (
	AssetOperational    = "operational"
	AssetMaintenance    = "maintenance"
	AssetDecommissioned = "decommissioned"
)

// Финальные статусы
var FinalStatuses = []string{
	WorkOrderCompleted,
	WorkOrderCanceled,
	IncidentClosed,
}

// Функция-проверка
func IsFinalStatus(code string) bool {
	for _, s := range FinalStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// Cache keys
const (
	CacheKeyPermissionsGeneration = "auth:permissions:gen"
	CacheKeyEmployeePermissions   = "auth:permissions:v%d:employee:%d"
)

// События ленты активности
const (
	EventCreated        = "CREATED"
	EventStatusChange   = "STATUS_CHANGE"
	EventAssigneeChange = "ASSIGNEE_CHANGE"
	EventFieldChange    = "FIELD_CHANGE"
	EventComment        = "COMMENT"
	EventDeleted        = "DELETED"

	EventTitleChange       = "TITLE_CHANGE"
	EventDescriptionChange = "DESCRIPTION_CHANGE"
	EventPriorityChange    = "PRIORITY_CHANGE"
	EventSeverityChange    = "SEVERITY_CHANGE"
	EventDepartmentChange  = "DEPARTMENT_CHANGE"
	EventAssetChange       = "ASSET_CHANGE"
	EventScheduleChange    = "SCHEDULE_CHANGE"
)
