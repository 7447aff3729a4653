package entities

import "facility-crm/pkg/types"

type Permission struct {
	ID          uint64 `json:"id" db:"id"`
	Key         string `json:"key" db:"key"`
	Description string `json:"description" db:"description"`
	types.BaseEntity
}

const (
	OverrideGrant = "grant"
	OverrideDeny  = "deny"
)

// PermissionOverride: индивидуальное разрешение или запрет для сотрудника.
type PermissionOverride struct {
	EmployeeID    uint64 `json:"employee_id" db:"employee_id"`
	PermissionID  uint64 `json:"permission_id" db:"permission_id"`
	PermissionKey string `json:"permission_key" db:"permission_key"`
	Effect        string `json:"effect" db:"effect"`
}
