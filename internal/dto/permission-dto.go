package dto

import (
	"facility-crm/internal/authz"

	"github.com/aarondl/null/v8"
)

type PermissionDTO struct {
	ID          uint64 `json:"id"`
	Key         string `json:"key"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type CreatePermissionDTO struct {
	Key         string `json:"key" validate:"required,max=100,permission_key"`
	Description string `json:"description" validate:"max=500"`
}

type UpdatePermissionDTO struct {
	Description null.String `json:"description" validate:"omitempty,max=500"`
}

type OverrideItemDTO struct {
	PermissionID uint64 `json:"permission_id" validate:"required,gt=0"`
	Effect       string `json:"effect" validate:"required,oneof=grant deny"`
}

// ReplaceOverridesDTO заменяет весь набор индивидуальных прав сотрудника.
type ReplaceOverridesDTO struct {
	Overrides []OverrideItemDTO `json:"overrides" validate:"dive"`
}

type OverrideDTO struct {
	PermissionID  uint64 `json:"permission_id"`
	PermissionKey string `json:"permission_key"`
	Effect        string `json:"effect"`
}

// EffectivePermissionsDTO: итоговые права сотрудника с источниками.
type EffectivePermissionsDTO struct {
	EmployeeID      uint64        `json:"employee_id"`
	Permissions     []string      `json:"permissions"`
	Grants          []authz.Grant `json:"grants"`
	Denied          []string      `json:"denied"`
	DepartmentChain []uint64      `json:"department_chain"`
	Truncated       bool          `json:"truncated"`
	Overrides       []OverrideDTO `json:"overrides,omitempty"`
}
