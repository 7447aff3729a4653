package dto

import (
	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateEmployeeDTO struct {
	FullName     string  `json:"full_name" validate:"required,max=255"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Phone        *string `json:"phone" validate:"omitempty,phone"`
	RoleID       uint64  `json:"role_id" validate:"required,gt=0"`
	DepartmentID *uint64 `json:"department_id" validate:"omitempty,gt=0"`
	PositionID   *uint64 `json:"position_id" validate:"omitempty,gt=0"`
	StatusCode   string  `json:"status_code" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type UpdateEmployeeDTO struct {
	FullName     null.String `json:"full_name" validate:"omitempty,min=1,max=255"`
	Email        null.String `json:"email" validate:"omitempty,email,max=255"`
	Phone        null.String `json:"phone" validate:"omitempty,phone"`
	RoleID       null.Uint64 `json:"role_id" validate:"omitempty,gt=0"`
	DepartmentID null.Uint64 `json:"department_id" validate:"omitempty,gt=0"`
	PositionID   null.Uint64 `json:"position_id" validate:"omitempty,gt=0"`
	StatusCode   null.String `json:"status_code" validate:"omitempty,oneof=ACTIVE INACTIVE"`

	Sent types.SentFields `json:"-"`
}

type EmployeeDTO struct {
	ID             uint64  `json:"id"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	RoleID         uint64  `json:"role_id"`
	RoleName       *string `json:"role_name,omitempty"`
	DepartmentID   *uint64 `json:"department_id"`
	DepartmentName *string `json:"department_name,omitempty"`
	PositionID     *uint64 `json:"position_id"`
	PositionName   *string `json:"position_name,omitempty"`
	StatusCode     string  `json:"status_code"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// MeDTO: профиль текущего сотрудника вместе с ключами прав для фронтенда.
type MeDTO struct {
	EmployeeDTO
	Permissions   []string        `json:"permissions"`
	PermissionMap map[string]bool `json:"permission_map"`
}
