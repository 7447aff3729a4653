// Файл: internal/entities/employee-entity.go
package entities

import "facility-crm/pkg/types"

type Employee struct {
	ID       uint64  `json:"id" db:"id"`
	FullName string  `json:"full_name" db:"full_name"`
	Email    string  `json:"email" db:"email"`
	Phone    *string `json:"phone,omitempty" db:"phone"`

	RoleID       uint64  `json:"role_id" db:"role_id"`
	DepartmentID *uint64 `json:"department_id" db:"department_id"`
	PositionID   *uint64 `json:"position_id" db:"position_id"`

	StatusCode string `json:"status_code" db:"status_code"`

	// Поля из JOIN-ов
	RoleName       *string `json:"role_name,omitempty" db:"role_name"`
	DepartmentName *string `json:"department_name,omitempty" db:"department_name"`
	PositionName   *string `json:"position_name,omitempty" db:"position_name"`

	types.BaseEntity
	types.SoftDelete
}
