package dto

import (
	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateDepartmentDTO struct {
	Name           string  `json:"name" validate:"required,max=255"`
	ParentID       *uint64 `json:"parent_id" validate:"omitempty,gt=0"`
	HeadEmployeeID *uint64 `json:"head_employee_id" validate:"omitempty,gt=0"`
}

// UpdateDepartmentDTO: parent_id и head_employee_id очищаются явным null.
type UpdateDepartmentDTO struct {
	Name           null.String `json:"name" validate:"omitempty,min=1,max=255"`
	ParentID       null.Uint64 `json:"parent_id" validate:"omitempty,gt=0"`
	HeadEmployeeID null.Uint64 `json:"head_employee_id" validate:"omitempty,gt=0"`

	Sent types.SentFields `json:"-"`
}

type DepartmentDTO struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	ParentID       *uint64 `json:"parent_id"`
	HeadEmployeeID *uint64 `json:"head_employee_id"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}
