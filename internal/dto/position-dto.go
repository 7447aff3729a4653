package dto

import (
	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreatePositionDTO struct {
	Name         string  `json:"name" validate:"required,max=255"`
	DepartmentID *uint64 `json:"department_id" validate:"omitempty,gt=0"`
}

type UpdatePositionDTO struct {
	Name         null.String `json:"name" validate:"omitempty,min=1,max=255"`
	DepartmentID null.Uint64 `json:"department_id" validate:"omitempty,gt=0"`

	Sent types.SentFields `json:"-"`
}

type PositionDTO struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	DepartmentID *uint64 `json:"department_id"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}
