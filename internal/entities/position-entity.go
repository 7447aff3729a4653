package entities

import "facility-crm/pkg/types"

type Position struct {
	ID           uint64  `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	DepartmentID *uint64 `json:"department_id" db:"department_id"`
	types.BaseEntity
}
