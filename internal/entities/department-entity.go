package entities

import "facility-crm/pkg/types"

type Department struct {
	ID             uint64  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	ParentID       *uint64 `json:"parent_id" db:"parent_id"`
	HeadEmployeeID *uint64 `json:"head_employee_id" db:"head_employee_id"`
	types.BaseEntity
}
