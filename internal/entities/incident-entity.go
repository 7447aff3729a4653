package entities

import (
	"time"

	"facility-crm/pkg/types"
)

type Incident struct {
	ID           uint64     `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description" db:"description"`
	BuildingID   uint64     `json:"building_id" db:"building_id"`
	AssetID      *uint64    `json:"asset_id" db:"asset_id"`
	ReporterID   uint64     `json:"reporter_id" db:"reporter_id"`
	DepartmentID *uint64    `json:"department_id" db:"department_id"`
	Severity     string     `json:"severity" db:"severity"`
	Status       string     `json:"status" db:"status"`
	ReportedAt   time.Time  `json:"reported_at" db:"reported_at"`
	ResolvedAt   *time.Time `json:"resolved_at" db:"resolved_at"`

	BuildingName *string `json:"building_name,omitempty" db:"building_name"`
	ReporterName *string `json:"reporter_name,omitempty" db:"reporter_name"`

	types.BaseEntity
	types.SoftDelete
}
