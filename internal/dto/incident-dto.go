package dto

import (
	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateIncidentDTO struct {
	Title        string  `json:"title" validate:"required,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=10000"`
	BuildingID   uint64  `json:"building_id" validate:"required,gt=0"`
	AssetID      *uint64 `json:"asset_id" validate:"omitempty,gt=0"`
	DepartmentID *uint64 `json:"department_id" validate:"omitempty,gt=0"`
	Severity     string  `json:"severity" validate:"omitempty,oneof=low medium high critical"`
}

type UpdateIncidentDTO struct {
	Title        null.String `json:"title" validate:"omitempty,min=1,max=255"`
	Description  null.String `json:"description" validate:"omitempty,max=10000"`
	AssetID      null.Uint64 `json:"asset_id" validate:"omitempty,gt=0"`
	DepartmentID null.Uint64 `json:"department_id" validate:"omitempty,gt=0"`
	Severity     null.String `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Comment      null.String `json:"comment" validate:"omitempty,max=2000"`

	Sent types.SentFields `json:"-"`
}

type TransitionIncidentDTO struct {
	Status  string  `json:"status" validate:"required,oneof=open investigating resolved closed"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type IncidentDTO struct {
	ID           uint64            `json:"id"`
	Title        string            `json:"title"`
	Description  *string           `json:"description"`
	Building     *ShortBuildingDTO `json:"building"`
	AssetID      *uint64           `json:"asset_id"`
	Reporter     *ShortEmployeeDTO `json:"reporter"`
	DepartmentID *uint64           `json:"department_id"`
	Severity     string            `json:"severity"`
	Status       string            `json:"status"`
	ReportedAt   string            `json:"reported_at"`
	ResolvedAt   string            `json:"resolved_at,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}
