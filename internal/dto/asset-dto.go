package dto

import (
	"time"

	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateAssetDTO struct {
	Name         string     `json:"name" validate:"required,max=255"`
	BuildingID   uint64     `json:"building_id" validate:"required,gt=0"`
	Category     string     `json:"category" validate:"required,max=100"`
	SerialNumber *string    `json:"serial_number" validate:"omitempty,max=100"`
	Status       string     `json:"status" validate:"omitempty,oneof=operational maintenance decommissioned"`
	InstalledAt  *time.Time `json:"installed_at"`
}

type UpdateAssetDTO struct {
	Name         null.String `json:"name" validate:"omitempty,min=1,max=255"`
	BuildingID   null.Uint64 `json:"building_id" validate:"omitempty,gt=0"`
	Category     null.String `json:"category" validate:"omitempty,min=1,max=100"`
	SerialNumber null.String `json:"serial_number" validate:"omitempty,max=100"`
	Status       null.String `json:"status" validate:"omitempty,oneof=operational maintenance decommissioned"`
	InstalledAt  null.Time   `json:"installed_at"`

	Sent types.SentFields `json:"-"`
}

type AssetDTO struct {
	ID           uint64            `json:"id"`
	Name         string            `json:"name"`
	Building     *ShortBuildingDTO `json:"building"`
	Category     string            `json:"category"`
	SerialNumber *string           `json:"serial_number"`
	Status       string            `json:"status"`
	InstalledAt  string            `json:"installed_at,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}
