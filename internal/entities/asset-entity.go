package entities

import (
	"time"

	"facility-crm/pkg/types"
)

type Asset struct {
	ID           uint64     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	BuildingID   uint64     `json:"building_id" db:"building_id"`
	Category     string     `json:"category" db:"category"`
	SerialNumber *string    `json:"serial_number" db:"serial_number"`
	Status       string     `json:"status" db:"status"`
	InstalledAt  *time.Time `json:"installed_at" db:"installed_at"`

	BuildingName *string `json:"building_name,omitempty" db:"building_name"`

	types.BaseEntity
}
