package entities

import "facility-crm/pkg/types"

type Building struct {
	ID       uint64   `json:"id" db:"id"`
	Name     string   `json:"name" db:"name"`
	Address  string   `json:"address" db:"address"`
	ClientID *uint64  `json:"client_id" db:"client_id"`
	Floors   *int     `json:"floors" db:"floors"`
	AreaSqm  *float64 `json:"area_sqm" db:"area_sqm"`
	Status   string   `json:"status" db:"status"`

	ClientName *string `json:"client_name,omitempty" db:"client_name"`

	types.BaseEntity
}
