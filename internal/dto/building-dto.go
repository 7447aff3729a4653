package dto

import (
	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateBuildingDTO struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Address  string   `json:"address" validate:"required,max=1000"`
	ClientID *uint64  `json:"client_id" validate:"omitempty,gt=0"`
	Floors   *int     `json:"floors" validate:"omitempty,gt=0,lte=300"`
	AreaSqm  *float64 `json:"area_sqm" validate:"omitempty,gt=0"`
	Status   string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

type UpdateBuildingDTO struct {
	Name     null.String  `json:"name" validate:"omitempty,min=1,max=255"`
	Address  null.String  `json:"address" validate:"omitempty,min=1,max=1000"`
	ClientID null.Uint64  `json:"client_id" validate:"omitempty,gt=0"`
	Floors   null.Int     `json:"floors" validate:"omitempty,gt=0,lte=300"`
	AreaSqm  null.Float64 `json:"area_sqm" validate:"omitempty,gt=0"`
	Status   null.String  `json:"status" validate:"omitempty,oneof=active inactive"`

	Sent types.SentFields `json:"-"`
}

type BuildingDTO struct {
	ID         uint64   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	ClientID   *uint64  `json:"client_id"`
	ClientName *string  `json:"client_name,omitempty"`
	Floors     *int     `json:"floors"`
	AreaSqm    *float64 `json:"area_sqm"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}
