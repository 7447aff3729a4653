package dto

import (
	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateClientDTO struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Type          string  `json:"type" validate:"omitempty,oneof=company individual"`
	Email         *string `json:"email" validate:"omitempty,email,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,phone"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=255"`
	Notes         *string `json:"notes" validate:"omitempty,max=5000"`
}

type UpdateClientDTO struct {
	Name          null.String `json:"name" validate:"omitempty,min=1,max=255"`
	Type          null.String `json:"type" validate:"omitempty,oneof=company individual"`
	Email         null.String `json:"email" validate:"omitempty,email,max=255"`
	Phone         null.String `json:"phone" validate:"omitempty,phone"`
	ContactPerson null.String `json:"contact_person" validate:"omitempty,max=255"`
	Notes         null.String `json:"notes" validate:"omitempty,max=5000"`

	Sent types.SentFields `json:"-"`
}

type ClientDTO struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	ContactPerson  *string `json:"contact_person"`
	Notes          *string `json:"notes"`
	BuildingsCount int     `json:"buildings_count"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}
