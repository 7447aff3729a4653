package dto

import (
	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateRoleDTO struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   *string  `json:"description" validate:"omitempty,max=500"`
	PermissionIDs []uint64 `json:"permission_ids" validate:"omitempty,dive,gt=0"`
}

type UpdateRoleDTO struct {
	Name        null.String `json:"name" validate:"omitempty,min=1,max=100"`
	Description null.String `json:"description" validate:"omitempty,max=500"`

	Sent types.SentFields `json:"-"`
}

type RoleDTO struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Permissions []PermissionDTO `json:"permissions,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}
