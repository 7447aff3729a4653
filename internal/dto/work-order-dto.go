package dto

import (
	"time"

	"facility-crm/pkg/types"

	"github.com/aarondl/null/v8"
)

type CreateWorkOrderDTO struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Description  *string    `json:"description" validate:"omitempty,max=10000"`
	BuildingID   uint64     `json:"building_id" validate:"required,gt=0"`
	AssetID      *uint64    `json:"asset_id" validate:"omitempty,gt=0"`
	IncidentID   *uint64    `json:"incident_id" validate:"omitempty,gt=0"`
	AssigneeID   *uint64    `json:"assignee_id" validate:"omitempty,gt=0"`
	DepartmentID *uint64    `json:"department_id" validate:"omitempty,gt=0"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// UpdateWorkOrderDTO: правка полей без смены статуса; исполнитель меняется только через transition.
type UpdateWorkOrderDTO struct {
	Title        null.String `json:"title" validate:"omitempty,min=1,max=255"`
	Description  null.String `json:"description" validate:"omitempty,max=10000"`
	AssetID      null.Uint64 `json:"asset_id" validate:"omitempty,gt=0"`
	DepartmentID null.Uint64 `json:"department_id" validate:"omitempty,gt=0"`
	Priority     null.String `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ScheduledFor null.Time   `json:"scheduled_for"`
	Comment      null.String `json:"comment" validate:"omitempty,max=2000"`

	Sent types.SentFields `json:"-"`
}

// TransitionWorkOrderDTO: смена статуса и/или исполнителя.
type TransitionWorkOrderDTO struct {
	Status       string  `json:"status" validate:"required,oneof=created assigned in_progress completed canceled"`
	AssigneeID   *uint64 `json:"assignee_id" validate:"omitempty,gt=0"`
	Comment      *string `json:"comment" validate:"omitempty,max=2000"`
	CancelReason *string `json:"cancel_reason" validate:"omitempty,max=2000"`
}

type WorkOrderDTO struct {
	ID           uint64            `json:"id"`
	Title        string            `json:"title"`
	Description  *string           `json:"description"`
	Building     *ShortBuildingDTO `json:"building"`
	AssetID      *uint64           `json:"asset_id"`
	IncidentID   *uint64           `json:"incident_id"`
	Creator      *ShortEmployeeDTO `json:"creator"`
	Assignee     *ShortEmployeeDTO `json:"assignee"`
	DepartmentID *uint64           `json:"department_id"`
	Status       string            `json:"status"`
	Priority     string            `json:"priority"`
	ScheduledFor string            `json:"scheduled_for,omitempty"`
	StartedAt    string            `json:"started_at,omitempty"`
	CompletedAt  string            `json:"completed_at,omitempty"`
	CanceledAt   string            `json:"canceled_at,omitempty"`
	CancelReason *string           `json:"cancel_reason,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}
