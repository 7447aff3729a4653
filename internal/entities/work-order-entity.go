package entities

import (
	"time"

	"facility-crm/pkg/types"
)

type WorkOrder struct {
	ID           uint64  `json:"id" db:"id"`
	Title        string  `json:"title" db:"title"`
	Description  *string `json:"description" db:"description"`
	BuildingID   uint64  `json:"building_id" db:"building_id"`
	AssetID      *uint64 `json:"asset_id" db:"asset_id"`
	IncidentID   *uint64 `json:"incident_id" db:"incident_id"`
	CreatorID    uint64  `json:"creator_id" db:"creator_id"`
	AssigneeID   *uint64 `json:"assignee_id" db:"assignee_id"`
	DepartmentID *uint64 `json:"department_id" db:"department_id"`
	Status       string  `json:"status" db:"status"`
	Priority     string  `json:"priority" db:"priority"`

	ScheduledFor *time.Time `json:"scheduled_for" db:"scheduled_for"`
	StartedAt    *time.Time `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	CanceledAt   *time.Time `json:"canceled_at" db:"canceled_at"`
	CancelReason *string    `json:"cancel_reason" db:"cancel_reason"`

	BuildingName *string `json:"building_name,omitempty" db:"building_name"`
	AssigneeName *string `json:"assignee_name,omitempty" db:"assignee_name"`
	CreatorName  *string `json:"creator_name,omitempty" db:"creator_name"`

	types.BaseEntity
	types.SoftDelete
}
