package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityEntityWorkOrder = "work_order"
	ActivityEntityIncident  = "incident"
)

// Activity: запись ленты событий по заявке или инциденту.
type Activity struct {
	ID         uint64     `json:"id" db:"id"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   uint64     `json:"entity_id" db:"entity_id"`
	ActorID    uint64     `json:"actor_id" db:"actor_id"`
	EventType  string     `json:"event_type" db:"event_type"`
	OldValue   *string    `json:"old_value" db:"old_value"`
	NewValue   *string    `json:"new_value" db:"new_value"`
	Comment    *string    `json:"comment" db:"comment"`
	TxID       *uuid.UUID `json:"tx_id" db:"tx_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`

	ActorName *string `json:"actor_name,omitempty" db:"actor_name"`
}
