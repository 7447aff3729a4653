package events

import "facility-crm/internal/dto"

const ActivityCreated = "activity.created"

// ActivityCreatedEvent публикуется после коммита транзакции, записавшей событие в ленту.
// Recipients уже без автора действия.
type ActivityCreatedEvent struct {
	EntityType string
	EntityID   uint64
	TxID       string
	Activity   dto.ActivityDTO
	Recipients []uint64
}

func (e ActivityCreatedEvent) Name() string {
	return ActivityCreated
}
