package dto

type CreateCommentDTO struct {
	Comment string `json:"comment" validate:"required,min=1,max=2000"`
}

// ActivityDTO: элемент ленты событий с готовым текстом для отображения.
type ActivityDTO struct {
	ID             uint64            `json:"id"`
	EventType      string            `json:"event_type"`
	Actor          *ShortEmployeeDTO `json:"actor"`
	OldValue       *string           `json:"old_value"`
	NewValue       *string           `json:"new_value"`
	Comment        *string           `json:"comment"`
	Text           string            `json:"text"`
	CreatedAt      string            `json:"created_at"`
	CreatedAtHuman string            `json:"created_at_human"`
}
