package entities

import "facility-crm/pkg/types"

const (
	ClientTypeCompany    = "company"
	ClientTypeIndividual = "individual"
)

type Client struct {
	ID            uint64  `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Type          string  `json:"type" db:"type"`
	Email         *string `json:"email" db:"email"`
	Phone         *string `json:"phone" db:"phone"`
	ContactPerson *string `json:"contact_person" db:"contact_person"`
	Notes         *string `json:"notes" db:"notes"`

	BuildingsCount int `json:"buildings_count" db:"buildings_count"`

	types.BaseEntity
}
