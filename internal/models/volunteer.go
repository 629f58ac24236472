package models

import "time"

// Volunteer is a registered helper available for delivery events.
type Volunteer struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Contact   string     `db:"contact" json:"contact,omitempty"`
	CPF       string     `db:"cpf" json:"cpf,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Deleted   bool       `db:"deleted" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// VolunteerFilter captures filtering criteria for listing volunteers.
type VolunteerFilter struct {
	Search         string
	IncludeDeleted bool
	Page           int
	PageSize       int
}

// Event coordinates the delivery of a donation to a family by volunteers.
type Event struct {
	ID           string    `db:"id" json:"id"`
	DonationID   string    `db:"donation_id" json:"donation_id"`
	FamilyID     string    `db:"family_id" json:"family_id"`
	VolunteerIDs []string  `json:"volunteer_ids"`
	DeliveryDate time.Time `db:"delivery_date" json:"delivery_date"`
	Observations string    `db:"observations" json:"observations,omitempty"`
	Deleted      bool      `db:"deleted" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// EventFilter captures filtering criteria for listing events.
type EventFilter struct {
	DonationID     string
	FamilyID       string
	IncludeDeleted bool
	Page           int
	PageSize       int
}
