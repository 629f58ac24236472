package dto

import "time"

// CreateEventRequest defines the payload for recording a delivery event.
type CreateEventRequest struct {
	DonationID   string     `json:"donation_id" validate:"required,uuid"`
	FamilyID     string     `json:"family_id" validate:"required,uuid"`
	VolunteerIDs []string   `json:"volunteer_ids" validate:"dive,uuid"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Observations string     `json:"observations"`
}

// UpdateEventRequest defines the payload for updating a delivery event.
type UpdateEventRequest struct {
	DonationID   *string    `json:"donation_id" validate:"omitempty,uuid"`
	FamilyID     *string    `json:"family_id" validate:"omitempty,uuid"`
	VolunteerIDs []string   `json:"volunteer_ids" validate:"omitempty,dive,uuid"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Observations *string    `json:"observations"`
}
