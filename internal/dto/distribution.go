package dto

import "time"

// CreateDistributionRequest defines the payload for registering a distribution.
type CreateDistributionRequest struct {
	DonationID       string     `json:"donation_id" validate:"required,uuid"`
	FamilyID         string     `json:"family_id" validate:"required,uuid"`
	Quantity         float64    `json:"quantity" validate:"required,gt=0"`
	DistributionDate *time.Time `json:"distribution_date"`
	Notes            string     `json:"notes"`
	DistributedBy    string     `json:"distributed_by"`
}

// UpdateDistributionRequest defines the payload for updating a distribution.
// Nil fields are left untouched.
type UpdateDistributionRequest struct {
	FamilyID         *string    `json:"family_id" validate:"omitempty,uuid"`
	Quantity         *float64   `json:"quantity" validate:"omitempty,gt=0"`
	DistributionDate *time.Time `json:"distribution_date"`
	Notes            *string    `json:"notes"`
	DistributedBy    *string    `json:"distributed_by"`
}
