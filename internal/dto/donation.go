package dto

import (
	"time"

	"github.com/solidario/donation-api/internal/models"
)

// CreateDonationRequest defines the payload for registering a donation.
type CreateDonationRequest struct {
	DonorName      string     `json:"donor_name" validate:"required"`
	DonorContact   string     `json:"donor_contact"`
	CategoryID     string     `json:"category_id" validate:"required,uuid"`
	Description    string     `json:"description"`
	Quantity       float64    `json:"quantity" validate:"required,gt=0"`
	Unit           string     `json:"unit" validate:"required"`
	EstimatedValue float64    `json:"estimated_value" validate:"gte=0"`
	ReceivedDate   *time.Time `json:"received_date"`
	Status         string     `json:"status" validate:"omitempty,oneof=pending received"`
}

// UpdateDonationRequest defines the payload for updating a donation. Nil
// fields are left untouched.
type UpdateDonationRequest struct {
	DonorName      *string    `json:"donor_name"`
	DonorContact   *string    `json:"donor_contact"`
	CategoryID     *string    `json:"category_id" validate:"omitempty,uuid"`
	Description    *string    `json:"description"`
	Quantity       *float64   `json:"quantity" validate:"omitempty,gt=0"`
	Unit           *string    `json:"unit"`
	EstimatedValue *float64   `json:"estimated_value" validate:"omitempty,gte=0"`
	ReceivedDate   *time.Time `json:"received_date"`
	Status         *string    `json:"status" validate:"omitempty,oneof=pending received distributed expired"`
}

// DonationListResponse wraps a page of donations.
type DonationListResponse struct {
	Donations []models.Donation `json:"donations"`
	Total     int               `json:"total"`
}
