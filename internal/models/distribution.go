package models

import "time"

// DistributionStatus represents the state of a distribution record.
// Cancelled distributions are excluded from every distributed-total
// calculation; they are logically reversed, never deleted.
type DistributionStatus string

const (
	DistributionStatusPending   DistributionStatus = "pending"
	DistributionStatusDelivered DistributionStatus = "delivered"
	DistributionStatusCancelled DistributionStatus = "cancelled"
)

// Valid reports whether the status is one of the supported values.
func (s DistributionStatus) Valid() bool {
	switch s {
	case DistributionStatusPending, DistributionStatusDelivered, DistributionStatusCancelled:
		return true
	}
	return false
}

// Distribution links a donation to a family with an allocated quantity.
type Distribution struct {
	ID               string             `db:"id" json:"id"`
	DonationID       string             `db:"donation_id" json:"donation_id"`
	FamilyID         string             `db:"family_id" json:"family_id"`
	Quantity         float64            `db:"quantity" json:"quantity"`
	DistributionDate time.Time          `db:"distribution_date" json:"distribution_date"`
	Notes            string             `db:"notes" json:"notes,omitempty"`
	DistributedBy    string             `db:"distributed_by" json:"distributed_by,omitempty"`
	Status           DistributionStatus `db:"status" json:"status"`
	Deleted          bool               `db:"deleted" json:"-"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// DistributionFilter captures filtering criteria for listing distributions.
type DistributionFilter struct {
	DonationID     string
	FamilyID       string
	Status         DistributionStatus
	IncludeDeleted bool
	Page           int
	PageSize       int
}
