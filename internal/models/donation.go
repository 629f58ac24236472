package models

import "time"

// DonationStatus represents the lifecycle state of a donation. The status is
// derived from distribution totals except for "expired", which is set
// manually and never left automatically.
type DonationStatus string

const (
	DonationStatusPending     DonationStatus = "pending"
	DonationStatusReceived    DonationStatus = "received"
	DonationStatusDistributed DonationStatus = "distributed"
	DonationStatusExpired     DonationStatus = "expired"
)

// Valid reports whether the status is one of the supported values.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusPending, DonationStatusReceived, DonationStatusDistributed, DonationStatusExpired:
		return true
	}
	return false
}

// Donation models a single contribution of goods stored in the donations table.
type Donation struct {
	ID             string         `db:"id" json:"id"`
	DonorName      string         `db:"donor_name" json:"donor_name"`
	DonorContact   string         `db:"donor_contact" json:"donor_contact,omitempty"`
	CategoryID     string         `db:"category_id" json:"category_id"`
	Description    string         `db:"description" json:"description,omitempty"`
	Quantity       float64        `db:"quantity" json:"quantity"`
	Unit           string         `db:"unit" json:"unit"`
	EstimatedValue float64        `db:"estimated_value" json:"estimated_value"`
	ReceivedDate   time.Time      `db:"received_date" json:"received_date"`
	Status         DonationStatus `db:"status" json:"status"`
	Deleted        bool           `db:"deleted" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// DonationFilter captures filtering criteria for listing donations.
type DonationFilter struct {
	Status         DonationStatus
	CategoryID     string
	DonorSearch    string
	ReceivedFrom   *time.Time
	ReceivedTo     *time.Time
	IncludeDeleted bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// DonationStats reports derived stock figures for a single donation.
// FamiliesCount counts non-cancelled distribution records, not distinct
// families: two distributions to the same family count twice.
type DonationStats struct {
	DonationQuantity    float64                  `json:"donation_quantity"`
	QuantityDistributed float64                  `json:"quantity_distributed"`
	QuantityRemaining   float64                  `json:"quantity_remaining"`
	DistributionStats   []DistributionStatusStat `json:"distribution_stats"`
	FamiliesCount       int                      `json:"families_count"`
}

// DistributionStatusStat is a per-status breakdown of a donation's distributions.
type DistributionStatusStat struct {
	Status        DistributionStatus `db:"status" json:"status"`
	Count         int                `db:"count" json:"count"`
	TotalQuantity float64            `db:"total_quantity" json:"total_quantity"`
}
