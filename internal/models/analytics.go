package models

import "time"

// DateRange bounds an analytics query. Nil endpoints leave the side open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// AnalyticsFilter is the common filter accepted by analytics reports.
type AnalyticsFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Period     Period
	CategoryID string
}

// DonationTotals aggregates donation counts and values for a date window.
type DonationTotals struct {
	TotalDonations int     `db:"total_donations"`
	TotalValue     float64 `db:"total_value"`
	TotalQuantity  float64 `db:"total_quantity"`
	AvgValue       float64 `db:"avg_value"`
	TotalDonors    int     `db:"total_donors"`
}

// DistributionTotals aggregates non-cancelled distribution quantities. The
// distributed value is prorated from the parent donation's estimated value.
type DistributionTotals struct {
	TotalDistributed      float64 `db:"total_distributed"`
	TotalDistributedValue float64 `db:"total_distributed_value"`
}

// FamilyImpact summarises how distributions reach families.
type FamilyImpact struct {
	TotalFamiliesBenefited int     `db:"total_families_benefited"`
	AveragePerFamily       float64 `db:"average_per_family"`
}

// StatusBreakdownRow groups donations by lifecycle status.
type StatusBreakdownRow struct {
	Status        DonationStatus `db:"status" json:"status"`
	Count         int            `db:"count" json:"count"`
	TotalValue    float64        `db:"total_value" json:"total_value"`
	TotalQuantity float64        `db:"total_quantity" json:"total_quantity"`
}

// CategoryBreakdownRow groups donations by category.
type CategoryBreakdownRow struct {
	CategoryID    string  `db:"category_id" json:"category_id"`
	CategoryName  string  `db:"category_name" json:"category_name"`
	CategoryIcon  string  `db:"category_icon" json:"category_icon,omitempty"`
	CategoryColor string  `db:"category_color" json:"category_color,omitempty"`
	Count         int     `db:"count" json:"count"`
	TotalValue    float64 `db:"total_value" json:"total_value"`
	TotalQuantity float64 `db:"total_quantity" json:"total_quantity"`
}

// TrendBucketKey identifies a calendar bucket. Unused components are zero.
type TrendBucketKey struct {
	Year    int `db:"year" json:"year"`
	Month   int `db:"month" json:"month,omitempty"`
	Day     int `db:"day" json:"day,omitempty"`
	Week    int `db:"week" json:"week,omitempty"`
	Quarter int `db:"quarter" json:"quarter,omitempty"`
}

// DonationTrendRow is one time bucket of donation activity.
type DonationTrendRow struct {
	TrendBucketKey
	TotalDonations int     `db:"total_donations" json:"total_donations"`
	TotalValue     float64 `db:"total_value" json:"total_value"`
	TotalQuantity  float64 `db:"total_quantity" json:"total_quantity"`
	AvgValue       float64 `db:"avg_value" json:"avg_value"`
	AvgQuantity    float64 `db:"avg_quantity" json:"avg_quantity"`
	UniqueDonors   int     `db:"unique_donors" json:"unique_donors"`
}

// DistributionTrendRow is one time bucket of distribution activity.
// FamiliesCount here is a distinct-family count, unlike DonationStats.
type DistributionTrendRow struct {
	TrendBucketKey
	TotalDistributions       int     `db:"total_distributions" json:"total_distributions"`
	TotalQuantityDistributed float64 `db:"total_quantity_distributed" json:"total_quantity_distributed"`
	FamiliesCount            int     `db:"families_count" json:"families_count"`
}

// CategoryPerformanceRow aggregates donation and distribution figures per category.
type CategoryPerformanceRow struct {
	CategoryID          string  `db:"category_id" json:"category_id"`
	CategoryName        string  `db:"category_name" json:"category_name"`
	CategoryIcon        string  `db:"category_icon" json:"category_icon,omitempty"`
	CategoryColor       string  `db:"category_color" json:"category_color,omitempty"`
	DefaultUnit         string  `db:"default_unit" json:"default_unit"`
	TotalDonations      int     `db:"total_donations" json:"total_donations"`
	TotalValue          float64 `db:"total_value" json:"total_value"`
	TotalQuantity       float64 `db:"total_quantity" json:"total_quantity"`
	AvgDonationValue    float64 `db:"avg_donation_value" json:"avg_donation_value"`
	AvgDonationQuantity float64 `db:"avg_donation_quantity" json:"avg_donation_quantity"`
	MinDonationValue    float64 `db:"min_donation_value" json:"min_donation_value"`
	MaxDonationValue    float64 `db:"max_donation_value" json:"max_donation_value"`
	MinDonationQuantity float64 `db:"min_donation_quantity" json:"min_donation_quantity"`
	MaxDonationQuantity float64 `db:"max_donation_quantity" json:"max_donation_quantity"`
	TotalDistributed    float64 `db:"total_distributed" json:"total_distributed"`
	FamiliesBenefited   int     `db:"families_benefited" json:"families_benefited"`
}

// DonorRow aggregates a single donor's activity inside the filtered period.
type DonorRow struct {
	DonorName       string    `db:"donor_name" json:"donor_name"`
	DonorContact    string    `db:"donor_contact" json:"donor_contact,omitempty"`
	TotalDonations  int       `db:"total_donations" json:"total_donations"`
	TotalValue      float64   `db:"total_value" json:"total_value"`
	TotalQuantity   float64   `db:"total_quantity" json:"total_quantity"`
	AvgValue        float64   `db:"avg_value" json:"avg_value"`
	AvgQuantity     float64   `db:"avg_quantity" json:"avg_quantity"`
	CategoriesCount int       `db:"categories_count" json:"categories_count"`
	FirstDonation   time.Time `db:"first_donation" json:"first_donation"`
	LastDonation    time.Time `db:"last_donation" json:"last_donation"`
}

// DonorRetention counts donors with more than one donation in the period.
type DonorRetention struct {
	TotalDonors  int `db:"total_donors"`
	ReturnDonors int `db:"return_donors"`
}

// DistributionTiming aggregates day deltas between receipt and distribution.
type DistributionTiming struct {
	AvgDays            float64 `db:"avg_days"`
	MinDays            float64 `db:"min_days"`
	MaxDays            float64 `db:"max_days"`
	TotalDistributions int     `db:"total_distributions"`
}

// CategoryEfficiencyRow reports per-category distribution progress.
type CategoryEfficiencyRow struct {
	CategoryID       string  `db:"category_id" json:"category_id"`
	CategoryName     string  `db:"category_name" json:"category_name"`
	TotalQuantity    float64 `db:"total_quantity" json:"total_quantity"`
	TotalDistributed float64 `db:"total_distributed" json:"total_distributed"`
	TotalDonations   int     `db:"total_donations" json:"total_donations"`
	AvgDays          float64 `db:"avg_days" json:"avg_processing_days"`
}

// LowStockRow is a donation whose remaining quantity fell below the threshold.
type LowStockRow struct {
	DonationID   string    `db:"donation_id" json:"donation_id"`
	DonorName    string    `db:"donor_name" json:"donor_name"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Unit         string    `db:"unit" json:"unit"`
	InStock      float64   `db:"in_stock" json:"in_stock"`
	CategoryName string    `db:"category_name" json:"category_name"`
	ReceivedDate time.Time `db:"received_date" json:"received_date"`
}

// DonationSummary is the projection used for recent/top donation lists.
type DonationSummary struct {
	ID             string         `db:"id" json:"id"`
	DonorName      string         `db:"donor_name" json:"donor_name"`
	Quantity       float64        `db:"quantity" json:"quantity"`
	Unit           string         `db:"unit" json:"unit"`
	EstimatedValue float64        `db:"estimated_value" json:"estimated_value"`
	ReceivedDate   time.Time      `db:"received_date" json:"received_date"`
	Status         DonationStatus `db:"status" json:"status"`
	CategoryName   string         `db:"category_name" json:"category_name"`
}
