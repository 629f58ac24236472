package dto

import (
	"time"

	"github.com/solidario/donation-api/internal/models"
)

// OverviewStats carries the headline KPI block of the dashboard.
type OverviewStats struct {
	TotalDonations       int     `json:"total_donations"`
	TotalValue           float64 `json:"total_value"`
	TotalQuantity        float64 `json:"total_quantity"`
	AverageDonationValue float64 `json:"average_donation_value"`

	TotalDistributed      float64 `json:"total_distributed"`
	TotalDistributedValue float64 `json:"total_distributed_value"`
	InStock               float64 `json:"in_stock"`
	StockValue            float64 `json:"stock_value"`

	TotalFamiliesBenefited int     `json:"total_families_benefited"`
	AveragePerFamily       float64 `json:"average_per_family"`

	DistributionPercentage int `json:"distribution_percentage"`
	StockPercentage        int `json:"stock_percentage"`

	TotalDonors    int `json:"total_donors"`
	DonationsGrowth int `json:"donations_growth"`
	ValueGrowth     int `json:"value_growth"`
	DonorsGrowth    int `json:"donors_growth"`
}

// RecentSection lists the latest and largest donations.
type RecentSection struct {
	Donations    []models.DonationSummary `json:"donations"`
	TopDonations []models.DonationSummary `json:"top_donations"`
}

// BreakdownSection splits donations by status and category.
type BreakdownSection struct {
	ByStatus   []models.StatusBreakdownRow   `json:"by_status"`
	ByCategory []models.CategoryBreakdownRow `json:"by_category"`
}

// OverviewResponse is the dashboard overview payload.
type OverviewResponse struct {
	Overview    OverviewStats    `json:"overview"`
	Recent      RecentSection    `json:"recent"`
	Breakdown   BreakdownSection `json:"breakdown"`
	Period      models.Period    `json:"period"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// TrendResponse reports time-bucketed donation and distribution activity.
type TrendResponse struct {
	Donations     []models.DonationTrendRow     `json:"donations"`
	Distributions []models.DistributionTrendRow `json:"distributions"`
	Period        models.TrendGroupBy           `json:"period"`
	GeneratedAt   time.Time                     `json:"generated_at"`
}

// CategoryPerformance extends the raw aggregation row with derived rates.
type CategoryPerformance struct {
	models.CategoryPerformanceRow
	InStock          float64 `json:"in_stock"`
	DistributionRate float64 `json:"distribution_rate"`
	Efficiency       float64 `json:"efficiency"`
}

// CategoryPerformanceSummary highlights the standout categories.
type CategoryPerformanceSummary struct {
	TotalCategories              int    `json:"total_categories"`
	TotalCategoriesWithDonations int    `json:"total_categories_with_donations"`
	MostValuableCategory         string `json:"most_valuable_category"`
	MostEfficientCategory        string `json:"most_efficient_category"`
}

// CategoryPerformanceResponse is the per-category analytics payload.
type CategoryPerformanceResponse struct {
	Categories  []CategoryPerformance      `json:"categories"`
	Summary     CategoryPerformanceSummary `json:"summary"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// DonorType buckets donors by donation frequency within the period.
type DonorType string

const (
	DonorTypeFrequent   DonorType = "frequent"
	DonorTypeRegular    DonorType = "regular"
	DonorTypeOccasional DonorType = "occasional"
)

// DonorProfile extends the raw donor row with classification fields.
type DonorProfile struct {
	models.DonorRow
	DonorType      DonorType `json:"donor_type"`
	DaysSinceFirst float64   `json:"days_since_first"`
}

// DonorSegmentation counts donors per classification bucket.
type DonorSegmentation struct {
	Frequent   int `json:"frequent"`
	Regular    int `json:"regular"`
	Occasional int `json:"occasional"`
}

// DonorSummary aggregates across all distinct donors of the period.
type DonorSummary struct {
	TotalUniqueDonors    int               `json:"total_unique_donors"`
	AvgDonationsPerDonor int               `json:"avg_donations_per_donor"`
	AvgValuePerDonor     float64           `json:"avg_value_per_donor"`
	TopDonor             *DonorProfile     `json:"top_donor"`
	Segmentation         DonorSegmentation `json:"segmentation"`
}

// DonorRetention reports the fraction of donors who donated more than once.
type DonorRetention struct {
	TotalDonors   int `json:"total_donors"`
	ReturnDonors  int `json:"return_donors"`
	RetentionRate int `json:"retention_rate"`
}

// DonorAnalyticsResponse is the donor segmentation payload.
type DonorAnalyticsResponse struct {
	Donors      []DonorProfile `json:"donors"`
	Summary     DonorSummary   `json:"summary"`
	Retention   DonorRetention `json:"retention"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// TimingMetrics reports how quickly donations reach families, in days.
type TimingMetrics struct {
	AverageDaysToDistribution  int `json:"average_days_to_distribution"`
	FastestDistribution        int `json:"fastest_distribution"`
	SlowestDistribution        int `json:"slowest_distribution"`
	TotalDistributionsAnalyzed int `json:"total_distributions_analyzed"`
}

// StatusEfficiency reports per-status counts and totals.
type StatusEfficiency struct {
	Status        models.DonationStatus `json:"status"`
	Count         int                   `json:"count"`
	Percentage    int                   `json:"percentage"`
	TotalValue    float64               `json:"total_value"`
	TotalQuantity float64               `json:"total_quantity"`
}

// CategoryEfficiency extends the raw efficiency row with derived rates.
type CategoryEfficiency struct {
	models.CategoryEfficiencyRow
	DistributionRate float64 `json:"distribution_rate"`
	InStock          float64 `json:"in_stock"`
}

// EfficiencyAlerts groups operational warnings.
type EfficiencyAlerts struct {
	LowStock             []models.LowStockRow `json:"low_stock"`
	PendingDistributions int                  `json:"pending_distributions"`
}

// EfficiencyResponse is the operational KPI payload.
type EfficiencyResponse struct {
	Timing      TimingMetrics        `json:"timing"`
	Status      []StatusEfficiency   `json:"status"`
	Categories  []CategoryEfficiency `json:"categories"`
	Alerts      EfficiencyAlerts     `json:"alerts"`
	GeneratedAt time.Time            `json:"generated_at"`
}
