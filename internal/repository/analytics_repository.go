package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/solidario/donation-api/internal/models"
)

// AnalyticsRepository exposes read-optimised aggregation queries for the
// analytics endpoints. Each report maps to a fixed-shape query function.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func appendTimeRange(builder *strings.Builder, args *[]interface{}, column string, rng models.DateRange) {
	if rng.From != nil {
		*args = append(*args, *rng.From)
		fmt.Fprintf(builder, " AND %s >= $%d", column, len(*args))
	}
	if rng.To != nil {
		*args = append(*args, *rng.To)
		fmt.Fprintf(builder, " AND %s <= $%d", column, len(*args))
	}
}

func appendEquals(builder *strings.Builder, args *[]interface{}, column, value string) {
	if value == "" {
		return
	}
	*args = append(*args, value)
	fmt.Fprintf(builder, " AND %s = $%d", column, len(*args))
}

// DonationTotals aggregates donation counts, quantities and values over the window.
func (r *AnalyticsRepository) DonationTotals(ctx context.Context, rng models.DateRange, categoryID string) (*models.DonationTotals, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COUNT(*) AS total_donations,
        COALESCE(SUM(estimated_value), 0) AS total_value,
        COALESCE(SUM(quantity), 0) AS total_quantity,
        COALESCE(AVG(estimated_value), 0) AS avg_value,
        COUNT(DISTINCT donor_name) AS total_donors
        FROM donations WHERE deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "received_date", rng)
	appendEquals(&builder, &args, "category_id", categoryID)

	var totals models.DonationTotals
	if err := r.db.GetContext(ctx, &totals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query donation totals: %w", err)
	}
	return &totals, nil
}

// DistributionTotals aggregates distributed quantities over the window. The
// distributed value is prorated from each donation's estimated value.
func (r *AnalyticsRepository) DistributionTotals(ctx context.Context, rng models.DateRange, categoryID string) (*models.DistributionTotals, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COALESCE(SUM(dist.quantity), 0) AS total_distributed,
        COALESCE(SUM(dist.quantity * (d.estimated_value / NULLIF(d.quantity, 0))), 0) AS total_distributed_value
        FROM donation_distributions dist
        JOIN donations d ON d.id = dist.donation_id
        WHERE dist.deleted = FALSE AND dist.status <> 'cancelled' AND d.deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "dist.distribution_date", rng)
	appendEquals(&builder, &args, "d.category_id", categoryID)

	var totals models.DistributionTotals
	if err := r.db.GetContext(ctx, &totals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query distribution totals: %w", err)
	}
	return &totals, nil
}

// FamilyImpact counts distinct families reached and the average quantity per family.
func (r *AnalyticsRepository) FamilyImpact(ctx context.Context, rng models.DateRange, categoryID string) (*models.FamilyImpact, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COUNT(DISTINCT dist.family_id) AS total_families_benefited,
        CASE WHEN COUNT(DISTINCT dist.family_id) = 0 THEN 0
             ELSE COALESCE(SUM(dist.quantity), 0) / COUNT(DISTINCT dist.family_id) END AS average_per_family
        FROM donation_distributions dist
        JOIN donations d ON d.id = dist.donation_id
        WHERE dist.deleted = FALSE AND dist.status <> 'cancelled' AND d.deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "dist.distribution_date", rng)
	appendEquals(&builder, &args, "d.category_id", categoryID)

	var impact models.FamilyImpact
	if err := r.db.GetContext(ctx, &impact, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query family impact: %w", err)
	}
	return &impact, nil
}

const donationSummaryColumns = `d.id, d.donor_name, d.quantity, d.unit, d.estimated_value,
        d.received_date, d.status, c.name AS category_name`

// RecentDonations lists the newest donations in the window.
func (r *AnalyticsRepository) RecentDonations(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonationSummary, error) {
	return r.donationSummaries(ctx, rng, categoryID, "d.received_date DESC", limit)
}

// TopDonations lists the highest-value donations in the window.
func (r *AnalyticsRepository) TopDonations(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonationSummary, error) {
	return r.donationSummaries(ctx, rng, categoryID, "d.estimated_value DESC", limit)
}

func (r *AnalyticsRepository) donationSummaries(ctx context.Context, rng models.DateRange, categoryID, order string, limit int) ([]models.DonationSummary, error) {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(`SELECT %s
        FROM donations d
        JOIN donation_categories c ON c.id = d.category_id
        WHERE d.deleted = FALSE`, donationSummaryColumns))
	var args []interface{}
	appendTimeRange(&builder, &args, "d.received_date", rng)
	appendEquals(&builder, &args, "d.category_id", categoryID)
	args = append(args, limit)
	fmt.Fprintf(&builder, " ORDER BY %s LIMIT $%d", order, len(args))

	var rows []models.DonationSummary
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query donation summaries: %w", err)
	}
	return rows, nil
}

// StatusBreakdown groups donations in the window by lifecycle status.
func (r *AnalyticsRepository) StatusBreakdown(ctx context.Context, rng models.DateRange, categoryID string) ([]models.StatusBreakdownRow, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT status, COUNT(*) AS count,
        COALESCE(SUM(estimated_value), 0) AS total_value,
        COALESCE(SUM(quantity), 0) AS total_quantity
        FROM donations WHERE deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "received_date", rng)
	appendEquals(&builder, &args, "category_id", categoryID)
	builder.WriteString(" GROUP BY status ORDER BY count DESC")

	var rows []models.StatusBreakdownRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query status breakdown: %w", err)
	}
	return rows, nil
}

// CategoryBreakdown groups donations in the window by category.
func (r *AnalyticsRepository) CategoryBreakdown(ctx context.Context, rng models.DateRange) ([]models.CategoryBreakdownRow, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT c.id AS category_id, c.name AS category_name,
        c.icon AS category_icon, c.color AS category_color,
        COUNT(*) AS count,
        COALESCE(SUM(d.estimated_value), 0) AS total_value,
        COALESCE(SUM(d.quantity), 0) AS total_quantity
        FROM donations d
        JOIN donation_categories c ON c.id = d.category_id
        WHERE d.deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "d.received_date", rng)
	builder.WriteString(" GROUP BY c.id, c.name, c.icon, c.color ORDER BY total_value DESC")

	var rows []models.CategoryBreakdownRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query category breakdown: %w", err)
	}
	return rows, nil
}

// trendBucket returns the select and group expressions for a calendar bucket
// over the given date column. Quarters follow ceil(month/3).
func trendBucket(column string, groupBy models.TrendGroupBy) (selectCols, groupCols string) {
	year := fmt.Sprintf("EXTRACT(YEAR FROM %s)::INT AS year", column)
	month := fmt.Sprintf("EXTRACT(MONTH FROM %s)::INT AS month", column)
	switch groupBy {
	case models.GroupByDay:
		day := fmt.Sprintf("EXTRACT(DAY FROM %s)::INT AS day", column)
		return year + ", " + month + ", " + day, "1, 2, 3"
	case models.GroupByWeek:
		week := fmt.Sprintf("EXTRACT(WEEK FROM %s)::INT AS week", column)
		return year + ", " + week, "1, 2"
	case models.GroupByQuarter:
		quarter := fmt.Sprintf("CEIL(EXTRACT(MONTH FROM %s) / 3.0)::INT AS quarter", column)
		return year + ", " + quarter, "1, 2"
	case models.GroupByYear:
		return year, "1"
	default:
		return year + ", " + month, "1, 2"
	}
}

// DonationTrends buckets donation activity by the requested calendar unit.
func (r *AnalyticsRepository) DonationTrends(ctx context.Context, rng models.DateRange, categoryID string, groupBy models.TrendGroupBy) ([]models.DonationTrendRow, error) {
	selectCols, groupCols := trendBucket("received_date", groupBy)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(`SELECT %s,
        COUNT(*) AS total_donations,
        COALESCE(SUM(estimated_value), 0) AS total_value,
        COALESCE(SUM(quantity), 0) AS total_quantity,
        COALESCE(AVG(estimated_value), 0) AS avg_value,
        COALESCE(AVG(quantity), 0) AS avg_quantity,
        COUNT(DISTINCT donor_name) AS unique_donors
        FROM donations WHERE deleted = FALSE`, selectCols))
	var args []interface{}
	appendTimeRange(&builder, &args, "received_date", rng)
	appendEquals(&builder, &args, "category_id", categoryID)
	fmt.Fprintf(&builder, " GROUP BY %s ORDER BY %s", groupCols, groupCols)

	var rows []models.DonationTrendRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query donation trends: %w", err)
	}
	return rows, nil
}

// DistributionTrends buckets distribution activity by the requested calendar unit.
func (r *AnalyticsRepository) DistributionTrends(ctx context.Context, rng models.DateRange, categoryID string, groupBy models.TrendGroupBy) ([]models.DistributionTrendRow, error) {
	selectCols, groupCols := trendBucket("dist.distribution_date", groupBy)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(`SELECT %s,
        COUNT(*) AS total_distributions,
        COALESCE(SUM(dist.quantity), 0) AS total_quantity_distributed,
        COUNT(DISTINCT dist.family_id) AS families_count
        FROM donation_distributions dist
        JOIN donations d ON d.id = dist.donation_id
        WHERE dist.deleted = FALSE AND dist.status <> 'cancelled' AND d.deleted = FALSE`, selectCols))
	var args []interface{}
	appendTimeRange(&builder, &args, "dist.distribution_date", rng)
	appendEquals(&builder, &args, "d.category_id", categoryID)
	fmt.Fprintf(&builder, " GROUP BY %s ORDER BY %s", groupCols, groupCols)

	var rows []models.DistributionTrendRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query distribution trends: %w", err)
	}
	return rows, nil
}

// CategoryPerformance aggregates donation and distribution figures per active
// category. Categories without donations in the window still appear with zeros.
func (r *AnalyticsRepository) CategoryPerformance(ctx context.Context, rng models.DateRange) ([]models.CategoryPerformanceRow, error) {
	var builder strings.Builder
	var args []interface{}

	builder.WriteString(`SELECT c.id AS category_id, c.name AS category_name,
        c.icon AS category_icon, c.color AS category_color, c.default_unit,
        COUNT(d.id) AS total_donations,
        COALESCE(SUM(d.estimated_value), 0) AS total_value,
        COALESCE(SUM(d.quantity), 0) AS total_quantity,
        COALESCE(AVG(d.estimated_value), 0) AS avg_donation_value,
        COALESCE(AVG(d.quantity), 0) AS avg_donation_quantity,
        COALESCE(MIN(d.estimated_value), 0) AS min_donation_value,
        COALESCE(MAX(d.estimated_value), 0) AS max_donation_value,
        COALESCE(MIN(d.quantity), 0) AS min_donation_quantity,
        COALESCE(MAX(d.quantity), 0) AS max_donation_quantity,
        COALESCE(MAX(ds.total_distributed), 0) AS total_distributed,
        COALESCE(MAX(ds.families_benefited), 0) AS families_benefited
        FROM donation_categories c
        LEFT JOIN donations d ON d.category_id = c.id AND d.deleted = FALSE`)
	appendTimeRange(&builder, &args, "d.received_date", rng)

	builder.WriteString(`
        LEFT JOIN (
            SELECT dn.category_id,
                SUM(dist.quantity) AS total_distributed,
                COUNT(DISTINCT dist.family_id) AS families_benefited
            FROM donation_distributions dist
            JOIN donations dn ON dn.id = dist.donation_id
            WHERE dist.deleted = FALSE AND dist.status <> 'cancelled' AND dn.deleted = FALSE`)
	appendTimeRange(&builder, &args, "dist.distribution_date", rng)
	builder.WriteString(`
            GROUP BY dn.category_id
        ) ds ON ds.category_id = c.id
        WHERE c.deleted = FALSE
        GROUP BY c.id, c.name, c.icon, c.color, c.default_unit
        ORDER BY total_value DESC`)

	var rows []models.CategoryPerformanceRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query category performance: %w", err)
	}
	return rows, nil
}

// DonorRollup aggregates donations per donor name, highest value first.
func (r *AnalyticsRepository) DonorRollup(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonorRow, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT donor_name,
        COALESCE(MAX(donor_contact), '') AS donor_contact,
        COUNT(*) AS total_donations,
        COALESCE(SUM(estimated_value), 0) AS total_value,
        COALESCE(SUM(quantity), 0) AS total_quantity,
        COALESCE(AVG(estimated_value), 0) AS avg_value,
        COALESCE(AVG(quantity), 0) AS avg_quantity,
        COUNT(DISTINCT category_id) AS categories_count,
        MIN(received_date) AS first_donation,
        MAX(received_date) AS last_donation
        FROM donations WHERE deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "received_date", rng)
	appendEquals(&builder, &args, "category_id", categoryID)
	args = append(args, limit)
	fmt.Fprintf(&builder, " GROUP BY donor_name ORDER BY total_value DESC LIMIT $%d", len(args))

	var rows []models.DonorRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query donor rollup: %w", err)
	}
	return rows, nil
}

// DonorRetention counts donors and how many of them donated more than once.
func (r *AnalyticsRepository) DonorRetention(ctx context.Context, rng models.DateRange, categoryID string) (*models.DonorRetention, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COUNT(*) AS total_donors,
        COUNT(*) FILTER (WHERE donation_count > 1) AS return_donors
        FROM (
            SELECT donor_name, COUNT(*) AS donation_count
            FROM donations WHERE deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "received_date", rng)
	appendEquals(&builder, &args, "category_id", categoryID)
	builder.WriteString(" GROUP BY donor_name) donors")

	var retention models.DonorRetention
	if err := r.db.GetContext(ctx, &retention, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query donor retention: %w", err)
	}
	return &retention, nil
}

// DistributionTiming aggregates the day delta between a donation's receipt and
// its distributions.
func (r *AnalyticsRepository) DistributionTiming(ctx context.Context, rng models.DateRange, categoryID string) (*models.DistributionTiming, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT
        COALESCE(AVG(EXTRACT(EPOCH FROM (dist.distribution_date - d.received_date)) / 86400), 0) AS avg_days,
        COALESCE(MIN(EXTRACT(EPOCH FROM (dist.distribution_date - d.received_date)) / 86400), 0) AS min_days,
        COALESCE(MAX(EXTRACT(EPOCH FROM (dist.distribution_date - d.received_date)) / 86400), 0) AS max_days,
        COUNT(*) AS total_distributions
        FROM donation_distributions dist
        JOIN donations d ON d.id = dist.donation_id
        WHERE dist.deleted = FALSE AND dist.status <> 'cancelled' AND d.deleted = FALSE`)
	var args []interface{}
	appendTimeRange(&builder, &args, "dist.distribution_date", rng)
	appendEquals(&builder, &args, "d.category_id", categoryID)

	var timing models.DistributionTiming
	if err := r.db.GetContext(ctx, &timing, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query distribution timing: %w", err)
	}
	return &timing, nil
}

// CategoryEfficiency reports per-category distribution progress and processing time.
func (r *AnalyticsRepository) CategoryEfficiency(ctx context.Context, rng models.DateRange) ([]models.CategoryEfficiencyRow, error) {
	var builder strings.Builder
	var args []interface{}

	builder.WriteString(`SELECT c.id AS category_id, c.name AS category_name,
        COALESCE(SUM(d.quantity), 0) AS total_quantity,
        COALESCE(MAX(ds.total_distributed), 0) AS total_distributed,
        COUNT(d.id) AS total_donations,
        COALESCE(MAX(ds.avg_days), 0) AS avg_days
        FROM donation_categories c
        LEFT JOIN donations d ON d.category_id = c.id AND d.deleted = FALSE`)
	appendTimeRange(&builder, &args, "d.received_date", rng)

	builder.WriteString(`
        LEFT JOIN (
            SELECT dn.category_id,
                SUM(dist.quantity) AS total_distributed,
                AVG(EXTRACT(EPOCH FROM (dist.distribution_date - dn.received_date)) / 86400) AS avg_days
            FROM donation_distributions dist
            JOIN donations dn ON dn.id = dist.donation_id
            WHERE dist.deleted = FALSE AND dist.status <> 'cancelled' AND dn.deleted = FALSE`)
	appendTimeRange(&builder, &args, "dist.distribution_date", rng)
	builder.WriteString(`
            GROUP BY dn.category_id
        ) ds ON ds.category_id = c.id
        WHERE c.deleted = FALSE
        GROUP BY c.id, c.name
        ORDER BY total_distributed DESC`)

	var rows []models.CategoryEfficiencyRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query category efficiency: %w", err)
	}
	return rows, nil
}

// LowStock lists pending or received donations whose remaining quantity is
// above zero but at or below the threshold, scarcest first.
func (r *AnalyticsRepository) LowStock(ctx context.Context, threshold float64, limit int) ([]models.LowStockRow, error) {
	const query = `SELECT d.id AS donation_id, d.donor_name, d.quantity, d.unit,
        d.quantity - COALESCE(ds.distributed, 0) AS in_stock,
        c.name AS category_name, d.received_date
        FROM donations d
        JOIN donation_categories c ON c.id = d.category_id
        LEFT JOIN (
            SELECT donation_id, SUM(quantity) AS distributed
            FROM donation_distributions
            WHERE deleted = FALSE AND status <> 'cancelled'
            GROUP BY donation_id
        ) ds ON ds.donation_id = d.id
        WHERE d.deleted = FALSE AND d.status IN ('pending', 'received')
          AND d.quantity - COALESCE(ds.distributed, 0) > 0
          AND d.quantity - COALESCE(ds.distributed, 0) <= $1
        ORDER BY in_stock ASC LIMIT $2`

	var rows []models.LowStockRow
	if err := r.db.SelectContext(ctx, &rows, query, threshold, limit); err != nil {
		return nil, fmt.Errorf("query low stock: %w", err)
	}
	return rows, nil
}

// PendingDistributionsCount counts active distributions still awaiting delivery.
func (r *AnalyticsRepository) PendingDistributionsCount(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM donation_distributions WHERE deleted = FALSE AND status = 'pending'`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("query pending distributions count: %w", err)
	}
	return count, nil
}
