package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/pkg/config"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type analyticsStore interface {
	DonationTotals(ctx context.Context, rng models.DateRange, categoryID string) (*models.DonationTotals, error)
	DistributionTotals(ctx context.Context, rng models.DateRange, categoryID string) (*models.DistributionTotals, error)
	FamilyImpact(ctx context.Context, rng models.DateRange, categoryID string) (*models.FamilyImpact, error)
	RecentDonations(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonationSummary, error)
	TopDonations(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonationSummary, error)
	StatusBreakdown(ctx context.Context, rng models.DateRange, categoryID string) ([]models.StatusBreakdownRow, error)
	CategoryBreakdown(ctx context.Context, rng models.DateRange) ([]models.CategoryBreakdownRow, error)
	DonationTrends(ctx context.Context, rng models.DateRange, categoryID string, groupBy models.TrendGroupBy) ([]models.DonationTrendRow, error)
	DistributionTrends(ctx context.Context, rng models.DateRange, categoryID string, groupBy models.TrendGroupBy) ([]models.DistributionTrendRow, error)
	CategoryPerformance(ctx context.Context, rng models.DateRange) ([]models.CategoryPerformanceRow, error)
	DonorRollup(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonorRow, error)
	DonorRetention(ctx context.Context, rng models.DateRange, categoryID string) (*models.DonorRetention, error)
	DistributionTiming(ctx context.Context, rng models.DateRange, categoryID string) (*models.DistributionTiming, error)
	CategoryEfficiency(ctx context.Context, rng models.DateRange) ([]models.CategoryEfficiencyRow, error)
	LowStock(ctx context.Context, threshold float64, limit int) ([]models.LowStockRow, error)
	PendingDistributionsCount(ctx context.Context) (int, error)
}

type analyticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AnalyticsService builds the read-only dashboard reports. Every report is a
// pure query; cached payloads are invalidated by the write services.
type AnalyticsService struct {
	repo   analyticsStore
	cache  analyticsCache
	cfg    config.AnalyticsConfig
	logger *zap.Logger
	now    func() time.Time
}

// AnalyticsServiceOption configures the service.
type AnalyticsServiceOption func(*AnalyticsService)

// WithAnalyticsCache wires report caching.
func WithAnalyticsCache(cache analyticsCache) AnalyticsServiceOption {
	return func(s *AnalyticsService) {
		s.cache = cache
	}
}

// WithAnalyticsClock overrides the time source.
func WithAnalyticsClock(now func() time.Time) AnalyticsServiceOption {
	return func(s *AnalyticsService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAnalyticsService constructs the service with defaults.
func NewAnalyticsService(repo analyticsStore, cfg config.AnalyticsConfig, logger *zap.Logger, opts ...AnalyticsServiceOption) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if cfg.RecentDonations <= 0 {
		cfg.RecentDonations = 10
	}
	if cfg.TopDonations <= 0 {
		cfg.TopDonations = 10
	}
	if cfg.TopDonors <= 0 {
		cfg.TopDonors = 50
	}
	svc := &AnalyticsService{repo: repo, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Overview assembles the dashboard headline report: totals, stock figures,
// growth percentages, recent activity and breakdowns.
func (s *AnalyticsService) Overview(ctx context.Context, filter models.AnalyticsFilter) (*dto.OverviewResponse, error) {
	key := s.cacheKey("overview", filter, "")
	var cached dto.OverviewResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rng := ResolvePeriodRange(s.now(), filter)

	donTotals, err := s.repo.DonationTotals(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate donation totals")
	}
	distTotals, err := s.repo.DistributionTotals(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate distribution totals")
	}
	impact, err := s.repo.FamilyImpact(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate family impact")
	}
	recent, err := s.repo.RecentDonations(ctx, rng, filter.CategoryID, s.cfg.RecentDonations)
	if err != nil {
		return nil, s.wrap(err, "failed to list recent donations")
	}
	top, err := s.repo.TopDonations(ctx, rng, filter.CategoryID, s.cfg.TopDonations)
	if err != nil {
		return nil, s.wrap(err, "failed to list top donations")
	}
	byStatus, err := s.repo.StatusBreakdown(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate status breakdown")
	}
	byCategory, err := s.repo.CategoryBreakdown(ctx, rng)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate category breakdown")
	}

	currentRng, previousRng := GrowthWindows(s.now(), filter.Period)
	current, err := s.repo.DonationTotals(ctx, currentRng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate current growth window")
	}
	previous, err := s.repo.DonationTotals(ctx, previousRng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate previous growth window")
	}

	inStock := donTotals.TotalQuantity - distTotals.TotalDistributed
	stockValue := donTotals.TotalValue - distTotals.TotalDistributedValue

	resp := &dto.OverviewResponse{
		Overview: dto.OverviewStats{
			TotalDonations:         donTotals.TotalDonations,
			TotalValue:             donTotals.TotalValue,
			TotalQuantity:          donTotals.TotalQuantity,
			AverageDonationValue:   donTotals.AvgValue,
			TotalDistributed:       distTotals.TotalDistributed,
			TotalDistributedValue:  distTotals.TotalDistributedValue,
			InStock:                inStock,
			StockValue:             stockValue,
			TotalFamiliesBenefited: impact.TotalFamiliesBenefited,
			AveragePerFamily:       impact.AveragePerFamily,
			DistributionPercentage: RatePercent(distTotals.TotalDistributed, donTotals.TotalQuantity),
			StockPercentage:        RatePercent(inStock, donTotals.TotalQuantity),
			TotalDonors:            donTotals.TotalDonors,
			DonationsGrowth:        GrowthPercent(float64(current.TotalDonations), float64(previous.TotalDonations)),
			ValueGrowth:            GrowthPercent(current.TotalValue, previous.TotalValue),
			DonorsGrowth:           GrowthPercent(float64(current.TotalDonors), float64(previous.TotalDonors)),
		},
		Recent:      dto.RecentSection{Donations: recent, TopDonations: top},
		Breakdown:   dto.BreakdownSection{ByStatus: byStatus, ByCategory: byCategory},
		Period:      filter.Period,
		GeneratedAt: s.now().UTC(),
	}

	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// Trends buckets donation and distribution activity by the requested
// calendar unit, month by default.
func (s *AnalyticsService) Trends(ctx context.Context, filter models.AnalyticsFilter, groupBy models.TrendGroupBy) (*dto.TrendResponse, error) {
	if groupBy == "" {
		groupBy = models.GroupByMonth
	}
	if !groupBy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported groupBy %q", groupBy))
	}

	key := s.cacheKey("trends", filter, string(groupBy))
	var cached dto.TrendResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rng := ResolvePeriodRange(s.now(), filter)
	donations, err := s.repo.DonationTrends(ctx, rng, filter.CategoryID, groupBy)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate donation trends")
	}
	distributions, err := s.repo.DistributionTrends(ctx, rng, filter.CategoryID, groupBy)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate distribution trends")
	}

	resp := &dto.TrendResponse{
		Donations:     donations,
		Distributions: distributions,
		Period:        groupBy,
		GeneratedAt:   s.now().UTC(),
	}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// CategoryPerformance reports per-category donation and distribution
// figures with derived rates, most valuable category first.
func (s *AnalyticsService) CategoryPerformance(ctx context.Context, filter models.AnalyticsFilter) (*dto.CategoryPerformanceResponse, error) {
	key := s.cacheKey("category-performance", filter, "")
	var cached dto.CategoryPerformanceResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rng := ResolvePeriodRange(s.now(), filter)
	rows, err := s.repo.CategoryPerformance(ctx, rng)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate category performance")
	}

	categories := make([]dto.CategoryPerformance, 0, len(rows))
	summary := dto.CategoryPerformanceSummary{TotalCategories: len(rows)}
	bestEfficiency := -1.0
	for _, row := range rows {
		perf := dto.CategoryPerformance{
			CategoryPerformanceRow: row,
			InStock:                row.TotalQuantity - row.TotalDistributed,
			DistributionRate:       float64(RatePercent(row.TotalDistributed, row.TotalQuantity)),
		}
		if row.TotalDonations > 0 {
			summary.TotalCategoriesWithDonations++
			perf.Efficiency = float64(row.FamiliesBenefited) / float64(row.TotalDonations)
		}
		if perf.Efficiency > bestEfficiency {
			bestEfficiency = perf.Efficiency
			summary.MostEfficientCategory = row.CategoryName
		}
		categories = append(categories, perf)
	}
	if len(rows) > 0 {
		summary.MostValuableCategory = rows[0].CategoryName
	}

	resp := &dto.CategoryPerformanceResponse{
		Categories:  categories,
		Summary:     summary,
		GeneratedAt: s.now().UTC(),
	}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// DonorAnalytics segments donors by donation frequency and reports a simple
// retention metric over the filtered period.
func (s *AnalyticsService) DonorAnalytics(ctx context.Context, filter models.AnalyticsFilter) (*dto.DonorAnalyticsResponse, error) {
	key := s.cacheKey("donors", filter, "")
	var cached dto.DonorAnalyticsResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rng := ResolvePeriodRange(s.now(), filter)
	rows, err := s.repo.DonorRollup(ctx, rng, filter.CategoryID, s.cfg.TopDonors)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate donors")
	}
	retention, err := s.repo.DonorRetention(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate donor retention")
	}
	totals, err := s.repo.DonationTotals(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate donation totals")
	}

	now := s.now().UTC()
	profiles := make([]dto.DonorProfile, 0, len(rows))
	var segmentation dto.DonorSegmentation
	for _, row := range rows {
		profile := dto.DonorProfile{
			DonorRow:       row,
			DonorType:      ClassifyDonor(row.TotalDonations),
			DaysSinceFirst: DaysBetween(row.FirstDonation, now),
		}
		switch profile.DonorType {
		case dto.DonorTypeFrequent:
			segmentation.Frequent++
		case dto.DonorTypeRegular:
			segmentation.Regular++
		default:
			segmentation.Occasional++
		}
		profiles = append(profiles, profile)
	}

	summary := dto.DonorSummary{
		TotalUniqueDonors: retention.TotalDonors,
		Segmentation:      segmentation,
	}
	if retention.TotalDonors > 0 {
		summary.AvgDonationsPerDonor = int(math.Round(float64(totals.TotalDonations) / float64(retention.TotalDonors)))
		summary.AvgValuePerDonor = totals.TotalValue / float64(retention.TotalDonors)
	}
	if len(profiles) > 0 {
		summary.TopDonor = &profiles[0]
	}

	resp := &dto.DonorAnalyticsResponse{
		Donors:  profiles,
		Summary: summary,
		Retention: dto.DonorRetention{
			TotalDonors:   retention.TotalDonors,
			ReturnDonors:  retention.ReturnDonors,
			RetentionRate: RatePercent(float64(retention.ReturnDonors), float64(retention.TotalDonors)),
		},
		GeneratedAt: now,
	}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// EfficiencyMetrics reports processing-time figures, per-status and
// per-category efficiency, and operational alerts.
func (s *AnalyticsService) EfficiencyMetrics(ctx context.Context, filter models.AnalyticsFilter) (*dto.EfficiencyResponse, error) {
	key := s.cacheKey("efficiency", filter, "")
	var cached dto.EfficiencyResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rng := ResolvePeriodRange(s.now(), filter)
	timing, err := s.repo.DistributionTiming(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate distribution timing")
	}
	byStatus, err := s.repo.StatusBreakdown(ctx, rng, filter.CategoryID)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate status breakdown")
	}
	catRows, err := s.repo.CategoryEfficiency(ctx, rng)
	if err != nil {
		return nil, s.wrap(err, "failed to aggregate category efficiency")
	}
	lowStock, err := s.repo.LowStock(ctx, s.cfg.LowStockThreshold, 50)
	if err != nil {
		return nil, s.wrap(err, "failed to list low stock donations")
	}
	pending, err := s.repo.PendingDistributionsCount(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to count pending distributions")
	}

	totalCount := 0
	for _, row := range byStatus {
		totalCount += row.Count
	}
	statuses := make([]dto.StatusEfficiency, 0, len(byStatus))
	for _, row := range byStatus {
		statuses = append(statuses, dto.StatusEfficiency{
			Status:        row.Status,
			Count:         row.Count,
			Percentage:    RatePercent(float64(row.Count), float64(totalCount)),
			TotalValue:    row.TotalValue,
			TotalQuantity: row.TotalQuantity,
		})
	}

	categories := make([]dto.CategoryEfficiency, 0, len(catRows))
	for _, row := range catRows {
		categories = append(categories, dto.CategoryEfficiency{
			CategoryEfficiencyRow: row,
			DistributionRate:      float64(RatePercent(row.TotalDistributed, row.TotalQuantity)),
			InStock:               row.TotalQuantity - row.TotalDistributed,
		})
	}

	resp := &dto.EfficiencyResponse{
		Timing: dto.TimingMetrics{
			AverageDaysToDistribution:  int(math.Round(timing.AvgDays)),
			FastestDistribution:        int(math.Round(timing.MinDays)),
			SlowestDistribution:        int(math.Round(timing.MaxDays)),
			TotalDistributionsAnalyzed: timing.TotalDistributions,
		},
		Status:     statuses,
		Categories: categories,
		Alerts: dto.EfficiencyAlerts{
			LowStock:             lowStock,
			PendingDistributions: pending,
		},
		GeneratedAt: s.now().UTC(),
	}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// ClassifyDonor buckets a donor by donation count within the period.
func ClassifyDonor(donations int) dto.DonorType {
	switch {
	case donations >= 5:
		return dto.DonorTypeFrequent
	case donations >= 2:
		return dto.DonorTypeRegular
	default:
		return dto.DonorTypeOccasional
	}
}

func (s *AnalyticsService) cacheKey(report string, filter models.AnalyticsFilter, extra string) string {
	start, end := "", ""
	if filter.StartDate != nil {
		start = filter.StartDate.UTC().Format(time.RFC3339)
	}
	if filter.EndDate != nil {
		end = filter.EndDate.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("analytics:%s:%s:%s:%s:%s:%s", report, filter.Period, start, end, filter.CategoryID, extra)
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *AnalyticsService) wrap(err error, msg string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}
