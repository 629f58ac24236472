package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/pkg/config"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type fakeAnalyticsStore struct {
	donationTotals     models.DonationTotals
	growthCurrent      models.DonationTotals
	growthPrevious     models.DonationTotals
	distributionTotals models.DistributionTotals
	impact             models.FamilyImpact
	recent             []models.DonationSummary
	top                []models.DonationSummary
	statusBreakdown    []models.StatusBreakdownRow
	categoryBreakdown  []models.CategoryBreakdownRow
	donationTrends     []models.DonationTrendRow
	distributionTrends []models.DistributionTrendRow
	performance        []models.CategoryPerformanceRow
	donors             []models.DonorRow
	retention          models.DonorRetention
	timing             models.DistributionTiming
	efficiency         []models.CategoryEfficiencyRow
	lowStock           []models.LowStockRow
	pending            int

	donationTotalsCalls int
}

func (f *fakeAnalyticsStore) DonationTotals(ctx context.Context, rng models.DateRange, categoryID string) (*models.DonationTotals, error) {
	f.donationTotalsCalls++
	// Growth windows always carry both bounds starting at midnight.
	if rng.From != nil && rng.To != nil {
		if rng.From.Hour() == 0 && rng.To.Hour() == 0 {
			totals := f.growthPrevious
			return &totals, nil
		}
		if rng.From.Hour() == 0 {
			totals := f.growthCurrent
			return &totals, nil
		}
	}
	totals := f.donationTotals
	return &totals, nil
}

func (f *fakeAnalyticsStore) DistributionTotals(ctx context.Context, rng models.DateRange, categoryID string) (*models.DistributionTotals, error) {
	totals := f.distributionTotals
	return &totals, nil
}

func (f *fakeAnalyticsStore) FamilyImpact(ctx context.Context, rng models.DateRange, categoryID string) (*models.FamilyImpact, error) {
	impact := f.impact
	return &impact, nil
}

func (f *fakeAnalyticsStore) RecentDonations(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonationSummary, error) {
	return f.recent, nil
}

func (f *fakeAnalyticsStore) TopDonations(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonationSummary, error) {
	return f.top, nil
}

func (f *fakeAnalyticsStore) StatusBreakdown(ctx context.Context, rng models.DateRange, categoryID string) ([]models.StatusBreakdownRow, error) {
	return f.statusBreakdown, nil
}

func (f *fakeAnalyticsStore) CategoryBreakdown(ctx context.Context, rng models.DateRange) ([]models.CategoryBreakdownRow, error) {
	return f.categoryBreakdown, nil
}

func (f *fakeAnalyticsStore) DonationTrends(ctx context.Context, rng models.DateRange, categoryID string, groupBy models.TrendGroupBy) ([]models.DonationTrendRow, error) {
	return f.donationTrends, nil
}

func (f *fakeAnalyticsStore) DistributionTrends(ctx context.Context, rng models.DateRange, categoryID string, groupBy models.TrendGroupBy) ([]models.DistributionTrendRow, error) {
	return f.distributionTrends, nil
}

func (f *fakeAnalyticsStore) CategoryPerformance(ctx context.Context, rng models.DateRange) ([]models.CategoryPerformanceRow, error) {
	return f.performance, nil
}

func (f *fakeAnalyticsStore) DonorRollup(ctx context.Context, rng models.DateRange, categoryID string, limit int) ([]models.DonorRow, error) {
	return f.donors, nil
}

func (f *fakeAnalyticsStore) DonorRetention(ctx context.Context, rng models.DateRange, categoryID string) (*models.DonorRetention, error) {
	retention := f.retention
	return &retention, nil
}

func (f *fakeAnalyticsStore) DistributionTiming(ctx context.Context, rng models.DateRange, categoryID string) (*models.DistributionTiming, error) {
	timing := f.timing
	return &timing, nil
}

func (f *fakeAnalyticsStore) CategoryEfficiency(ctx context.Context, rng models.DateRange) ([]models.CategoryEfficiencyRow, error) {
	return f.efficiency, nil
}

func (f *fakeAnalyticsStore) LowStock(ctx context.Context, threshold float64, limit int) ([]models.LowStockRow, error) {
	return f.lowStock, nil
}

func (f *fakeAnalyticsStore) PendingDistributionsCount(ctx context.Context) (int, error) {
	return f.pending, nil
}

type fakeAnalyticsCache struct {
	entries map[string][]byte
	hits    int
}

func newFakeAnalyticsCache() *fakeAnalyticsCache {
	return &fakeAnalyticsCache{entries: make(map[string][]byte)}
}

func (f *fakeAnalyticsCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	f.hits++
	return true, json.Unmarshal(payload, dest)
}

func (f *fakeAnalyticsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = payload
	return nil
}

func TestAnalyticsOverviewDerivedFigures(t *testing.T) {
	store := &fakeAnalyticsStore{
		donationTotals:     models.DonationTotals{TotalDonations: 40, TotalValue: 1000, TotalQuantity: 200, AvgValue: 25, TotalDonors: 12},
		distributionTotals: models.DistributionTotals{TotalDistributed: 150, TotalDistributedValue: 700},
		impact:             models.FamilyImpact{TotalFamiliesBenefited: 30, AveragePerFamily: 5},
		growthCurrent:      models.DonationTotals{TotalDonations: 20, TotalValue: 600, TotalDonors: 8},
		growthPrevious:     models.DonationTotals{TotalDonations: 10, TotalValue: 400, TotalDonors: 8},
	}
	svc := NewAnalyticsService(store, config.AnalyticsConfig{}, nil,
		WithAnalyticsClock(func() time.Time { return time.Date(2024, 6, 15, 15, 0, 0, 0, time.UTC) }))

	resp, err := svc.Overview(context.Background(), models.AnalyticsFilter{Period: models.PeriodMonth})
	require.NoError(t, err)

	require.Equal(t, 50.0, resp.Overview.InStock)
	require.Equal(t, 300.0, resp.Overview.StockValue)
	require.Equal(t, 75, resp.Overview.DistributionPercentage)
	require.Equal(t, 25, resp.Overview.StockPercentage)
	require.Equal(t, 100, resp.Overview.DonationsGrowth)
	require.Equal(t, 50, resp.Overview.ValueGrowth)
	require.Equal(t, 0, resp.Overview.DonorsGrowth)
	require.Equal(t, models.PeriodMonth, resp.Period)
}

func TestAnalyticsOverviewServedFromCache(t *testing.T) {
	store := &fakeAnalyticsStore{
		donationTotals: models.DonationTotals{TotalDonations: 5},
	}
	cache := newFakeAnalyticsCache()
	svc := NewAnalyticsService(store, config.AnalyticsConfig{}, nil, WithAnalyticsCache(cache),
		WithAnalyticsClock(func() time.Time { return time.Date(2024, 6, 15, 15, 0, 0, 0, time.UTC) }))

	_, err := svc.Overview(context.Background(), models.AnalyticsFilter{Period: models.PeriodWeek})
	require.NoError(t, err)
	callsAfterFirst := store.donationTotalsCalls

	resp, err := svc.Overview(context.Background(), models.AnalyticsFilter{Period: models.PeriodWeek})
	require.NoError(t, err)
	require.Equal(t, callsAfterFirst, store.donationTotalsCalls)
	require.Equal(t, 1, cache.hits)
	require.Equal(t, 5, resp.Overview.TotalDonations)
}

func TestAnalyticsTrendsRejectsUnknownGroupBy(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsStore{}, config.AnalyticsConfig{}, nil)

	_, err := svc.Trends(context.Background(), models.AnalyticsFilter{}, models.TrendGroupBy("decade"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAnalyticsTrendsDefaultsToMonth(t *testing.T) {
	store := &fakeAnalyticsStore{
		donationTrends: []models.DonationTrendRow{{TotalDonations: 3}},
	}
	svc := NewAnalyticsService(store, config.AnalyticsConfig{}, nil)

	resp, err := svc.Trends(context.Background(), models.AnalyticsFilter{}, "")
	require.NoError(t, err)
	require.Equal(t, models.GroupByMonth, resp.Period)
	require.Len(t, resp.Donations, 1)
}

func TestAnalyticsCategoryPerformanceSummary(t *testing.T) {
	store := &fakeAnalyticsStore{
		performance: []models.CategoryPerformanceRow{
			{CategoryName: "Food", TotalDonations: 10, TotalValue: 900, TotalQuantity: 100, TotalDistributed: 80, FamiliesBenefited: 20},
			{CategoryName: "Clothes", TotalDonations: 4, TotalValue: 400, TotalQuantity: 40, TotalDistributed: 10, FamiliesBenefited: 16},
			{CategoryName: "Toys", TotalDonations: 0, TotalValue: 0, TotalQuantity: 0, TotalDistributed: 0},
		},
	}
	svc := NewAnalyticsService(store, config.AnalyticsConfig{}, nil)

	resp, err := svc.CategoryPerformance(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)

	require.Equal(t, 3, resp.Summary.TotalCategories)
	require.Equal(t, 2, resp.Summary.TotalCategoriesWithDonations)
	require.Equal(t, "Food", resp.Summary.MostValuableCategory)
	// Clothes benefits 4 families per donation against Food's 2.
	require.Equal(t, "Clothes", resp.Summary.MostEfficientCategory)

	require.Equal(t, 20.0, resp.Categories[0].InStock)
	require.Equal(t, 80.0, resp.Categories[0].DistributionRate)
	require.Equal(t, 0.0, resp.Categories[2].Efficiency)
}

func TestAnalyticsDonorSegmentation(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &fakeAnalyticsStore{
		donors: []models.DonorRow{
			{DonorName: "Ana", TotalDonations: 7, TotalValue: 700, FirstDonation: now.AddDate(0, 0, -30)},
			{DonorName: "Bruno", TotalDonations: 3, TotalValue: 300, FirstDonation: now.AddDate(0, 0, -10)},
			{DonorName: "Carla", TotalDonations: 1, TotalValue: 50, FirstDonation: now.AddDate(0, 0, -2)},
		},
		retention:      models.DonorRetention{TotalDonors: 10, ReturnDonors: 4},
		donationTotals: models.DonationTotals{TotalDonations: 25, TotalValue: 1500},
	}
	svc := NewAnalyticsService(store, config.AnalyticsConfig{}, nil,
		WithAnalyticsClock(func() time.Time { return now }))

	resp, err := svc.DonorAnalytics(context.Background(), models.AnalyticsFilter{Period: models.PeriodAll})
	require.NoError(t, err)

	require.Equal(t, 1, resp.Summary.Segmentation.Frequent)
	require.Equal(t, 1, resp.Summary.Segmentation.Regular)
	require.Equal(t, 1, resp.Summary.Segmentation.Occasional)
	require.Equal(t, 10, resp.Summary.TotalUniqueDonors)
	require.Equal(t, 3, resp.Summary.AvgDonationsPerDonor)
	require.Equal(t, 150.0, resp.Summary.AvgValuePerDonor)
	require.NotNil(t, resp.Summary.TopDonor)
	require.Equal(t, "Ana", resp.Summary.TopDonor.DonorName)
	require.Equal(t, 40, resp.Retention.RetentionRate)
	require.InDelta(t, 30.0, resp.Donors[0].DaysSinceFirst, 1e-9)
}

func TestAnalyticsEfficiencyMetrics(t *testing.T) {
	store := &fakeAnalyticsStore{
		timing: models.DistributionTiming{AvgDays: 4.6, MinDays: 0.4, MaxDays: 11.5, TotalDistributions: 9},
		statusBreakdown: []models.StatusBreakdownRow{
			{Status: models.DonationStatusPending, Count: 1},
			{Status: models.DonationStatusDistributed, Count: 3},
		},
		lowStock: []models.LowStockRow{{}},
		pending:  6,
	}
	svc := NewAnalyticsService(store, config.AnalyticsConfig{}, nil)

	resp, err := svc.EfficiencyMetrics(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)

	require.Equal(t, 5, resp.Timing.AverageDaysToDistribution)
	require.Equal(t, 0, resp.Timing.FastestDistribution)
	require.Equal(t, 12, resp.Timing.SlowestDistribution)
	require.Equal(t, 9, resp.Timing.TotalDistributionsAnalyzed)
	require.Equal(t, 25, resp.Status[0].Percentage)
	require.Equal(t, 75, resp.Status[1].Percentage)
	require.Len(t, resp.Alerts.LowStock, 1)
	require.Equal(t, 6, resp.Alerts.PendingDistributions)
}

func TestClassifyDonor(t *testing.T) {
	require.Equal(t, dto.DonorTypeOccasional, ClassifyDonor(1))
	require.Equal(t, dto.DonorTypeRegular, ClassifyDonor(2))
	require.Equal(t, dto.DonorTypeRegular, ClassifyDonor(4))
	require.Equal(t, dto.DonorTypeFrequent, ClassifyDonor(5))
}
