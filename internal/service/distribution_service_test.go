package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/repository"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type fakeDistributionRepo struct {
	donations     map[string]*models.Donation
	distributions map[string]*models.Distribution
}

func newFakeDistributionRepo() *fakeDistributionRepo {
	return &fakeDistributionRepo{
		donations:     make(map[string]*models.Donation),
		distributions: make(map[string]*models.Distribution),
	}
}

func (f *fakeDistributionRepo) sumQuantity(donationID, excludeID string) float64 {
	var total float64
	for _, d := range f.distributions {
		if d.DonationID != donationID || d.Deleted {
			continue
		}
		if d.Status == models.DistributionStatusCancelled {
			continue
		}
		if excludeID != "" && d.ID == excludeID {
			continue
		}
		total += d.Quantity
	}
	return total
}

func (f *fakeDistributionRepo) InTx(ctx context.Context, fn func(tx repository.DistributionTx) error) error {
	return fn(&fakeDistributionTx{repo: f})
}

func (f *fakeDistributionRepo) FindByID(ctx context.Context, id string) (*models.Distribution, error) {
	if d, ok := f.distributions[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDistributionRepo) List(ctx context.Context, filter models.DistributionFilter) ([]models.Distribution, int, error) {
	var result []models.Distribution
	for _, d := range f.distributions {
		if filter.DonationID != "" && d.DonationID != filter.DonationID {
			continue
		}
		if filter.FamilyID != "" && d.FamilyID != filter.FamilyID {
			continue
		}
		result = append(result, *d)
	}
	return result, len(result), nil
}

func (f *fakeDistributionRepo) SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error) {
	return f.sumQuantity(donationID, excludeID), nil
}

func (f *fakeDistributionRepo) StatusBreakdown(ctx context.Context, donationID string) ([]models.DistributionStatusStat, error) {
	byStatus := make(map[models.DistributionStatus]*models.DistributionStatusStat)
	for _, d := range f.distributions {
		if d.DonationID != donationID || d.Deleted {
			continue
		}
		stat, ok := byStatus[d.Status]
		if !ok {
			stat = &models.DistributionStatusStat{Status: d.Status}
			byStatus[d.Status] = stat
		}
		stat.Count++
		stat.TotalQuantity += d.Quantity
	}
	var result []models.DistributionStatusStat
	for _, stat := range byStatus {
		result = append(result, *stat)
	}
	return result, nil
}

func (f *fakeDistributionRepo) CountActive(ctx context.Context, donationID string) (int, error) {
	count := 0
	for _, d := range f.distributions {
		if d.DonationID != donationID || d.Deleted || d.Status == models.DistributionStatusCancelled {
			continue
		}
		count++
	}
	return count, nil
}

type fakeDistributionTx struct {
	repo *fakeDistributionRepo
}

func (t *fakeDistributionTx) LockDonation(ctx context.Context, donationID string) (*models.Donation, error) {
	if d, ok := t.repo.donations[donationID]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (t *fakeDistributionTx) SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error) {
	return t.repo.sumQuantity(donationID, excludeID), nil
}

func (t *fakeDistributionTx) Insert(ctx context.Context, dist *models.Distribution) error {
	if dist.ID == "" {
		dist.ID = uuid.NewString()
	}
	copied := *dist
	t.repo.distributions[dist.ID] = &copied
	return nil
}

func (t *fakeDistributionTx) Update(ctx context.Context, dist *models.Distribution) error {
	if _, ok := t.repo.distributions[dist.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *dist
	t.repo.distributions[dist.ID] = &copied
	return nil
}

func (t *fakeDistributionTx) SetDonationStatus(ctx context.Context, donationID string, status models.DonationStatus) error {
	donation, ok := t.repo.donations[donationID]
	if !ok {
		return sql.ErrNoRows
	}
	donation.Status = status
	return nil
}

type fakeDonationFinder struct {
	donations map[string]*models.Donation
}

func (f *fakeDonationFinder) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	if d, ok := f.donations[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeFamilyChecker struct {
	ids map[string]bool
}

func (f *fakeFamilyChecker) Exists(ctx context.Context, id string) (bool, error) {
	return f.ids[id], nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateAnalytics(ctx context.Context) {
	f.calls++
}

type distributionFixture struct {
	repo        *fakeDistributionRepo
	families    *fakeFamilyChecker
	invalidator *fakeInvalidator
	svc         *DistributionService
	donationID  string
	familyID    string
}

func newDistributionFixture(t *testing.T, quantity float64) *distributionFixture {
	t.Helper()
	repo := newFakeDistributionRepo()
	donationID := uuid.NewString()
	familyID := uuid.NewString()
	repo.donations[donationID] = &models.Donation{
		ID:       donationID,
		Quantity: quantity,
		Unit:     "kg",
		Status:   models.DonationStatusPending,
	}
	families := &fakeFamilyChecker{ids: map[string]bool{familyID: true}}
	invalidator := &fakeInvalidator{}
	svc := NewDistributionService(repo, &fakeDonationFinder{donations: repo.donations}, families, nil,
		WithDistributionCache(invalidator))
	return &distributionFixture{
		repo:        repo,
		families:    families,
		invalidator: invalidator,
		svc:         svc,
		donationID:  donationID,
		familyID:    familyID,
	}
}

func TestDistributionCreateMarksDonationReceived(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	dist, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, dist.ID)
	require.Equal(t, models.DistributionStatusPending, dist.Status)
	require.Equal(t, models.DonationStatusReceived, fx.repo.donations[fx.donationID].Status)
	require.Equal(t, 1, fx.invalidator.calls)
}

func TestDistributionCreateExactRemainingSucceeds(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	_, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   20,
	})
	require.NoError(t, err)

	_, err = fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   30,
	})
	require.NoError(t, err)
	require.Equal(t, models.DonationStatusDistributed, fx.repo.donations[fx.donationID].Status)
}

func TestDistributionCreateInsufficientQuantity(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	_, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   60,
	})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrInsufficientQuantity))
	require.Empty(t, fx.repo.distributions)
	require.Zero(t, fx.invalidator.calls)
}

func TestDistributionCreateOverAllocationAcrossRecords(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	_, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   50,
	})
	require.NoError(t, err)

	_, err = fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   1,
	})
	require.True(t, appErrors.Is(err, appErrors.ErrInsufficientQuantity))
}

func TestDistributionCreateUnknownFamily(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	_, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   uuid.NewString(),
		Quantity:   10,
	})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDistributionCreateUnknownDonation(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	_, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: uuid.NewString(),
		FamilyID:   fx.familyID,
		Quantity:   10,
	})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDistributionCancelFreesQuantity(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	dist, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   50,
	})
	require.NoError(t, err)
	require.Equal(t, models.DonationStatusDistributed, fx.repo.donations[fx.donationID].Status)

	cancelled, err := fx.svc.Cancel(context.Background(), dist.ID)
	require.NoError(t, err)
	require.Equal(t, models.DistributionStatusCancelled, cancelled.Status)

	// Cancelled quantity no longer counts against stock.
	_, err = fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   50,
	})
	require.NoError(t, err)
}

func TestDistributionCancelIsIdempotent(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	dist, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   10,
	})
	require.NoError(t, err)

	_, err = fx.svc.Cancel(context.Background(), dist.ID)
	require.NoError(t, err)
	invalidations := fx.invalidator.calls

	again, err := fx.svc.Cancel(context.Background(), dist.ID)
	require.NoError(t, err)
	require.Equal(t, models.DistributionStatusCancelled, again.Status)
	require.Equal(t, invalidations, fx.invalidator.calls)
}

func TestDistributionUpdateCancelledIsImmutable(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	dist, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   10,
	})
	require.NoError(t, err)
	_, err = fx.svc.Cancel(context.Background(), dist.ID)
	require.NoError(t, err)

	notes := "late edit"
	_, err = fx.svc.Update(context.Background(), dist.ID, dto.UpdateDistributionRequest{Notes: &notes})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestDistributionUpdateDeliveredAcceptsOnlyNotesAndDate(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	dist, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   10,
	})
	require.NoError(t, err)
	_, err = fx.svc.ConfirmDelivery(context.Background(), dist.ID)
	require.NoError(t, err)

	quantity := 20.0
	_, err = fx.svc.Update(context.Background(), dist.ID, dto.UpdateDistributionRequest{Quantity: &quantity})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))

	notes := "delivered at the community center"
	updated, err := fx.svc.Update(context.Background(), dist.ID, dto.UpdateDistributionRequest{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, notes, updated.Notes)
}

func TestDistributionUpdateQuantityExcludesSelf(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	dist, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   30,
	})
	require.NoError(t, err)

	// Growing to the full quantity is fine: the old allocation of this
	// record does not count against itself.
	quantity := 50.0
	updated, err := fx.svc.Update(context.Background(), dist.ID, dto.UpdateDistributionRequest{Quantity: &quantity})
	require.NoError(t, err)
	require.Equal(t, 50.0, updated.Quantity)
	require.Equal(t, models.DonationStatusDistributed, fx.repo.donations[fx.donationID].Status)

	over := 51.0
	_, err = fx.svc.Update(context.Background(), dist.ID, dto.UpdateDistributionRequest{Quantity: &over})
	require.True(t, appErrors.Is(err, appErrors.ErrInsufficientQuantity))
}

func TestConfirmDeliveryOnCancelledConflicts(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	dist, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   10,
	})
	require.NoError(t, err)
	_, err = fx.svc.Cancel(context.Background(), dist.ID)
	require.NoError(t, err)

	_, err = fx.svc.ConfirmDelivery(context.Background(), dist.ID)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestDonationStatsCountsRecordsNotFamilies(t *testing.T) {
	fx := newDistributionFixture(t, 50)

	for i := 0; i < 2; i++ {
		_, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
			DonationID: fx.donationID,
			FamilyID:   fx.familyID,
			Quantity:   10,
		})
		require.NoError(t, err)
	}
	cancelled, err := fx.svc.Create(context.Background(), dto.CreateDistributionRequest{
		DonationID: fx.donationID,
		FamilyID:   fx.familyID,
		Quantity:   5,
	})
	require.NoError(t, err)
	_, err = fx.svc.Cancel(context.Background(), cancelled.ID)
	require.NoError(t, err)

	stats, err := fx.svc.DonationStats(context.Background(), fx.donationID)
	require.NoError(t, err)
	require.Equal(t, 50.0, stats.DonationQuantity)
	require.Equal(t, 20.0, stats.QuantityDistributed)
	require.Equal(t, 30.0, stats.QuantityRemaining)
	// Two distributions to the same family count twice.
	require.Equal(t, 2, stats.FamiliesCount)
}

func TestNextDonationStatus(t *testing.T) {
	cases := []struct {
		name        string
		current     models.DonationStatus
		quantity    float64
		distributed float64
		want        models.DonationStatus
	}{
		{"pending with no distributions", models.DonationStatusPending, 50, 0, models.DonationStatusPending},
		{"pending with partial distribution", models.DonationStatusPending, 50, 10, models.DonationStatusReceived},
		{"pending fully distributed", models.DonationStatusPending, 50, 50, models.DonationStatusDistributed},
		{"received fully distributed", models.DonationStatusReceived, 50, 50, models.DonationStatusDistributed},
		{"float noise still counts as full", models.DonationStatusReceived, 0.3, 0.1 + 0.2, models.DonationStatusDistributed},
		{"received partial stays received", models.DonationStatusReceived, 50, 10, models.DonationStatusReceived},
		{"no revert after cancellation", models.DonationStatusDistributed, 50, 0, models.DonationStatusDistributed},
		{"received never reverts to pending", models.DonationStatusReceived, 50, 0, models.DonationStatusReceived},
		{"expired never leaves", models.DonationStatusExpired, 50, 50, models.DonationStatusExpired},
		{"zero quantity never distributes", models.DonationStatusPending, 0, 0, models.DonationStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NextDonationStatus(tc.current, tc.quantity, tc.distributed))
		})
	}
}
