package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type fakeDonationStore struct {
	donations map[string]*models.Donation
}

func newFakeDonationStore() *fakeDonationStore {
	return &fakeDonationStore{donations: make(map[string]*models.Donation)}
}

func (f *fakeDonationStore) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	var result []models.Donation
	for _, d := range f.donations {
		if d.Deleted && !filter.IncludeDeleted {
			continue
		}
		result = append(result, *d)
	}
	return result, len(result), nil
}

func (f *fakeDonationStore) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	if d, ok := f.donations[id]; ok && !d.Deleted {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDonationStore) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	copied := *donation
	f.donations[donation.ID] = &copied
	return nil
}

func (f *fakeDonationStore) Update(ctx context.Context, donation *models.Donation) error {
	if _, ok := f.donations[donation.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *donation
	f.donations[donation.ID] = &copied
	return nil
}

func (f *fakeDonationStore) SoftDelete(ctx context.Context, id string) error {
	d, ok := f.donations[id]
	if !ok || d.Deleted {
		return sql.ErrNoRows
	}
	d.Deleted = true
	return nil
}

type fakeCategoryFinder struct {
	categories map[string]*models.DonationCategory
}

func (f *fakeCategoryFinder) FindByID(ctx context.Context, id string) (*models.DonationCategory, error) {
	if c, ok := f.categories[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeDistributionSummer struct {
	total float64
}

func (f *fakeDistributionSummer) SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error) {
	return f.total, nil
}

type donationFixture struct {
	store      *fakeDonationStore
	categories *fakeCategoryFinder
	summer     *fakeDistributionSummer
	svc        *DonationService
	categoryID string
	inactiveID string
}

func newDonationFixture(t *testing.T) *donationFixture {
	t.Helper()
	categoryID := uuid.NewString()
	inactiveID := uuid.NewString()
	categories := &fakeCategoryFinder{categories: map[string]*models.DonationCategory{
		categoryID: {ID: categoryID, Name: "Food", IsActive: true},
		inactiveID: {ID: inactiveID, Name: "Retired", IsActive: false},
	}}
	store := newFakeDonationStore()
	summer := &fakeDistributionSummer{}
	svc := NewDonationService(store, categories, summer, nil)
	return &donationFixture{
		store:      store,
		categories: categories,
		summer:     summer,
		svc:        svc,
		categoryID: categoryID,
		inactiveID: inactiveID,
	}
}

func validCreateDonation(categoryID string) dto.CreateDonationRequest {
	return dto.CreateDonationRequest{
		DonorName:      "Maria Silva",
		CategoryID:     categoryID,
		Quantity:       25,
		Unit:           "kg",
		EstimatedValue: 120,
	}
}

func TestDonationCreateDefaultsToPending(t *testing.T) {
	fx := newDonationFixture(t)

	donation, err := fx.svc.Create(context.Background(), validCreateDonation(fx.categoryID))
	require.NoError(t, err)
	require.Equal(t, models.DonationStatusPending, donation.Status)
	require.False(t, donation.ReceivedDate.IsZero())
	require.NotEmpty(t, donation.ID)
}

func TestDonationCreateRejectsUnknownCategory(t *testing.T) {
	fx := newDonationFixture(t)

	_, err := fx.svc.Create(context.Background(), validCreateDonation(uuid.NewString()))
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidCategory))
}

func TestDonationCreateRejectsInactiveCategory(t *testing.T) {
	fx := newDonationFixture(t)

	_, err := fx.svc.Create(context.Background(), validCreateDonation(fx.inactiveID))
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidCategory))
}

func TestDonationCreateRejectsNonPositiveQuantity(t *testing.T) {
	fx := newDonationFixture(t)

	req := validCreateDonation(fx.categoryID)
	req.Quantity = 0
	_, err := fx.svc.Create(context.Background(), req)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestDonationUpdateQuantityCannotDropBelowDistributed(t *testing.T) {
	fx := newDonationFixture(t)

	donation, err := fx.svc.Create(context.Background(), validCreateDonation(fx.categoryID))
	require.NoError(t, err)
	fx.summer.total = 20

	quantity := 15.0
	_, err = fx.svc.Update(context.Background(), donation.ID, dto.UpdateDonationRequest{Quantity: &quantity})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))

	// Shrinking to exactly the distributed total is allowed.
	quantity = 20.0
	updated, err := fx.svc.Update(context.Background(), donation.ID, dto.UpdateDonationRequest{Quantity: &quantity})
	require.NoError(t, err)
	require.Equal(t, 20.0, updated.Quantity)
}

func TestDonationUpdateStatusOnlyAcceptsExpired(t *testing.T) {
	fx := newDonationFixture(t)

	donation, err := fx.svc.Create(context.Background(), validCreateDonation(fx.categoryID))
	require.NoError(t, err)

	status := "distributed"
	_, err = fx.svc.Update(context.Background(), donation.ID, dto.UpdateDonationRequest{Status: &status})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	status = "expired"
	updated, err := fx.svc.Update(context.Background(), donation.ID, dto.UpdateDonationRequest{Status: &status})
	require.NoError(t, err)
	require.Equal(t, models.DonationStatusExpired, updated.Status)
}

func TestDonationDeleteIsSoft(t *testing.T) {
	fx := newDonationFixture(t)

	donation, err := fx.svc.Create(context.Background(), validCreateDonation(fx.categoryID))
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(context.Background(), donation.ID))
	_, err = fx.svc.GetByID(context.Background(), donation.ID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	// Record still exists for accounting.
	require.True(t, fx.store.donations[donation.ID].Deleted)

	err = fx.svc.Delete(context.Background(), donation.ID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
