package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/repository"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type fakeCategoryRepo struct {
	categories map[string]*models.DonationCategory
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*models.DonationCategory)}
}

func (f *fakeCategoryRepo) List(ctx context.Context, filter models.CategoryFilter) ([]models.DonationCategory, int, error) {
	var result []models.DonationCategory
	for _, c := range f.categories {
		if c.Deleted && !filter.IncludeDeleted {
			continue
		}
		result = append(result, *c)
	}
	return result, len(result), nil
}

func (f *fakeCategoryRepo) FindByID(ctx context.Context, id string) (*models.DonationCategory, error) {
	if c, ok := f.categories[id]; ok && !c.Deleted {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCategoryRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for _, c := range f.categories {
		if c.Deleted || c.ID == excludeID {
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryRepo) Create(ctx context.Context, category *models.DonationCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeCategoryRepo) Update(ctx context.Context, category *models.DonationCategory) error {
	if _, ok := f.categories[category.ID]; !ok {
		return repository.ErrNoRowsAffected
	}
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeCategoryRepo) SetActive(ctx context.Context, id string, active bool) error {
	c, ok := f.categories[id]
	if !ok || c.Deleted {
		return repository.ErrNoRowsAffected
	}
	c.IsActive = active
	return nil
}

func (f *fakeCategoryRepo) SoftDelete(ctx context.Context, id string) error {
	c, ok := f.categories[id]
	if !ok || c.Deleted {
		return repository.ErrNoRowsAffected
	}
	c.Deleted = true
	return nil
}

func TestCategoryCreateRejectsDuplicateName(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo, nil)

	first, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Food", DefaultUnit: "kg"})
	require.NoError(t, err)
	require.True(t, first.IsActive)

	_, err = svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "food", DefaultUnit: "kg"})
	require.True(t, appErrors.Is(err, appErrors.ErrDuplicateCategoryName))
}

func TestCategoryUpdateRenameChecksUniqueness(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo, nil)

	food, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Food", DefaultUnit: "kg"})
	require.NoError(t, err)
	clothes, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Clothes", DefaultUnit: "unit"})
	require.NoError(t, err)

	name := "Food"
	_, err = svc.Update(context.Background(), clothes.ID, dto.UpdateCategoryRequest{Name: &name})
	require.True(t, appErrors.Is(err, appErrors.ErrDuplicateCategoryName))

	// Keeping its own name does not trip the check.
	name = "Food"
	updated, err := svc.Update(context.Background(), food.ID, dto.UpdateCategoryRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Food", updated.Name)
}

func TestCategorySetActiveToggles(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo, nil)

	category, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Food", DefaultUnit: "kg"})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(context.Background(), category.ID, false))
	require.False(t, repo.categories[category.ID].IsActive)

	require.NoError(t, svc.SetActive(context.Background(), category.ID, true))
	require.True(t, repo.categories[category.ID].IsActive)

	err = svc.SetActive(context.Background(), uuid.NewString(), true)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCategoryDeleteMapsMissingToNotFound(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo, nil)

	category, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Food", DefaultUnit: "kg"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), category.ID))
	err = svc.Delete(context.Background(), category.ID)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
