package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/repository"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type categoryStore interface {
	List(ctx context.Context, filter models.CategoryFilter) ([]models.DonationCategory, int, error)
	FindByID(ctx context.Context, id string) (*models.DonationCategory, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, category *models.DonationCategory) error
	Update(ctx context.Context, category *models.DonationCategory) error
	SetActive(ctx context.Context, id string, active bool) error
	SoftDelete(ctx context.Context, id string) error
}

// CategoryService manages donation categories. Category names are unique
// case-insensitively among non-deleted records.
type CategoryService struct {
	repo     categoryStore
	logger   *zap.Logger
	validate *validator.Validate
}

// NewCategoryService constructs the service.
func NewCategoryService(repo categoryStore, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, logger: logger, validate: validator.New()}
}

// Create registers a new active category.
func (s *CategoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*models.DonationCategory, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	taken, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateCategoryName, "")
	}

	category := &models.DonationCategory{
		Name:        req.Name,
		Description: req.Description,
		DefaultUnit: req.DefaultUnit,
		Icon:        req.Icon,
		Color:       req.Color,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist category")
	}

	s.logger.Info("category created", zap.String("category_id", category.ID), zap.String("name", category.Name))
	return category, nil
}

// Update mutates category fields, re-checking name uniqueness on rename.
func (s *CategoryService) Update(ctx context.Context, id string, req dto.UpdateCategoryRequest) (*models.DonationCategory, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != category.Name {
		taken, err := s.repo.ExistsByName(ctx, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrDuplicateCategoryName, "")
		}
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.DefaultUnit != nil {
		category.DefaultUnit = *req.DefaultUnit
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if req.Color != nil {
		category.Color = *req.Color
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist category")
	}
	return category, nil
}

// GetByID loads a single category.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*models.DonationCategory, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// List returns categories matching the filter with pagination metadata.
func (s *CategoryService) List(ctx context.Context, filter models.CategoryFilter) ([]models.DonationCategory, *models.Pagination, error) {
	categories, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// SetActive activates or deactivates a category. Existing donations keep
// their reference; new donations are rejected while inactive.
func (s *CategoryService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return nil
}

// Delete soft-deletes a category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}
	return nil
}
