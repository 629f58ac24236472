package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/repository"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type donationStore interface {
	List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error)
	FindByID(ctx context.Context, id string) (*models.Donation, error)
	Create(ctx context.Context, donation *models.Donation) error
	Update(ctx context.Context, donation *models.Donation) error
	SoftDelete(ctx context.Context, id string) error
}

type categoryFinder interface {
	FindByID(ctx context.Context, id string) (*models.DonationCategory, error)
}

type distributionSummer interface {
	SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error)
}

// DonationService manages donation intake and mutation. Donations must
// reference an active category, and their quantity can never shrink below
// what has already been distributed.
type DonationService struct {
	repo          donationStore
	categories    categoryFinder
	distributions distributionSummer
	cache         analyticsInvalidator
	logger        *zap.Logger
	validate      *validator.Validate
	now           func() time.Time
}

// DonationServiceOption configures the service.
type DonationServiceOption func(*DonationService)

// WithDonationCache wires analytics cache invalidation on writes.
func WithDonationCache(cache analyticsInvalidator) DonationServiceOption {
	return func(s *DonationService) {
		s.cache = cache
	}
}

// WithDonationClock overrides the time source.
func WithDonationClock(now func() time.Time) DonationServiceOption {
	return func(s *DonationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDonationService constructs the service with defaults.
func NewDonationService(repo donationStore, categories categoryFinder, distributions distributionSummer, logger *zap.Logger, opts ...DonationServiceOption) *DonationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DonationService{
		repo:          repo,
		categories:    categories,
		distributions: distributions,
		logger:        logger,
		validate:      validator.New(),
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create registers a donation after verifying its category is active.
func (s *DonationService) Create(ctx context.Context, req dto.CreateDonationRequest) (*models.Donation, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid donation payload")
	}
	if err := s.requireActiveCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	donation := &models.Donation{
		DonorName:      req.DonorName,
		DonorContact:   req.DonorContact,
		CategoryID:     req.CategoryID,
		Description:    req.Description,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		EstimatedValue: req.EstimatedValue,
		ReceivedDate:   s.now().UTC(),
		Status:         models.DonationStatusPending,
	}
	if req.ReceivedDate != nil {
		donation.ReceivedDate = req.ReceivedDate.UTC()
	}
	if req.Status != "" {
		donation.Status = models.DonationStatus(req.Status)
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist donation")
	}

	s.invalidate(ctx)
	s.logger.Info("donation created",
		zap.String("donation_id", donation.ID),
		zap.String("category_id", donation.CategoryID),
		zap.Float64("quantity", donation.Quantity))
	return donation, nil
}

// Update mutates a donation. The status field only accepts a manual "expired"
// transition; every other status value is derived from distributions.
func (s *DonationService) Update(ctx context.Context, id string, req dto.UpdateDonationRequest) (*models.Donation, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid donation payload")
	}

	donation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}

	if req.CategoryID != nil && *req.CategoryID != donation.CategoryID {
		if err := s.requireActiveCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		donation.CategoryID = *req.CategoryID
	}

	if req.Quantity != nil && *req.Quantity != donation.Quantity {
		distributed, err := s.distributions.SumQuantity(ctx, donation.ID, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total distributions")
		}
		if *req.Quantity < distributed {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("quantity cannot drop below the %.2f already distributed", distributed))
		}
		donation.Quantity = *req.Quantity
	}

	if req.Status != nil && models.DonationStatus(*req.Status) != donation.Status {
		if models.DonationStatus(*req.Status) != models.DonationStatusExpired {
			return nil, appErrors.Clone(appErrors.ErrValidation, "status is derived from distributions; only expired can be set manually")
		}
		donation.Status = models.DonationStatusExpired
	}

	if req.DonorName != nil {
		donation.DonorName = *req.DonorName
	}
	if req.DonorContact != nil {
		donation.DonorContact = *req.DonorContact
	}
	if req.Description != nil {
		donation.Description = *req.Description
	}
	if req.Unit != nil {
		donation.Unit = *req.Unit
	}
	if req.EstimatedValue != nil {
		donation.EstimatedValue = *req.EstimatedValue
	}
	if req.ReceivedDate != nil {
		donation.ReceivedDate = req.ReceivedDate.UTC()
	}

	if err := s.repo.Update(ctx, donation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist donation")
	}

	s.invalidate(ctx)
	return donation, nil
}

// GetByID loads a single donation.
func (s *DonationService) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	donation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	return donation, nil
}

// List returns donations matching the filter with pagination metadata.
func (s *DonationService) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, *models.Pagination, error) {
	donations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list donations")
	}
	return donations, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Delete soft-deletes a donation.
func (s *DonationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete donation")
	}
	s.invalidate(ctx)
	return nil
}

func (s *DonationService) requireActiveCategory(ctx context.Context, categoryID string) error {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidCategory, "category does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if !category.IsActive {
		return appErrors.Clone(appErrors.ErrInvalidCategory, "category is inactive")
	}
	return nil
}

func (s *DonationService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAnalytics(ctx)
	}
}
