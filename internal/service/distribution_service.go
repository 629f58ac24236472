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

// quantityEpsilon absorbs float64 representation noise when comparing a
// requested quantity against the remaining stock.
const quantityEpsilon = 1e-9

type distributionStore interface {
	InTx(ctx context.Context, fn func(tx repository.DistributionTx) error) error
	FindByID(ctx context.Context, id string) (*models.Distribution, error)
	List(ctx context.Context, filter models.DistributionFilter) ([]models.Distribution, int, error)
	SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error)
	StatusBreakdown(ctx context.Context, donationID string) ([]models.DistributionStatusStat, error)
	CountActive(ctx context.Context, donationID string) (int, error)
}

type donationFinder interface {
	FindByID(ctx context.Context, id string) (*models.Donation, error)
}

type familyChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type analyticsInvalidator interface {
	InvalidateAnalytics(ctx context.Context)
}

// DistributionService gates distribution writes against a donation's
// remaining quantity and keeps the donation status consistent with the
// distribution history.
type DistributionService struct {
	repo     distributionStore
	donation donationFinder
	families familyChecker
	cache    analyticsInvalidator
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// DistributionServiceOption configures the service.
type DistributionServiceOption func(*DistributionService)

// WithDistributionCache wires analytics cache invalidation on writes.
func WithDistributionCache(cache analyticsInvalidator) DistributionServiceOption {
	return func(s *DistributionService) {
		s.cache = cache
	}
}

// WithDistributionClock overrides the time source.
func WithDistributionClock(now func() time.Time) DistributionServiceOption {
	return func(s *DistributionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDistributionService constructs the service with defaults.
func NewDistributionService(repo distributionStore, donation donationFinder, families familyChecker, logger *zap.Logger, opts ...DistributionServiceOption) *DistributionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DistributionService{
		repo:     repo,
		donation: donation,
		families: families,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create allocates part of a donation's quantity to a family. The
// availability check and the insert run inside one transaction holding a row
// lock on the donation, so concurrent allocations against the same donation
// cannot overshoot its quantity.
func (s *DistributionService) Create(ctx context.Context, req dto.CreateDistributionRequest) (*models.Distribution, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid distribution payload")
	}

	exists, err := s.families.Exists(ctx, req.FamilyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify family")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
	}

	dist := &models.Distribution{
		DonationID:       req.DonationID,
		FamilyID:         req.FamilyID,
		Quantity:         req.Quantity,
		Notes:            req.Notes,
		DistributedBy:    req.DistributedBy,
		Status:           models.DistributionStatusPending,
		DistributionDate: s.now().UTC(),
	}
	if req.DistributionDate != nil {
		dist.DistributionDate = req.DistributionDate.UTC()
	}

	err = s.repo.InTx(ctx, func(tx repository.DistributionTx) error {
		donation, err := tx.LockDonation(ctx, req.DonationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "donation not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
		}

		distributed, err := tx.SumQuantity(ctx, req.DonationID, "")
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total distributions")
		}
		available := donation.Quantity - distributed
		if req.Quantity > available+quantityEpsilon {
			return appErrors.Clone(appErrors.ErrInsufficientQuantity,
				fmt.Sprintf("requested %.2f %s but only %.2f available", req.Quantity, donation.Unit, available))
		}

		if err := tx.Insert(ctx, dist); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist distribution")
		}

		return s.recomputeStatus(ctx, tx, donation, distributed+req.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("distribution created",
		zap.String("distribution_id", dist.ID),
		zap.String("donation_id", dist.DonationID),
		zap.Float64("quantity", dist.Quantity))
	return dist, nil
}

// Update mutates a distribution. Cancelled records are immutable; delivered
// records accept only notes and date changes. Quantity and family changes
// re-validate availability excluding the record itself.
func (s *DistributionService) Update(ctx context.Context, id string, req dto.UpdateDistributionRequest) (*models.Distribution, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid distribution payload")
	}

	dist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "distribution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load distribution")
	}

	switch dist.Status {
	case models.DistributionStatusCancelled:
		return nil, appErrors.Clone(appErrors.ErrConflict, "cancelled distributions cannot be modified")
	case models.DistributionStatusDelivered:
		if req.Quantity != nil || req.FamilyID != nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "delivered distributions accept only notes and date changes")
		}
	}

	if req.FamilyID != nil && *req.FamilyID != dist.FamilyID {
		exists, err := s.families.Exists(ctx, *req.FamilyID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify family")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
		}
	}

	err = s.repo.InTx(ctx, func(tx repository.DistributionTx) error {
		donation, err := tx.LockDonation(ctx, dist.DonationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "donation not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
		}

		othersDistributed, err := tx.SumQuantity(ctx, dist.DonationID, dist.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total distributions")
		}

		if req.Quantity != nil {
			available := donation.Quantity - othersDistributed
			if *req.Quantity > available+quantityEpsilon {
				return appErrors.Clone(appErrors.ErrInsufficientQuantity,
					fmt.Sprintf("requested %.2f %s but only %.2f available", *req.Quantity, donation.Unit, available))
			}
			dist.Quantity = *req.Quantity
		}
		if req.FamilyID != nil {
			dist.FamilyID = *req.FamilyID
		}
		if req.DistributionDate != nil {
			dist.DistributionDate = req.DistributionDate.UTC()
		}
		if req.Notes != nil {
			dist.Notes = *req.Notes
		}
		if req.DistributedBy != nil {
			dist.DistributedBy = *req.DistributedBy
		}

		if err := tx.Update(ctx, dist); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist distribution")
		}

		return s.recomputeStatus(ctx, tx, donation, othersDistributed+dist.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return dist, nil
}

// Cancel marks a distribution cancelled, freeing the quantity it had
// reserved. Cancelling an already cancelled record is a no-op.
func (s *DistributionService) Cancel(ctx context.Context, id string) (*models.Distribution, error) {
	dist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "distribution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load distribution")
	}
	if dist.Status == models.DistributionStatusCancelled {
		return dist, nil
	}

	err = s.repo.InTx(ctx, func(tx repository.DistributionTx) error {
		donation, err := tx.LockDonation(ctx, dist.DonationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "donation not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
		}

		dist.Status = models.DistributionStatusCancelled
		if err := tx.Update(ctx, dist); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist distribution")
		}

		remaining, err := tx.SumQuantity(ctx, dist.DonationID, dist.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total distributions")
		}
		return s.recomputeStatus(ctx, tx, donation, remaining)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("distribution cancelled",
		zap.String("distribution_id", dist.ID),
		zap.String("donation_id", dist.DonationID))
	return dist, nil
}

// ConfirmDelivery marks a distribution delivered. Delivered distributions
// keep counting toward the distributed total, so no recomputation is needed.
func (s *DistributionService) ConfirmDelivery(ctx context.Context, id string) (*models.Distribution, error) {
	dist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "distribution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load distribution")
	}
	if dist.Status == models.DistributionStatusDelivered {
		return dist, nil
	}
	if dist.Status == models.DistributionStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cancelled distributions cannot be delivered")
	}

	err = s.repo.InTx(ctx, func(tx repository.DistributionTx) error {
		dist.Status = models.DistributionStatusDelivered
		if err := tx.Update(ctx, dist); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist distribution")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return dist, nil
}

// GetByID loads a single distribution.
func (s *DistributionService) GetByID(ctx context.Context, id string) (*models.Distribution, error) {
	dist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "distribution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load distribution")
	}
	return dist, nil
}

// List returns distributions matching the filter with pagination metadata.
func (s *DistributionService) List(ctx context.Context, filter models.DistributionFilter) ([]models.Distribution, *models.Pagination, error) {
	distributions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list distributions")
	}
	return distributions, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// DonationStats derives stock figures for a donation from its distribution
// history. FamiliesCount counts non-cancelled distribution records, not
// distinct families.
func (s *DistributionService) DonationStats(ctx context.Context, donationID string) (*models.DonationStats, error) {
	donation, err := s.donation.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}

	distributed, err := s.repo.SumQuantity(ctx, donationID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total distributions")
	}
	breakdown, err := s.repo.StatusBreakdown(ctx, donationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load distribution breakdown")
	}
	families, err := s.repo.CountActive(ctx, donationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count distributions")
	}

	return &models.DonationStats{
		DonationQuantity:    donation.Quantity,
		QuantityDistributed: distributed,
		QuantityRemaining:   donation.Quantity - distributed,
		DistributionStats:   breakdown,
		FamiliesCount:       families,
	}, nil
}

// recomputeStatus applies the donation status transition rule after a
// distribution change. The rule never reverts to pending and never leaves
// expired; rerunning it with an unchanged total produces no write.
func (s *DistributionService) recomputeStatus(ctx context.Context, tx repository.DistributionTx, donation *models.Donation, distributed float64) error {
	next := NextDonationStatus(donation.Status, donation.Quantity, distributed)
	if next == donation.Status {
		return nil
	}
	if err := tx.SetDonationStatus(ctx, donation.ID, next); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update donation status")
	}
	donation.Status = next
	return nil
}

// NextDonationStatus evaluates the donation status transition rule for the
// given distributed total.
func NextDonationStatus(current models.DonationStatus, quantity, distributed float64) models.DonationStatus {
	if current == models.DonationStatusExpired {
		return current
	}
	if distributed >= quantity-quantityEpsilon && quantity > 0 {
		return models.DonationStatusDistributed
	}
	if distributed > 0 && current == models.DonationStatusPending {
		return models.DonationStatusReceived
	}
	return current
}

func (s *DistributionService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAnalytics(ctx)
	}
}
