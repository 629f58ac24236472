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

type familyStore interface {
	List(ctx context.Context, filter models.FamilyFilter) ([]models.Family, int, error)
	FindByID(ctx context.Context, id string) (*models.Family, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, family *models.Family) error
	Update(ctx context.Context, family *models.Family) error
	SoftDelete(ctx context.Context, id string) error
}

type beneficiaryStore interface {
	List(ctx context.Context, filter models.BeneficiaryFilter) ([]models.Beneficiary, int, error)
	FindByID(ctx context.Context, id string) (*models.Beneficiary, error)
	Create(ctx context.Context, beneficiary *models.Beneficiary) error
	Update(ctx context.Context, beneficiary *models.Beneficiary) error
	SoftDelete(ctx context.Context, id string) error
}

// FamilyService manages recipient families and their beneficiaries.
type FamilyService struct {
	families      familyStore
	beneficiaries beneficiaryStore
	logger        *zap.Logger
	validate      *validator.Validate
}

// NewFamilyService constructs the service.
func NewFamilyService(families familyStore, beneficiaries beneficiaryStore, logger *zap.Logger) *FamilyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FamilyService{families: families, beneficiaries: beneficiaries, logger: logger, validate: validator.New()}
}

// Create registers a family.
func (s *FamilyService) Create(ctx context.Context, req dto.CreateFamilyRequest) (*models.Family, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid family payload")
	}
	family := &models.Family{
		Name:         req.Name,
		City:         req.City,
		Neighborhood: req.Neighborhood,
		Contact:      req.Contact,
		Address:      req.Address,
	}
	if err := s.families.Create(ctx, family); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist family")
	}
	return family, nil
}

// Update mutates family fields.
func (s *FamilyService) Update(ctx context.Context, id string, req dto.UpdateFamilyRequest) (*models.Family, error) {
	family, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		family.Name = *req.Name
	}
	if req.City != nil {
		family.City = *req.City
	}
	if req.Neighborhood != nil {
		family.Neighborhood = *req.Neighborhood
	}
	if req.Contact != nil {
		family.Contact = *req.Contact
	}
	if req.Address != nil {
		family.Address = *req.Address
	}
	if err := s.families.Update(ctx, family); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist family")
	}
	return family, nil
}

// GetByID loads a single family.
func (s *FamilyService) GetByID(ctx context.Context, id string) (*models.Family, error) {
	family, err := s.families.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family")
	}
	return family, nil
}

// List returns families matching the filter with pagination metadata.
func (s *FamilyService) List(ctx context.Context, filter models.FamilyFilter) ([]models.Family, *models.Pagination, error) {
	families, total, err := s.families.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list families")
	}
	return families, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Delete soft-deletes a family.
func (s *FamilyService) Delete(ctx context.Context, id string) error {
	if err := s.families.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "family not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete family")
	}
	return nil
}

// CreateBeneficiary registers a beneficiary under an existing family.
func (s *FamilyService) CreateBeneficiary(ctx context.Context, req dto.CreateBeneficiaryRequest) (*models.Beneficiary, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid beneficiary payload")
	}
	exists, err := s.families.Exists(ctx, req.FamilyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify family")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
	}

	beneficiary := &models.Beneficiary{
		Name:     req.Name,
		FamilyID: req.FamilyID,
		CPF:      req.CPF,
	}
	if req.BirthDate != nil {
		beneficiary.BirthDate = req.BirthDate.UTC()
	}
	if err := s.beneficiaries.Create(ctx, beneficiary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist beneficiary")
	}
	return beneficiary, nil
}

// UpdateBeneficiary mutates beneficiary fields.
func (s *FamilyService) UpdateBeneficiary(ctx context.Context, id string, req dto.UpdateBeneficiaryRequest) (*models.Beneficiary, error) {
	beneficiary, err := s.beneficiaries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beneficiary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beneficiary")
	}

	if req.FamilyID != nil && *req.FamilyID != beneficiary.FamilyID {
		exists, err := s.families.Exists(ctx, *req.FamilyID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify family")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
		}
		beneficiary.FamilyID = *req.FamilyID
	}
	if req.Name != nil {
		beneficiary.Name = *req.Name
	}
	if req.BirthDate != nil {
		beneficiary.BirthDate = req.BirthDate.UTC()
	}
	if req.CPF != nil {
		beneficiary.CPF = *req.CPF
	}

	if err := s.beneficiaries.Update(ctx, beneficiary); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beneficiary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist beneficiary")
	}
	return beneficiary, nil
}

// ListBeneficiaries returns beneficiaries matching the filter.
func (s *FamilyService) ListBeneficiaries(ctx context.Context, filter models.BeneficiaryFilter) ([]models.Beneficiary, *models.Pagination, error) {
	beneficiaries, total, err := s.beneficiaries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list beneficiaries")
	}
	return beneficiaries, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// DeleteBeneficiary soft-deletes a beneficiary.
func (s *FamilyService) DeleteBeneficiary(ctx context.Context, id string) error {
	if err := s.beneficiaries.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "beneficiary not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete beneficiary")
	}
	return nil
}
