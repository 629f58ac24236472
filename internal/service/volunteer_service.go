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

type volunteerStore interface {
	List(ctx context.Context, filter models.VolunteerFilter) ([]models.Volunteer, int, error)
	FindByID(ctx context.Context, id string) (*models.Volunteer, error)
	ExistsByCPF(ctx context.Context, cpf, excludeID string) (bool, error)
	Create(ctx context.Context, volunteer *models.Volunteer) error
	Update(ctx context.Context, volunteer *models.Volunteer) error
	SoftDelete(ctx context.Context, id string) error
}

// VolunteerService manages the volunteer roster. CPFs are unique among
// non-deleted volunteers when provided.
type VolunteerService struct {
	repo     volunteerStore
	logger   *zap.Logger
	validate *validator.Validate
}

// NewVolunteerService constructs the service.
func NewVolunteerService(repo volunteerStore, logger *zap.Logger) *VolunteerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VolunteerService{repo: repo, logger: logger, validate: validator.New()}
}

// Create registers a volunteer.
func (s *VolunteerService) Create(ctx context.Context, req dto.CreateVolunteerRequest) (*models.Volunteer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid volunteer payload")
	}
	if req.CPF != "" {
		taken, err := s.repo.ExistsByCPF(ctx, req.CPF, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check volunteer cpf")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a volunteer with this cpf already exists")
		}
	}

	volunteer := &models.Volunteer{
		Name:      req.Name,
		Contact:   req.Contact,
		CPF:       req.CPF,
		BirthDate: req.BirthDate,
	}
	if err := s.repo.Create(ctx, volunteer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist volunteer")
	}
	return volunteer, nil
}

// Update mutates volunteer fields.
func (s *VolunteerService) Update(ctx context.Context, id string, req dto.UpdateVolunteerRequest) (*models.Volunteer, error) {
	volunteer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CPF != nil && *req.CPF != volunteer.CPF && *req.CPF != "" {
		taken, err := s.repo.ExistsByCPF(ctx, *req.CPF, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check volunteer cpf")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a volunteer with this cpf already exists")
		}
	}
	if req.Name != nil {
		volunteer.Name = *req.Name
	}
	if req.Contact != nil {
		volunteer.Contact = *req.Contact
	}
	if req.CPF != nil {
		volunteer.CPF = *req.CPF
	}
	if req.BirthDate != nil {
		volunteer.BirthDate = req.BirthDate
	}

	if err := s.repo.Update(ctx, volunteer); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist volunteer")
	}
	return volunteer, nil
}

// GetByID loads a single volunteer.
func (s *VolunteerService) GetByID(ctx context.Context, id string) (*models.Volunteer, error) {
	volunteer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load volunteer")
	}
	return volunteer, nil
}

// List returns volunteers matching the filter with pagination metadata.
func (s *VolunteerService) List(ctx context.Context, filter models.VolunteerFilter) ([]models.Volunteer, *models.Pagination, error) {
	volunteers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list volunteers")
	}
	return volunteers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Delete soft-deletes a volunteer.
func (s *VolunteerService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "volunteer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete volunteer")
	}
	return nil
}
