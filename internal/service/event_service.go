package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/repository"
	appErrors "github.com/solidario/donation-api/pkg/errors"
)

type eventStore interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	SoftDelete(ctx context.Context, id string) error
}

// EventService coordinates delivery events linking donations, families and
// volunteer rosters.
type EventService struct {
	repo      eventStore
	donations donationFinder
	families  familyChecker
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewEventService constructs the service.
func NewEventService(repo eventStore, donations donationFinder, families familyChecker, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:      repo,
		donations: donations,
		families:  families,
		logger:    logger,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Create records a delivery event after verifying its references.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest) (*models.Event, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if _, err := s.donations.FindByID(ctx, req.DonationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	exists, err := s.families.Exists(ctx, req.FamilyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify family")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
	}

	event := &models.Event{
		DonationID:   req.DonationID,
		FamilyID:     req.FamilyID,
		VolunteerIDs: req.VolunteerIDs,
		Observations: req.Observations,
		DeliveryDate: s.now().UTC(),
	}
	if req.DeliveryDate != nil {
		event.DeliveryDate = req.DeliveryDate.UTC()
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist event")
	}
	return event, nil
}

// Update mutates event fields and replaces the volunteer roster when given.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*models.Event, error) {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FamilyID != nil && *req.FamilyID != event.FamilyID {
		exists, err := s.families.Exists(ctx, *req.FamilyID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify family")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family not found")
		}
		event.FamilyID = *req.FamilyID
	}
	if req.DonationID != nil && *req.DonationID != event.DonationID {
		if _, err := s.donations.FindByID(ctx, *req.DonationID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
		}
		event.DonationID = *req.DonationID
	}
	if req.VolunteerIDs != nil {
		event.VolunteerIDs = req.VolunteerIDs
	}
	if req.DeliveryDate != nil {
		event.DeliveryDate = req.DeliveryDate.UTC()
	}
	if req.Observations != nil {
		event.Observations = *req.Observations
	}

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist event")
	}
	return event, nil
}

// GetByID loads a single event with its volunteer roster.
func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// List returns events matching the filter with pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Delete soft-deletes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}
