package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/solidario/donation-api/internal/models"
)

const eventColumns = "id, donation_id, family_id, delivery_date, observations, deleted, created_at, updated_at"

// EventRepository handles persistence for delivery events and their
// volunteer roster (event_volunteers join table).
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository instantiates an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events matching the filter along with a total count.
// Volunteer IDs are loaded in a second query per page.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	base := "FROM events WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = FALSE")
	}
	if filter.DonationID != "" {
		args = append(args, filter.DonationID)
		conditions = append(conditions, fmt.Sprintf("donation_id = $%d", len(args)))
	}
	if filter.FamilyID != "" {
		args = append(args, filter.FamilyID)
		conditions = append(conditions, fmt.Sprintf("family_id = $%d", len(args)))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY delivery_date DESC LIMIT %d OFFSET %d", eventColumns, base, size, offset)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	for i := range events {
		ids, err := r.volunteerIDs(ctx, events[i].ID)
		if err != nil {
			return nil, 0, err
		}
		events[i].VolunteerIDs = ids
	}

	return events, total, nil
}

// FindByID loads a non-deleted event with its volunteer roster.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1 AND deleted = FALSE", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	ids, err := r.volunteerIDs(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.VolunteerIDs = ids
	return &event, nil
}

// Create persists a new event and its volunteer roster.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO events (id, donation_id, family_id, delivery_date, observations, deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`
	if _, err := tx.ExecContext(ctx, query,
		event.ID, event.DonationID, event.FamilyID, event.DeliveryDate,
		event.Observations, event.CreatedAt, event.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if err := replaceEventVolunteers(ctx, tx, event.ID, event.VolunteerIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Update persists mutable event fields and replaces the volunteer roster.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `UPDATE events SET donation_id = $1, family_id = $2, delivery_date = $3, observations = $4, updated_at = $5
        WHERE id = $6 AND deleted = FALSE`
	res, err := tx.ExecContext(ctx, query,
		event.DonationID, event.FamilyID, event.DeliveryDate,
		event.Observations, event.UpdatedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}

	if err := replaceEventVolunteers(ctx, tx, event.ID, event.VolunteerIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// SoftDelete marks an event as deleted without removing the row.
func (r *EventRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE events SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete event: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *EventRepository) volunteerIDs(ctx context.Context, eventID string) ([]string, error) {
	const query = `SELECT volunteer_id FROM event_volunteers WHERE event_id = $1 ORDER BY volunteer_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, eventID); err != nil {
		return nil, fmt.Errorf("load event volunteers: %w", err)
	}
	return ids, nil
}

func replaceEventVolunteers(ctx context.Context, tx *sqlx.Tx, eventID string, volunteerIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_volunteers WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear event volunteers: %w", err)
	}
	for _, volunteerID := range volunteerIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_volunteers (event_id, volunteer_id) VALUES ($1, $2)`,
			eventID, volunteerID,
		); err != nil {
			return fmt.Errorf("insert event volunteer: %w", err)
		}
	}
	return nil
}
