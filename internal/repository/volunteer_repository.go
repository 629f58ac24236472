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

const volunteerColumns = "id, name, contact, cpf, birth_date, deleted, created_at, updated_at"

// VolunteerRepository handles persistence for volunteers.
type VolunteerRepository struct {
	db *sqlx.DB
}

// NewVolunteerRepository instantiates a volunteer repository.
func NewVolunteerRepository(db *sqlx.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// List returns volunteers matching the filter along with a total count.
func (r *VolunteerRepository) List(ctx context.Context, filter models.VolunteerFilter) ([]models.Volunteer, int, error) {
	base := "FROM volunteers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = FALSE")
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", volunteerColumns, base, size, offset)

	var volunteers []models.Volunteer
	if err := r.db.SelectContext(ctx, &volunteers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list volunteers: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count volunteers: %w", err)
	}

	return volunteers, total, nil
}

// FindByID loads a non-deleted volunteer by identifier.
func (r *VolunteerRepository) FindByID(ctx context.Context, id string) (*models.Volunteer, error) {
	query := fmt.Sprintf("SELECT %s FROM volunteers WHERE id = $1 AND deleted = FALSE", volunteerColumns)
	var volunteer models.Volunteer
	if err := r.db.GetContext(ctx, &volunteer, query, id); err != nil {
		return nil, err
	}
	return &volunteer, nil
}

// ExistsByCPF reports whether a non-deleted volunteer already uses the CPF.
func (r *VolunteerRepository) ExistsByCPF(ctx context.Context, cpf, excludeID string) (bool, error) {
	query := "SELECT COUNT(*) FROM volunteers WHERE cpf = $1 AND deleted = FALSE"
	args := []interface{}{cpf}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check volunteer cpf: %w", err)
	}
	return count > 0, nil
}

// Create persists a new volunteer.
func (r *VolunteerRepository) Create(ctx context.Context, volunteer *models.Volunteer) error {
	if volunteer.ID == "" {
		volunteer.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	volunteer.CreatedAt = now
	volunteer.UpdatedAt = now

	const query = `INSERT INTO volunteers (id, name, contact, cpf, birth_date, deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		volunteer.ID, volunteer.Name, volunteer.Contact, volunteer.CPF,
		volunteer.BirthDate, volunteer.CreatedAt, volunteer.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert volunteer: %w", err)
	}
	return nil
}

// Update persists mutable volunteer fields.
func (r *VolunteerRepository) Update(ctx context.Context, volunteer *models.Volunteer) error {
	volunteer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE volunteers SET name = $1, contact = $2, cpf = $3, birth_date = $4, updated_at = $5
        WHERE id = $6 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query,
		volunteer.Name, volunteer.Contact, volunteer.CPF, volunteer.BirthDate,
		volunteer.UpdatedAt, volunteer.ID,
	)
	if err != nil {
		return fmt.Errorf("update volunteer: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SoftDelete marks a volunteer as deleted without removing the row.
func (r *VolunteerRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE volunteers SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete volunteer: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
