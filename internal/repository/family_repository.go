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

const familyColumns = "id, name, city, neighborhood, contact, address, deleted, created_at, updated_at"

// FamilyRepository handles persistence for recipient families.
type FamilyRepository struct {
	db *sqlx.DB
}

// NewFamilyRepository instantiates a family repository.
func NewFamilyRepository(db *sqlx.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// List returns families matching the filter along with a total count.
func (r *FamilyRepository) List(ctx context.Context, filter models.FamilyFilter) ([]models.Family, int, error) {
	base := "FROM families WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = FALSE")
	}
	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, fmt.Sprintf("city = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", familyColumns, base, size, offset)

	var families []models.Family
	if err := r.db.SelectContext(ctx, &families, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list families: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count families: %w", err)
	}

	return families, total, nil
}

// FindByID loads a non-deleted family by identifier.
func (r *FamilyRepository) FindByID(ctx context.Context, id string) (*models.Family, error) {
	query := fmt.Sprintf("SELECT %s FROM families WHERE id = $1 AND deleted = FALSE", familyColumns)
	var family models.Family
	if err := r.db.GetContext(ctx, &family, query, id); err != nil {
		return nil, err
	}
	return &family, nil
}

// Exists reports whether a non-deleted family with the given id exists.
func (r *FamilyRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT COUNT(*) FROM families WHERE id = $1 AND deleted = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return false, fmt.Errorf("check family exists: %w", err)
	}
	return count > 0, nil
}

// Create persists a new family.
func (r *FamilyRepository) Create(ctx context.Context, family *models.Family) error {
	if family.ID == "" {
		family.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	family.CreatedAt = now
	family.UpdatedAt = now

	const query = `INSERT INTO families (id, name, city, neighborhood, contact, address, deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		family.ID, family.Name, family.City, family.Neighborhood,
		family.Contact, family.Address, family.CreatedAt, family.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	return nil
}

// Update persists mutable family fields.
func (r *FamilyRepository) Update(ctx context.Context, family *models.Family) error {
	family.UpdatedAt = time.Now().UTC()
	const query = `UPDATE families SET name = $1, city = $2, neighborhood = $3, contact = $4, address = $5, updated_at = $6
        WHERE id = $7 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query,
		family.Name, family.City, family.Neighborhood, family.Contact,
		family.Address, family.UpdatedAt, family.ID,
	)
	if err != nil {
		return fmt.Errorf("update family: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SoftDelete marks a family as deleted without removing the row.
func (r *FamilyRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE families SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete family: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
