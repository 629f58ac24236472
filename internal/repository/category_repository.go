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

const categoryColumns = "id, name, description, default_unit, icon, color, is_active, deleted, created_at, updated_at"

// CategoryRepository handles persistence for donation categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository instantiates a category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns categories matching the filter along with a total count.
func (r *CategoryRepository) List(ctx context.Context, filter models.CategoryFilter) ([]models.DonationCategory, int, error) {
	base := "FROM donation_categories WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = FALSE")
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
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
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", categoryColumns, base, size, offset)

	var categories []models.DonationCategory
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	return categories, total, nil
}

// FindByID loads a non-deleted category by identifier.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.DonationCategory, error) {
	query := fmt.Sprintf("SELECT %s FROM donation_categories WHERE id = $1 AND deleted = FALSE", categoryColumns)
	var category models.DonationCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsByName reports whether a non-deleted category with the same name
// exists, matched case-insensitively. excludeID carves out the record being
// updated.
func (r *CategoryRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT COUNT(*) FROM donation_categories WHERE LOWER(name) = LOWER($1) AND deleted = FALSE"
	args := []interface{}{name}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

// Create persists a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.DonationCategory) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `INSERT INTO donation_categories (id, name, description, default_unit, icon, color, is_active, deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Description, category.DefaultUnit,
		category.Icon, category.Color, category.IsActive, category.CreatedAt, category.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update persists mutable category fields.
func (r *CategoryRepository) Update(ctx context.Context, category *models.DonationCategory) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE donation_categories SET name = $1, description = $2, default_unit = $3,
        icon = $4, color = $5, is_active = $6, updated_at = $7 WHERE id = $8 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query,
		category.Name, category.Description, category.DefaultUnit,
		category.Icon, category.Color, category.IsActive, category.UpdatedAt, category.ID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SetActive toggles the category's active flag.
func (r *CategoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE donation_categories SET is_active = $1, updated_at = $2 WHERE id = $3 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set category active: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SoftDelete marks a category as deleted without removing the row.
func (r *CategoryRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE donation_categories SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
