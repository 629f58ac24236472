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

const donationColumns = "id, donor_name, donor_contact, category_id, description, quantity, unit, estimated_value, received_date, status, deleted, created_at, updated_at"

// DonationRepository handles persistence for donations.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository instantiates a donation repository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// List returns donations matching provided filters along with a total count.
func (r *DonationRepository) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	base := "FROM donations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = FALSE")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.DonorSearch != "" {
		args = append(args, "%"+filter.DonorSearch+"%")
		conditions = append(conditions, fmt.Sprintf("donor_name ILIKE $%d", len(args)))
	}
	if filter.ReceivedFrom != nil {
		args = append(args, *filter.ReceivedFrom)
		conditions = append(conditions, fmt.Sprintf("received_date >= $%d", len(args)))
	}
	if filter.ReceivedTo != nil {
		args = append(args, *filter.ReceivedTo)
		conditions = append(conditions, fmt.Sprintf("received_date <= $%d", len(args)))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"received_date":   true,
		"donor_name":      true,
		"estimated_value": true,
		"quantity":        true,
		"created_at":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "received_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", donationColumns, base, sortBy, order, size, offset)

	var donations []models.Donation
	if err := r.db.SelectContext(ctx, &donations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}

	return donations, total, nil
}

// FindByID loads a non-deleted donation by identifier.
func (r *DonationRepository) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	query := fmt.Sprintf("SELECT %s FROM donations WHERE id = $1 AND deleted = FALSE", donationColumns)
	var donation models.Donation
	if err := r.db.GetContext(ctx, &donation, query, id); err != nil {
		return nil, err
	}
	return &donation, nil
}

// Create persists a new donation.
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	donation.CreatedAt = now
	donation.UpdatedAt = now

	const query = `INSERT INTO donations (id, donor_name, donor_contact, category_id, description, quantity, unit, estimated_value, received_date, status, deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		donation.ID, donation.DonorName, donation.DonorContact, donation.CategoryID,
		donation.Description, donation.Quantity, donation.Unit, donation.EstimatedValue,
		donation.ReceivedDate, donation.Status, donation.CreatedAt, donation.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// Update persists mutable donation fields.
func (r *DonationRepository) Update(ctx context.Context, donation *models.Donation) error {
	donation.UpdatedAt = time.Now().UTC()
	const query = `UPDATE donations SET donor_name = $1, donor_contact = $2, category_id = $3, description = $4,
        quantity = $5, unit = $6, estimated_value = $7, received_date = $8, status = $9, updated_at = $10
        WHERE id = $11 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query,
		donation.DonorName, donation.DonorContact, donation.CategoryID, donation.Description,
		donation.Quantity, donation.Unit, donation.EstimatedValue, donation.ReceivedDate,
		donation.Status, donation.UpdatedAt, donation.ID,
	)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SoftDelete marks a donation as deleted without removing the row.
func (r *DonationRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE donations SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete donation: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SetStatus updates only the derived status field.
func (r *DonationRepository) SetStatus(ctx context.Context, id string, status models.DonationStatus) error {
	const query = `UPDATE donations SET status = $1, updated_at = $2 WHERE id = $3 AND deleted = FALSE`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set donation status: %w", err)
	}
	return nil
}
