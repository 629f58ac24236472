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

const distributionColumns = "id, donation_id, family_id, quantity, distribution_date, notes, distributed_by, status, deleted, created_at, updated_at"

// DistributionRepository handles persistence for donation distributions.
type DistributionRepository struct {
	db *sqlx.DB
}

// NewDistributionRepository instantiates a distribution repository.
func NewDistributionRepository(db *sqlx.DB) *DistributionRepository {
	return &DistributionRepository{db: db}
}

// DistributionTx exposes the write primitives available inside an accounting
// transaction. The donation row lock taken by LockDonation serialises
// concurrent availability checks against the same donation.
type DistributionTx interface {
	LockDonation(ctx context.Context, donationID string) (*models.Donation, error)
	SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error)
	Insert(ctx context.Context, dist *models.Distribution) error
	Update(ctx context.Context, dist *models.Distribution) error
	SetDonationStatus(ctx context.Context, donationID string, status models.DonationStatus) error
}

type distributionTx struct {
	tx *sqlx.Tx
}

// InTx runs fn inside a database transaction, committing on nil error.
func (r *DistributionRepository) InTx(ctx context.Context, fn func(tx DistributionTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin distribution tx: %w", err)
	}
	if err := fn(&distributionTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit distribution tx: %w", err)
	}
	return nil
}

// LockDonation loads the donation row under FOR UPDATE.
func (t *distributionTx) LockDonation(ctx context.Context, donationID string) (*models.Donation, error) {
	query := fmt.Sprintf("SELECT %s FROM donations WHERE id = $1 AND deleted = FALSE FOR UPDATE", donationColumns)
	var donation models.Donation
	if err := t.tx.GetContext(ctx, &donation, query, donationID); err != nil {
		return nil, err
	}
	return &donation, nil
}

// SumQuantity totals non-cancelled, non-deleted distribution quantities for a
// donation. When excludeID is set that record is left out of the sum, so an
// update can re-validate against the quantity available without itself.
func (t *distributionTx) SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error) {
	return sumDistributedQuantity(ctx, t.tx, donationID, excludeID)
}

// Insert persists a new distribution inside the transaction.
func (t *distributionTx) Insert(ctx context.Context, dist *models.Distribution) error {
	if dist.ID == "" {
		dist.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	dist.CreatedAt = now
	dist.UpdatedAt = now

	const query = `INSERT INTO donation_distributions (id, donation_id, family_id, quantity, distribution_date, notes, distributed_by, status, deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10)`
	if _, err := t.tx.ExecContext(ctx, query,
		dist.ID, dist.DonationID, dist.FamilyID, dist.Quantity, dist.DistributionDate,
		dist.Notes, dist.DistributedBy, dist.Status, dist.CreatedAt, dist.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert distribution: %w", err)
	}
	return nil
}

// Update persists mutable distribution fields inside the transaction.
func (t *distributionTx) Update(ctx context.Context, dist *models.Distribution) error {
	dist.UpdatedAt = time.Now().UTC()
	const query = `UPDATE donation_distributions SET family_id = $1, quantity = $2, distribution_date = $3,
        notes = $4, distributed_by = $5, status = $6, updated_at = $7
        WHERE id = $8 AND deleted = FALSE`
	res, err := t.tx.ExecContext(ctx, query,
		dist.FamilyID, dist.Quantity, dist.DistributionDate, dist.Notes,
		dist.DistributedBy, dist.Status, dist.UpdatedAt, dist.ID,
	)
	if err != nil {
		return fmt.Errorf("update distribution: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SetDonationStatus writes the recomputed donation status within the same
// transaction as the distribution change.
func (t *distributionTx) SetDonationStatus(ctx context.Context, donationID string, status models.DonationStatus) error {
	const query = `UPDATE donations SET status = $1, updated_at = $2 WHERE id = $3 AND deleted = FALSE`
	if _, err := t.tx.ExecContext(ctx, query, status, time.Now().UTC(), donationID); err != nil {
		return fmt.Errorf("set donation status: %w", err)
	}
	return nil
}

// FindByID loads a non-deleted distribution by identifier.
func (r *DistributionRepository) FindByID(ctx context.Context, id string) (*models.Distribution, error) {
	query := fmt.Sprintf("SELECT %s FROM donation_distributions WHERE id = $1 AND deleted = FALSE", distributionColumns)
	var dist models.Distribution
	if err := r.db.GetContext(ctx, &dist, query, id); err != nil {
		return nil, err
	}
	return &dist, nil
}

// List returns distributions matching the filter along with a total count.
func (r *DistributionRepository) List(ctx context.Context, filter models.DistributionFilter) ([]models.Distribution, int, error) {
	base := "FROM donation_distributions WHERE 1=1"
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
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY distribution_date DESC LIMIT %d OFFSET %d", distributionColumns, base, size, offset)

	var distributions []models.Distribution
	if err := r.db.SelectContext(ctx, &distributions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list distributions: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count distributions: %w", err)
	}

	return distributions, total, nil
}

// SumQuantity totals non-cancelled distribution quantities outside a transaction.
func (r *DistributionRepository) SumQuantity(ctx context.Context, donationID, excludeID string) (float64, error) {
	return sumDistributedQuantity(ctx, r.db, donationID, excludeID)
}

// StatusBreakdown groups a donation's non-deleted distributions by status.
func (r *DistributionRepository) StatusBreakdown(ctx context.Context, donationID string) ([]models.DistributionStatusStat, error) {
	const query = `SELECT status, COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS total_quantity
        FROM donation_distributions WHERE donation_id = $1 AND deleted = FALSE GROUP BY status`
	var stats []models.DistributionStatusStat
	if err := r.db.SelectContext(ctx, &stats, query, donationID); err != nil {
		return nil, fmt.Errorf("distribution status breakdown: %w", err)
	}
	return stats, nil
}

// CountActive counts non-cancelled, non-deleted distribution records for a
// donation. This is a record count, not a distinct-family count.
func (r *DistributionRepository) CountActive(ctx context.Context, donationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM donation_distributions
        WHERE donation_id = $1 AND status <> 'cancelled' AND deleted = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, donationID); err != nil {
		return 0, fmt.Errorf("count active distributions: %w", err)
	}
	return count, nil
}

func sumDistributedQuantity(ctx context.Context, q sqlx.QueryerContext, donationID, excludeID string) (float64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM donation_distributions
        WHERE donation_id = $1 AND status <> 'cancelled' AND deleted = FALSE`
	args := []interface{}{donationID}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	var total float64
	if err := sqlx.GetContext(ctx, q, &total, query, args...); err != nil {
		return 0, fmt.Errorf("sum distributed quantity: %w", err)
	}
	return total, nil
}
