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

const beneficiaryColumns = "id, name, family_id, birth_date, cpf, deleted, created_at, updated_at"

// BeneficiaryRepository handles persistence for family members.
type BeneficiaryRepository struct {
	db *sqlx.DB
}

// NewBeneficiaryRepository instantiates a beneficiary repository.
func NewBeneficiaryRepository(db *sqlx.DB) *BeneficiaryRepository {
	return &BeneficiaryRepository{db: db}
}

// List returns beneficiaries matching the filter along with a total count.
func (r *BeneficiaryRepository) List(ctx context.Context, filter models.BeneficiaryFilter) ([]models.Beneficiary, int, error) {
	base := "FROM beneficiaries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = FALSE")
	}
	if filter.FamilyID != "" {
		args = append(args, filter.FamilyID)
		conditions = append(conditions, fmt.Sprintf("family_id = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", beneficiaryColumns, base, size, offset)

	var beneficiaries []models.Beneficiary
	if err := r.db.SelectContext(ctx, &beneficiaries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list beneficiaries: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count beneficiaries: %w", err)
	}

	return beneficiaries, total, nil
}

// FindByID loads a non-deleted beneficiary by identifier.
func (r *BeneficiaryRepository) FindByID(ctx context.Context, id string) (*models.Beneficiary, error) {
	query := fmt.Sprintf("SELECT %s FROM beneficiaries WHERE id = $1 AND deleted = FALSE", beneficiaryColumns)
	var beneficiary models.Beneficiary
	if err := r.db.GetContext(ctx, &beneficiary, query, id); err != nil {
		return nil, err
	}
	return &beneficiary, nil
}

// Create persists a new beneficiary.
func (r *BeneficiaryRepository) Create(ctx context.Context, beneficiary *models.Beneficiary) error {
	if beneficiary.ID == "" {
		beneficiary.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	beneficiary.CreatedAt = now
	beneficiary.UpdatedAt = now

	const query = `INSERT INTO beneficiaries (id, name, family_id, birth_date, cpf, deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		beneficiary.ID, beneficiary.Name, beneficiary.FamilyID, beneficiary.BirthDate,
		beneficiary.CPF, beneficiary.CreatedAt, beneficiary.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

// Update persists mutable beneficiary fields.
func (r *BeneficiaryRepository) Update(ctx context.Context, beneficiary *models.Beneficiary) error {
	beneficiary.UpdatedAt = time.Now().UTC()
	const query = `UPDATE beneficiaries SET name = $1, family_id = $2, birth_date = $3, cpf = $4, updated_at = $5
        WHERE id = $6 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query,
		beneficiary.Name, beneficiary.FamilyID, beneficiary.BirthDate,
		beneficiary.CPF, beneficiary.UpdatedAt, beneficiary.ID,
	)
	if err != nil {
		return fmt.Errorf("update beneficiary: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SoftDelete marks a beneficiary as deleted without removing the row.
func (r *BeneficiaryRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE beneficiaries SET deleted = TRUE, updated_at = $1 WHERE id = $2 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete beneficiary: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
