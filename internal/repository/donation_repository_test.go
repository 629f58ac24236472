package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func donationRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "donor_name", "donor_contact", "category_id", "description",
		"quantity", "unit", "estimated_value", "received_date", "status",
		"deleted", "created_at", "updated_at",
	}).AddRow(
		"don-1", "Maria Silva", "", "cat-1", "",
		25.0, "kg", 120.0, now, "received",
		false, now, now,
	)
}

func TestDonationListAppliesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM donations WHERE 1=1 AND deleted = FALSE AND status = \$1 AND category_id = \$2 AND donor_name ILIKE \$3 AND received_date >= \$4 ORDER BY received_date DESC LIMIT 20 OFFSET 0`).
		WithArgs("received", "cat-1", "%maria%", from).
		WillReturnRows(donationRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM donations WHERE 1=1 AND deleted = FALSE AND status = \$1 AND category_id = \$2 AND donor_name ILIKE \$3 AND received_date >= \$4`).
		WithArgs("received", "cat-1", "%maria%", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	donations, total, err := repo.List(context.Background(), models.DonationFilter{
		Status:       "received",
		CategoryID:   "cat-1",
		DonorSearch:  "maria",
		ReceivedFrom: &from,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, donations, 1)
	require.Equal(t, "Maria Silva", donations[0].DonorName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationListRejectsUnknownSortColumn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	// An unsafe sort value falls back to received_date instead of being interpolated.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY received_date DESC")).
		WillReturnRows(donationRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.DonationFilter{SortBy: "id; DROP TABLE donations"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationFindByIDExcludesDeleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM donations WHERE id = \$1 AND deleted = FALSE`).
		WithArgs("don-1").
		WillReturnRows(donationRows())

	donation, err := repo.FindByID(context.Background(), "don-1")
	require.NoError(t, err)
	require.Equal(t, "don-1", donation.ID)

	mock.ExpectQuery(`SELECT .+ FROM donations WHERE id = \$1 AND deleted = FALSE`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationCreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	mock.ExpectExec(`INSERT INTO donations`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	donation := &models.Donation{
		DonorName:    "Maria Silva",
		CategoryID:   "cat-1",
		Quantity:     25,
		Unit:         "kg",
		ReceivedDate: time.Now().UTC(),
		Status:       models.DonationStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), donation))
	require.NotEmpty(t, donation.ID)
	require.False(t, donation.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationUpdateReportsMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	mock.ExpectExec(`UPDATE donations SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Donation{ID: "missing"})
	require.True(t, errors.Is(err, ErrNoRowsAffected))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationSoftDeleteReportsMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	mock.ExpectExec(`UPDATE donations SET deleted = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), "don-1"))

	mock.ExpectExec(`UPDATE donations SET deleted = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SoftDelete(context.Background(), "don-1")
	require.True(t, errors.Is(err, ErrNoRowsAffected))
	require.NoError(t, mock.ExpectationsWereMet())
}
