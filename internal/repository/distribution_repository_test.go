package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/models"
)

func TestDistributionInTxCommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDistributionRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM donations WHERE id = \$1 AND deleted = FALSE FOR UPDATE`).
		WithArgs("don-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "donor_name", "donor_contact", "category_id", "description",
			"quantity", "unit", "estimated_value", "received_date", "status",
			"deleted", "created_at", "updated_at",
		}).AddRow("don-1", "Maria Silva", "", "cat-1", "", 50.0, "kg", 200.0, now, "received", false, now, now))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\) FROM donation_distributions`).
		WithArgs("don-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(20.0))
	mock.ExpectExec(`INSERT INTO donation_distributions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE donations SET status = \$1`).
		WithArgs(models.DonationStatusReceived, sqlmock.AnyArg(), "don-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx DistributionTx) error {
		donation, err := tx.LockDonation(context.Background(), "don-1")
		if err != nil {
			return err
		}
		distributed, err := tx.SumQuantity(context.Background(), donation.ID, "")
		if err != nil {
			return err
		}
		require.Equal(t, 20.0, distributed)

		dist := &models.Distribution{
			DonationID:       donation.ID,
			FamilyID:         "fam-1",
			Quantity:         10,
			DistributionDate: now,
			Status:           models.DistributionStatusPending,
		}
		if err := tx.Insert(context.Background(), dist); err != nil {
			return err
		}
		return tx.SetDonationStatus(context.Background(), donation.ID, models.DonationStatusReceived)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributionInTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDistributionRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := errors.New("availability check failed")
	err := repo.InTx(context.Background(), func(tx DistributionTx) error {
		return wantErr
	})
	require.True(t, errors.Is(err, wantErr))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributionSumQuantityExcludesRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDistributionRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\) FROM donation_distributions\s+WHERE donation_id = \$1 AND status <> 'cancelled' AND deleted = FALSE AND id <> \$2`).
		WithArgs("don-1", "dist-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(15.0))

	total, err := repo.SumQuantity(context.Background(), "don-1", "dist-1")
	require.NoError(t, err)
	require.Equal(t, 15.0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributionListFiltersByDonationAndStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDistributionRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM donation_distributions WHERE 1=1 AND deleted = FALSE AND donation_id = \$1 AND status = \$2 ORDER BY distribution_date DESC LIMIT 20 OFFSET 0`).
		WithArgs("don-1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "donation_id", "family_id", "quantity", "distribution_date",
			"notes", "distributed_by", "status", "deleted", "created_at", "updated_at",
		}).AddRow("dist-1", "don-1", "fam-1", 10.0, now, "", "", "pending", false, now, now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM donation_distributions WHERE 1=1`).
		WithArgs("don-1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	distributions, total, err := repo.List(context.Background(), models.DistributionFilter{
		DonationID: "don-1",
		Status:     "pending",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, distributions, 1)
	require.Equal(t, "fam-1", distributions[0].FamilyID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributionCountActiveExcludesCancelled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDistributionRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM donation_distributions\s+WHERE donation_id = \$1 AND status <> 'cancelled' AND deleted = FALSE`).
		WithArgs("don-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActive(context.Background(), "don-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
