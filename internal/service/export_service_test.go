package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/pkg/config"
	appErrors "github.com/solidario/donation-api/pkg/errors"
	"github.com/solidario/donation-api/pkg/storage"
)

func newExportFixture(t *testing.T) (*ExportService, *fakeDonationStore) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	donations := newFakeDonationStore()
	analytics := &fakeAnalyticsStore{
		performance: []models.CategoryPerformanceRow{
			{CategoryName: "Food", TotalDonations: 3, TotalValue: 500, TotalQuantity: 80, TotalDistributed: 60, FamiliesBenefited: 4},
		},
	}

	svc := NewExportService(donations, analytics, store, config.ReportsConfig{
		SignedURLSecret:   "export-test-secret",
		SignedURLTTL:      time.Hour,
		WorkerConcurrency: 1,
		WorkerRetries:     1,
	}, "/api/v1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})
	return svc, donations
}

func waitForJob(t *testing.T, svc *ExportService, id string) *dto.ReportJob {
	t.Helper()
	var job *dto.ReportJob
	require.Eventually(t, func() bool {
		current, err := svc.Job(id)
		if err != nil {
			return false
		}
		job = current
		return job.Status == dto.ReportStatusCompleted || job.Status == dto.ReportStatusFailed
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestExportDonationsCSV(t *testing.T) {
	svc, donations := newExportFixture(t)
	require.NoError(t, donations.Create(context.Background(), &models.Donation{
		DonorName:    "Maria Silva",
		CategoryID:   "cat-1",
		Quantity:     25,
		Unit:         "kg",
		ReceivedDate: time.Now().UTC(),
		Status:       models.DonationStatusReceived,
	}))

	job, err := svc.Request(context.Background(), dto.ExportRequest{
		Type:   dto.ReportDonations,
		Format: dto.ReportFormatCSV,
		Period: "all",
	})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	require.False(t, job.CreatedAt.IsZero())

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, dto.ReportStatusCompleted, done.Status)
	require.NotEmpty(t, done.FileName)
	require.Contains(t, done.DownloadURL, "/api/v1/reports/download/")

	token := done.DownloadURL[strings.LastIndex(done.DownloadURL, "/")+1:]
	_, relPath, err := svc.ParseToken(token)
	require.NoError(t, err)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	contents, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), "Maria Silva")
}

func TestExportCategoryPerformancePDF(t *testing.T) {
	svc, _ := newExportFixture(t)

	job, err := svc.Request(context.Background(), dto.ExportRequest{
		Type:   dto.ReportCategoryPerformance,
		Format: dto.ReportFormatPDF,
		Period: "month",
	})
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, dto.ReportStatusCompleted, done.Status)
	require.True(t, strings.HasSuffix(done.FileName, ".pdf"))
}

func TestExportRequestValidatesInput(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Request(context.Background(), dto.ExportRequest{
		Type:   "inventory",
		Format: dto.ReportFormatCSV,
		Period: "month",
	})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExportJobNotFound(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Job("missing")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestExportParseTokenRejectsTampering(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, _, err := svc.ParseToken("bogus-token")
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
