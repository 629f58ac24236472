package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/pkg/config"
	appErrors "github.com/solidario/donation-api/pkg/errors"
	"github.com/solidario/donation-api/pkg/export"
	"github.com/solidario/donation-api/pkg/jobs"
	"github.com/solidario/donation-api/pkg/storage"
)

const exportPageSize = 100

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders report exports asynchronously through a worker
// queue and serves them via signed download URLs. Job state is kept in
// memory; exports are disposable artifacts regenerated on demand.
type ExportService struct {
	donations donationStore
	analytics analyticsStore
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	logger    *zap.Logger
	validate  *validator.Validate
	apiPrefix string
	now       func() time.Time

	mu   sync.RWMutex
	jobs map[string]*dto.ReportJob
}

// NewExportService constructs the service and its worker queue.
func NewExportService(donations donationStore, analytics analyticsStore, store fileStorage, cfg config.ReportsConfig, apiPrefix string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ExportService{
		donations: donations,
		analytics: analytics,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    storage.NewSignedURLSigner(cfg.SignedURLSecret, cfg.SignedURLTTL),
		logger:    logger,
		validate:  validator.New(),
		apiPrefix: apiPrefix,
		now:       time.Now,
		jobs:      make(map[string]*dto.ReportJob),
	}
	svc.queue = jobs.NewQueue("report-export", svc.handleJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return svc
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request validates and enqueues an export job.
func (s *ExportService) Request(ctx context.Context, req dto.ExportRequest) (*dto.ReportJob, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	job := &dto.ReportJob{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Format:    req.Format,
		Status:    dto.ReportStatusQueued,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(req.Type), Payload: req}); err != nil {
		s.setFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.Job(job.ID)
}

// Job returns the current state of an export job.
func (s *ExportService) Job(id string) (*dto.ReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	copied := *job
	return &copied, nil
}

// ParseToken validates a signed download token.
func (s *ExportService) ParseToken(token string) (jobID, relPath string, err error) {
	jobID, relPath, _, err = s.signer.Parse(token, false)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	return jobID, relPath, nil
}

// Open returns a handle to a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.ExportRequest)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	s.setStatus(job.ID, dto.ReportStatusRunning)

	dataset, title, err := s.buildDataset(ctx, req)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	var payload []byte
	switch req.Format {
	case dto.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case dto.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	filename := fmt.Sprintf("%s-%s-%s.%s", req.Type, job.ID[:8], s.now().UTC().Format("20060102-150405"), req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	prefix := strings.TrimRight(s.apiPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	completedAt := s.now().UTC()

	s.mu.Lock()
	if stored, ok := s.jobs[job.ID]; ok {
		stored.Status = dto.ReportStatusCompleted
		stored.FileName = filename
		stored.DownloadURL = fmt.Sprintf("%s/reports/download/%s", prefix, token)
		stored.CompletedAt = &completedAt
	}
	s.mu.Unlock()

	s.logger.Info("report export completed",
		zap.String("job_id", job.ID),
		zap.String("type", string(req.Type)),
		zap.String("file", filename))
	return nil
}

func (s *ExportService) buildDataset(ctx context.Context, req dto.ExportRequest) (export.Dataset, string, error) {
	filter := models.AnalyticsFilter{
		Period:    models.Period(req.Period),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	rng := ResolvePeriodRange(s.now(), filter)

	switch req.Type {
	case dto.ReportDonations:
		return s.donationsDataset(ctx, rng)
	case dto.ReportCategoryPerformance:
		return s.categoryDataset(ctx, rng)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", req.Type)
	}
}

func (s *ExportService) donationsDataset(ctx context.Context, rng models.DateRange) (export.Dataset, string, error) {
	dataset := export.Dataset{
		Headers: []string{"ID", "Donor", "Category", "Quantity", "Unit", "Estimated Value", "Received", "Status"},
	}
	filter := models.DonationFilter{
		ReceivedFrom: rng.From,
		ReceivedTo:   rng.To,
		PageSize:     exportPageSize,
		SortBy:       "received_date",
		SortOrder:    "asc",
	}
	for page := 1; ; page++ {
		filter.Page = page
		donations, _, err := s.donations.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, d := range donations {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"ID":              d.ID,
				"Donor":           d.DonorName,
				"Category":        d.CategoryID,
				"Quantity":        fmt.Sprintf("%.2f", d.Quantity),
				"Unit":            d.Unit,
				"Estimated Value": fmt.Sprintf("%.2f", d.EstimatedValue),
				"Received":        d.ReceivedDate.Format("2006-01-02"),
				"Status":          string(d.Status),
			})
		}
		if len(donations) < exportPageSize {
			break
		}
	}
	return dataset, "Donations Report", nil
}

func (s *ExportService) categoryDataset(ctx context.Context, rng models.DateRange) (export.Dataset, string, error) {
	rows, err := s.analytics.CategoryPerformance(ctx, rng)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Category", "Donations", "Total Value", "Total Quantity", "Distributed", "In Stock", "Families"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Category":       row.CategoryName,
			"Donations":      fmt.Sprintf("%d", row.TotalDonations),
			"Total Value":    fmt.Sprintf("%.2f", row.TotalValue),
			"Total Quantity": fmt.Sprintf("%.2f", row.TotalQuantity),
			"Distributed":    fmt.Sprintf("%.2f", row.TotalDistributed),
			"In Stock":       fmt.Sprintf("%.2f", row.TotalQuantity-row.TotalDistributed),
			"Families":       fmt.Sprintf("%d", row.FamiliesBenefited),
		})
	}
	return dataset, "Category Performance Report", nil
}

func (s *ExportService) setStatus(id string, status dto.ReportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
	}
}

func (s *ExportService) setFailed(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = dto.ReportStatusFailed
		job.Error = err.Error()
	}
}
