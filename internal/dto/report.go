package dto

import "time"

// ReportType enumerates the supported export reports.
type ReportType string

const (
	ReportDonations           ReportType = "donations"
	ReportCategoryPerformance ReportType = "category_performance"
)

// ReportFormat enumerates the supported output formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus tracks the lifecycle of an export job.
type ReportStatus string

const (
	ReportStatusQueued    ReportStatus = "queued"
	ReportStatusRunning   ReportStatus = "running"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// ExportRequest asks for an asynchronous report export.
type ExportRequest struct {
	Type      ReportType   `json:"type" validate:"required,oneof=donations category_performance"`
	Format    ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Period    string       `json:"period,omitempty"`
	StartDate *time.Time   `json:"start_date,omitempty"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
}

// ReportJob describes the state of an export job.
type ReportJob struct {
	ID          string       `json:"id"`
	Type        ReportType   `json:"type"`
	Format      ReportFormat `json:"format"`
	Status      ReportStatus `json:"status"`
	FileName    string       `json:"file_name,omitempty"`
	DownloadURL string       `json:"download_url,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
