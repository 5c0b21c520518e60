package dto

import "github.com/refdesk/refdesk-api/internal/models"

// CreateReportRequest enqueues an asynchronous report job.
type CreateReportRequest struct {
	Type          models.ReportType   `json:"type" validate:"required,oneof=delegations availability declines"`
	Format        models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	CompetitionID string              `json:"competitionId,omitempty"`
	DateFrom      string              `json:"dateFrom,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo        string              `json:"dateTo,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ReportJobView is the API projection of a report job.
type ReportJobView struct {
	ID           string              `json:"id"`
	Type         models.ReportType   `json:"type"`
	Format       models.ReportFormat `json:"format"`
	Status       models.ReportStatus `json:"status"`
	Progress     int                 `json:"progress"`
	DownloadURL  *string             `json:"downloadUrl,omitempty"`
	ErrorMessage *string             `json:"errorMessage,omitempty"`
}
