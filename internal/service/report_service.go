package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/repository"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
	"github.com/refdesk/refdesk-api/pkg/export"
	"github.com/refdesk/refdesk-api/pkg/jobs"
	"github.com/refdesk/refdesk-api/pkg/storage"
)

type reportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	DelegationRows(ctx context.Context, window repository.ReportWindow) ([]repository.DelegationReportRow, error)
	AvailabilityRows(ctx context.Context, window repository.ReportWindow) ([]repository.AvailabilityReportRow, error)
	DeclineRows(ctx context.Context, window repository.ReportWindow) ([]repository.DeclineReportRow, error)
}

// ReportConfig tunes the asynchronous report pipeline.
type ReportConfig struct {
	Workers         int
	MaxRetries      int
	RetryDelay      time.Duration
	FileTTL         time.Duration
	CleanupInterval time.Duration
}

// reportMetrics counts pipeline outcomes.
type reportMetrics interface {
	RecordReportJob(status models.ReportStatus)
}

// ReportService generates CSV and PDF exports in the background and
// serves them through signed download URLs.
type ReportService struct {
	repo      reportRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	metrics   reportMetrics
	validator *validator.Validate
	logger    *zap.Logger
	config    ReportConfig
}

// NewReportService constructs the service and its worker queue.
func NewReportService(repo reportRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ReportConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &ReportService{
		repo:      repo,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		validator: validate,
		logger:    logger,
		config:    cfg,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// UseMetrics attaches outcome counters to the pipeline.
func (s *ReportService) UseMetrics(metrics reportMetrics) {
	s.metrics = metrics
}

func (s *ReportService) countJob(status models.ReportStatus) {
	if s.metrics != nil {
		s.metrics.RecordReportJob(status)
	}
}

// Start launches the workers, requeues jobs interrupted by a restart
// and begins periodic file cleanup.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)

	queued, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
	} else {
		for _, job := range queued {
			s.enqueue(job.ID)
		}
	}

	if s.config.CleanupInterval > 0 && s.config.FileTTL > 0 {
		go s.cleanupLoop(ctx)
	}
}

// Stop drains the workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Create queues a new report job.
func (s *ReportService) Create(ctx context.Context, userID string, req dto.CreateReportRequest) (*dto.ReportJobView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if req.DateFrom != "" && req.DateTo != "" && req.DateTo < req.DateFrom {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}

	params := models.ReportJobParams{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Format:   req.Format,
	}
	if req.CompetitionID != "" {
		competitionID := req.CompetitionID
		params.CompetitionID = &competitionID
	}

	job := &models.ReportJob{
		Type:      req.Type,
		Params:    params,
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	s.enqueue(job.ID)
	s.countJob(models.ReportStatusQueued)
	return s.projection(job), nil
}

// Get returns the current state of a report job.
func (s *ReportService) Get(ctx context.Context, id string) (*dto.ReportJobView, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return s.projection(job), nil
}

// Download resolves a signed token to the generated file.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished || job.ResultURL == nil || *job.ResultURL != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file is not available")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file is gone")
	}
	return file, relPath, nil
}

func (s *ReportService) enqueue(jobID string) {
	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "report", Payload: jobID}); err != nil {
		s.logger.Warn("failed to enqueue report job", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("report job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	record, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}
	if record.Status == models.ReportStatusFinished {
		return nil
	}

	processing := models.ReportStatusProcessing
	progress := 10
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}

	payload, err := s.render(ctx, record)
	if err != nil {
		return s.fail(ctx, jobID, job.Attempt, err)
	}

	filename := fmt.Sprintf("%s-%s.%s", record.Type, record.ID, record.Params.Format)
	if _, err := s.store.Save(filename, payload); err != nil {
		return s.fail(ctx, jobID, job.Attempt, fmt.Errorf("save report file: %w", err))
	}

	finished := models.ReportStatusFinished
	done := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{
		Status:     &finished,
		Progress:   &done,
		ResultURL:  &filename,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark report finished: %w", err)
	}

	s.countJob(finished)
	s.logger.Info("report generated", zap.String("job_id", jobID), zap.String("file", filename))
	return nil
}

// fail marks the job failed once retries are exhausted; before that the
// error propagates so the queue retries.
func (s *ReportService) fail(ctx context.Context, jobID string, attempt int, cause error) error {
	if attempt < s.config.MaxRetries {
		return cause
	}
	failed := models.ReportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	s.countJob(failed)
	s.logger.Error("report generation failed", zap.String("job_id", jobID), zap.Error(cause))
	return nil
}

func (s *ReportService) render(ctx context.Context, job *models.ReportJob) ([]byte, error) {
	window := repository.ReportWindow{}
	if job.Params.CompetitionID != nil {
		window.CompetitionID = *job.Params.CompetitionID
	}
	if job.Params.DateFrom != "" {
		from, err := time.Parse(models.AvailabilityDateLayout, job.Params.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("parse dateFrom: %w", err)
		}
		window.From = &from
	}
	if job.Params.DateTo != "" {
		to, err := time.Parse(models.AvailabilityDateLayout, job.Params.DateTo)
		if err != nil {
			return nil, fmt.Errorf("parse dateTo: %w", err)
		}
		window.To = &to
	}

	var (
		dataset export.Dataset
		title   string
		err     error
	)
	switch job.Type {
	case models.ReportTypeDelegations:
		title = "Match Delegations"
		dataset, err = s.delegationsDataset(ctx, window)
	case models.ReportTypeAvailability:
		title = "Referee Availability"
		dataset, err = s.availabilityDataset(ctx, window)
	case models.ReportTypeDeclines:
		title = "Declined Assignments"
		dataset, err = s.declinesDataset(ctx, window)
	default:
		return nil, fmt.Errorf("unsupported report type %q", job.Type)
	}
	if err != nil {
		return nil, err
	}

	if job.Params.Format == models.ReportFormatPDF {
		return s.pdf.Render(dataset, title)
	}
	return s.csv.Render(dataset)
}

func (s *ReportService) delegationsDataset(ctx context.Context, window repository.ReportWindow) (export.Dataset, error) {
	rows, err := s.repo.DelegationRows(ctx, window)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Date", "Competition", "Match", "Venue", "Status", "Slot", "Referee", "Response"}}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":        row.ScheduledAt.Format("2006-01-02 15:04"),
			"Competition": row.Competition,
			"Match":       fmt.Sprintf("%s vs %s", row.HomeTeam, row.AwayTeam),
			"Venue":       row.Venue,
			"Status":      row.Status,
			"Slot":        deref(row.Slot),
			"Referee":     deref(row.Referee),
			"Response":    deref(row.Response),
		})
	}
	return dataset, nil
}

func (s *ReportService) availabilityDataset(ctx context.Context, window repository.ReportWindow) (export.Dataset, error) {
	rows, err := s.repo.AvailabilityRows(ctx, window)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Date", "Referee", "License", "Available", "Reason"}}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      row.Date.Format(models.AvailabilityDateLayout),
			"Referee":   row.Referee,
			"License":   row.License,
			"Available": strconv.FormatBool(row.Available),
			"Reason":    deref(row.Reason),
		})
	}
	return dataset, nil
}

func (s *ReportService) declinesDataset(ctx context.Context, window repository.ReportWindow) (export.Dataset, error) {
	rows, err := s.repo.DeclineRows(ctx, window)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{Headers: []string{"Date", "Match", "Slot", "Referee", "Reason", "Note", "Responded"}}
	for _, row := range rows {
		responded := ""
		if row.RespondedAt != nil {
			responded = row.RespondedAt.Format("2006-01-02 15:04")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      row.ScheduledAt.Format("2006-01-02 15:04"),
			"Match":     fmt.Sprintf("%s vs %s", row.HomeTeam, row.AwayTeam),
			"Slot":      row.Slot,
			"Referee":   row.Referee,
			"Reason":    deref(row.Reason),
			"Note":      deref(row.Note),
			"Responded": responded,
		})
	}
	return dataset, nil
}

func (s *ReportService) projection(job *models.ReportJob) *dto.ReportJobView {
	view := &dto.ReportJobView{
		ID:           job.ID,
		Type:         job.Type,
		Format:       job.Params.Format,
		Status:       job.Status,
		Progress:     job.Progress,
		ErrorMessage: job.ErrorMessage,
	}
	if job.Status == models.ReportStatusFinished && job.ResultURL != nil {
		token, _, err := s.signer.Generate(job.ID, *job.ResultURL)
		if err != nil {
			s.logger.Warn("failed to sign report download url", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			url := "/api/v1/downloads/" + token
			view.DownloadURL = &url
		}
	}
	return view
}

func (s *ReportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.store.CleanupOlderThan(s.config.FileTTL)
			if err != nil {
				s.logger.Warn("report file cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("expired report files removed", zap.Int("count", len(removed)))
			}
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
