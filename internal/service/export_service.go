package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
	"github.com/pitchstudio/deck-api/pkg/export"
	"github.com/pitchstudio/deck-api/pkg/jobs"
	"github.com/pitchstudio/deck-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type exportProjectStore interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

type exportSlideStore interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Slide, error)
}

// ExportDownload is a resolved, verified download ready to stream.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService renders decks to files in the background. Jobs are persisted
// so status survives restarts; the queue itself is in-memory.
type ExportService struct {
	jobs     exportJobStore
	projects exportProjectStore
	slides   exportSlideStore
	storage  *storage.LocalStorage
	signer   *storage.SignedURLSigner
	csv      *export.CSVExporter
	pdf      *export.DeckPDFExporter
	validate *validator.Validate
	logger   *zap.Logger

	queue           *jobs.Queue
	apiPrefix       string
	cleanupInterval time.Duration
	fileTTL         time.Duration
	cancelCleanup   context.CancelFunc
}

// ExportServiceConfig bundles the wiring dependencies.
type ExportServiceConfig struct {
	Jobs     exportJobStore
	Projects exportProjectStore
	Slides   exportSlideStore
	Storage  *storage.LocalStorage
	Signer   *storage.SignedURLSigner
	Validate *validator.Validate
	Logger   *zap.Logger

	APIPrefix       string
	Workers         int
	MaxRetries      int
	CleanupInterval time.Duration
	FileTTL         time.Duration
}

// NewExportService constructs the service and its worker queue.
func NewExportService(cfg ExportServiceConfig) *ExportService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validate == nil {
		cfg.Validate = validator.New()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if cfg.FileTTL <= 0 {
		cfg.FileTTL = 24 * time.Hour
	}
	s := &ExportService{
		jobs:            cfg.Jobs,
		projects:        cfg.Projects,
		slides:          cfg.Slides,
		storage:         cfg.Storage,
		signer:          cfg.Signer,
		csv:             export.NewCSVExporter(),
		pdf:             export.NewDeckPDFExporter(),
		validate:        cfg.Validate,
		logger:          cfg.Logger,
		apiPrefix:       cfg.APIPrefix,
		cleanupInterval: cfg.CleanupInterval,
		fileTTL:         cfg.FileTTL,
	}
	s.queue = jobs.NewQueue("deck-exports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     cfg.Logger,
	})
	return s
}

// Start launches the worker queue, requeues jobs left over from a previous
// run and starts the storage cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.requeuePending(ctx)

	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cancelCleanup = cancel
	go s.cleanupLoop(cleanupCtx)
}

// Stop drains the queue workers and halts cleanup.
func (s *ExportService) Stop() {
	if s.cancelCleanup != nil {
		s.cancelCleanup()
	}
	s.queue.Stop()
}

// CreateJob validates the request, persists a queued job and dispatches it.
// Dispatch failure marks the job FAILED rather than leaving it dangling.
func (s *ExportService) CreateJob(ctx context.Context, projectID string, req dto.ExportRequest) (*models.ExportJob, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	job := &models.ExportJob{
		ProjectID: projectID,
		Params: models.ExportJobParams{
			Format:        req.Format,
			IncludeHidden: req.IncludeHidden,
		},
		Status: models.ExportStatusQueued,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "deck-export", Payload: job.ID}); err != nil {
		s.markFailed(ctx, job.ID, fmt.Sprintf("dispatch failed: %v", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dispatch export job")
	}
	return job, nil
}

// GetStatus returns the persisted job state.
func (s *ExportService) GetStatus(ctx context.Context, jobID string) (*models.ExportJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the rendered file. The
// token must belong to a finished job whose result still references it.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download token")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished || job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file missing")
	}
	return &ExportDownload{
		File:      file,
		Filename:  fmt.Sprintf("deck-%s.%s", job.ProjectID, job.Params.Format),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	jobID, _ := queued.Payload.(string)
	if jobID == "" {
		jobID = queued.ID
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}
	if job.Status == models.ExportStatusFinished {
		return nil
	}

	processing := models.ExportStatusProcessing
	if err := s.jobs.Update(ctx, jobID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	data, ext, err := s.render(ctx, job)
	if err != nil {
		s.markFailed(ctx, jobID, err.Error())
		return nil
	}

	relPath := fmt.Sprintf("decks/%s/%s.%s", job.ProjectID, jobID, ext)
	if _, err := s.storage.Save(relPath, data); err != nil {
		s.markFailed(ctx, jobID, fmt.Sprintf("store export: %v", err))
		return nil
	}

	token, _, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		s.markFailed(ctx, jobID, fmt.Sprintf("sign export url: %v", err))
		return nil
	}

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	resultURL := s.apiPrefix + "/exports/download/" + token
	if err := s.jobs.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:     &finished,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("finalize export job: %w", err)
	}
	s.logger.Info("deck export finished",
		zap.String("job_id", jobID),
		zap.String("project_id", job.ProjectID),
		zap.String("format", string(job.Params.Format)))
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) ([]byte, string, error) {
	project, err := s.projects.GetByID(ctx, job.ProjectID)
	if err != nil {
		return nil, "", fmt.Errorf("load project: %w", err)
	}
	slides, err := s.slides.ListByProject(ctx, job.ProjectID)
	if err != nil {
		return nil, "", fmt.Errorf("load slides: %w", err)
	}
	if !job.Params.IncludeHidden {
		visible := slides[:0]
		for _, slide := range slides {
			if !slide.IsHidden {
				visible = append(visible, slide)
			}
		}
		slides = visible
	}

	switch job.Params.Format {
	case models.ExportFormatPDF:
		data, err := s.pdf.Render(project, slides)
		if err != nil {
			return nil, "", err
		}
		return data, "pdf", nil
	case models.ExportFormatCSV:
		data, err := s.csv.Render(slidesDataset(slides))
		if err != nil {
			return nil, "", err
		}
		return data, "csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", job.Params.Format)
	}
}

func slidesDataset(slides []models.Slide) export.Dataset {
	rows := make([]map[string]string, 0, len(slides))
	for _, slide := range slides {
		body := slide.Content.Body
		if len(slide.Content.Bullets) > 0 {
			body = strings.Join(slide.Content.Bullets, "; ")
		}
		rows = append(rows, map[string]string{
			"order":    strconv.Itoa(slide.OrderIndex),
			"layout":   string(slide.Layout),
			"headline": slide.Headline,
			"subline":  slide.Subline,
			"content":  body,
			"status":   string(slide.ApprovalStatus),
			"locked":   strconv.FormatBool(slide.IsLocked),
		})
	}
	return export.Dataset{
		Headers: []string{"order", "layout", "headline", "subline", "content", "status", "locked"},
		Rows:    rows,
	}
}

func (s *ExportService) markFailed(ctx context.Context, jobID, message string) {
	failed := models.ExportStatusFailed
	now := time.Now().UTC()
	if err := s.jobs.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	s.logger.Warn("deck export failed", zap.String("job_id", jobID), zap.String("reason", message))
}

func (s *ExportService) requeuePending(ctx context.Context) {
	pending, err := s.jobs.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to list queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "deck-export", Payload: job.ID}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.storage.CleanupOlderThan(s.fileTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("export cleanup removed files", zap.Int("count", len(deleted)))
			}
		}
	}
}
