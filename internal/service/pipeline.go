// internal/service/pipeline.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"labeleven-back/internal/apperr"
	"labeleven-back/internal/models"
)

// PipelineDispatcher hands a freshly created pipeline to the external
// execution engine. The engine reports back through ApplyUpdate.
type PipelineDispatcher interface {
	Dispatch(ctx context.Context, pipelineID, reportID uint, parameters map[string]any) error
}

type PipelineService struct {
	db         *gorm.DB
	dispatcher PipelineDispatcher
	logger     *slog.Logger
}

func NewPipelineService(db *gorm.DB, dispatcher PipelineDispatcher, logger *slog.Logger) *PipelineService {
	return &PipelineService{db: db, dispatcher: dispatcher, logger: logger}
}

type ExecuteInput struct {
	ReportID   uint
	Parameters map[string]any
}

// PipelineResponse is the API projection of a pipeline row with its step
// list decoded.
type PipelineResponse struct {
	ID          uint                  `json:"id"`
	ReportID    uint                  `json:"reportId"`
	Status      models.PipelineStatus `json:"status"`
	Progress    int                   `json:"progress"`
	Steps       []models.PipelineStep `json:"steps"`
	StartedAt   *time.Time            `json:"startedAt,omitempty"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
}

// PipelineResultBundle carries the five decoded result payloads of a
// completed pipeline. Missing payloads decode to empty maps.
type PipelineResultBundle struct {
	PipelineID        uint           `json:"pipelineId"`
	SchemaResult      map[string]any `json:"schemaResult"`
	TranslationResult map[string]any `json:"translationResult"`
	DiagnosisResult   map[string]any `json:"diagnosisResult"`
	ChecklistResult   map[string]any `json:"checklistResult"`
	FinalReportResult map[string]any `json:"finalReportResult"`
}

// Execute starts a pipeline run for an approved report. At most one RUNNING
// pipeline may exist per report at a time; re-execution always creates a
// fresh row rather than mutating a previous run.
func (s *PipelineService) Execute(ctx context.Context, email string, input ExecuteInput) (*PipelineResponse, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	var report models.Report
	if err := s.db.WithContext(ctx).Preload("Project").First(&report, input.ReportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, err
	}
	if err := assertOwner(report.Project.UserID, user); err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusApproved {
		return nil, apperr.Precondition("only approved reports can be executed")
	}

	steps, err := json.Marshal(models.NewPipelineSteps())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pipeline := models.Pipeline{
		ReportID:     report.ID,
		Status:       models.PipelineStatusRunning,
		Progress:     0,
		StepStatuses: string(steps),
		StartedAt:    &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var running int64
		if err := tx.Model(&models.Pipeline{}).
			Where("report_id = ? AND status = ?", report.ID, models.PipelineStatusRunning).
			Count(&running).Error; err != nil {
			return err
		}
		if running > 0 {
			return apperr.Precondition("a pipeline is already running for this report")
		}
		return tx.Create(&pipeline).Error
	})
	if err != nil {
		// Concurrent executes can both pass the count; the partial unique
		// index on (report_id) WHERE status = 'RUNNING' rejects the loser.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Precondition("a pipeline is already running for this report")
		}
		return nil, err
	}

	if s.dispatcher != nil {
		go s.dispatch(pipeline.ID, report.ID, input.Parameters)
	}

	return s.toResponse(&pipeline), nil
}

// dispatch hands the run to the engine. A dispatch failure marks the
// pipeline FAILED; there are no retries.
func (s *PipelineService) dispatch(pipelineID, reportID uint, parameters map[string]any) {
	ctx := context.Background()
	err := s.dispatcher.Dispatch(ctx, pipelineID, reportID, parameters)
	if err == nil {
		return
	}
	s.logger.Error("pipeline dispatch failed", "pipeline_id", pipelineID, "error", err)

	var pipeline models.Pipeline
	if markErr := s.db.First(&pipeline, pipelineID).Error; markErr != nil {
		s.logger.Error("failed to mark pipeline failed", "pipeline_id", pipelineID, "error", markErr)
		return
	}
	if pipeline.Status != models.PipelineStatusRunning {
		return
	}

	now := time.Now()
	markErr := s.db.Model(&pipeline).
		Where("status = ?", models.PipelineStatusRunning).
		Updates(map[string]any{
			"status":       models.PipelineStatusFailed,
			"completed_at": &now,
		}).Error
	if markErr != nil {
		s.logger.Error("failed to mark pipeline failed", "pipeline_id", pipelineID, "error", markErr)
	}
}

func (s *PipelineService) GetStatus(ctx context.Context, email string, id uint) (*PipelineResponse, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.findOwnedPipeline(ctx, id, user)
	if err != nil {
		return nil, err
	}
	return s.toResponse(pipeline), nil
}

func (s *PipelineService) GetResult(ctx context.Context, email string, id uint) (*PipelineResultBundle, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.findOwnedPipeline(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if pipeline.Status != models.PipelineStatusCompleted {
		return nil, apperr.Precondition("only completed pipelines have results")
	}

	return &PipelineResultBundle{
		PipelineID:        pipeline.ID,
		SchemaResult:      s.decodeResult(pipeline.ID, "schema", pipeline.SchemaResult),
		TranslationResult: s.decodeResult(pipeline.ID, "translation", pipeline.TranslationResult),
		DiagnosisResult:   s.decodeResult(pipeline.ID, "diagnosis", pipeline.DiagnosisResult),
		ChecklistResult:   s.decodeResult(pipeline.ID, "checklist", pipeline.ChecklistResult),
		FinalReportResult: s.decodeResult(pipeline.ID, "final_report", pipeline.FinalReportResult),
	}, nil
}

func (s *PipelineService) Stop(ctx context.Context, email string, id uint) error {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return err
	}
	pipeline, err := s.findOwnedPipeline(ctx, id, user)
	if err != nil {
		return err
	}
	if pipeline.Status != models.PipelineStatusRunning {
		return apperr.Precondition("only running pipelines can be stopped")
	}

	// Guarded update: the engine callback may finish the run between the read
	// above and this write, and a terminal pipeline must never change again.
	now := time.Now()
	res := s.db.WithContext(ctx).Model(pipeline).
		Where("status = ?", models.PipelineStatusRunning).
		Updates(map[string]any{
			"status":       models.PipelineStatusStopped,
			"completed_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Precondition("only running pipelines can be stopped")
	}
	return nil
}

// ReExecute starts a fresh run from the same report, re-checking the
// approval precondition. The old pipeline's history stays untouched.
func (s *PipelineService) ReExecute(ctx context.Context, email string, id uint) (*PipelineResponse, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	old, err := s.findOwnedPipeline(ctx, id, user)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, email, ExecuteInput{ReportID: old.ReportID})
}

// PipelineUpdate is an external engine write-back. Zero-valued fields leave
// the row unchanged.
type PipelineUpdate struct {
	Status   models.PipelineStatus `json:"status,omitempty"`
	Progress *int                  `json:"progress,omitempty"`
	Steps    []models.PipelineStep `json:"steps,omitempty"`

	SchemaResult      json.RawMessage `json:"schemaResult,omitempty"`
	TranslationResult json.RawMessage `json:"translationResult,omitempty"`
	DiagnosisResult   json.RawMessage `json:"diagnosisResult,omitempty"`
	ChecklistResult   json.RawMessage `json:"checklistResult,omitempty"`
	FinalReportResult json.RawMessage `json:"finalReportResult,omitempty"`
}

// ApplyUpdate is the engine's idempotent write-back path. Updates against a
// pipeline that already reached a terminal state are ignored; a terminal
// status in the update stamps completedAt.
func (s *PipelineService) ApplyUpdate(ctx context.Context, id uint, update PipelineUpdate) (*models.Pipeline, error) {
	var pipeline models.Pipeline
	if err := s.db.WithContext(ctx).First(&pipeline, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("pipeline not found")
		}
		return nil, err
	}

	if pipeline.Status.Terminal() {
		return &pipeline, nil
	}

	if update.Status != "" {
		if err := update.Status.Validate(); err != nil {
			return nil, err
		}
		pipeline.Status = update.Status
		if update.Status.Terminal() && pipeline.CompletedAt == nil {
			now := time.Now()
			pipeline.CompletedAt = &now
		}
	}
	if update.Progress != nil {
		pipeline.Progress = *update.Progress
	}
	if update.Steps != nil {
		for _, step := range update.Steps {
			if err := step.Status.Validate(); err != nil {
				return nil, err
			}
		}
		encoded, err := json.Marshal(update.Steps)
		if err != nil {
			return nil, err
		}
		pipeline.StepStatuses = string(encoded)
	}
	applyBlob(&pipeline.SchemaResult, update.SchemaResult)
	applyBlob(&pipeline.TranslationResult, update.TranslationResult)
	applyBlob(&pipeline.DiagnosisResult, update.DiagnosisResult)
	applyBlob(&pipeline.ChecklistResult, update.ChecklistResult)
	applyBlob(&pipeline.FinalReportResult, update.FinalReportResult)

	if err := s.db.WithContext(ctx).Save(&pipeline).Error; err != nil {
		return nil, err
	}
	return &pipeline, nil
}

func applyBlob(dst *string, src json.RawMessage) {
	if len(src) > 0 {
		*dst = string(src)
	}
}

func (s *PipelineService) findOwnedPipeline(ctx context.Context, id uint, caller *models.User) (*models.Pipeline, error) {
	var pipeline models.Pipeline
	if err := s.db.WithContext(ctx).Preload("Report.Project").First(&pipeline, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("pipeline not found")
		}
		return nil, err
	}
	if err := assertOwner(pipeline.Report.Project.UserID, caller); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

func (s *PipelineService) toResponse(pipeline *models.Pipeline) *PipelineResponse {
	var steps []models.PipelineStep
	if pipeline.StepStatuses != "" {
		if err := json.Unmarshal([]byte(pipeline.StepStatuses), &steps); err != nil {
			s.logger.Warn("unparseable step statuses", "pipeline_id", pipeline.ID, "error", err)
			steps = nil
		}
	}

	return &PipelineResponse{
		ID:          pipeline.ID,
		ReportID:    pipeline.ReportID,
		Status:      pipeline.Status,
		Progress:    pipeline.Progress,
		Steps:       steps,
		StartedAt:   pipeline.StartedAt,
		CompletedAt: pipeline.CompletedAt,
	}
}

// decodeResult never fails: an unset or corrupt payload comes back as an
// empty map, with corruption logged rather than surfaced to the caller.
func (s *PipelineService) decodeResult(pipelineID uint, name, raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		s.logger.Warn("unparseable pipeline result", "pipeline_id", pipelineID, "result", name, "error", err)
		return map[string]any{}
	}
	if decoded == nil {
		return map[string]any{}
	}
	return decoded
}
