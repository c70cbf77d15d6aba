// internal/models/status.go
package models

import (
	"time"

	"labeleven-back/internal/apperr"
)

type ReportType string

const (
	ReportTypeValidation ReportType = "VALIDATION"
	ReportTypeMerge      ReportType = "MERGE"
	ReportTypeFinal      ReportType = "FINAL"
)

func (t ReportType) Validate() error {
	switch t {
	case ReportTypeValidation, ReportTypeMerge, ReportTypeFinal:
		return nil
	}
	return apperr.Newf(apperr.KindPrecondition, "unknown report type %q", string(t))
}

type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusApproved   ReportStatus = "APPROVED"
	ReportStatusRejected   ReportStatus = "REJECTED"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

func (s ReportStatus) Validate() error {
	switch s {
	case ReportStatusPending, ReportStatusProcessing, ReportStatusApproved,
		ReportStatusRejected, ReportStatusCompleted, ReportStatusFailed:
		return nil
	}
	return apperr.Newf(apperr.KindPrecondition, "unknown report status %q", string(s))
}

type PipelineStatus string

const (
	PipelineStatusRunning   PipelineStatus = "RUNNING"
	PipelineStatusCompleted PipelineStatus = "COMPLETED"
	PipelineStatusFailed    PipelineStatus = "FAILED"
	PipelineStatusStopped   PipelineStatus = "STOPPED"
)

func (s PipelineStatus) Validate() error {
	switch s {
	case PipelineStatusRunning, PipelineStatusCompleted, PipelineStatusFailed, PipelineStatusStopped:
		return nil
	}
	return apperr.Newf(apperr.KindPrecondition, "unknown pipeline status %q", string(s))
}

// Terminal reports whether a pipeline in this status can no longer change.
func (s PipelineStatus) Terminal() bool {
	return s == PipelineStatusCompleted || s == PipelineStatusFailed || s == PipelineStatusStopped
}

type StepStatus string

const (
	StepStatusPending   StepStatus = "PENDING"
	StepStatusRunning   StepStatus = "RUNNING"
	StepStatusCompleted StepStatus = "COMPLETED"
	StepStatusFailed    StepStatus = "FAILED"
)

func (s StepStatus) Validate() error {
	switch s {
	case StepStatusPending, StepStatusRunning, StepStatusCompleted, StepStatusFailed:
		return nil
	}
	return apperr.Newf(apperr.KindPrecondition, "unknown step status %q", string(s))
}

// PipelineStep is one entry of a pipeline's step list.
type PipelineStep struct {
	StepName    string     `json:"step_name"`
	Status      StepStatus `json:"status"`
	Progress    int        `json:"progress"`
	Message     string     `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PipelineStepNames is the fixed template every new pipeline starts from.
var PipelineStepNames = []string{
	"Schema Extraction",
	"Translation",
	"Diagnosis",
	"Checklist",
	"Final Report",
}

// NewPipelineSteps returns the five-step template, all pending at 0%.
func NewPipelineSteps() []PipelineStep {
	steps := make([]PipelineStep, 0, len(PipelineStepNames))
	for _, name := range PipelineStepNames {
		steps = append(steps, PipelineStep{
			StepName: name,
			Status:   StepStatusPending,
			Progress: 0,
		})
	}
	return steps
}
