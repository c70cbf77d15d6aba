// internal/models/models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"not null;default:'USER'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Projects []Project `gorm:"foreignKey:UserID" json:"projects,omitempty"`
}

type Project struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"not null" json:"title"`
	Country   string    `json:"country"`
	Status    string    `gorm:"not null;default:'PROCESSING'" json:"status"`
	FilePath  string    `json:"file_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User      User        `gorm:"foreignKey:UserID" json:"-"`
	Reports   []Report    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	LabelData []LabelData `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

type LabelData struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	ProjectID       uint   `gorm:"not null;index" json:"project_id"`
	FieldName       string `gorm:"not null" json:"field_name"`
	OriginalValue   string `gorm:"type:text;not null" json:"original_value"`
	TranslatedValue string `gorm:"type:text" json:"translated_value"`
	Category        string `gorm:"not null" json:"category"`

	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
}

type Report struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	ProjectID    uint         `gorm:"not null;index" json:"project_id"`
	ReportType   ReportType   `gorm:"not null" json:"report_type"`
	Status       ReportStatus `gorm:"not null;default:'PENDING'" json:"status"`
	Progress     int          `gorm:"not null;default:0" json:"progress"`
	CurrentStep  string       `json:"current_step,omitempty"`
	Content      string       `gorm:"type:text" json:"content,omitempty"`
	TagsJSON     string       `gorm:"type:text;column:tags_json" json:"tags_json,omitempty"`
	ErrorMessage string       `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	Project   Project    `gorm:"foreignKey:ProjectID" json:"-"`
	Pipelines []Pipeline `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
}

// Pipeline is one processing run against an approved report. The step list
// and the five result payloads live in JSON text columns and are decoded on
// read. A partial unique index on report_id holds the one-RUNNING-per-report
// rule even across concurrent inserts.
type Pipeline struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	ReportID          uint           `gorm:"not null;index;uniqueIndex:idx_pipelines_one_running,where:status = 'RUNNING'" json:"report_id"`
	Status            PipelineStatus `gorm:"not null" json:"status"`
	Progress          int            `gorm:"not null;default:0" json:"progress"`
	StepStatuses      string         `gorm:"type:text" json:"-"`
	SchemaResult      string         `gorm:"type:text" json:"-"`
	TranslationResult string         `gorm:"type:text" json:"-"`
	DiagnosisResult   string         `gorm:"type:text" json:"-"`
	ChecklistResult   string         `gorm:"type:text" json:"-"`
	FinalReportResult string         `gorm:"type:text" json:"-"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	Report Report `gorm:"foreignKey:ReportID" json:"-"`
}

// Unknown status or type strings are rejected before they reach the database.

func (r *Report) BeforeSave(tx *gorm.DB) error {
	if err := r.ReportType.Validate(); err != nil {
		return err
	}
	return r.Status.Validate()
}

func (p *Pipeline) BeforeSave(tx *gorm.DB) error {
	return p.Status.Validate()
}
