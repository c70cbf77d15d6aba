// internal/service/report.go
package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"labeleven-back/internal/apperr"
	"labeleven-back/internal/models"
)

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

type CreateReportInput struct {
	ProjectID  uint
	ReportType models.ReportType
}

type ApprovalInput struct {
	ReportID uint
	Approved bool
	Feedback string
}

// ReportStatusResult is the lightweight status projection.
type ReportStatusResult struct {
	ReportID    uint                `json:"reportId"`
	Status      models.ReportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	CurrentStep string              `json:"currentStep,omitempty"`
}

func (s *ReportService) Create(ctx context.Context, email string, input CreateReportInput) (*models.Report, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, input.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, err
	}
	if err := assertOwner(project.UserID, user); err != nil {
		return nil, err
	}

	report := models.Report{
		ProjectID:  project.ID,
		ReportType: input.ReportType,
		Status:     models.ReportStatusPending,
		Progress:   0,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) Status(ctx context.Context, id uint, email string) (*ReportStatusResult, error) {
	report, err := s.Get(ctx, id, email)
	if err != nil {
		return nil, err
	}
	return &ReportStatusResult{
		ReportID:    report.ID,
		Status:      report.Status,
		Progress:    report.Progress,
		CurrentStep: report.CurrentStep,
	}, nil
}

func (s *ReportService) Get(ctx context.Context, id uint, email string) (*models.Report, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	return s.findOwnedReport(ctx, id, user)
}

// Decide moves a report out of PENDING: APPROVED when accepted, REJECTED
// otherwise. Rejection feedback lands in the error message field. This is the
// precondition gate for pipeline execution.
func (s *ReportService) Decide(ctx context.Context, email string, input ApprovalInput) (*models.Report, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	report, err := s.findOwnedReport(ctx, input.ReportID, user)
	if err != nil {
		return nil, err
	}

	if input.Approved {
		report.Status = models.ReportStatusApproved
	} else {
		report.Status = models.ReportStatusRejected
		if input.Feedback != "" {
			report.ErrorMessage = input.Feedback
		}
	}
	if err := s.db.WithContext(ctx).Save(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// List returns all reports under the caller's projects, optionally filtered
// by type, newest first.
func (s *ReportService) List(ctx context.Context, email string, typeFilter models.ReportType) ([]models.Report, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	ownedProjects := s.db.Model(&models.Project{}).Select("id").Where("user_id = ?", user.ID)
	query := s.db.WithContext(ctx).Where("project_id IN (?)", ownedProjects)
	if typeFilter != "" {
		query = query.Where("report_type = ?", typeFilter)
	}

	var reports []models.Report
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *ReportService) Delete(ctx context.Context, id uint, email string) error {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return err
	}

	report, err := s.findOwnedReport(ctx, id, user)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", report.ID).Delete(&models.Pipeline{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Report{}, report.ID).Error
	})
}

func (s *ReportService) findOwnedReport(ctx context.Context, id uint, caller *models.User) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).Preload("Project").First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, err
	}
	if err := assertOwner(report.Project.UserID, caller); err != nil {
		return nil, err
	}
	return &report, nil
}
