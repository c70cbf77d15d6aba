// internal/service/project.go
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"labeleven-back/internal/apperr"
	"labeleven-back/internal/models"
	"labeleven-back/pkg/labelfile"
)

// FileStore is the slice of the object store the project service needs.
type FileStore interface {
	StoreProjectFile(ctx context.Context, projectID uint, filename string, reader io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectName string) (string, error)
	DeleteObject(ctx context.Context, objectName string) error
}

type ProjectService struct {
	db     *gorm.DB
	store  FileStore
	logger *slog.Logger
}

func NewProjectService(db *gorm.DB, store FileStore, logger *slog.Logger) *ProjectService {
	return &ProjectService{db: db, store: store, logger: logger}
}

type CreateProjectInput struct {
	Title   string
	Country string
}

// Upload is an optional file attached to project creation.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

func (s *ProjectService) Create(ctx context.Context, email string, input CreateProjectInput, upload *Upload) (*models.Project, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	project := models.Project{
		UserID:  user.ID,
		Title:   input.Title,
		Country: input.Country,
		Status:  "PROCESSING",
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}

	if upload != nil {
		if err := s.attachUpload(ctx, &project, upload); err != nil {
			return nil, err
		}
	}

	return &project, nil
}

// attachUpload stores the file and, for tabular formats, derives the
// project's label data rows from its content.
func (s *ProjectService) attachUpload(ctx context.Context, project *models.Project, upload *Upload) error {
	content, err := io.ReadAll(upload.Reader)
	if err != nil {
		return apperr.Storage("failed to read upload", err)
	}

	objectName, err := s.store.StoreProjectFile(ctx, project.ID, upload.Filename,
		bytes.NewReader(content), int64(len(content)), upload.ContentType)
	if err != nil {
		return apperr.Storage("failed to store file", err)
	}

	project.FilePath = objectName
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return err
	}

	records, err := labelfile.Extract(upload.Filename, bytes.NewReader(content))
	if err != nil {
		if errors.Is(err, labelfile.ErrUnsupported) {
			return nil
		}
		s.logger.Warn("label extraction failed",
			"project_id", project.ID, "filename", upload.Filename, "error", err)
		return nil
	}

	for _, rec := range records {
		row := models.LabelData{
			ProjectID:       project.ID,
			FieldName:       rec.FieldName,
			OriginalValue:   rec.OriginalValue,
			TranslatedValue: rec.TranslatedValue,
			Category:        rec.Category,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectService) List(ctx context.Context, email string) ([]models.Project, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id uint, email string) (*models.Project, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	project, err := s.findProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(project.UserID, user); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and everything hanging off it: pipelines,
// reports, label data and the stored upload.
func (s *ProjectService) Delete(ctx context.Context, id uint, email string) error {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return err
	}

	project, err := s.findProject(ctx, id)
	if err != nil {
		return err
	}
	if err := assertOwner(project.UserID, user); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reportIDs := tx.Model(&models.Report{}).Select("id").Where("project_id = ?", project.ID)
		if err := tx.Where("report_id IN (?)", reportIDs).Delete(&models.Pipeline{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.LabelData{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, project.ID).Error
	})
	if err != nil {
		return err
	}

	if project.FilePath != "" {
		if err := s.store.DeleteObject(ctx, project.FilePath); err != nil {
			s.logger.Warn("failed to delete stored file",
				"project_id", project.ID, "object", project.FilePath, "error", err)
		}
	}
	return nil
}

// FileURL returns a presigned download link for the project's upload.
func (s *ProjectService) FileURL(ctx context.Context, id uint, email string) (string, error) {
	project, err := s.Get(ctx, id, email)
	if err != nil {
		return "", err
	}
	if project.FilePath == "" {
		return "", apperr.NotFound("project has no stored file")
	}

	url, err := s.store.PresignedURL(ctx, project.FilePath)
	if err != nil {
		return "", apperr.Storage("failed to generate download URL", err)
	}
	return url, nil
}

func (s *ProjectService) findProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}
