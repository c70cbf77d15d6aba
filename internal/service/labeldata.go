// internal/service/labeldata.go
package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"labeleven-back/internal/apperr"
	"labeleven-back/internal/models"
)

type LabelDataService struct {
	db *gorm.DB
}

func NewLabelDataService(db *gorm.DB) *LabelDataService {
	return &LabelDataService{db: db}
}

// ListForProject returns a project's extracted label rows. The caller must
// own the project, same as every other project-scoped read.
func (s *LabelDataService) ListForProject(ctx context.Context, projectID uint, email string) ([]models.LabelData, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, err
	}
	if err := assertOwner(project.UserID, user); err != nil {
		return nil, err
	}

	var rows []models.LabelData
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LabelDataService) Get(ctx context.Context, id uint, email string) (*models.LabelData, error) {
	user, err := findUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	var row models.LabelData
	if err := s.db.WithContext(ctx).Preload("Project").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("label data not found")
		}
		return nil, err
	}
	if err := assertOwner(row.Project.UserID, user); err != nil {
		return nil, err
	}
	return &row, nil
}
