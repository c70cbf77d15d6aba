// internal/service/service.go

// Package service implements the application operations behind the HTTP
// handlers: credentials, projects, label data, report lifecycle and
// pipeline lifecycle. Every operation on an owned resource resolves the
// caller, resolves the entity, and runs the ownership guard before touching
// state.
package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"labeleven-back/internal/apperr"
	"labeleven-back/internal/models"
)

func findUserByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// assertOwner is the single ownership check applied to every owned resource.
func assertOwner(ownerID uint, caller *models.User) error {
	if ownerID != caller.ID {
		return apperr.Forbidden("access denied")
	}
	return nil
}
