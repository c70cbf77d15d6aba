// internal/service/service_test.go
package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"labeleven-back/internal/apperr"
	"labeleven-back/internal/auth"
	"labeleven-back/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.LabelData{},
		&models.Report{},
		&models.Pipeline{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTokens() *auth.TokenProvider {
	return auth.NewTokenProvider("test-secret", time.Hour)
}

func createUser(t *testing.T, db *gorm.DB, username, email, password string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     "USER",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func createProject(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Project {
	t.Helper()

	project := models.Project{
		UserID:  owner.ID,
		Title:   title,
		Country: "KR",
		Status:  "PROCESSING",
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return &project
}

func createReport(t *testing.T, db *gorm.DB, project *models.Project, status models.ReportStatus) *models.Report {
	t.Helper()

	report := models.Report{
		ProjectID:  project.ID,
		ReportType: models.ReportTypeValidation,
		Status:     status,
	}
	if err := db.Create(&report).Error; err != nil {
		t.Fatalf("create report: %v", err)
	}
	return &report
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error of kind %v, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected error kind %v, got %v (%v)", kind, got, err)
	}
}

func ctx() context.Context {
	return context.Background()
}
