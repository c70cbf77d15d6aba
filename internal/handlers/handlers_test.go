// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"labeleven-back/internal/auth"
	"labeleven-back/internal/middleware"
	"labeleven-back/internal/models"
	"labeleven-back/internal/service"
)

const testEngineToken = "engine-secret"

type stubStore struct{}

func (stubStore) StoreProjectFile(_ context.Context, projectID uint, filename string, reader io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	return fmt.Sprintf("projects/%d/%s", projectID, filename), nil
}

func (stubStore) PresignedURL(_ context.Context, objectName string) (string, error) {
	return "https://store.test/" + objectName, nil
}

func (stubStore) DeleteObject(context.Context, string) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Project{}, &models.LabelData{},
		&models.Report{}, &models.Pipeline{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenProvider("test-secret", time.Hour)

	authSvc := service.NewAuthService(db, tokens)
	projectSvc := service.NewProjectService(db, stubStore{}, logger)
	labelSvc := service.NewLabelDataService(db)
	reportSvc := service.NewReportService(db)
	pipelineSvc := service.NewPipelineService(db, nil, logger)

	r := gin.New()

	public := r.Group("/api")
	{
		public.POST("/auth/login", Login(authSvc))
		public.POST("/auth/register", Register(authSvc))
		public.GET("/auth/check-username", CheckUsername(authSvc))
		public.GET("/auth/check-email", CheckEmail(authSvc))
	}

	r.POST("/api/pipelines/:id/callback", PipelineCallback(pipelineSvc, testEngineToken))

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/users/me", Me(authSvc))
		protected.POST("/projects/upload", UploadProject(projectSvc))
		protected.GET("/projects", ListProjects(projectSvc))
		protected.GET("/projects/:id", GetProject(projectSvc))
		protected.DELETE("/projects/:id", DeleteProject(projectSvc))
		protected.GET("/label-data/project/:projectId", ListProjectLabelData(labelSvc))
		protected.GET("/label-data/:id", GetLabelData(labelSvc))
		protected.POST("/reports", CreateReport(reportSvc))
		protected.GET("/reports", ListReports(reportSvc))
		protected.GET("/reports/:id", GetReport(reportSvc))
		protected.GET("/reports/:id/status", GetReportStatus(reportSvc))
		protected.POST("/reports/approval", DecideReport(reportSvc))
		protected.DELETE("/reports/:id", DeleteReport(reportSvc))
		protected.POST("/pipelines/execute", ExecutePipeline(pipelineSvc))
		protected.GET("/pipelines/:id/status", GetPipelineStatus(pipelineSvc))
		protected.GET("/pipelines/:id/result", GetPipelineResult(pipelineSvc))
		protected.POST("/pipelines/:id/stop", StopPipeline(pipelineSvc))
		protected.POST("/pipelines/:id/reexecute", ReExecutePipeline(pipelineSvc))
	}

	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope from %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

func registerAndLogin(t *testing.T, r *gin.Engine, username, email string) string {
	t.Helper()

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username, "email": email, "password": "password1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", w.Code, w.Body.String())
	}

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": "password1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	decodeData(t, env, &login)
	if login.AccessToken == "" {
		t.Fatal("no access token")
	}
	return login.AccessToken
}

func createProjectHTTP(t *testing.T, r *gin.Engine, token, title, country string) uint {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("title", title); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := form.WriteField("country", country); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/projects/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var project struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &project)
	if project.Status != "PROCESSING" {
		t.Fatalf("project status = %q, want PROCESSING", project.Status)
	}
	return project.ID
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/projects", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/projects", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAvailabilityEndpoints(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r, "alice", "a@x.com")

	w, env := doJSON(t, r, http.MethodGet, "/api/auth/check-username?username=alice", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var available bool
	decodeData(t, env, &available)
	if available {
		t.Fatal("taken username reported available")
	}

	_, env = doJSON(t, r, http.MethodGet, "/api/auth/check-email?email=free@x.com", "", nil)
	decodeData(t, env, &available)
	if !available {
		t.Fatal("free email reported taken")
	}
}

// TestLabelWorkflowScenario drives the full path: register, login, project,
// report, approval, pipeline, stop, re-execute.
func TestLabelWorkflowScenario(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "alice", "a@x.com")

	projectID := createProjectHTTP(t, r, token, "Winter Labels", "KR")

	// Create a validation report; it starts PENDING.
	w, env := doJSON(t, r, http.MethodPost, "/api/reports", token, gin.H{
		"projectId": projectID, "reportType": "VALIDATION",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create report status = %d: %s", w.Code, w.Body.String())
	}
	var report struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &report)
	if report.Status != "PENDING" {
		t.Fatalf("report status = %q, want PENDING", report.Status)
	}

	// Executing before approval fails the precondition.
	w, _ = doJSON(t, r, http.MethodPost, "/api/pipelines/execute", token, gin.H{"reportId": report.ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("premature execute status = %d, want 400", w.Code)
	}

	// Approve.
	w, env = doJSON(t, r, http.MethodPost, "/api/reports/approval", token, gin.H{
		"reportId": report.ID, "approved": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("approval status = %d: %s", w.Code, w.Body.String())
	}
	decodeData(t, env, &report)
	if report.Status != "APPROVED" {
		t.Fatalf("report status = %q, want APPROVED", report.Status)
	}

	// Execute: RUNNING with five pending steps.
	w, env = doJSON(t, r, http.MethodPost, "/api/pipelines/execute", token, gin.H{"reportId": report.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("execute status = %d: %s", w.Code, w.Body.String())
	}
	var pipeline struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
		Steps  []struct {
			StepName string `json:"step_name"`
			Status   string `json:"status"`
		} `json:"steps"`
	}
	decodeData(t, env, &pipeline)
	if pipeline.Status != "RUNNING" {
		t.Fatalf("pipeline status = %q, want RUNNING", pipeline.Status)
	}
	if len(pipeline.Steps) != 5 {
		t.Fatalf("steps = %d, want 5", len(pipeline.Steps))
	}
	for _, step := range pipeline.Steps {
		if step.Status != "PENDING" {
			t.Fatalf("step %q = %q, want PENDING", step.StepName, step.Status)
		}
	}

	// Results are unavailable while running.
	w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/pipelines/%d/result", pipeline.ID), token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("early result status = %d, want 400", w.Code)
	}

	// Stop, then a second stop fails.
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/pipelines/%d/stop", pipeline.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d: %s", w.Code, w.Body.String())
	}
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/pipelines/%d/stop", pipeline.ID), token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second stop status = %d, want 400", w.Code)
	}

	// Re-execute creates a fresh run.
	w, env = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/pipelines/%d/reexecute", pipeline.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reexecute status = %d: %s", w.Code, w.Body.String())
	}
	var second struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
		Steps  []struct {
			Status string `json:"status"`
		} `json:"steps"`
	}
	decodeData(t, env, &second)
	if second.ID == pipeline.ID {
		t.Fatal("re-execute must create a new pipeline")
	}
	if second.Status != "RUNNING" || len(second.Steps) != 5 {
		t.Fatalf("unexpected new pipeline: %+v", second)
	}
}

func TestOwnershipAcrossUsers(t *testing.T) {
	r := newTestRouter(t)
	aliceToken := registerAndLogin(t, r, "alice", "a@x.com")
	bobToken := registerAndLogin(t, r, "bob", "b@x.com")

	projectID := createProjectHTTP(t, r, aliceToken, "Winter Labels", "KR")

	w, _ := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), bobToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("get status = %d, want 403", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), bobToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("delete status = %d, want 403", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodPost, "/api/reports", bobToken, gin.H{
		"projectId": projectID, "reportType": "VALIDATION",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("report create status = %d, want 403", w.Code)
	}
}

func TestEngineCallback(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "alice", "a@x.com")
	projectID := createProjectHTTP(t, r, token, "Winter Labels", "KR")

	_, env := doJSON(t, r, http.MethodPost, "/api/reports", token, gin.H{
		"projectId": projectID, "reportType": "VALIDATION",
	})
	var report struct {
		ID uint `json:"id"`
	}
	decodeData(t, env, &report)

	doJSON(t, r, http.MethodPost, "/api/reports/approval", token, gin.H{
		"reportId": report.ID, "approved": true,
	})

	_, env = doJSON(t, r, http.MethodPost, "/api/pipelines/execute", token, gin.H{"reportId": report.ID})
	var pipeline struct {
		ID uint `json:"id"`
	}
	decodeData(t, env, &pipeline)

	callbackPath := fmt.Sprintf("/api/pipelines/%d/callback", pipeline.ID)
	update := gin.H{
		"status":       "COMPLETED",
		"progress":     100,
		"schemaResult": gin.H{"fields": 7},
	}

	// Wrong token is rejected.
	w, _ := doJSON(t, r, http.MethodPost, callbackPath, "wrong-token", update)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, callbackPath, testEngineToken, update)
	if w.Code != http.StatusOK {
		t.Fatalf("callback status = %d: %s", w.Code, w.Body.String())
	}

	// The result bundle is readable now, with unset payloads as empty maps.
	w, env = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/pipelines/%d/result", pipeline.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("result status = %d: %s", w.Code, w.Body.String())
	}
	var bundle struct {
		SchemaResult    map[string]any `json:"schemaResult"`
		DiagnosisResult map[string]any `json:"diagnosisResult"`
	}
	decodeData(t, env, &bundle)
	if bundle.SchemaResult["fields"] != float64(7) {
		t.Fatalf("schema result = %v", bundle.SchemaResult)
	}
	if bundle.DiagnosisResult == nil || len(bundle.DiagnosisResult) != 0 {
		t.Fatalf("diagnosis result = %v, want empty map", bundle.DiagnosisResult)
	}
}

func TestMeEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "alice", "a@x.com")

	w, env := doJSON(t, r, http.MethodGet, "/api/users/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var me struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	decodeData(t, env, &me)
	if me.Username != "alice" || me.Email != "a@x.com" || me.Role != "USER" {
		t.Fatalf("unexpected profile: %+v", me)
	}
}
