// internal/handlers/report.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"labeleven-back/internal/middleware"
	"labeleven-back/internal/models"
	"labeleven-back/internal/service"
)

type CreateReportRequest struct {
	ProjectID  uint   `json:"projectId" binding:"required"`
	ReportType string `json:"reportType" binding:"required"`
}

type ApprovalRequest struct {
	ReportID uint   `json:"reportId" binding:"required"`
	Approved *bool  `json:"approved" binding:"required"`
	Feedback string `json:"feedback"`
}

func CreateReport(svc *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)

		var req CreateReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}

		reportType := models.ReportType(req.ReportType)
		if err := reportType.Validate(); err != nil {
			respondBadRequest(c, err.Error())
			return
		}

		report, err := svc.Create(c.Request.Context(), email, service.CreateReportInput{
			ProjectID:  req.ProjectID,
			ReportType: reportType,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondCreated(c, report)
	}
}

func GetReportStatus(svc *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		status, err := svc.Status(c.Request.Context(), id, email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, status)
	}
}

func GetReport(svc *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		report, err := svc.Get(c.Request.Context(), id, email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, report)
	}
}

// DecideReport approves or rejects a pending report. Rejection feedback is
// stored on the report.
func DecideReport(svc *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)

		var req ApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}

		report, err := svc.Decide(c.Request.Context(), email, service.ApprovalInput{
			ReportID: req.ReportID,
			Approved: *req.Approved,
			Feedback: req.Feedback,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, report)
	}
}

func ListReports(svc *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)

		typeFilter := models.ReportType(c.Query("reportType"))
		if typeFilter != "" {
			if err := typeFilter.Validate(); err != nil {
				respondBadRequest(c, err.Error())
				return
			}
		}

		reports, err := svc.List(c.Request.Context(), email, typeFilter)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{
			"reports": reports,
			"total":   len(reports),
		})
	}
}

func DeleteReport(svc *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), id, email); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, "report deleted", nil)
	}
}
