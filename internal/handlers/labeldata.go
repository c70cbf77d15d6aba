// internal/handlers/labeldata.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"labeleven-back/internal/middleware"
	"labeleven-back/internal/service"
)

func ListProjectLabelData(svc *service.LabelDataService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		projectID, ok := paramID(c, "projectId")
		if !ok {
			return
		}

		rows, err := svc.ListForProject(c.Request.Context(), projectID, email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{
			"labelData":  rows,
			"totalCount": len(rows),
		})
	}
}

func GetLabelData(svc *service.LabelDataService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		row, err := svc.Get(c.Request.Context(), id, email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, row)
	}
}
