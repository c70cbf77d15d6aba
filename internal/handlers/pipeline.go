// internal/handlers/pipeline.go
package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"labeleven-back/internal/middleware"
	"labeleven-back/internal/service"
)

type ExecutePipelineRequest struct {
	ReportID   uint           `json:"reportId" binding:"required"`
	Parameters map[string]any `json:"parameters"`
}

func ExecutePipeline(svc *service.PipelineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)

		var req ExecutePipelineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}

		pipeline, err := svc.Execute(c.Request.Context(), email, service.ExecuteInput{
			ReportID:   req.ReportID,
			Parameters: req.Parameters,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, "pipeline started", pipeline)
	}
}

func GetPipelineStatus(svc *service.PipelineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		pipeline, err := svc.GetStatus(c.Request.Context(), email, id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, pipeline)
	}
}

func GetPipelineResult(svc *service.PipelineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		bundle, err := svc.GetResult(c.Request.Context(), email, id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, bundle)
	}
}

func StopPipeline(svc *service.PipelineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		if err := svc.Stop(c.Request.Context(), email, id); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, "pipeline stopped", nil)
	}
}

func ReExecutePipeline(svc *service.PipelineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		pipeline, err := svc.ReExecute(c.Request.Context(), email, id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, "pipeline restarted", pipeline)
	}
}

// PipelineCallback is the engine's write-back endpoint. It authenticates
// with the shared engine token, not a user JWT, since the update path is
// caller-independent.
func PipelineCallback(svc *service.PipelineService, engineToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if engineToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(engineToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{
				Success: false,
				Message: "invalid engine token",
			})
			return
		}

		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		var update service.PipelineUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			respondBadRequest(c, err.Error())
			return
		}

		pipeline, err := svc.ApplyUpdate(c.Request.Context(), id, update)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"id": pipeline.ID, "status": pipeline.Status})
	}
}
