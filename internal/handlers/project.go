// internal/handlers/project.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"labeleven-back/internal/middleware"
	"labeleven-back/internal/service"
)

// UploadProject creates a project from a multipart form: title, country and
// an optional label file.
func UploadProject(svc *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)

		title := c.PostForm("title")
		if title == "" {
			respondBadRequest(c, "title is required")
			return
		}
		country := c.PostForm("country")

		var upload *service.Upload
		if fileHeader, err := c.FormFile("file"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				respondBadRequest(c, "failed to read uploaded file")
				return
			}
			defer file.Close()

			upload = &service.Upload{
				Filename:    fileHeader.Filename,
				Size:        fileHeader.Size,
				ContentType: fileHeader.Header.Get("Content-Type"),
				Reader:      file,
			}
		}

		project, err := svc.Create(c.Request.Context(), email,
			service.CreateProjectInput{Title: title, Country: country}, upload)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCreated(c, project)
	}
}

func ListProjects(svc *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)

		projects, err := svc.List(c.Request.Context(), email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{
			"projects":   projects,
			"totalCount": len(projects),
		})
	}
}

func GetProject(svc *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		project, err := svc.Get(c.Request.Context(), id, email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, project)
	}
}

func DeleteProject(svc *service.ProjectService) gin.HandlerFunc {
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
		respondMessage(c, "project deleted", nil)
	}
}

// ProjectFileURL hands out a presigned download link for the stored upload.
func ProjectFileURL(svc *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		url, err := svc.FileURL(c.Request.Context(), id, email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"url": url})
	}
}
