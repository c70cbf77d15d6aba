// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"labeleven-back/internal/middleware"
	"labeleven-back/internal/service"
)

// Me returns the profile of the token subject.
func Me(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.ContextUserEmail)

		user, err := svc.CurrentUser(c.Request.Context(), email)
		if err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		})
	}
}
