// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"labeleven-back/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func Login(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}

		result, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, result)
	}
}

func Register(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}

		result, err := svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCreated(c, result)
	}
}

// CheckUsername answers true when the username is still available.
func CheckUsername(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Query("username")
		if username == "" {
			respondBadRequest(c, "username is required")
			return
		}

		available, err := svc.UsernameAvailable(c.Request.Context(), username)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, available)
	}
}

// CheckEmail answers true when the email is still available.
func CheckEmail(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		if email == "" {
			respondBadRequest(c, "email is required")
			return
		}

		available, err := svc.EmailAvailable(c.Request.Context(), email)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, available)
	}
}
