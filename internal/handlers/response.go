// internal/handlers/response.go

// Package handlers exposes the HTTP surface. Every endpoint answers with the
// same envelope: {"success": bool, "message": string, "data": ...}.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labeleven-back/internal/apperr"
)

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIResponse{Success: false, Message: message})
}

// respondError maps service error kinds to HTTP status codes while keeping
// the message-only body shape.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), APIResponse{Success: false, Message: err.Error()})
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPrecondition:
		return http.StatusBadRequest
	case apperr.KindInvalidCredential, apperr.KindInvalidToken:
		return http.StatusUnauthorized
	case apperr.KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// paramID parses the numeric :id path segment; a malformed one answers 400.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
