package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

// JSON sends a success envelope. The payload keys are merged next to the
// success flag so handlers control the response vocabulary
// ({success, question}, {success, answers, pagination}, ...).
func JSON(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for key, value := range payload {
		body[key] = value
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(status, body)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, payload gin.H) {
	JSON(c, http.StatusOK, payload)
}

// Created responds with HTTP 201.
func Created(c *gin.Context, payload gin.H) {
	JSON(c, http.StatusCreated, payload)
}

// Error sends a failure envelope derived from the typed error.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	body := gin.H{
		"success": false,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	for key, value := range appErr.Details {
		body[key] = value
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, body)
}
