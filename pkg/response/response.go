// Package response writes the JSON envelopes returned by every HTTP handler.
package response

import (
	"errors"
	"net/http"

	"github.com/ghseeli/service-booking/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// Envelope wraps successful payloads.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorBody is returned for rejected requests.
type ErrorBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Code    string   `json:"code"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message writes 200 with a confirmation message.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// BadRequest writes 400 for malformed input.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Message: message, Code: "bad_request"})
}

// NotFound writes 404 without a body so callers cannot tell a missing entity from a foreign one.
func NotFound(c *gin.Context) {
	c.AbortWithStatus(http.StatusNotFound)
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Message: message, Code: "unauthorized"})
}

// Error maps err onto a status code. Errors without a kind become a generic 500;
// the cause is attached to the gin context for the access log, never returned.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
			Message: "An internal error occurred",
			Code:    "internal_error",
		})
		return
	}

	switch appErr.Kind {
	case apperror.KindNotFound:
		NotFound(c)
	case apperror.KindConcurrentUpdate:
		c.AbortWithStatusJSON(http.StatusConflict, body(appErr))
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, body(appErr))
	}
}

func body(e *apperror.Error) ErrorBody {
	return ErrorBody{Message: e.Message, Errors: e.Errors, Code: string(e.Kind)}
}
