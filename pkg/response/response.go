package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response envelope. Kind carries the workflow
// rejection category (not_found, forbidden, invalid_transition, ...) so the
// UI can explain why an action was refused.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Fail sends an error response with the given HTTP status and optional kind.
func Fail(c *gin.Context, status int, kind, msg string) {
	c.JSON(status, Response{
		Code:    status,
		Message: msg,
		Kind:    kind,
	})
}

// Convenience error responses.

func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, "", msg)
}

func Unauthorized(c *gin.Context, msg string) {
	Fail(c, http.StatusUnauthorized, "", msg)
}

func Forbidden(c *gin.Context, msg string) {
	Fail(c, http.StatusForbidden, "", msg)
}

func NotFound(c *gin.Context, msg string) {
	Fail(c, http.StatusNotFound, "", msg)
}

func Conflict(c *gin.Context, msg string) {
	Fail(c, http.StatusConflict, "", msg)
}

func ServerError(c *gin.Context, msg string) {
	Fail(c, http.StatusInternalServerError, "", msg)
}

func Unavailable(c *gin.Context, msg string) {
	Fail(c, http.StatusServiceUnavailable, "", msg)
}
