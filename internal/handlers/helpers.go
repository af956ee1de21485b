package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/proofpay/backend/internal/middleware"
	"github.com/proofpay/backend/internal/services"
	"github.com/proofpay/backend/pkg/response"
)

// actorFromContext builds the explicit actor for an authenticated request.
func actorFromContext(c *gin.Context) services.Actor {
	userID := middleware.GetUserID(c)
	email := middleware.GetEmail(c)
	if middleware.GetRole(c) == "admin" {
		return services.AdminActor(userID, email)
	}
	return services.FreelancerActor(userID, email)
}

// kindStatus maps workflow rejection kinds to HTTP statuses.
var kindStatus = map[services.ErrorKind]int{
	services.KindNotFound:           http.StatusNotFound,
	services.KindForbidden:          http.StatusForbidden,
	services.KindInvalidTransition:  http.StatusConflict,
	services.KindPreconditionFailed: http.StatusBadRequest,
	services.KindExpired:            http.StatusGone,
	services.KindLimitExceeded:      http.StatusGone,
	services.KindUnavailable:        http.StatusServiceUnavailable,
}

// renderError translates a workflow error into the response envelope. The
// message already names the project's current state where relevant.
func renderError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	response.Fail(c, status, string(kind), err.Error())
}
