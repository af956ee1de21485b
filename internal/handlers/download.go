package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/proofpay/backend/internal/services"
	"github.com/proofpay/backend/pkg/response"
)

// DownloadHandler resolves download tokens to final-file references.
type DownloadHandler struct {
	downloadService *services.DownloadService
}

func NewDownloadHandler(downloads *services.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloadService: downloads}
}

// Resolve consumes one download from the token
// GET /api/downloads/:token
func (h *DownloadHandler) Resolve(c *gin.Context) {
	result, err := h.downloadService.ResolveToken(c.Param("token"))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, result)
}
