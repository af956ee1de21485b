package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/proofpay/backend/internal/services"
	"github.com/proofpay/backend/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: services.NewDashboardService(db),
	}
}

// GetStats returns the freelancer's counters
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, stats)
}
