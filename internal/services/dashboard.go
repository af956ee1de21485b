package services

import (
	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/utils"
	"gorm.io/gorm"
)

// DashboardService computes the simple counters shown on the freelancer
// dashboard. Nothing here goes beyond counts and sums.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStats struct {
	ProjectsByStatus map[string]int64 `json:"projects_by_status"`
	TotalProjects    int64            `json:"total_projects"`
	Revenue          string           `json:"revenue"`
	Commission       string           `json:"commission"`
	DownloadsServed  int64            `json:"downloads_served"`
}

// Stats aggregates counters for the actor's projects (all projects for
// admins).
func (s *DashboardService) Stats(actor Actor) (*DashboardStats, error) {
	stats := &DashboardStats{ProjectsByStatus: map[string]int64{}}

	projectQuery := s.db.Model(&models.Project{})
	if !actor.IsAdmin() {
		projectQuery = projectQuery.Where("freelancer_id = ?", actor.UserID)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := projectQuery.Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return nil, unavailable(err)
	}
	for _, c := range counts {
		stats.ProjectsByStatus[c.Status] = c.Count
		stats.TotalProjects += c.Count
	}

	paymentQuery := s.db.Model(&models.Payment{}).
		Where("payments.status = ?", models.PaymentCompleted)
	if !actor.IsAdmin() {
		paymentQuery = paymentQuery.
			Joins("JOIN projects ON projects.id = payments.project_id").
			Where("projects.freelancer_id = ?", actor.UserID)
	}

	type moneyRow struct {
		Amount     int64
		Commission int64
	}
	var money moneyRow
	if err := paymentQuery.
		Select("COALESCE(SUM(amount_cents),0) as amount, COALESCE(SUM(commission_cents),0) as commission").
		Scan(&money).Error; err != nil {
		return nil, unavailable(err)
	}
	stats.Revenue = utils.FormatAmount(money.Amount)
	stats.Commission = utils.FormatAmount(money.Commission)

	downloadQuery := s.db.Model(&models.Download{})
	if !actor.IsAdmin() {
		downloadQuery = downloadQuery.
			Joins("JOIN projects ON projects.id = downloads.project_id").
			Where("projects.freelancer_id = ?", actor.UserID)
	}
	var served struct{ Served int64 }
	if err := downloadQuery.Select("COALESCE(SUM(download_count),0) as served").Scan(&served).Error; err != nil {
		return nil, unavailable(err)
	}
	stats.DownloadsServed = served.Served

	return stats, nil
}
