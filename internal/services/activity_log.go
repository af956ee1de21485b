package services

import (
	"strconv"
	"time"

	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/pkg/logger"
	"gorm.io/gorm"
)

// ActivityLogService writes and queries the append-only workflow audit trail.
type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

// Record appends one audit entry. Best-effort: a write failure is logged and
// swallowed so auditing can never fail the operation being audited.
func (s *ActivityLogService) Record(projectID *uint, module, action, actor, message string) {
	entry := models.ActivityLog{
		ProjectID: projectID,
		Module:    module,
		Action:    action,
		Actor:     actor,
		Message:   message,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.Error().Err(err).Str("module", module).Str("action", action).Msg("failed to record activity")
	}
}

// ListByProject returns a project's audit entries, oldest first.
func (s *ActivityLogService) ListByProject(projectID uint, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.ActivityLog
	err := s.db.Where("project_id = ?", projectID).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, unavailable(err)
	}
	return entries, nil
}

// CleanupOld deletes audit entries older than the given number of days.
func (s *ActivityLogService) CleanupOld(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RetentionDays reads the retention window from system config.
func (s *ActivityLogService) RetentionDays() int {
	var cfg models.SystemConfig
	if err := s.db.Where("key = ?", "log_retention_days").First(&cfg).Error; err != nil {
		return 90
	}
	days, err := strconv.Atoi(cfg.Value)
	if err != nil {
		return 90
	}
	return days
}

// StartLogCleanupScheduler runs a daily retention sweep in the background.
func StartLogCleanupScheduler(db *gorm.DB) {
	go func() {
		service := NewActivityLogService(db)

		runLogCleanup(service)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			runLogCleanup(service)
		}
	}()
}

func runLogCleanup(service *ActivityLogService) {
	retentionDays := service.RetentionDays()
	if retentionDays <= 0 {
		return
	}

	deleted, err := service.CleanupOld(retentionDays)
	if err != nil {
		logger.Error().Err(err).Msg("activity log cleanup failed")
		return
	}
	if deleted > 0 {
		logger.Infof("cleaned up %d activity logs older than %d days", deleted, retentionDays)
	}
}
