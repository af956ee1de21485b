package services

import (
	"github.com/proofpay/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// expiredTokenGraceDays is how long after expiry a download row is kept
// before the sweep removes it. Expiry is enforced at resolution time either
// way; the retained window keeps recent rows visible for support queries.
const expiredTokenGraceDays = 30

// StartDownloadSweeper schedules a nightly deletion of long-expired
// download tokens. Returns the scheduler so callers can stop it on shutdown.
func StartDownloadSweeper(db *gorm.DB, maxDownloads, expiryDays int) *cron.Cron {
	service := NewDownloadService(db, maxDownloads, expiryDays)

	c := cron.New()
	_, err := c.AddFunc("0 3 * * *", func() {
		deleted, err := service.CleanupExpired(expiredTokenGraceDays)
		if err != nil {
			logger.Error().Err(err).Msg("download token sweep failed")
			return
		}
		if deleted > 0 {
			logger.Infof("swept %d download tokens expired more than %d days ago", deleted, expiredTokenGraceDays)
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to schedule download token sweep")
		return c
	}

	c.Start()
	return c
}
