package services

import (
	"time"

	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/utils"
	"github.com/proofpay/backend/pkg/logger"
	"gorm.io/gorm"
)

const downloadTokenBytes = 32

// DownloadService mints and resolves the time- and count-limited download
// tokens that gate final-file retrieval.
type DownloadService struct {
	db           *gorm.DB
	maxDownloads int
	expiry       time.Duration
	activity     *ActivityLogService
}

func NewDownloadService(db *gorm.DB, maxDownloads, expiryDays int) *DownloadService {
	if maxDownloads <= 0 {
		maxDownloads = 3
	}
	if expiryDays <= 0 {
		expiryDays = 7
	}
	return &DownloadService{
		db:           db,
		maxDownloads: maxDownloads,
		expiry:       time.Duration(expiryDays) * 24 * time.Hour,
		activity:     NewActivityLogService(db),
	}
}

// IssueToken mints a download credential for the client who paid. Callers
// are the payment ledger reacting to a completed payment; the project is
// already paid by the time this runs.
func (s *DownloadService) IssueToken(project *models.Project, clientEmail string) (*models.Download, error) {
	if clientEmail == "" || clientEmail != project.ClientEmail {
		return nil, forbidden("download tokens are issued only to the paying client")
	}

	token, err := utils.GenerateSecureToken(downloadTokenBytes)
	if err != nil {
		return nil, unavailable(err)
	}

	download := models.Download{
		ProjectID:     project.ID,
		Token:         token,
		ClientEmail:   clientEmail,
		DownloadCount: 0,
		MaxDownloads:  s.maxDownloads,
		ExpiresAt:     time.Now().Add(s.expiry),
	}

	if err := s.db.Create(&download).Error; err != nil {
		return nil, unavailable(err)
	}

	s.activity.Record(&project.ID, "download", "issue_token", "system", "download token issued")
	return &download, nil
}

// ResolveResult is a successful token resolution.
type ResolveResult struct {
	FileURL   string    `json:"file_url"`
	Remaining int       `json:"remaining"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResolveToken validates a token and, on success, consumes one download.
// The owning project's live state is re-checked on every call: a project
// moved away from paid/completed (refund, dispute, admin correction) blocks
// resolution even for a fresh, under-limit token. Failed resolutions never
// mutate state; the count increment is a compare-and-swap so two concurrent
// calls can never both consume the last download.
func (s *DownloadService) ResolveToken(token string) (*ResolveResult, error) {
	if token == "" {
		return nil, notFound("download not found")
	}

	var download models.Download
	if err := s.db.Where("token = ?", token).First(&download).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("download not found")
		}
		return nil, unavailable(err)
	}

	now := time.Now()
	if download.Expired(now) {
		return nil, expired("download link has expired")
	}
	if download.DownloadCount >= download.MaxDownloads {
		return nil, limitExceeded("download limit reached")
	}

	var project models.Project
	if err := s.db.First(&project, download.ProjectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !project.Status.Downloadable() {
		return nil, &Error{
			Kind:    KindPreconditionFailed,
			Message: "project is no longer available for download",
			Status:  project.Status,
		}
	}
	if project.FinalFileURL == "" {
		return nil, &Error{
			Kind:    KindPreconditionFailed,
			Message: "final file has not been uploaded",
			Status:  project.Status,
		}
	}

	res := s.db.Model(&models.Download{}).
		Where("id = ? AND download_count < max_downloads", download.ID).
		Updates(map[string]interface{}{
			"download_count": gorm.Expr("download_count + 1"),
			"updated_at":     now,
		})
	if res.Error != nil {
		return nil, unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		// A concurrent resolution consumed the last download first.
		return nil, limitExceeded("download limit reached")
	}

	download.DownloadCount++

	s.activity.Record(&project.ID, "download", "resolve", "client:"+download.ClientEmail, "download served")
	logger.Info().
		Uint("project_id", project.ID).
		Int("count", download.DownloadCount).
		Int("max", download.MaxDownloads).
		Msg("download resolved")

	return &ResolveResult{
		FileURL:   project.FinalFileURL,
		Remaining: download.Remaining(),
		ExpiresAt: download.ExpiresAt,
	}, nil
}

// ListByProject returns a project's download tokens for the owner or admin.
func (s *DownloadService) ListByProject(projectID uint, actor Actor) ([]models.Download, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !actor.IsAdmin() && !actor.OwnsProject(&project) {
		return nil, forbidden("not allowed to view downloads for this project")
	}

	var downloads []models.Download
	if err := s.db.Where("project_id = ?", projectID).Order("id DESC").Find(&downloads).Error; err != nil {
		return nil, unavailable(err)
	}
	return downloads, nil
}

// CleanupExpired deletes tokens whose expiry passed more than graceDays ago.
// Expiry itself is enforced passively at resolution time; this sweep is
// hygiene only.
func (s *DownloadService) CleanupExpired(graceDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -graceDays)
	result := s.db.Where("expires_at < ?", cutoff).Delete(&models.Download{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
