package services

import (
	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/pkg/logger"
	"gorm.io/gorm"
)

// NotifyKind identifies the workflow event a notification describes.
type NotifyKind string

const (
	NotifyNone              NotifyKind = ""
	NotifyPreviewShared     NotifyKind = "preview_shared"
	NotifyApproved          NotifyKind = "approved"
	NotifyRevisionRequested NotifyKind = "revision_requested"
	NotifyPaymentConfirmed  NotifyKind = "payment_confirmed"
)

// NotificationService turns committed workflow events into queued delivery
// tasks. Enqueueing is fire-and-forget: delivery failures are retried by the
// queue and can never affect the state change that triggered them.
type NotificationService struct {
	db    *gorm.DB
	queue TaskQueue
}

func NewNotificationService(db *gorm.DB, queue TaskQueue) *NotificationService {
	return &NotificationService{db: db, queue: queue}
}

// ProjectEvent implements Notifier. The recipient depends on the event:
// client-facing events go to the project's client email, freelancer-facing
// events to the owner's account email.
func (s *NotificationService) ProjectEvent(kind NotifyKind, project *models.Project, extra map[string]string) {
	if kind == NotifyNone || s.queue == nil {
		return
	}

	recipient := ""
	switch kind {
	case NotifyPreviewShared, NotifyPaymentConfirmed:
		recipient = project.ClientEmail
	case NotifyApproved, NotifyRevisionRequested:
		recipient = s.ownerEmail(project)
	}
	if recipient == "" {
		logger.Warn().Uint("project_id", project.ID).Str("kind", string(kind)).Msg("no recipient for notification")
		return
	}

	task := &NotifyTask{
		Kind:           kind,
		ProjectID:      project.ID,
		ProjectTitle:   project.Title,
		RecipientEmail: recipient,
		Extra:          extra,
	}

	if err := s.queue.Enqueue(task); err != nil {
		logger.Error().Err(err).Uint("project_id", project.ID).Str("kind", string(kind)).Msg("failed to enqueue notification")
	}
}

func (s *NotificationService) ownerEmail(project *models.Project) string {
	if project.Freelancer != nil {
		return project.Freelancer.Email
	}
	var owner models.User
	if err := s.db.First(&owner, project.FreelancerID).Error; err != nil {
		return ""
	}
	return owner.Email
}
