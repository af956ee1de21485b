package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/utils"
	"github.com/proofpay/backend/pkg/logger"
	"gorm.io/gorm"
)

// PaymentService records checkout attempts and reacts to the external
// processor's confirmation events. It is the only caller of the lifecycle's
// payment_confirmed transition and the only caller of download issuance.
type PaymentService struct {
	db            *gorm.DB
	commissionBps int64
	lifecycle     *LifecycleService
	downloads     *DownloadService
	notifier      Notifier
	activity      *ActivityLogService
}

func NewPaymentService(db *gorm.DB, commissionBps int64, lifecycle *LifecycleService, downloads *DownloadService, notifier Notifier) *PaymentService {
	if commissionBps <= 0 {
		commissionBps = 500
	}
	return &PaymentService{
		db:            db,
		commissionBps: commissionBps,
		lifecycle:     lifecycle,
		downloads:     downloads,
		notifier:      notifier,
		activity:      NewActivityLogService(db),
	}
}

// Checkout opens a pending payment for an approved project. The returned
// payment carries the opaque reference the external processor reports back
// with. Retries create fresh rows; only the first completion has effect.
func (s *PaymentService) Checkout(projectID uint, clientEmail string) (*models.Payment, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if clientEmail == "" || clientEmail != project.ClientEmail {
		return nil, forbidden("only the project's client may pay")
	}

	if project.Status != models.StatusApproved {
		return nil, &Error{
			Kind:    KindPreconditionFailed,
			Message: "payment requires an approved project",
			Status:  project.Status,
		}
	}

	payment := models.Payment{
		ProjectID:       project.ID,
		PaymentID:       uuid.New().String(),
		ClientEmail:     clientEmail,
		AmountCents:     project.PriceCents,
		CommissionCents: utils.Commission(project.PriceCents, s.commissionBps),
		Status:          models.PaymentPending,
	}

	if err := s.db.Create(&payment).Error; err != nil {
		return nil, unavailable(err)
	}

	s.activity.Record(&project.ID, "payment", "checkout", "client:"+clientEmail,
		fmt.Sprintf("payment %s opened for %s", payment.PaymentID, utils.FormatAmount(payment.AmountCents)))
	return &payment, nil
}

// HandleResult processes the processor's confirmation event, the only
// inbound trigger for approved -> paid. The pending -> terminal move is a
// compare-and-swap, so a duplicate confirmation of the same payment is
// rejected. A second payment completing after the project is already paid
// finalizes the payment row but is a no-op on project state.
func (s *PaymentService) HandleResult(paymentID, result string) (*models.Payment, error) {
	var status models.PaymentStatus
	switch result {
	case "completed":
		status = models.PaymentCompleted
	case "failed":
		status = models.PaymentFailed
	default:
		return nil, preconditionFailed("result must be completed or failed")
	}

	var payment models.Payment
	if err := s.db.Where("payment_id = ?", paymentID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("payment not found")
		}
		return nil, unavailable(err)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": status, "updated_at": now}
	if status == models.PaymentCompleted {
		updates["completed_at"] = now
	}

	res := s.db.Model(&models.Payment{}).
		Where("payment_id = ? AND status = ?", paymentID, models.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return nil, unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, preconditionFailed("payment has already been finalized")
	}

	payment.Status = status
	payment.UpdatedAt = now
	if status == models.PaymentCompleted {
		payment.CompletedAt = &now
	}

	s.activity.Record(&payment.ProjectID, "payment", "result", "system",
		fmt.Sprintf("payment %s %s", paymentID, status))

	if status == models.PaymentFailed {
		return &payment, nil
	}

	s.onPaymentCompleted(&payment)
	return &payment, nil
}

// onPaymentCompleted moves the project to paid and mints the download token.
// Token issuance and notification are post-commit effects: their failure is
// logged but never rolls back the payment or the transition.
func (s *PaymentService) onPaymentCompleted(payment *models.Payment) {
	project, err := s.lifecycle.ConfirmPayment(payment.ProjectID)
	if err != nil {
		if IsKind(err, KindInvalidTransition) {
			// Another payment already moved the project to paid; keep this
			// row completed but change nothing else.
			logger.Warn().
				Uint("project_id", payment.ProjectID).
				Str("payment_id", payment.PaymentID).
				Msg("payment completed for a project that is no longer approved, skipping transition")
			return
		}
		logger.Error().Err(err).
			Uint("project_id", payment.ProjectID).
			Str("payment_id", payment.PaymentID).
			Msg("failed to confirm payment on project")
		return
	}

	download, err := s.downloads.IssueToken(project, payment.ClientEmail)
	if err != nil {
		logger.Error().Err(err).
			Uint("project_id", project.ID).
			Msg("failed to issue download token after payment")
		return
	}

	if s.notifier != nil {
		s.notifier.ProjectEvent(NotifyPaymentConfirmed, project, map[string]string{
			"download_token": download.Token,
			"expires_at":     download.ExpiresAt.Format(time.RFC1123),
		})
	}
}

// ListByProject returns a project's payment attempts for the owner or admin.
func (s *PaymentService) ListByProject(projectID uint, actor Actor) ([]models.Payment, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !actor.IsAdmin() && !actor.OwnsProject(&project) {
		return nil, forbidden("not allowed to view payments for this project")
	}

	var payments []models.Payment
	if err := s.db.Where("project_id = ?", projectID).Order("id DESC").Find(&payments).Error; err != nil {
		return nil, unavailable(err)
	}
	return payments, nil
}
