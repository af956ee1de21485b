package services

import (
	"fmt"
	"time"

	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/pkg/logger"
	"gorm.io/gorm"
)

// Event is a lifecycle transition trigger.
type Event string

const (
	EventSharePreview     Event = "share_preview"
	EventApprove          Event = "approve"
	EventRequestRevision  Event = "request_revision"
	EventPaymentConfirmed Event = "payment_confirmed"
	EventMarkCompleted    Event = "mark_completed"
)

// TransitionPayload carries event-specific input.
type TransitionPayload struct {
	Feedback   string // request_revision: revision notes, recorded as a comment
	AuthorName string // request_revision: display name for the comment
}

// Notifier receives fire-and-forget notification intents after a transition
// has been committed. Implementations must never block the caller on
// delivery.
type Notifier interface {
	ProjectEvent(kind NotifyKind, project *models.Project, extra map[string]string)
}

type transitionRule struct {
	to     models.ProjectStatus
	actor  func(a Actor, p *models.Project) bool
	guard  func(p *models.Project, payload TransitionPayload) *Error
	notify NotifyKind // NotifyNone when the caller handles notification itself
}

func ownerOrAdmin(a Actor, p *models.Project) bool {
	return a.IsAdmin() || a.OwnsProject(p)
}

func clientOrAdmin(a Actor, p *models.Project) bool {
	return a.IsAdmin() || a.MatchesClient(p)
}

func systemOnly(a Actor, _ *models.Project) bool {
	return a.Role == RoleSystem
}

func previewSet(p *models.Project, _ TransitionPayload) *Error {
	if p.PreviewURL == "" {
		return preconditionFailed("preview file has not been uploaded")
	}
	return nil
}

func feedbackSet(_ *models.Project, payload TransitionPayload) *Error {
	if payload.Feedback == "" {
		return preconditionFailed("revision feedback must not be empty")
	}
	return nil
}

// transitionTable is the single source of truth for lifecycle legality:
// which event applies in which state, who may trigger it, and under what
// precondition. Events absent for a state are invalid transitions, including
// re-submitting an event whose target state was already reached.
var transitionTable = map[models.ProjectStatus]map[Event]transitionRule{
	models.StatusDraft: {
		EventSharePreview: {to: models.StatusPreviewShared, actor: ownerOrAdmin, guard: previewSet, notify: NotifyPreviewShared},
	},
	models.StatusPreviewShared: {
		EventApprove:         {to: models.StatusApproved, actor: clientOrAdmin, notify: NotifyApproved},
		EventRequestRevision: {to: models.StatusRevisionRequested, actor: clientOrAdmin, guard: feedbackSet, notify: NotifyRevisionRequested},
	},
	models.StatusRevisionRequested: {
		EventSharePreview: {to: models.StatusPreviewShared, actor: ownerOrAdmin, guard: previewSet, notify: NotifyPreviewShared},
	},
	models.StatusApproved: {
		EventPaymentConfirmed: {to: models.StatusPaid, actor: systemOnly, notify: NotifyNone},
	},
	models.StatusPaid: {
		EventMarkCompleted: {to: models.StatusCompleted, actor: ownerOrAdmin, notify: NotifyNone},
	},
	// completed accepts no further transitions
}

// LifecycleService is the sole authority over a project's status field.
type LifecycleService struct {
	db       *gorm.DB
	notifier Notifier
	activity *ActivityLogService
}

func NewLifecycleService(db *gorm.DB, notifier Notifier) *LifecycleService {
	return &LifecycleService{
		db:       db,
		notifier: notifier,
		activity: NewActivityLogService(db),
	}
}

// Apply validates and commits one lifecycle transition. On success the
// returned project reflects the new status. Rejections are typed: NotFound,
// InvalidTransition (event undefined for the current state, or a concurrent
// transition won), Forbidden (actor rule; admins bypass this but never
// legality), PreconditionFailed (guard unmet).
//
// The status write is a compare-and-swap on the previous status, so two
// concurrent requests can never both commit. Notification and audit are
// post-commit and failure-isolated: the state change is the source of truth.
func (s *LifecycleService) Apply(projectID uint, event Event, actor Actor, payload TransitionPayload) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	rule, ok := transitionTable[project.Status][event]
	if !ok {
		return nil, invalidTransition(
			fmt.Sprintf("event %s is not allowed while project is %s", event, project.Status),
			project.Status,
		)
	}

	if !rule.actor(actor, &project) {
		return nil, forbidden(fmt.Sprintf("actor may not trigger %s on this project", event))
	}

	if rule.guard != nil {
		if err := rule.guard(&project, payload); err != nil {
			return nil, err
		}
	}

	from := project.Status
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", project.ID, from).
			Updates(map[string]interface{}{"status": rule.to, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound // lost the race; classified below
		}

		if event == EventRequestRevision {
			comment := models.Comment{
				ProjectID:   project.ID,
				AuthorEmail: actor.Email,
				AuthorName:  payload.AuthorName,
				Content:     payload.Feedback,
			}
			if err := tx.Create(&comment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// A concurrent request changed the status first. Reload so the
			// rejection names the state the project actually ended up in.
			var current models.Project
			if lerr := s.db.First(&current, project.ID).Error; lerr == nil {
				return nil, invalidTransition(
					fmt.Sprintf("project status changed concurrently, now %s", current.Status),
					current.Status,
				)
			}
			return nil, invalidTransition("project status changed concurrently", from)
		}
		return nil, unavailable(err)
	}

	project.Status = rule.to
	project.UpdatedAt = now

	s.activity.Record(&project.ID, "lifecycle", string(event), actor.DisplayName(),
		fmt.Sprintf("%s -> %s", from, rule.to))

	if s.notifier != nil && rule.notify != NotifyNone {
		s.notifier.ProjectEvent(rule.notify, &project, map[string]string{
			"feedback": payload.Feedback,
		})
	}

	logger.Info().
		Uint("project_id", project.ID).
		Str("event", string(event)).
		Str("from", string(from)).
		Str("to", string(rule.to)).
		Str("actor", actor.DisplayName()).
		Msg("project transition")

	return &project, nil
}

// SharePreview moves draft or revision_requested to preview_shared.
func (s *LifecycleService) SharePreview(projectID uint, actor Actor) (*models.Project, error) {
	return s.Apply(projectID, EventSharePreview, actor, TransitionPayload{})
}

// Approve records client approval of the shared preview.
func (s *LifecycleService) Approve(projectID uint, actor Actor) (*models.Project, error) {
	return s.Apply(projectID, EventApprove, actor, TransitionPayload{})
}

// RequestRevision records client revision feedback and returns the project
// to the freelancer for rework.
func (s *LifecycleService) RequestRevision(projectID uint, actor Actor, feedback, authorName string) (*models.Project, error) {
	return s.Apply(projectID, EventRequestRevision, actor, TransitionPayload{
		Feedback:   feedback,
		AuthorName: authorName,
	})
}

// ConfirmPayment moves approved to paid. Only the payment ledger calls this,
// always as the system actor.
func (s *LifecycleService) ConfirmPayment(projectID uint) (*models.Project, error) {
	return s.Apply(projectID, EventPaymentConfirmed, SystemActor, TransitionPayload{})
}

// MarkCompleted closes out a paid project at the freelancer's discretion.
func (s *LifecycleService) MarkCompleted(projectID uint, actor Actor) (*models.Project, error) {
	return s.Apply(projectID, EventMarkCompleted, actor, TransitionPayload{})
}
