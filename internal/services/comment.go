package services

import (
	"regexp"
	"strings"

	"github.com/proofpay/backend/internal/models"
	"gorm.io/gorm"
)

// markerPattern is the MM:SS position marker, display only.
var markerPattern = regexp.MustCompile(`^[0-9]{1,2}:[0-5][0-9]$`)

// CommentService is the append-only feedback ledger. Comments have no edit
// or delete path; immutability is the audit-trail property, not an oversight.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

type AddCommentRequest struct {
	Content    string `json:"content" binding:"required"`
	Marker     string `json:"marker"`
	AuthorName string `json:"author_name"`
}

// Add appends a comment. The project must exist, be visible to the actor,
// and be in a shareable state; content must be non-empty.
func (s *CommentService) Add(projectID uint, actor Actor, req *AddCommentRequest) (*models.Comment, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !actor.CanView(&project) {
		return nil, forbidden("not allowed to comment on this project")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, preconditionFailed("comment content must not be empty")
	}

	if !project.Status.Shareable() {
		return nil, &Error{
			Kind:    KindPreconditionFailed,
			Message: "comments can only be added while the project is shared for review",
			Status:  project.Status,
		}
	}

	if req.Marker != "" && !markerPattern.MatchString(req.Marker) {
		return nil, preconditionFailed("marker must look like MM:SS")
	}

	comment := models.Comment{
		ProjectID:   project.ID,
		AuthorEmail: actor.Email,
		AuthorName:  req.AuthorName,
		Content:     content,
		Marker:      req.Marker,
	}

	if err := s.db.Create(&comment).Error; err != nil {
		return nil, unavailable(err)
	}

	return &comment, nil
}

// ListByProject returns a project's comments in insertion order. Readable in
// any lifecycle state so feedback stays auditable after approval and payment.
func (s *CommentService) ListByProject(projectID uint, actor Actor) ([]models.Comment, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !actor.CanView(&project) {
		return nil, forbidden("not allowed to view comments on this project")
	}

	var comments []models.Comment
	if err := s.db.Where("project_id = ?", projectID).Order("id ASC").Find(&comments).Error; err != nil {
		return nil, unavailable(err)
	}
	return comments, nil
}
