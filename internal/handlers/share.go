package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/services"
	"github.com/proofpay/backend/internal/utils"
	"github.com/proofpay/backend/pkg/response"
	"gorm.io/gorm"
)

// ShareHandler is the anonymous client surface. The unguessable share link
// identifies the project; mutating requests additionally assert the client's
// email, which the workflow verifies against the project.
type ShareHandler struct {
	projectService *services.ProjectService
	commentService *services.CommentService
	lifecycle      *services.LifecycleService
	paymentService *services.PaymentService
}

func NewShareHandler(db *gorm.DB, lifecycle *services.LifecycleService, payments *services.PaymentService) *ShareHandler {
	return &ShareHandler{
		projectService: services.NewProjectService(db),
		commentService: services.NewCommentService(db),
		lifecycle:      lifecycle,
		paymentService: payments,
	}
}

// shareView is the client-facing projection of a project.
type shareView struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Price       string               `json:"price"`
	PreviewURL  string               `json:"preview_url,omitempty"`
	Deadline    *time.Time           `json:"deadline,omitempty"`
	Comments    []models.Comment     `json:"comments"`
}

type clientRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type clientCommentRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Content    string `json:"content" binding:"required"`
	Marker     string `json:"marker"`
	AuthorName string `json:"author_name"`
}

type clientRevisionRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Feedback   string `json:"feedback" binding:"required"`
	AuthorName string `json:"author_name"`
}

func (h *ShareHandler) project(c *gin.Context) (*models.Project, bool) {
	project, err := h.projectService.GetByShareToken(c.Param("token"))
	if err != nil {
		renderError(c, err)
		return nil, false
	}
	return project, true
}

// Get returns the client view of a shared project
// GET /api/share/:token
func (h *ShareHandler) Get(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}

	// The link bearer is the client; the preview is only revealed once the
	// project has actually been shared.
	if project.Status == models.StatusDraft {
		response.NotFound(c, "project not found")
		return
	}

	comments, err := h.commentService.ListByProject(project.ID, services.ClientActor(project.ClientEmail))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, shareView{
		Title:       project.Title,
		Description: project.Description,
		Status:      project.Status,
		Price:       utils.FormatAmount(project.PriceCents),
		PreviewURL:  project.PreviewURL,
		Deadline:    project.Deadline,
		Comments:    comments,
	})
}

// AddComment appends client feedback
// POST /api/share/:token/comments
func (h *ShareHandler) AddComment(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}

	var req clientCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Add(project.ID, services.ClientActor(req.Email), &services.AddCommentRequest{
		Content:    req.Content,
		Marker:     req.Marker,
		AuthorName: req.AuthorName,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	response.Created(c, comment)
}

// Approve fires the approve transition as the client
// POST /api/share/:token/approve
func (h *ShareHandler) Approve(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.lifecycle.Approve(project.ID, services.ClientActor(req.Email))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{"status": updated.Status})
}

// RequestRevision fires the request_revision transition as the client
// POST /api/share/:token/request-revision
func (h *ShareHandler) RequestRevision(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}

	var req clientRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.lifecycle.RequestRevision(project.ID, services.ClientActor(req.Email), req.Feedback, req.AuthorName)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, gin.H{"status": updated.Status})
}

// Checkout opens a pending payment for the approved project
// POST /api/share/:token/checkout
func (h *ShareHandler) Checkout(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Checkout(project.ID, req.Email)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Created(c, gin.H{
		"payment_id": payment.PaymentID,
		"amount":     utils.FormatAmount(payment.AmountCents),
		"commission": utils.FormatAmount(payment.CommissionCents),
		"status":     payment.Status,
	})
}
