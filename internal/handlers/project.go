package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/proofpay/backend/internal/services"
	"github.com/proofpay/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService  *services.ProjectService
	lifecycle       *services.LifecycleService
	commentService  *services.CommentService
	paymentService  *services.PaymentService
	downloadService *services.DownloadService
	activityService *services.ActivityLogService
}

func NewProjectHandler(db *gorm.DB, lifecycle *services.LifecycleService, payments *services.PaymentService, downloads *services.DownloadService) *ProjectHandler {
	return &ProjectHandler{
		projectService:  services.NewProjectService(db),
		lifecycle:       lifecycle,
		commentService:  services.NewCommentService(db),
		paymentService:  payments,
		downloadService: downloads,
		activityService: services.NewActivityLogService(db),
	}
}

func projectID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return 0, false
	}
	return uint(id), true
}

// List returns the freelancer's projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.List(&req, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, resp)
}

// Create opens a new draft project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actor := actorFromContext(c)
	project, err := h.projectService.Create(&req, actor.UserID)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Created(c, project)
}

// GetByID returns a project
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(id, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, project)
}

// Update edits non-status fields
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, &req, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, project)
}

// Delete removes a project
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(id, actorFromContext(c)); err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, nil)
}

type fileRefRequest struct {
	URL string `json:"url" binding:"required"`
}

// SetPreview stores the preview file reference
// PUT /api/projects/:id/preview
func (h *ProjectHandler) SetPreview(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req fileRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.SetPreview(id, req.URL, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, project)
}

// SetFinalFile stores the deliverable reference
// PUT /api/projects/:id/final-file
func (h *ProjectHandler) SetFinalFile(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req fileRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.SetFinalFile(id, req.URL, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, project)
}

// SharePreview fires the share_preview transition
// POST /api/projects/:id/share
func (h *ProjectHandler) SharePreview(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.lifecycle.SharePreview(id, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, project)
}

// MarkCompleted fires the mark_completed transition
// POST /api/projects/:id/complete
func (h *ProjectHandler) MarkCompleted(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.lifecycle.MarkCompleted(id, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, project)
}

// ListComments returns the project's feedback ledger
// GET /api/projects/:id/comments
func (h *ProjectHandler) ListComments(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListByProject(id, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, comments)
}

// ListPayments returns the project's payment attempts
// GET /api/projects/:id/payments
func (h *ProjectHandler) ListPayments(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListByProject(id, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, payments)
}

// ListDownloads returns the project's download tokens
// GET /api/projects/:id/downloads
func (h *ProjectHandler) ListDownloads(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	downloads, err := h.downloadService.ListByProject(id, actorFromContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, downloads)
}

// ListActivity returns the project's audit trail
// GET /api/projects/:id/activity
func (h *ProjectHandler) ListActivity(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	// Visibility piggybacks on project access.
	if _, err := h.projectService.GetByID(id, actorFromContext(c)); err != nil {
		renderError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.activityService.ListByProject(id, limit)
	if err != nil {
		renderError(c, err)
		return
	}

	response.Success(c, entries)
}
