package services

import (
	"time"

	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/utils"
	"gorm.io/gorm"
)

// ProjectService owns project records and their non-status fields. Status is
// the LifecycleService's territory; this service only guards field edits
// against the current state.
type ProjectService struct {
	db       *gorm.DB
	activity *ActivityLogService
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db, activity: NewActivityLogService(db)}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Status   string `form:"status"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ClientEmail string     `json:"client_email" binding:"required,email"`
	Price       string     `json:"price" binding:"required"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateProjectRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Price       *string    `json:"price"`
	Deadline    *time.Time `json:"deadline"`
}

// Create opens a new draft project owned by the freelancer.
func (s *ProjectService) Create(req *CreateProjectRequest, freelancerID uint) (*models.Project, error) {
	priceCents, err := utils.ParseAmount(req.Price)
	if err != nil || priceCents <= 0 {
		return nil, preconditionFailed("price must be a positive amount like \"1000.00\"")
	}

	shareToken, err := utils.GenerateSecureToken(16)
	if err != nil {
		return nil, unavailable(err)
	}

	project := models.Project{
		FreelancerID: freelancerID,
		Title:        req.Title,
		Description:  req.Description,
		ClientEmail:  req.ClientEmail,
		PriceCents:   priceCents,
		Status:       models.StatusDraft,
		ShareToken:   shareToken,
		Deadline:     req.Deadline,
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, unavailable(err)
	}

	s.activity.Record(&project.ID, "project", "create", "", "project created")
	return &project, nil
}

// List returns the actor's projects, all projects for admins.
func (s *ProjectService) List(req *ProjectListRequest, actor Actor) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	query := s.db.Model(&models.Project{})
	if !actor.IsAdmin() {
		query = query.Where("freelancer_id = ?", actor.UserID)
	}
	if req.Status != "" {
		if !models.ProjectStatus(req.Status).Valid() {
			return nil, preconditionFailed("unknown status filter")
		}
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, unavailable(err)
	}

	var projects []models.Project
	err := query.Order("id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&projects).Error
	if err != nil {
		return nil, unavailable(err)
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project visible to the actor.
func (s *ProjectService) GetByID(id uint, actor Actor) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !actor.CanView(&project) {
		return nil, forbidden("not allowed to view this project")
	}
	return &project, nil
}

// GetByShareToken resolves the anonymous client link to its project.
func (s *ProjectService) GetByShareToken(token string) (*models.Project, error) {
	if token == "" {
		return nil, notFound("project not found")
	}
	var project models.Project
	if err := s.db.Where("share_token = ?", token).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}
	return &project, nil
}

// Update edits non-status fields. Price is frozen once payment has been
// initiated or the project reached paid/completed.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest, actor Actor) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !actor.IsAdmin() && !actor.OwnsProject(&project) {
		return nil, forbidden("only the owner may edit this project")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, preconditionFailed("title must not be empty")
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.Price != nil {
		if err := s.priceEditable(&project); err != nil {
			return nil, err
		}
		priceCents, err := utils.ParseAmount(*req.Price)
		if err != nil || priceCents <= 0 {
			return nil, preconditionFailed("price must be a positive amount")
		}
		updates["price_cents"] = priceCents
	}

	if len(updates) == 0 {
		return &project, nil
	}

	if err := s.db.Model(&project).Updates(updates).Error; err != nil {
		return nil, unavailable(err)
	}

	s.activity.Record(&project.ID, "project", "update", actor.DisplayName(), "fields updated")
	return &project, nil
}

func (s *ProjectService) priceEditable(project *models.Project) error {
	if project.Status == models.StatusPaid || project.Status == models.StatusCompleted {
		return &Error{
			Kind:    KindPreconditionFailed,
			Message: "price cannot change after payment",
			Status:  project.Status,
		}
	}
	var count int64
	if err := s.db.Model(&models.Payment{}).Where("project_id = ?", project.ID).Count(&count).Error; err != nil {
		return unavailable(err)
	}
	if count > 0 {
		return preconditionFailed("price cannot change once payment has been initiated")
	}
	return nil
}

// SetPreview stores the preview file reference. Allowed until the project
// is paid; sharing it with the client is a separate lifecycle event.
func (s *ProjectService) SetPreview(id uint, url string, actor Actor) (*models.Project, error) {
	if url == "" {
		return nil, preconditionFailed("preview_url must not be empty")
	}
	return s.setFileRef(id, "preview_url", url, actor, false)
}

// SetFinalFile stores the deliverable reference. Required before any
// download token can resolve.
func (s *ProjectService) SetFinalFile(id uint, url string, actor Actor) (*models.Project, error) {
	if url == "" {
		return nil, preconditionFailed("final_file_url must not be empty")
	}
	return s.setFileRef(id, "final_file_url", url, actor, true)
}

func (s *ProjectService) setFileRef(id uint, column, url string, actor Actor, allowAfterPaid bool) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("project not found")
		}
		return nil, unavailable(err)
	}

	if !actor.IsAdmin() && !actor.OwnsProject(&project) {
		return nil, forbidden("only the owner may upload files")
	}

	if !allowAfterPaid && project.Status.Downloadable() {
		return nil, &Error{
			Kind:    KindPreconditionFailed,
			Message: "preview cannot change after payment",
			Status:  project.Status,
		}
	}

	if err := s.db.Model(&project).Update(column, url).Error; err != nil {
		return nil, unavailable(err)
	}

	s.activity.Record(&project.ID, "project", "set_"+column, actor.DisplayName(), "file reference updated")

	switch column {
	case "preview_url":
		project.PreviewURL = url
	case "final_file_url":
		project.FinalFileURL = url
	}
	return &project, nil
}

// Delete soft-deletes a project.
func (s *ProjectService) Delete(id uint, actor Actor) error {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return notFound("project not found")
		}
		return unavailable(err)
	}

	if !actor.IsAdmin() && !actor.OwnsProject(&project) {
		return forbidden("only the owner may delete this project")
	}

	if err := s.db.Delete(&project).Error; err != nil {
		return unavailable(err)
	}

	s.activity.Record(&project.ID, "project", "delete", actor.DisplayName(), "project deleted")
	return nil
}
