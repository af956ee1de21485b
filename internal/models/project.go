package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectStatus is the closed set of lifecycle states a project moves through.
type ProjectStatus string

const (
	StatusDraft             ProjectStatus = "draft"
	StatusPreviewShared     ProjectStatus = "preview_shared"
	StatusApproved          ProjectStatus = "approved"
	StatusRevisionRequested ProjectStatus = "revision_requested"
	StatusPaid              ProjectStatus = "paid"
	StatusCompleted         ProjectStatus = "completed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPreviewShared, StatusApproved,
		StatusRevisionRequested, StatusPaid, StatusCompleted:
		return true
	}
	return false
}

// Shareable reports whether the project is visible to the client via its
// share link, which is also the window in which comments may be added.
func (s ProjectStatus) Shareable() bool {
	switch s {
	case StatusPreviewShared, StatusRevisionRequested, StatusApproved:
		return true
	}
	return false
}

// Downloadable reports whether downloads may resolve against the project.
func (s ProjectStatus) Downloadable() bool {
	return s == StatusPaid || s == StatusCompleted
}

// Project is a unit of commissioned work tracked through the
// approval/payment lifecycle.
type Project struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	FreelancerID uint          `gorm:"index;not null" json:"freelancer_id"`
	Freelancer   *User         `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Title        string        `gorm:"size:200;not null" json:"title"`
	Description  string        `gorm:"type:text" json:"description"`
	ClientEmail  string        `gorm:"size:255;not null;index" json:"client_email"`
	PriceCents   int64         `gorm:"not null" json:"price_cents"`
	Status       ProjectStatus `gorm:"size:50;not null;default:draft;index" json:"status"`
	PreviewURL   string        `gorm:"size:1000" json:"preview_url"`
	FinalFileURL string        `gorm:"size:1000" json:"final_file_url"`
	// ShareToken is the unguessable anonymous client link credential.
	ShareToken string         `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Deadline   *time.Time     `json:"deadline"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
