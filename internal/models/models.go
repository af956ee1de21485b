package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus is the closed set of payment record states.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// User represents a platform account: a freelancer or an admin.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash
	Name      string         `gorm:"size:100" json:"name"`
	Role      string         `gorm:"size:50;default:freelancer" json:"role"` // freelancer, admin
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment is one append-only feedback entry on a project. Comments are never
// edited or removed, so the struct carries no update or delete columns.
type Comment struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	ProjectID   uint     `gorm:"index;not null" json:"project_id"`
	Project     *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AuthorEmail string   `gorm:"size:255;not null" json:"author_email"`
	AuthorName  string   `gorm:"size:100" json:"author_name"`
	Content     string   `gorm:"type:text;not null" json:"content"`
	// Marker is an optional MM:SS position in the preview, display only.
	Marker    string    `gorm:"size:10" json:"marker,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Payment records one checkout attempt for a project. A project may carry
// several payment rows (retries); only the first to reach completed moves
// the project to paid.
type Payment struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ProjectID uint     `gorm:"index;not null" json:"project_id"`
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	// PaymentID is the opaque reference handed to the external processor.
	PaymentID       string        `gorm:"uniqueIndex;size:64;not null" json:"payment_id"`
	ClientEmail     string        `gorm:"size:255;not null" json:"client_email"`
	AmountCents     int64         `gorm:"not null" json:"amount_cents"`
	CommissionCents int64         `gorm:"not null" json:"commission_cents"`
	Status          PaymentStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	CompletedAt     *time.Time    `json:"completed_at"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Download is a time- and count-limited credential for final-file retrieval.
type Download struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ProjectID uint     `gorm:"index;not null" json:"project_id"`
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	// Token is a secret bearer credential; treat like a password.
	Token         string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ClientEmail   string    `gorm:"size:255;not null" json:"client_email"`
	DownloadCount int       `gorm:"not null;default:0" json:"download_count"`
	MaxDownloads  int       `gorm:"not null;default:3" json:"max_downloads"`
	ExpiresAt     time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Remaining returns the number of resolutions the token has left,
// ignoring expiry.
func (d *Download) Remaining() int {
	left := d.MaxDownloads - d.DownloadCount
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the token has passed its expiry at the given time.
func (d *Download) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// ActivityLog is an append-only audit record of workflow activity.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID *uint     `gorm:"index" json:"project_id"`
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Actor     string    `gorm:"size:255" json:"actor"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// SystemConfig represents system-wide configuration stored in the database.
type SystemConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:20;default:string" json:"type"` // string, int, bool
	Group     string    `gorm:"size:50;index" json:"group"`         // email, system
	Label     string    `gorm:"size:200" json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (User) TableName() string         { return "users" }
func (Comment) TableName() string      { return "comments" }
func (Payment) TableName() string      { return "payments" }
func (Download) TableName() string     { return "downloads" }
func (ActivityLog) TableName() string  { return "activity_logs" }
func (SystemConfig) TableName() string { return "system_configs" }
