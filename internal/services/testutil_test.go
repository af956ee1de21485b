package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database. The shared-cache
// DSN keeps the database alive across pooled connections; a single open
// connection keeps sqlite from lock errors under concurrent tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Comment{},
		&models.Payment{},
		&models.Download{},
		&models.ActivityLog{},
		&models.SystemConfig{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := models.User{
		Email:    email,
		Name:     "Test User",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func createTestProject(t *testing.T, db *gorm.DB, ownerID uint, status models.ProjectStatus) *models.Project {
	t.Helper()
	token, err := utils.GenerateSecureToken(16)
	if err != nil {
		t.Fatalf("failed to generate share token: %v", err)
	}
	project := models.Project{
		FreelancerID: ownerID,
		Title:        "Logo Design",
		Description:  "Brand refresh",
		ClientEmail:  "c@x.com",
		PriceCents:   100000, // "1000.00"
		Status:       status,
		ShareToken:   token,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return &project
}

func reloadProject(t *testing.T, db *gorm.DB, id uint) *models.Project {
	t.Helper()
	var project models.Project
	if err := db.First(&project, id).Error; err != nil {
		t.Fatalf("failed to reload project %d: %v", id, err)
	}
	return &project
}

func setProjectFields(t *testing.T, db *gorm.DB, id uint, fields map[string]interface{}) {
	t.Helper()
	if err := db.Model(&models.Project{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		t.Fatalf("failed to update project %d: %v", id, err)
	}
}

func createTestDownload(t *testing.T, db *gorm.DB, projectID uint, count, max int, expiresAt time.Time) *models.Download {
	t.Helper()
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("failed to generate download token: %v", err)
	}
	download := models.Download{
		ProjectID:     projectID,
		Token:         token,
		ClientEmail:   "c@x.com",
		DownloadCount: count,
		MaxDownloads:  max,
		ExpiresAt:     expiresAt,
	}
	if err := db.Create(&download).Error; err != nil {
		t.Fatalf("failed to create test download: %v", err)
	}
	return &download
}

func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
