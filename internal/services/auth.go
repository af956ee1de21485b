package services

import (
	"strings"
	"time"

	"github.com/proofpay/backend/internal/config"
	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/internal/utils"
	"github.com/proofpay/backend/pkg/logger"
	"gorm.io/gorm"
)

// AuthService manages freelancer/admin accounts and session tokens.
type AuthService struct {
	db  *gorm.DB
	cfg *config.JWTConfig
}

func NewAuthService(db *gorm.DB, cfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a freelancer account.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, unavailable(err)
	}
	if count > 0 {
		return nil, preconditionFailed("an account with this email already exists")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, unavailable(err)
	}

	user := models.User{
		Email:    email,
		Password: hash,
		Name:     req.Name,
		Role:     "freelancer",
		IsActive: true,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, unavailable(err)
	}
	return &user, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, forbidden("invalid email or password")
		}
		return nil, unavailable(err)
	}

	if !user.IsActive {
		return nil, forbidden("account is disabled")
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, forbidden("invalid email or password")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, s.cfg.ExpireHour)
	if err != nil {
		return nil, unavailable(err)
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login", now)
	user.LastLogin = &now

	return &LoginResponse{Token: token, User: &user}, nil
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("user not found")
		}
		return nil, unavailable(err)
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the default admin account on first boot.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    "admin@proofpay.local",
		Password: hash,
		Name:     "Administrator",
		Role:     "admin",
		IsActive: true,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Warnf("created default admin account %s with password admin123, change it immediately", admin.Email)
	return nil
}
