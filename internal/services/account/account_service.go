package account

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/truber-app/truber-backend/internal/apperr"
	"github.com/truber-app/truber-backend/internal/db"
	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/services/catalog"
	"github.com/truber-app/truber-backend/internal/utils"
)

type AccountService struct {
	DB *gorm.DB
}

func NewAccountService(gdb *gorm.DB) *AccountService {
	return &AccountService{DB: gdb}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=client provider"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}

	role := models.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if role == "" {
		role = models.RoleClient
	}
	if role != models.RoleClient && role != models.RoleProvider {
		return nil, apperr.Validation("role must be client or provider")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Validation("email is already registered")
		}
		return nil, err
	}
	return &user, nil
}

// Login returns the profile of the user owning email when password matches.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := catalog.PreloadProfile(s.DB.WithContext(ctx)).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return &user, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := catalog.PreloadProfile(s.DB.WithContext(ctx)).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, err
	}
	return &user, nil
}
