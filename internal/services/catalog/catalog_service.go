package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/truber-app/truber-backend/internal/apperr"
	"github.com/truber-app/truber-backend/internal/models"
)

// CatalogService serves the read-only marketplace directory: providers,
// badges and service categories.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(gdb *gorm.DB) *CatalogService {
	return &CatalogService{DB: gdb}
}

// PreloadProfile eager-loads everything shown on a public profile.
func PreloadProfile(gdb *gorm.DB) *gorm.DB {
	return gdb.
		Preload("Portfolio").
		Preload("Badges").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") })
}

func (s *CatalogService) ListProviders(ctx context.Context) ([]models.User, error) {
	providers := []models.User{}
	err := PreloadProfile(s.DB.WithContext(ctx)).
		Where("role = ?", models.RoleProvider).
		Order("rating DESC").Order("id").
		Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (s *CatalogService) GetProvider(ctx context.Context, id string) (*models.User, error) {
	var provider models.User
	err := PreloadProfile(s.DB.WithContext(ctx)).
		Where("id = ? AND role = ?", id, models.RoleProvider).
		First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("provider %s not found", id)
		}
		return nil, err
	}
	return &provider, nil
}

func (s *CatalogService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges := []models.Badge{}
	if err := s.DB.WithContext(ctx).Order("name").Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

func (s *CatalogService) ListServices(ctx context.Context) ([]models.Service, error) {
	services := []models.Service{}
	if err := s.DB.WithContext(ctx).Order("name").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}
