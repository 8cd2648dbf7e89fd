package profile

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/truber-app/truber-backend/internal/apperr"
	"github.com/truber-app/truber-backend/internal/db"
	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/services/catalog"
)

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{DB: gdb}
}

// ProfileInput is a partial profile update; nil fields are left untouched.
type ProfileInput struct {
	Name         *string         `json:"name"`
	Email        *string         `json:"email"`
	Phone        *string         `json:"phone"`
	About        *string         `json:"about"`
	LocationName *string         `json:"location_name"`
	Type         *string         `json:"type"`
	Image        *string         `json:"image"`
	HourlyRate   json.RawMessage `json:"hourly_rate"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
}

func (in ProfileInput) columns() map[string]any {
	cols := map[string]any{}
	if in.Name != nil {
		cols["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		cols["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		cols["phone"] = *in.Phone
	}
	if in.About != nil {
		cols["about"] = *in.About
	}
	if in.LocationName != nil {
		cols["location_name"] = *in.LocationName
	}
	if in.Type != nil {
		cols["type"] = *in.Type
	}
	if in.Image != nil {
		cols["image"] = *in.Image
	}
	if len(in.HourlyRate) > 0 {
		if string(in.HourlyRate) == "null" {
			cols["hourly_rate"] = nil
		} else {
			cols["hourly_rate"] = datatypes.JSON(in.HourlyRate)
		}
	}
	if in.Latitude != nil {
		cols["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		cols["longitude"] = *in.Longitude
	}
	return cols
}

type PortfolioInput struct {
	ID          string  `json:"id"`
	ImageURL    string  `json:"imageUrl" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
}

// UpdateProfile applies the fields present in in and returns the full profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	gdb := s.DB.WithContext(ctx)

	if cols := in.columns(); len(cols) > 0 {
		if email, ok := cols["email"].(string); ok && email == "" {
			return nil, apperr.Validation("email must not be empty")
		}

		res := gdb.Model(&models.User{}).Where("id = ?", userID).Updates(cols)
		if res.Error != nil {
			if db.IsUniqueViolation(res.Error) {
				return nil, apperr.Validation("email is already registered")
			}
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.NotFound("user %s not found", userID)
		}
	}

	var user models.User
	if err := catalog.PreloadProfile(gdb).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, err
	}
	return &user, nil
}

// ReplacePortfolio swaps the whole portfolio of userID for items in one
// transaction. An empty list clears it.
func (s *ProfileService) ReplacePortfolio(ctx context.Context, userID string, items []PortfolioInput) ([]models.PortfolioItem, error) {
	portfolio := make([]models.PortfolioItem, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ImageURL) == "" || strings.TrimSpace(it.Title) == "" {
			return nil, apperr.Validation("portfolio item %d needs imageUrl and title", i)
		}
		portfolio = append(portfolio, models.PortfolioItem{
			ID:          strings.TrimSpace(it.ID),
			ProviderID:  userID,
			ImageURL:    strings.TrimSpace(it.ImageURL),
			Title:       strings.TrimSpace(it.Title),
			Description: it.Description,
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the owner row lock serialises concurrent replaces
		var owner models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&owner, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user %s not found", userID)
			}
			return err
		}

		if err := tx.Where("provider_id = ?", userID).Delete(&models.PortfolioItem{}).Error; err != nil {
			return err
		}
		if len(portfolio) == 0 {
			return nil
		}
		if err := tx.Create(&portfolio).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.Validation("duplicate portfolio item id")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}
