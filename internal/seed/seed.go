// Package seed loads the marketplace fixtures (services, badges, users,
// portfolio, reviews) from JSON files. Every row is upserted by id, so the
// seeder can be rerun against a populated database.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/truber-app/truber-backend/internal/models"
	"github.com/truber-app/truber-backend/internal/utils"
)

// DefaultPassword is given to seeded users whose record has none.
const DefaultPassword = "1234"

type user struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Password     string          `json:"password"`
	Role         models.Role     `json:"role"`
	Image        *string         `json:"image"`
	CreatedAt    *time.Time      `json:"createdAt"`
	Type         *string         `json:"type"`
	Rating       float64         `json:"rating"`
	Jobs         int             `json:"jobs"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
	About        *string         `json:"about"`
	HourlyRate   json.RawMessage `json:"hourly_rate"`
	LocationName *string         `json:"location_name"`
	Phone        *string         `json:"phone"`
}

type portfolioItem struct {
	ID          string  `json:"id"`
	ProviderID  string  `json:"providerId"`
	ImageURL    string  `json:"imageUrl"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type review struct {
	ID         string  `json:"id"`
	ProviderID string  `json:"providerId"`
	UserID     string  `json:"userId"`
	UserName   string  `json:"userName"`
	Comment    string  `json:"comment"`
	Rating     float64 `json:"rating"`
	Date       string  `json:"date"`
}

type userBadge struct {
	UserID  string `json:"userId" gorm:"primaryKey"`
	BadgeID string `json:"badgeId" gorm:"primaryKey"`
}

func (userBadge) TableName() string { return "user_badges" }

// Result counts the rows written per table.
type Result struct {
	Services   int
	Badges     int
	Users      int
	UserBadges int
	Portfolio  int
	Reviews    int
}

// Run reads services.json, badges.json, users.json, user_badges.json,
// portfolio.json and reviews.json from fsys and upserts them in one transaction.
func Run(ctx context.Context, gdb *gorm.DB, fsys fs.FS) (Result, error) {
	var (
		res        Result
		services   []models.Service
		badges     []models.Badge
		users      []user
		userBadges []userBadge
		portfolio  []portfolioItem
		reviews    []review
	)
	for name, dst := range map[string]any{
		"services.json":    &services,
		"badges.json":      &badges,
		"users.json":       &users,
		"user_badges.json": &userBadges,
		"portfolio.json":   &portfolio,
		"reviews.json":     &reviews,
	} {
		if err := load(fsys, name, dst); err != nil {
			return res, err
		}
	}

	rows, err := toUsers(users)
	if err != nil {
		return res, err
	}

	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true}).Session(&gorm.Session{})

		if len(services) > 0 {
			if err := upsert.Create(&services).Error; err != nil {
				return fmt.Errorf("seed services: %w", err)
			}
		}
		if len(badges) > 0 {
			if err := upsert.Create(&badges).Error; err != nil {
				return fmt.Errorf("seed badges: %w", err)
			}
		}
		if len(rows) > 0 {
			if err := upsert.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return fmt.Errorf("seed users: %w", err)
			}
		}
		if len(userBadges) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&userBadges).Error; err != nil {
				return fmt.Errorf("seed user badges: %w", err)
			}
		}
		if len(portfolio) > 0 {
			items := make([]models.PortfolioItem, 0, len(portfolio))
			for _, p := range portfolio {
				items = append(items, models.PortfolioItem(p))
			}
			if err := upsert.Create(&items).Error; err != nil {
				return fmt.Errorf("seed portfolio: %w", err)
			}
		}
		if len(reviews) > 0 {
			items := make([]models.Review, 0, len(reviews))
			for _, r := range reviews {
				items = append(items, models.Review{
					ID: r.ID, ProviderID: r.ProviderID, UserID: r.UserID, UserName: r.UserName,
					Comment: r.Comment, Rating: r.Rating, Date: r.Date,
				})
			}
			if err := upsert.Create(&items).Error; err != nil {
				return fmt.Errorf("seed reviews: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res = Result{
		Services:   len(services),
		Badges:     len(badges),
		Users:      len(rows),
		UserBadges: len(userBadges),
		Portfolio:  len(portfolio),
		Reviews:    len(reviews),
	}
	log.Printf("Seeded %d services, %d badges, %d users, %d user badges, %d portfolio items, %d reviews",
		res.Services, res.Badges, res.Users, res.UserBadges, res.Portfolio, res.Reviews)
	return res, nil
}

func toUsers(in []user) ([]models.User, error) {
	out := make([]models.User, 0, len(in))
	for _, u := range in {
		password := u.Password
		if password == "" {
			password = DefaultPassword
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			return nil, err
		}

		row := models.User{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Password:     hash,
			Role:         u.Role,
			Image:        u.Image,
			Type:         u.Type,
			Rating:       u.Rating,
			Jobs:         u.Jobs,
			Latitude:     u.Latitude,
			Longitude:    u.Longitude,
			About:        u.About,
			LocationName: u.LocationName,
			Phone:        u.Phone,
		}
		if u.CreatedAt != nil {
			row.CreatedAt = u.CreatedAt.UTC()
		}
		if len(u.HourlyRate) > 0 && string(u.HourlyRate) != "null" {
			rate := datatypes.JSON(u.HourlyRate)
			row.HourlyRate = &rate
		}
		if !row.Role.Valid() {
			return nil, fmt.Errorf("seed users: %s has invalid role %q", u.ID, u.Role)
		}
		out = append(out, row)
	}
	return out, nil
}

// load decodes name into dst. A missing file seeds nothing.
func load(fsys fs.FS, name string, dst any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("seed: read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("seed: decode %s: %w", name, err)
	}
	return nil
}
