package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleProvider || r == RoleAdmin
}

// internal/models/user.go
type User struct {
	ID       string  `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	Email    string  `gorm:"uniqueIndex;not null" json:"email"`
	Password string  `gorm:"not null" json:"-"`
	Role     Role    `gorm:"type:varchar(20);not null;index" json:"role"`
	Image    *string `json:"image"`

	// provider-only attributes
	Type         *string         `gorm:"type:varchar(50)" json:"type"`
	Rating       float64         `gorm:"not null;default:0" json:"rating"`
	Jobs         int             `gorm:"not null;default:0" json:"jobs"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
	About        *string         `gorm:"type:text" json:"about"`
	HourlyRate   *datatypes.JSON `json:"hourly_rate"` // {"min": 10, "max": 20}
	LocationName *string         `json:"location_name"`
	Phone        *string         `gorm:"type:varchar(30)" json:"phone"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	Portfolio []PortfolioItem `gorm:"foreignKey:ProviderID" json:"portfolio"`
	Reviews   []Review        `gorm:"foreignKey:ProviderID" json:"reviews"`
	Badges    []Badge         `gorm:"many2many:user_badges;" json:"badges"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return
}

// HourlyRate is the decoded form of User.HourlyRate.
type HourlyRate struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
