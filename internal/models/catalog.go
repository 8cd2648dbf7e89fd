package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PortfolioItem struct {
	ID          string  `gorm:"type:varchar(64);primaryKey" json:"id"`
	ProviderID  string  `gorm:"type:varchar(64);index;not null" json:"-"`
	ImageURL    string  `gorm:"column:image_url;not null" json:"imageUrl"`
	Title       string  `gorm:"not null" json:"title"`
	Description *string `gorm:"type:text" json:"description"`
}

func (PortfolioItem) TableName() string { return "portfolio" }

func (p *PortfolioItem) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return
}

type Badge struct {
	ID   string `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Icon string `json:"icon"`
}

// Service is a category of work clients can request (electric, plumbing, ...).
type Service struct {
	ID          string  `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Icon        string  `json:"icon"`
	Description *string `gorm:"type:text" json:"description"`
}
