package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is written by a client about a provider and never edited afterwards.
type Review struct {
	ID         string  `gorm:"type:varchar(64);primaryKey" json:"id"`
	ProviderID string  `gorm:"type:varchar(64);index;not null" json:"-"`
	UserID     string  `gorm:"type:varchar(64)" json:"userId"`
	UserName   string  `json:"userName"`
	Comment    string  `gorm:"type:text" json:"comment"`
	Rating     float64 `gorm:"not null" json:"rating"`
	Date       string  `json:"date"`

	CreatedAt time.Time `json:"-"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return
}
