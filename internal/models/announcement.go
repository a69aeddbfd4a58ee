package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Announcement is visible to the public once PublishedAt is set and not in the future.
type Announcement struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Priority    int        `gorm:"not null;default:0;index" json:"priority"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (a *Announcement) VisibleAt(now time.Time) bool {
	return a.PublishedAt != nil && !a.PublishedAt.After(now)
}
