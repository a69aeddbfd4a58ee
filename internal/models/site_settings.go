package models

import "time"

// SiteSettingsID is the primary key of the only SiteSettings row.
const SiteSettingsID = "main"

type SiteSettings struct {
	ID             string     `gorm:"primaryKey;size:20" json:"id"`
	FeaturedPoemID *string    `gorm:"type:uuid" json:"featuredPoemId"`
	FeaturedPoem   *Poem      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	FeaturedAt     *time.Time `json:"featuredAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (SiteSettings) TableName() string {
	return "site_settings"
}
