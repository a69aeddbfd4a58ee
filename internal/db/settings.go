package db

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"poetica/internal/models"
)

// SettingsRepository reads and writes the site settings singleton
type SettingsRepository struct {
	*Repository
}

// GetSiteSettings always reads the row; the singleton is never cached.
func (r *SettingsRepository) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	settings := models.SiteSettings{ID: models.SiteSettingsID}
	if err := r.db.WithContext(ctx).
		Where(models.SiteSettings{ID: models.SiteSettingsID}).
		FirstOrCreate(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// SetFeaturedPoem points the singleton at poemID, or clears it when poemID is nil.
func (r *SettingsRepository) SetFeaturedPoem(ctx context.Context, poemID *string, at *time.Time) error {
	settings := models.SiteSettings{
		ID:             models.SiteSettingsID,
		FeaturedPoemID: poemID,
		FeaturedAt:     at,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"featured_poem_id", "featured_at", "updated_at"}),
		}).
		Omit("FeaturedPoem").
		Create(&settings).Error
	return translate(err)
}
