package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"poetica/internal/models"
)

// AnnouncementRepository provides announcement queries
type AnnouncementRepository struct {
	*Repository
}

func (r *AnnouncementRepository) announcements(ctx context.Context, visibleAt *time.Time) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Announcement{})
	if visibleAt != nil {
		q = q.Where("published_at IS NOT NULL AND published_at <= ?", *visibleAt)
	}
	return q
}

func (r *AnnouncementRepository) ListAnnouncements(ctx context.Context, visibleAt *time.Time, page Page) ([]models.Announcement, int64, error) {
	var total int64
	if err := r.announcements(ctx, visibleAt).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Announcement
	q := r.announcements(ctx, visibleAt).Order("priority DESC, published_at DESC NULLS LAST, created_at DESC")
	if err := paginate(q, page).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *AnnouncementRepository) GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	if !validID(id) {
		return nil, nil
	}
	var a models.Announcement
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AnnouncementRepository) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AnnouncementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Delete(&models.Announcement{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
