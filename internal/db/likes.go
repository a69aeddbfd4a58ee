package db

import (
	"context"

	"gorm.io/gorm/clause"

	"poetica/internal/models"
)

// LikeRepository stores one like per user and poem
type LikeRepository struct {
	*Repository
}

// AddLike is idempotent: liking twice leaves one row.
func (r *LikeRepository) AddLike(ctx context.Context, userID, poemID string) error {
	if !validID(userID) || !validID(poemID) {
		return ErrNotFound
	}
	like := models.Like{UserID: userID, PoemID: poemID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "poem_id"}}, DoNothing: true}).
		Create(&like).Error
	return translate(err)
}

// RemoveLike is idempotent: removing a missing like is not an error.
func (r *LikeRepository) RemoveLike(ctx context.Context, userID, poemID string) error {
	if !validID(userID) || !validID(poemID) {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND poem_id = ?", userID, poemID).
		Delete(&models.Like{}).Error
}

func (r *LikeRepository) LikeState(ctx context.Context, userID, poemID string) (bool, int64, error) {
	if !validID(poemID) {
		return false, 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("poem_id = ?", poemID).Count(&count).Error; err != nil {
		return false, 0, err
	}
	if !validID(userID) || count == 0 {
		return false, count, nil
	}

	var mine int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("poem_id = ? AND user_id = ?", poemID, userID).
		Count(&mine).Error; err != nil {
		return false, 0, err
	}
	return mine > 0, count, nil
}
