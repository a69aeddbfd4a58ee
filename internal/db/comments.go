package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"poetica/internal/models"
)

// CommentRepository provides comment queries
type CommentRepository struct {
	*Repository
}

func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(r.db.WithContext(ctx).Omit("Author").Create(comment).Error)
}

func (r *CommentRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	if !validID(id) {
		return nil, nil
	}
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) SaveComment(ctx context.Context, comment *models.Comment) error {
	return translate(r.db.WithContext(ctx).Omit("Author").Save(comment).Error)
}

func (r *CommentRepository) DeleteComment(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListComments returns a poem's comments oldest first.
func (r *CommentRepository) ListComments(ctx context.Context, poemID string, page Page) ([]models.Comment, int64, error) {
	if !validID(poemID) {
		return []models.Comment{}, 0, nil
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("poem_id = ?", poemID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	q := r.db.WithContext(ctx).Preload("Author").Where("poem_id = ?", poemID).Order("created_at ASC")
	if err := paginate(q, page).Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
