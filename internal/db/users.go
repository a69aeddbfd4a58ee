package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"poetica/internal/models"
)

// UserRepository provides user and author queries
type UserRepository struct {
	*Repository
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) getUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getUser(ctx, "id = ?", id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

func (r *UserRepository) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return r.getUser(ctx, "reset_token = ?", tokenHash)
}

func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// DeleteUser removes the user and everything they own. Poems they rated
// but did not write get their rating aggregates recomputed.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ratedPoemIDs []string
		if err := tx.Model(&models.StarRating{}).
			Where("user_id = ?", id).
			Pluck("poem_id", &ratedPoemIDs).Error; err != nil {
			return fmt.Errorf("collect rated poems: %w", err)
		}

		if err := tx.Model(&models.SiteSettings{}).
			Where("id = ? AND featured_poem_id IN (?)", models.SiteSettingsID,
				tx.Model(&models.Poem{}).Select("id").Where("author_id = ?", id)).
			Updates(map[string]interface{}{"featured_poem_id": nil, "featured_at": nil}).Error; err != nil {
			return fmt.Errorf("clear featured poem: %w", err)
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		for _, poemID := range ratedPoemIDs {
			if _, err := recomputeRating(tx, poemID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepository) ListUsers(ctx context.Context, page Page) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := paginate(r.db.WithContext(ctx).Order("created_at DESC"), page).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) authorsQuery(ctx context.Context, featuredOnly bool) *gorm.DB {
	q := r.db.WithContext(ctx).Table("users").
		Joins("JOIN poems ON poems.author_id = users.id AND poems.status = ?", models.StatusPublished).
		Group("users.id")
	if featuredOnly {
		q = q.Where("users.featured = ?", true)
	}
	return q
}

func (r *UserRepository) ListAuthors(ctx context.Context, featuredOnly bool, page Page) ([]AuthorSummary, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Table("(?) AS authors", r.authorsQuery(ctx, featuredOnly).Select("users.id")).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []AuthorSummary
	q := r.authorsQuery(ctx, featuredOnly).
		Select("users.*, COUNT(poems.id) AS poem_count").
		Order("poem_count DESC, users.name ASC")
	if err := paginate(q, page).Scan(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

func (r *UserRepository) CountPublishedPoems(ctx context.Context, authorID string) (int64, error) {
	if !validID(authorID) {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Poem{}).
		Where("author_id = ? AND status = ?", authorID, models.StatusPublished).
		Count(&count).Error
	return count, err
}
