package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poetica/internal/models"
)

// RatingRepository keeps star ratings and the poem aggregates in step
type RatingRepository struct {
	*Repository
}

// lockPoem takes a row lock on the poem so concurrent raters serialize on its aggregate.
func lockPoem(tx *gorm.DB, poemID string) error {
	if !validID(poemID) {
		return ErrNotFound
	}
	var poem models.Poem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", poemID).
		First(&poem).Error
	return translate(err)
}

// recomputeRating rescans every rating of the poem and stores the result on it.
func recomputeRating(tx *gorm.DB, poemID string) (RatingAggregate, error) {
	var agg RatingAggregate
	if err := tx.Model(&models.StarRating{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(*) AS rating_count").
		Where("poem_id = ?", poemID).
		Scan(&agg).Error; err != nil {
		return agg, fmt.Errorf("aggregate ratings: %w", err)
	}

	if err := tx.Model(&models.Poem{}).Where("id = ?", poemID).
		UpdateColumns(map[string]interface{}{
			"average_rating": agg.AverageRating,
			"rating_count":   agg.RatingCount,
		}).Error; err != nil {
		return agg, fmt.Errorf("store aggregate: %w", err)
	}
	return agg, nil
}

func (r *RatingRepository) UpsertRating(ctx context.Context, userID, poemID string, value int) (RatingAggregate, error) {
	var agg RatingAggregate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPoem(tx, poemID); err != nil {
			return err
		}

		rating := models.StarRating{UserID: userID, PoemID: poemID, Rating: value}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "poem_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"rating":     value,
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&rating).Error; err != nil {
			return translate(err)
		}

		var err error
		agg, err = recomputeRating(tx, poemID)
		return err
	})
	return agg, err
}

// DeleteRating removes the user's rating. found is false when there was none.
func (r *RatingRepository) DeleteRating(ctx context.Context, userID, poemID string) (RatingAggregate, bool, error) {
	var (
		agg   RatingAggregate
		found bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPoem(tx, poemID); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND poem_id = ?", userID, poemID).Delete(&models.StarRating{})
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0

		var err error
		agg, err = recomputeRating(tx, poemID)
		return err
	})
	return agg, found, err
}

func (r *RatingRepository) GetUserRating(ctx context.Context, userID, poemID string) (*models.StarRating, error) {
	if !validID(userID) || !validID(poemID) {
		return nil, nil
	}
	var rating models.StarRating
	err := r.db.WithContext(ctx).Where("user_id = ? AND poem_id = ?", userID, poemID).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}
