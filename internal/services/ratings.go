package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"poetica/internal/apperr"
	"poetica/internal/db"
	"poetica/internal/models"
	"poetica/internal/telemetry"
	"poetica/internal/validation"
)

// RatingSummary is what rating endpoints return.
type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
	UserRating    *int    `json:"userRating"`
}

// RatingService manages 1..10 star ratings on published poems.
type RatingService struct {
	poems   db.PoemStore
	ratings db.RatingStore
}

func NewRatingService(poems db.PoemStore, ratings db.RatingStore) *RatingService {
	return &RatingService{poems: poems, ratings: ratings}
}

// Get returns the poem's aggregate and, for a signed-in viewer, their own rating.
func (s *RatingService) Get(ctx context.Context, viewer *models.User, poemID string) (*RatingSummary, error) {
	poem, err := publishedPoem(ctx, s.poems, poemID)
	if err != nil {
		return nil, err
	}

	summary := &RatingSummary{AverageRating: poem.AverageRating, RatingCount: poem.RatingCount}
	if viewer != nil {
		mine, err := s.ratings.GetUserRating(ctx, viewer.ID, poemID)
		if err != nil {
			return nil, fmt.Errorf("get user rating: %w", err)
		}
		if mine != nil {
			v := mine.Rating
			summary.UserRating = &v
		}
	}
	return summary, nil
}

// Rate creates or replaces the caller's rating and recomputes the aggregate.
func (s *RatingService) Rate(ctx context.Context, user *models.User, poemID string, in RatingInput) (*RatingSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "ratings.rate")
	defer span.End()
	span.SetAttributes(attribute.String("poem.id", poemID))

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := publishedPoem(ctx, s.poems, poemID); err != nil {
		return nil, err
	}

	agg, err := s.ratings.UpsertRating(ctx, user.ID, poemID, in.Rating)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, poemNotFound()
		}
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	value := in.Rating
	return &RatingSummary{AverageRating: agg.AverageRating, RatingCount: agg.RatingCount, UserRating: &value}, nil
}

// Remove deletes the caller's rating and recomputes the aggregate.
func (s *RatingService) Remove(ctx context.Context, user *models.User, poemID string) (*RatingSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "ratings.remove")
	defer span.End()
	span.SetAttributes(attribute.String("poem.id", poemID))

	if _, err := publishedPoem(ctx, s.poems, poemID); err != nil {
		return nil, err
	}

	agg, found, err := s.ratings.DeleteRating(ctx, user.ID, poemID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, poemNotFound()
		}
		return nil, fmt.Errorf("delete rating: %w", err)
	}
	if !found {
		return nil, apperr.NotFound("Rating not found")
	}
	return &RatingSummary{AverageRating: agg.AverageRating, RatingCount: agg.RatingCount}, nil
}
