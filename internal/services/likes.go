package services

import (
	"context"
	"errors"
	"fmt"

	"poetica/internal/db"
	"poetica/internal/models"
)

type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// LikeService toggles likes on published poems. Both directions are idempotent.
type LikeService struct {
	poems db.PoemStore
	likes db.LikeStore
}

func NewLikeService(poems db.PoemStore, likes db.LikeStore) *LikeService {
	return &LikeService{poems: poems, likes: likes}
}

func (s *LikeService) State(ctx context.Context, viewer *models.User, poemID string) (*LikeState, error) {
	if _, err := publishedPoem(ctx, s.poems, poemID); err != nil {
		return nil, err
	}
	return s.state(ctx, viewer, poemID)
}

func (s *LikeService) state(ctx context.Context, viewer *models.User, poemID string) (*LikeState, error) {
	userID := ""
	if viewer != nil {
		userID = viewer.ID
	}
	liked, count, err := s.likes.LikeState(ctx, userID, poemID)
	if err != nil {
		return nil, fmt.Errorf("like state: %w", err)
	}
	return &LikeState{Liked: liked, LikeCount: count}, nil
}

func (s *LikeService) Like(ctx context.Context, user *models.User, poemID string) (*LikeState, error) {
	if _, err := publishedPoem(ctx, s.poems, poemID); err != nil {
		return nil, err
	}
	if err := s.likes.AddLike(ctx, user.ID, poemID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, poemNotFound()
		}
		return nil, fmt.Errorf("add like: %w", err)
	}
	return s.state(ctx, user, poemID)
}

func (s *LikeService) Unlike(ctx context.Context, user *models.User, poemID string) (*LikeState, error) {
	if _, err := publishedPoem(ctx, s.poems, poemID); err != nil {
		return nil, err
	}
	if err := s.likes.RemoveLike(ctx, user.ID, poemID); err != nil {
		return nil, fmt.Errorf("remove like: %w", err)
	}
	return s.state(ctx, user, poemID)
}
