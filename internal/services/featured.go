package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"poetica/internal/apperr"
	"poetica/internal/db"
	"poetica/internal/logging"
	"poetica/internal/models"
	"poetica/internal/utils"
	"poetica/internal/validation"
)

// FeaturedPoem is the current pointer of the site settings singleton.
type FeaturedPoem struct {
	Poem       *models.Poem `json:"poem"`
	FeaturedAt *time.Time   `json:"featuredAt"`
}

// FeaturedService manages the featured poem pointer and the featured author flag.
type FeaturedService struct {
	poems    db.PoemStore
	settings db.SettingsStore
	users    db.UserStore
	clock    clock
	log      *zap.Logger
}

func NewFeaturedService(poems db.PoemStore, settings db.SettingsStore, users db.UserStore) *FeaturedService {
	return &FeaturedService{poems: poems, settings: settings, users: users, log: logging.WithComponent("featured")}
}

// Current reads the singleton on every call. A pointer to a poem that is
// missing or no longer published reads as nothing featured.
func (s *FeaturedService) Current(ctx context.Context) (*FeaturedPoem, error) {
	settings, err := s.settings.GetSiteSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get site settings: %w", err)
	}
	if settings.FeaturedPoemID == nil {
		return &FeaturedPoem{}, nil
	}

	poem, err := s.poems.GetPoem(ctx, *settings.FeaturedPoemID)
	if err != nil {
		return nil, fmt.Errorf("get featured poem: %w", err)
	}
	if poem == nil || !poem.IsPublished() {
		return &FeaturedPoem{}, nil
	}
	poem.ContentHTML = utils.RenderMarkdown(poem.Content)
	return &FeaturedPoem{Poem: poem, FeaturedAt: settings.FeaturedAt}, nil
}

// Set features a published poem.
func (s *FeaturedService) Set(ctx context.Context, in FeaturedPoemInput) (*FeaturedPoem, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	poem, err := s.poems.GetPoem(ctx, in.PoemID)
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", in.PoemID, err)
	}
	if poem == nil {
		return nil, poemNotFound()
	}
	if !poem.IsPublished() {
		return nil, apperr.BadRequest("Only published poems can be featured")
	}

	now := s.clock.now()
	if err := s.settings.SetFeaturedPoem(ctx, &poem.ID, &now); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, poemNotFound()
		}
		return nil, fmt.Errorf("set featured poem: %w", err)
	}
	s.log.Info("Featured poem set", zap.String("poem_id", poem.ID))
	return &FeaturedPoem{Poem: poem, FeaturedAt: &now}, nil
}

// Clear removes the featured poem. Clearing an empty pointer is fine.
func (s *FeaturedService) Clear(ctx context.Context) error {
	if err := s.settings.SetFeaturedPoem(ctx, nil, nil); err != nil {
		return fmt.Errorf("clear featured poem: %w", err)
	}
	s.log.Info("Featured poem cleared")
	return nil
}

// SetAuthorFeatured toggles the featured flag on a user.
func (s *FeaturedService) SetAuthorFeatured(ctx context.Context, userID string, in FeaturedAuthorInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}

	user.Featured = *in.Featured
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// FeaturedAuthors lists featured users who have at least one published poem.
func (s *FeaturedService) FeaturedAuthors(ctx context.Context, page db.Page) ([]db.AuthorSummary, Pagination, error) {
	page = page.Normalize()
	authors, total, err := s.users.ListAuthors(ctx, true, page)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list featured authors: %w", err)
	}
	return authors, NewPagination(page, total), nil
}
