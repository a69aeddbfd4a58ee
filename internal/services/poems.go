package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"poetica/internal/apperr"
	"poetica/internal/db"
	"poetica/internal/logging"
	"poetica/internal/models"
	"poetica/internal/utils"
	"poetica/internal/validation"
)

// PoemService handles authoring and reading poems.
type PoemService struct {
	poems db.PoemStore
	log   *zap.Logger
}

func NewPoemService(poems db.PoemStore) *PoemService {
	return &PoemService{poems: poems, log: logging.WithComponent("poems")}
}

func cleanPoemInput(in PoemInput) (PoemInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return in, err
	}
	in.Tags = normalizeTags(in.Tags)
	return in, nil
}

// Create stores a new poem. Every poem enters moderation as SUBMITTED.
func (s *PoemService) Create(ctx context.Context, author *models.User, in PoemInput) (*models.Poem, error) {
	in, err := cleanPoemInput(in)
	if err != nil {
		return nil, err
	}

	poem := &models.Poem{
		Title:    in.Title,
		Content:  in.Content,
		Status:   models.StatusSubmitted,
		AuthorID: author.ID,
	}
	if err := s.poems.CreatePoem(ctx, poem, in.Tags); err != nil {
		return nil, fmt.Errorf("create poem: %w", err)
	}

	s.log.Info("Poem submitted", zap.String("poem_id", poem.ID), zap.String("author_id", author.ID))
	return s.poems.GetPoem(ctx, poem.ID)
}

// Get applies the visibility rule. Callers who may not see the poem get
// the same 404 as for an id that does not exist.
func (s *PoemService) Get(ctx context.Context, viewer *models.User, id string) (*models.Poem, error) {
	poem, err := s.poems.GetPoem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", id, err)
	}
	if poem == nil || !canView(poem, viewer) {
		return nil, poemNotFound()
	}
	poem.ContentHTML = utils.RenderMarkdown(poem.Content)
	return poem, nil
}

// ownPoem loads a poem for a mutation by its author.
func (s *PoemService) ownPoem(ctx context.Context, user *models.User, id, forbidden string) (*models.Poem, error) {
	poem, err := s.poems.GetPoem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", id, err)
	}
	if poem == nil {
		return nil, poemNotFound()
	}
	if poem.AuthorID != user.ID {
		return nil, apperr.Forbidden(forbidden)
	}
	return poem, nil
}

// Update changes title, content and tags. The status is left alone.
func (s *PoemService) Update(ctx context.Context, user *models.User, id string, in PoemInput) (*models.Poem, error) {
	in, err := cleanPoemInput(in)
	if err != nil {
		return nil, err
	}
	poem, err := s.ownPoem(ctx, user, id, "You can only edit your own poems")
	if err != nil {
		return nil, err
	}

	poem.Title = in.Title
	poem.Content = in.Content
	if err := s.poems.UpdatePoem(ctx, poem, in.Tags); err != nil {
		return nil, storeErr(err, "Poem")
	}
	return s.poems.GetPoem(ctx, id)
}

// Delete removes the caller's own poem in any status.
func (s *PoemService) Delete(ctx context.Context, user *models.User, id string) error {
	if _, err := s.ownPoem(ctx, user, id, "You can only delete your own poems"); err != nil {
		return err
	}
	if err := s.poems.DeletePoem(ctx, id); err != nil {
		return storeErr(err, "Poem")
	}
	s.log.Info("Poem deleted by author", zap.String("poem_id", id), zap.String("author_id", user.ID))
	return nil
}

// ListPublished lists public poems. The status filter is forced to PUBLISHED.
func (s *PoemService) ListPublished(ctx context.Context, f db.PoemFilter) ([]models.Poem, Pagination, error) {
	f.Status = models.StatusPublished
	return s.list(ctx, f)
}

// ListMine lists the caller's poems in every status unless one is given.
func (s *PoemService) ListMine(ctx context.Context, user *models.User, status models.PoemStatus, page db.Page) ([]models.Poem, Pagination, error) {
	return s.list(ctx, db.PoemFilter{AuthorID: user.ID, Status: status, Sort: db.SortRecent, Page: page})
}

func (s *PoemService) list(ctx context.Context, f db.PoemFilter) ([]models.Poem, Pagination, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, Pagination{}, apperr.Validation(apperr.FieldError{Field: "status", Message: "must be one of: DRAFT SUBMITTED PUBLISHED REJECTED"})
	}
	f.Page = f.Page.Normalize()
	poems, total, err := s.poems.ListPoems(ctx, f)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list poems: %w", err)
	}
	withExcerpts(poems)
	return poems, NewPagination(f.Page, total), nil
}

func (s *PoemService) ListTags(ctx context.Context) ([]db.TagCount, error) {
	tags, err := s.poems.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

const excerptLines = 4

// withExcerpts fills the list-view preview of each poem.
func withExcerpts(poems []models.Poem) {
	for i := range poems {
		poems[i].Excerpt = utils.Excerpt(utils.RenderMarkdown(poems[i].Content), excerptLines)
	}
}
