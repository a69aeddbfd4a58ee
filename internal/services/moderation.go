package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"poetica/internal/apperr"
	"poetica/internal/db"
	"poetica/internal/logging"
	"poetica/internal/models"
	"poetica/internal/telemetry"
	"poetica/internal/utils"
	"poetica/internal/validation"
)

var moderationDecisions = telemetry.NewCounter("poetica.moderation.decisions", "Poems approved or rejected by admins")

// ModerationService runs the admin side of the poem lifecycle:
// SUBMITTED moves to PUBLISHED or REJECTED exactly once.
type ModerationService struct {
	poems  db.PoemStore
	notify Notifications
	clock  clock
	log    *zap.Logger
}

func NewModerationService(poems db.PoemStore, notify Notifications) *ModerationService {
	return &ModerationService{poems: poems, notify: notify, log: logging.WithComponent("moderation")}
}

// Approve publishes a submitted poem. publishedAt is only set the first time.
func (s *ModerationService) Approve(ctx context.Context, id string) (*models.Poem, error) {
	ctx, span := telemetry.StartSpan(ctx, "moderation.approve")
	defer span.End()
	span.SetAttributes(attribute.String("poem.id", id))

	now := s.clock.now()
	poem, err := s.transition(ctx, id, db.Transition{
		From:      models.StatusSubmitted,
		To:        models.StatusPublished,
		PublishAt: &now,
	}, "Only submitted poems can be approved")
	if err != nil {
		return nil, err
	}

	moderationDecisions.Add(ctx, 1, attribute.String("decision", "approved"))
	s.log.Info("Poem approved", zap.String("poem_id", id))
	if poem.Author != nil {
		s.notify.PoemApproved(ctx, poem.Author, poem)
	}
	return poem, nil
}

// Reject turns down a submitted poem and clears publishedAt.
func (s *ModerationService) Reject(ctx context.Context, id string, in RejectInput) (*models.Poem, error) {
	ctx, span := telemetry.StartSpan(ctx, "moderation.reject")
	defer span.End()
	span.SetAttributes(attribute.String("poem.id", id))

	in.Reason = strings.TrimSpace(in.Reason)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	poem, err := s.transition(ctx, id, db.Transition{
		From:             models.StatusSubmitted,
		To:               models.StatusRejected,
		ClearPublishedAt: true,
	}, "Only submitted poems can be rejected")
	if err != nil {
		return nil, err
	}

	moderationDecisions.Add(ctx, 1, attribute.String("decision", "rejected"))
	s.log.Info("Poem rejected", zap.String("poem_id", id))
	if poem.Author != nil {
		s.notify.PoemRejected(ctx, poem.Author, poem, in.Reason)
	}
	return poem, nil
}

func (s *ModerationService) transition(ctx context.Context, id string, t db.Transition, wrongState string) (*models.Poem, error) {
	poem, err := s.poems.GetPoem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", id, err)
	}
	if poem == nil {
		return nil, poemNotFound()
	}
	if poem.Status != t.From {
		return nil, apperr.BadRequest(wrongState)
	}

	ok, err := s.poems.TransitionPoem(ctx, id, t)
	if err != nil {
		return nil, fmt.Errorf("transition poem %s: %w", id, err)
	}
	if !ok {
		// another moderator got there first, or the poem was deleted
		current, err := s.poems.GetPoem(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get poem %s: %w", id, err)
		}
		if current == nil {
			return nil, poemNotFound()
		}
		return nil, apperr.BadRequest(wrongState)
	}

	updated, err := s.poems.GetPoem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", id, err)
	}
	if updated == nil {
		return nil, poemNotFound()
	}
	return updated, nil
}

// Delete hard-deletes a published poem, un-featuring it first.
func (s *ModerationService) Delete(ctx context.Context, id string) error {
	poem, err := s.poems.GetPoem(ctx, id)
	if err != nil {
		return fmt.Errorf("get poem %s: %w", id, err)
	}
	if poem == nil {
		return poemNotFound()
	}
	if !poem.IsPublished() {
		return apperr.BadRequest("Only published poems can be deleted by admins")
	}
	if err := s.poems.DeletePoem(ctx, id); err != nil {
		return storeErr(err, "Poem")
	}
	s.log.Info("Poem deleted by admin", zap.String("poem_id", id))
	return nil
}

// Get returns any poem regardless of status, for review.
func (s *ModerationService) Get(ctx context.Context, id string) (*models.Poem, error) {
	poem, err := s.poems.GetPoem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", id, err)
	}
	if poem == nil {
		return nil, poemNotFound()
	}
	poem.ContentHTML = utils.RenderMarkdown(poem.Content)
	return poem, nil
}

// Queue lists poems in one status, oldest first. The default is SUBMITTED.
func (s *ModerationService) Queue(ctx context.Context, status models.PoemStatus, page db.Page) ([]models.Poem, Pagination, error) {
	if status == "" {
		status = models.StatusSubmitted
	}
	if !status.Valid() {
		return nil, Pagination{}, apperr.Validation(apperr.FieldError{Field: "status", Message: "must be one of: DRAFT SUBMITTED PUBLISHED REJECTED"})
	}
	page = page.Normalize()
	poems, total, err := s.poems.ListPoems(ctx, db.PoemFilter{Status: status, Sort: db.SortOldest, Page: page})
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list moderation queue: %w", err)
	}
	withExcerpts(poems)
	return poems, NewPagination(page, total), nil
}

func (s *ModerationService) Stats(ctx context.Context) (*db.Stats, error) {
	stats, err := s.poems.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}
