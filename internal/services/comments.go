package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"poetica/internal/apperr"
	"poetica/internal/db"
	"poetica/internal/models"
	"poetica/internal/validation"
)

// CommentService manages comments on published poems. Only a comment's
// author may change or remove it.
type CommentService struct {
	poems    db.PoemStore
	comments db.CommentStore
}

func NewCommentService(poems db.PoemStore, comments db.CommentStore) *CommentService {
	return &CommentService{poems: poems, comments: comments}
}

func cleanComment(in CommentInput) (CommentInput, error) {
	in.Content = strings.TrimSpace(in.Content)
	return in, validation.Struct(in)
}

func (s *CommentService) List(ctx context.Context, poemID string, page db.Page) ([]models.Comment, Pagination, error) {
	if _, err := publishedPoem(ctx, s.poems, poemID); err != nil {
		return nil, Pagination{}, err
	}
	page = page.Normalize()
	comments, total, err := s.comments.ListComments(ctx, poemID, page)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list comments: %w", err)
	}
	return comments, NewPagination(page, total), nil
}

func (s *CommentService) Create(ctx context.Context, author *models.User, poemID string, in CommentInput) (*models.Comment, error) {
	in, err := cleanComment(in)
	if err != nil {
		return nil, err
	}
	if _, err := publishedPoem(ctx, s.poems, poemID); err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: in.Content, PoemID: poemID, AuthorID: author.ID}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, poemNotFound()
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = author
	return comment, nil
}

func (s *CommentService) owned(ctx context.Context, user *models.User, id, forbidden string) (*models.Comment, error) {
	comment, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	if comment == nil {
		return nil, apperr.NotFound("Comment not found")
	}
	if comment.AuthorID != user.ID {
		return nil, apperr.Forbidden(forbidden)
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, user *models.User, id string, in CommentInput) (*models.Comment, error) {
	in, err := cleanComment(in)
	if err != nil {
		return nil, err
	}
	comment, err := s.owned(ctx, user, id, "You can only edit your own comments")
	if err != nil {
		return nil, err
	}

	comment.Content = in.Content
	if err := s.comments.SaveComment(ctx, comment); err != nil {
		return nil, storeErr(err, "Comment")
	}
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, user *models.User, id string) error {
	if _, err := s.owned(ctx, user, id, "You can only delete your own comments"); err != nil {
		return err
	}
	return storeErr(s.comments.DeleteComment(ctx, id), "Comment")
}
