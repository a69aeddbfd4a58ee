package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"poetica/internal/apperr"
	"poetica/internal/db"
	"poetica/internal/models"
)

// Notifications are the side-effects services fire after a successful
// change. Implementations must not block and must not report failure.
type Notifications interface {
	PoemApproved(ctx context.Context, author *models.User, poem *models.Poem)
	PoemRejected(ctx context.Context, author *models.User, poem *models.Poem, reason string)
	PasswordReset(ctx context.Context, user *models.User, token string)
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(page db.Page, total int64) Pagination {
	page = page.Normalize()
	pages := int((total + int64(page.Limit) - 1) / int64(page.Limit))
	return Pagination{Page: page.Page, Limit: page.Limit, Total: total, TotalPages: pages}
}

func poemNotFound() *apperr.Error {
	return apperr.NotFound("Poem not found")
}

// canView is the visibility rule: published poems are public, anything
// else is visible to its author only.
func canView(poem *models.Poem, viewer *models.User) bool {
	if poem.Status == models.StatusPublished {
		return true
	}
	return viewer != nil && viewer.ID == poem.AuthorID
}

// publishedPoem loads a poem that the public may interact with. Missing and
// unpublished poems produce the same 404.
func publishedPoem(ctx context.Context, poems db.PoemStore, id string) (*models.Poem, error) {
	poem, err := poems.GetPoem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", id, err)
	}
	if poem == nil || !poem.IsPublished() {
		return nil, poemNotFound()
	}
	return poem, nil
}

// normalizeTags trims, lowercases and de-duplicates tag names, keeping order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(t))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// storeErr maps a store sentinel to the API error for the named entity.
func storeErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return apperr.NotFound(entity + " not found")
	}
	return err
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
