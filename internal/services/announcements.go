package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"poetica/internal/apperr"
	"poetica/internal/db"
	"poetica/internal/models"
	"poetica/internal/validation"
)

// AnnouncementService publishes site news. An announcement is public once
// its publishedAt is set and reached.
type AnnouncementService struct {
	store db.AnnouncementStore
	clock clock
}

func NewAnnouncementService(store db.AnnouncementStore) *AnnouncementService {
	return &AnnouncementService{store: store}
}

func (s *AnnouncementService) ListPublic(ctx context.Context, page db.Page) ([]models.Announcement, Pagination, error) {
	now := s.clock.now()
	return s.list(ctx, &now, page)
}

func (s *AnnouncementService) ListAll(ctx context.Context, page db.Page) ([]models.Announcement, Pagination, error) {
	return s.list(ctx, nil, page)
}

func (s *AnnouncementService) list(ctx context.Context, visibleAt *time.Time, page db.Page) ([]models.Announcement, Pagination, error) {
	page = page.Normalize()
	items, total, err := s.store.ListAnnouncements(ctx, visibleAt, page)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list announcements: %w", err)
	}
	return items, NewPagination(page, total), nil
}

func cleanAnnouncement(in AnnouncementInput) (AnnouncementInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	return in, validation.Struct(in)
}

func (s *AnnouncementService) Create(ctx context.Context, in AnnouncementInput) (*models.Announcement, error) {
	in, err := cleanAnnouncement(in)
	if err != nil {
		return nil, err
	}
	a := &models.Announcement{Title: in.Title, Content: in.Content, Priority: in.Priority, PublishedAt: in.PublishedAt}
	if err := s.store.CreateAnnouncement(ctx, a); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return a, nil
}

func (s *AnnouncementService) Update(ctx context.Context, id string, in AnnouncementInput) (*models.Announcement, error) {
	in, err := cleanAnnouncement(in)
	if err != nil {
		return nil, err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get announcement %s: %w", id, err)
	}
	if a == nil {
		return nil, apperr.NotFound("Announcement not found")
	}

	a.Title = in.Title
	a.Content = in.Content
	a.Priority = in.Priority
	a.PublishedAt = in.PublishedAt
	if err := s.store.SaveAnnouncement(ctx, a); err != nil {
		return nil, fmt.Errorf("save announcement: %w", err)
	}
	return a, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	return storeErr(s.store.DeleteAnnouncement(ctx, id), "Announcement")
}
