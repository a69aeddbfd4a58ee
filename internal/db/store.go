package db

import (
	"context"
	"errors"
	"time"

	"poetica/internal/models"
)

var (
	// ErrNotFound is returned by mutations whose target row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

type PoemSort string

const (
	SortRecent PoemSort = "recent"
	SortRating PoemSort = "rating"
	SortOldest PoemSort = "oldest"
)

// PoemFilter narrows ListPoems. Zero fields do not filter.
type PoemFilter struct {
	Status   models.PoemStatus
	AuthorID string
	Tag      string
	Query    string
	Sort     PoemSort
	Page     Page
}

// Transition moves a poem from one status to another only if it is still in From.
// PublishAt is written only when the poem has never been published.
type Transition struct {
	From             models.PoemStatus
	To               models.PoemStatus
	PublishAt        *time.Time
	ClearPublishedAt bool
}

// RatingAggregate is the denormalized rating summary stored on a poem.
type RatingAggregate struct {
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}

// AuthorSummary is a user with at least one published poem.
type AuthorSummary struct {
	models.User
	PoemCount int64 `json:"poemCount"`
}

type TagCount struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PoemCount int64  `json:"poemCount"`
}

type Stats struct {
	Users    int64                       `json:"users"`
	Poems    map[models.PoemStatus]int64 `json:"poems"`
	Comments int64                       `json:"comments"`
	Ratings  int64                       `json:"ratings"`
	Likes    int64                       `json:"likes"`
}

// Get* methods return (nil, nil) when the row does not exist.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, page Page) ([]models.User, int64, error)
	ListAuthors(ctx context.Context, featuredOnly bool, page Page) ([]AuthorSummary, int64, error)
	CountPublishedPoems(ctx context.Context, authorID string) (int64, error)
}

type PoemStore interface {
	CreatePoem(ctx context.Context, poem *models.Poem, tags []string) error
	GetPoem(ctx context.Context, id string) (*models.Poem, error)
	UpdatePoem(ctx context.Context, poem *models.Poem, tags []string) error
	TransitionPoem(ctx context.Context, id string, t Transition) (bool, error)
	DeletePoem(ctx context.Context, id string) error
	ListPoems(ctx context.Context, filter PoemFilter) ([]models.Poem, int64, error)
	ListTags(ctx context.Context) ([]TagCount, error)
	Stats(ctx context.Context) (*Stats, error)
}

type RatingStore interface {
	UpsertRating(ctx context.Context, userID, poemID string, rating int) (RatingAggregate, error)
	DeleteRating(ctx context.Context, userID, poemID string) (RatingAggregate, bool, error)
	GetUserRating(ctx context.Context, userID, poemID string) (*models.StarRating, error)
}

type LikeStore interface {
	AddLike(ctx context.Context, userID, poemID string) error
	RemoveLike(ctx context.Context, userID, poemID string) error
	// LikeState reports the like count and whether userID (may be empty) liked the poem.
	LikeState(ctx context.Context, userID, poemID string) (bool, int64, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	SaveComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id string) error
	ListComments(ctx context.Context, poemID string, page Page) ([]models.Comment, int64, error)
}

type SettingsStore interface {
	GetSiteSettings(ctx context.Context) (*models.SiteSettings, error)
	SetFeaturedPoem(ctx context.Context, poemID *string, at *time.Time) error
}

type AnnouncementStore interface {
	// ListAnnouncements returns only announcements visible at visibleAt when it is non-nil.
	ListAnnouncements(ctx context.Context, visibleAt *time.Time, page Page) ([]models.Announcement, int64, error)
	GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error)
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	SaveAnnouncement(ctx context.Context, a *models.Announcement) error
	DeleteAnnouncement(ctx context.Context, id string) error
}

// Store is everything the services need from persistence.
type Store interface {
	UserStore
	PoemStore
	RatingStore
	LikeStore
	CommentStore
	SettingsStore
	AnnouncementStore
}
