package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PoemStatus is the moderation state of a poem.
// DRAFT is accepted by validation but nothing ever moves a poem into it.
type PoemStatus string

const (
	StatusDraft     PoemStatus = "DRAFT"
	StatusSubmitted PoemStatus = "SUBMITTED"
	StatusPublished PoemStatus = "PUBLISHED"
	StatusRejected  PoemStatus = "REJECTED"
)

func (s PoemStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusPublished, StatusRejected:
		return true
	}
	return false
}

type Poem struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Status        PoemStatus `gorm:"size:20;not null;default:SUBMITTED;index" json:"status"`
	AuthorID      string     `gorm:"type:uuid;not null;index" json:"authorId"`
	Author        *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	PublishedAt   *time.Time `gorm:"index" json:"publishedAt"`
	AverageRating float64    `gorm:"not null;default:0" json:"averageRating"`
	RatingCount   int        `gorm:"not null;default:0" json:"ratingCount"`
	Tags          []Tag      `gorm:"many2many:poem_tags;constraint:OnDelete:CASCADE;" json:"tags"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	Comments []Comment    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Ratings  []StarRating `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Likes    []Like       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// filled at read time
	LikeCount    int64  `gorm:"-" json:"likeCount"`
	CommentCount int64  `gorm:"-" json:"commentCount"`
	ContentHTML  string `gorm:"-" json:"contentHtml,omitempty"`
	Excerpt      string `gorm:"-" json:"excerpt,omitempty"`
}

func (p *Poem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Poem) IsPublished() bool {
	return p.Status == StatusPublished
}
