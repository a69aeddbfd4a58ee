package services

import "time"

// Request payloads. The binding tags are checked by gin when a handler
// binds the body and again by the service before it acts.

type PoemInput struct {
	Title   string   `json:"title" binding:"required,min=1,max=200"`
	Content string   `json:"content" binding:"required,min=1,max=10000"`
	Tags    []string `json:"tags" binding:"max=10,dive,min=1,max=30"`
}

type RejectInput struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type RatingInput struct {
	Rating int `json:"rating" binding:"required,min=1,max=10"`
}

type CommentInput struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

type FeaturedPoemInput struct {
	PoemID string `json:"poemId" binding:"required,uuid"`
}

type FeaturedAuthorInput struct {
	Featured *bool `json:"featured" binding:"required"`
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=100,nefield=CurrentPassword"`
}

type ProfileInput struct {
	Name    string `json:"name" binding:"required,min=2,max=50"`
	Bio     string `json:"bio" binding:"max=500"`
	Website string `json:"website" binding:"omitempty,url,max=200"`
	Avatar  string `json:"avatar" binding:"omitempty,url,max=500"`
}

type AnnouncementInput struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Content     string     `json:"content" binding:"required,min=1,max=5000"`
	Priority    int        `json:"priority" binding:"min=0,max=100"`
	PublishedAt *time.Time `json:"publishedAt"`
}
