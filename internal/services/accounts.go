package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"poetica/internal/apperr"
	"poetica/internal/auth"
	"poetica/internal/db"
	"poetica/internal/logging"
	"poetica/internal/models"
	"poetica/internal/validation"
)

// TokenIssuer signs bearer tokens for API clients.
type TokenIssuer interface {
	GenerateAccessToken(userID string, role string) (string, time.Time, error)
}

// AccountService handles registration, credentials and profiles.
type AccountService struct {
	users    db.UserStore
	tokens   TokenIssuer
	notify   Notifications
	resetTTL time.Duration
	clock    clock
	log      *zap.Logger
}

func NewAccountService(users db.UserStore, tokens TokenIssuer, notify Notifications, resetTTL time.Duration) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		notify:   notify,
		resetTTL: resetTTL,
		log:      logging.WithComponent("accounts"),
	}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, apperr.BadRequest("User already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: in.Name, Email: in.Email, Password: hash, Role: models.RoleUser}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.BadRequest("User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password fail the same way.
func (s *AccountService) Authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.Password, in.Password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	return user, nil
}

// IssueToken authenticates and returns a signed bearer token.
func (s *AccountService) IssueToken(ctx context.Context, in LoginInput) (string, time.Time, *models.User, error) {
	user, err := s.Authenticate(ctx, in)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role))
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("issue token: %w", err)
	}
	return token, expiresAt, user, nil
}

// RequestPasswordReset emails a reset link when the address is known.
// The outcome is never revealed to the caller.
func (s *AccountService) RequestPasswordReset(ctx context.Context, in ForgotPasswordInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		return nil
	}

	raw, hash, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}
	expiry := s.clock.now().Add(s.resetTTL)
	user.ResetToken = &hash
	user.ResetTokenExpiry = &expiry
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.notify.PasswordReset(ctx, user, raw)
	return nil
}

// ResetPassword consumes a reset token.
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	user, err := s.users.GetUserByResetToken(ctx, auth.HashToken(in.Token))
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if user == nil || user.ResetTokenExpiry == nil || !s.clock.now().Before(*user.ResetTokenExpiry) {
		return apperr.BadRequest("Invalid or expired reset token")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}
	now := s.clock.now()
	user.Password = hash
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	user.PasswordChangedAt = &now
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	s.log.Info("Password reset", zap.String("user_id", user.ID))
	return nil
}

// ChangePassword requires the current password.
func (s *AccountService) ChangePassword(ctx context.Context, user *models.User, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	fresh, err := s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if fresh == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if !auth.CheckPassword(fresh.Password, in.CurrentPassword) {
		return apperr.BadRequest("Current password is incorrect")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	now := s.clock.now()
	fresh.Password = hash
	fresh.PasswordChangedAt = &now
	if err := s.users.SaveUser(ctx, fresh); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	s.log.Info("Password changed", zap.String("user_id", fresh.ID))
	return nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Website = strings.TrimSpace(in.Website)
	in.Avatar = strings.TrimSpace(in.Avatar)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	fresh, err := s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if fresh == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	fresh.Name = in.Name
	fresh.Bio = in.Bio
	fresh.Website = in.Website
	fresh.Avatar = in.Avatar
	if err := s.users.SaveUser(ctx, fresh); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return fresh, nil
}

// Profile is a user's public page.
type Profile struct {
	User               *models.User `json:"user"`
	PublishedPoemCount int64        `json:"publishedPoemCount"`
}

func (s *AccountService) Profile(ctx context.Context, id string) (*Profile, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	count, err := s.users.CountPublishedPoems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count poems: %w", err)
	}
	return &Profile{User: user, PublishedPoemCount: count}, nil
}

// Authors lists users with at least one published poem, most prolific first.
func (s *AccountService) Authors(ctx context.Context, page db.Page) ([]db.AuthorSummary, Pagination, error) {
	page = page.Normalize()
	authors, total, err := s.users.ListAuthors(ctx, false, page)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list authors: %w", err)
	}
	return authors, NewPagination(page, total), nil
}

func (s *AccountService) ListUsers(ctx context.Context, page db.Page) ([]models.User, Pagination, error) {
	page = page.Normalize()
	users, total, err := s.users.ListUsers(ctx, page)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list users: %w", err)
	}
	return users, NewPagination(page, total), nil
}

// DeleteUser removes a non-admin user with everything they own.
func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user %s: %w", id, err)
	}
	if user == nil {
		return apperr.NotFound("User not found")
	}
	if user.IsAdmin() {
		return apperr.BadRequest("Cannot delete admin users")
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return storeErr(err, "User")
	}
	s.log.Info("User deleted", zap.String("user_id", id))
	return nil
}
