package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetica/internal/apperr"
	"poetica/internal/auth"
	"poetica/internal/models"
	"poetica/internal/testutil"
)

type sent struct {
	kind   string
	to     string
	poemID string
	reason string
	token  string
}

type recordingNotifications struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingNotifications) add(s sent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s)
}

func (r *recordingNotifications) PoemApproved(_ context.Context, author *models.User, poem *models.Poem) {
	r.add(sent{kind: "approved", to: author.Email, poemID: poem.ID})
}

func (r *recordingNotifications) PoemRejected(_ context.Context, author *models.User, poem *models.Poem, reason string) {
	r.add(sent{kind: "rejected", to: author.Email, poemID: poem.ID, reason: reason})
}

func (r *recordingNotifications) PasswordReset(_ context.Context, user *models.User, token string) {
	r.add(sent{kind: "reset", to: user.Email, token: token})
}

func (r *recordingNotifications) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

func fixedClock(t time.Time) clock {
	return func() time.Time { return t }
}

func newUser(t *testing.T, store *testutil.MemStore, name, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, Password: hash, Role: role}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

// submitPoem creates a SUBMITTED poem through the service.
func submitPoem(t *testing.T, store *testutil.MemStore, author *models.User, title string, tags ...string) *models.Poem {
	t.Helper()
	p, err := NewPoemService(store).Create(context.Background(), author, PoemInput{
		Title:   title,
		Content: "line one\nline two",
		Tags:    tags,
	})
	require.NoError(t, err)
	return p
}

// publishPoem creates and approves a poem.
func publishPoem(t *testing.T, store *testutil.MemStore, author *models.User, title string, tags ...string) *models.Poem {
	t.Helper()
	p := submitPoem(t, store, author, title, tags...)
	approved, err := NewModerationService(store, &recordingNotifications{}).Approve(context.Background(), p.ID)
	require.NoError(t, err)
	return approved
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, status, appErr.Status, appErr.Message)
}
