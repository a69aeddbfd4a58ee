package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetica/internal/db"
	"poetica/internal/models"
	"poetica/internal/testutil"
)

func TestModeration_ApproveSetsPublishedAtAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	notes := &recordingNotifications{}
	svc := NewModerationService(store, notes)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = fixedClock(at)

	p := submitPoem(t, store, author, "Ocean")
	approved, err := svc.Approve(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPublished, approved.Status)
	require.NotNil(t, approved.PublishedAt)
	assert.True(t, approved.PublishedAt.Equal(at))
	assert.Equal(t, []sent{{kind: "approved", to: "ada@example.com", poemID: p.ID}}, notes.all())
}

func TestModeration_OnlySubmittedCanBeDecided(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	notes := &recordingNotifications{}
	svc := NewModerationService(store, notes)

	p := submitPoem(t, store, author, "Ocean")
	_, err := svc.Approve(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, p.ID)
	assertStatus(t, err, http.StatusBadRequest)
	_, err = svc.Reject(ctx, p.ID, RejectInput{})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = svc.Approve(ctx, "00000000-0000-0000-0000-000000000000")
	assertStatus(t, err, http.StatusNotFound)

	assert.Len(t, notes.all(), 1)
}

func TestModeration_RejectClearsPublishedAt(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	notes := &recordingNotifications{}
	svc := NewModerationService(store, notes)

	p := submitPoem(t, store, author, "Draft-ish")
	rejected, err := svc.Reject(ctx, p.ID, RejectInput{Reason: "  too short  "})
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Nil(t, rejected.PublishedAt)
	assert.Equal(t, []sent{{kind: "rejected", to: "ada@example.com", poemID: p.ID, reason: "too short"}}, notes.all())
}

func TestModeration_DeleteOnlyPublished(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	svc := NewModerationService(store, &recordingNotifications{})

	pending := submitPoem(t, store, author, "Pending")
	assertStatus(t, svc.Delete(ctx, pending.ID), http.StatusBadRequest)

	published := publishPoem(t, store, author, "Public")
	require.NoError(t, svc.Delete(ctx, published.ID))
	assertStatus(t, svc.Delete(ctx, published.ID), http.StatusNotFound)
}

func TestModeration_QueueOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	svc := NewModerationService(store, &recordingNotifications{})

	first := submitPoem(t, store, author, "First")
	second := submitPoem(t, store, author, "Second")
	publishPoem(t, store, author, "Done")

	queue, page, err := svc.Queue(ctx, "", db.Page{})
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)
	assert.Equal(t, second.ID, queue[1].ID)
	assert.EqualValues(t, 2, page.Total)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Poems[models.StatusSubmitted])
	assert.EqualValues(t, 1, stats.Poems[models.StatusPublished])
}
