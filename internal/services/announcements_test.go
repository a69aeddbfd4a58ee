package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetica/internal/db"
	"poetica/internal/testutil"
)

func TestAnnouncements_PublicListHonorsPublishedAt(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewAnnouncementService(store)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.clock = fixedClock(now)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	_, err := svc.Create(ctx, AnnouncementInput{Title: "Live", Content: "hello", PublishedAt: &past})
	require.NoError(t, err)
	_, err = svc.Create(ctx, AnnouncementInput{Title: "Urgent", Content: "read me", Priority: 10, PublishedAt: &past})
	require.NoError(t, err)
	_, err = svc.Create(ctx, AnnouncementInput{Title: "Later", Content: "soon", PublishedAt: &future})
	require.NoError(t, err)
	_, err = svc.Create(ctx, AnnouncementInput{Title: "Draft", Content: "wip"})
	require.NoError(t, err)

	public, page, err := svc.ListPublic(ctx, db.Page{})
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "Urgent", public[0].Title)
	assert.EqualValues(t, 2, page.Total)

	all, _, err := svc.ListAll(ctx, db.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestAnnouncements_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewAnnouncementService(store)

	a, err := svc.Create(ctx, AnnouncementInput{Title: "Hello", Content: "world"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, AnnouncementInput{Title: " ", Content: "world"})
	assertStatus(t, err, http.StatusBadRequest)

	updated, err := svc.Update(ctx, a.ID, AnnouncementInput{Title: "Hi", Content: "there", Priority: 3})
	require.NoError(t, err)
	assert.Equal(t, "Hi", updated.Title)
	assert.Equal(t, 3, updated.Priority)

	_, err = svc.Update(ctx, "00000000-0000-0000-0000-000000000000", AnnouncementInput{Title: "x", Content: "y"})
	assertStatus(t, err, http.StatusNotFound)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assertStatus(t, svc.Delete(ctx, a.ID), http.StatusNotFound)
}
