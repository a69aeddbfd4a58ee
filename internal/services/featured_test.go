package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetica/internal/db"
	"poetica/internal/models"
	"poetica/internal/testutil"
)

func TestFeatured_SetRequiresPublished(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	svc := NewFeaturedService(store, store, store)

	pending := submitPoem(t, store, author, "Pending")
	_, err := svc.Set(ctx, FeaturedPoemInput{PoemID: pending.ID})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Set(ctx, FeaturedPoemInput{PoemID: "00000000-0000-0000-0000-000000000000"})
	assertStatus(t, err, http.StatusNotFound)

	_, err = svc.Set(ctx, FeaturedPoemInput{PoemID: "not-a-uuid"})
	assertStatus(t, err, http.StatusBadRequest)

	published := publishPoem(t, store, author, "Ocean")
	set, err := svc.Set(ctx, FeaturedPoemInput{PoemID: published.ID})
	require.NoError(t, err)
	assert.Equal(t, published.ID, set.Poem.ID)
	assert.NotNil(t, set.FeaturedAt)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current.Poem)
	assert.Equal(t, published.ID, current.Poem.ID)
	assert.NotEmpty(t, current.Poem.ContentHTML)
}

func TestFeatured_DeletingPoemClearsPointer(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	svc := NewFeaturedService(store, store, store)
	p := publishPoem(t, store, author, "Ocean")

	_, err := svc.Set(ctx, FeaturedPoemInput{PoemID: p.ID})
	require.NoError(t, err)
	require.NoError(t, NewModerationService(store, &recordingNotifications{}).Delete(ctx, p.ID))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current.Poem)

	settings, err := store.GetSiteSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings.FeaturedPoemID)
}

func TestFeatured_Clear(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	svc := NewFeaturedService(store, store, store)
	p := publishPoem(t, store, author, "Ocean")

	require.NoError(t, svc.Clear(ctx))
	_, err := svc.Set(ctx, FeaturedPoemInput{PoemID: p.ID})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current.Poem)
	assert.Nil(t, current.FeaturedAt)
}

func TestFeatured_Authors(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	poet := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	reader := newUser(t, store, "Bo", "bo@example.com", models.RoleUser)
	publishPoem(t, store, poet, "Ocean")
	svc := NewFeaturedService(store, store, store)

	yes := true
	for _, u := range []*models.User{poet, reader} {
		updated, err := svc.SetAuthorFeatured(ctx, u.ID, FeaturedAuthorInput{Featured: &yes})
		require.NoError(t, err)
		assert.True(t, updated.Featured)
	}

	authors, page, err := svc.FeaturedAuthors(ctx, db.Page{})
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, poet.ID, authors[0].ID)
	assert.EqualValues(t, 1, authors[0].PoemCount)
	assert.EqualValues(t, 1, page.Total)

	_, err = svc.SetAuthorFeatured(ctx, poet.ID, FeaturedAuthorInput{})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = svc.SetAuthorFeatured(ctx, "00000000-0000-0000-0000-000000000000", FeaturedAuthorInput{Featured: &yes})
	assertStatus(t, err, http.StatusNotFound)
}
