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

func TestPoemService_CreateSubmitsAndNormalizesTags(t *testing.T) {
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)

	p := submitPoem(t, store, author, "  Ocean  ", "Sea", " sea ", "waves")

	assert.Equal(t, "Ocean", p.Title)
	assert.Equal(t, models.StatusSubmitted, p.Status)
	assert.Nil(t, p.PublishedAt)
	names := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"sea", "waves"}, names)
}

func TestPoemService_CreateValidates(t *testing.T) {
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)

	_, err := NewPoemService(store).Create(context.Background(), author, PoemInput{Title: "   ", Content: "x"})
	assertStatus(t, err, http.StatusBadRequest)

	tags := make([]string, 11)
	for i := range tags {
		tags[i] = "t"
	}
	_, err = NewPoemService(store).Create(context.Background(), author, PoemInput{Title: "a", Content: "b", Tags: tags})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestPoemService_Visibility(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	other := newUser(t, store, "Bo", "bo@example.com", models.RoleUser)
	admin := newUser(t, store, "Root", "root@example.com", models.RoleAdmin)
	svc := NewPoemService(store)

	p := submitPoem(t, store, author, "Hidden")

	got, err := svc.Get(ctx, author, p.ID)
	require.NoError(t, err)
	assert.Contains(t, got.ContentHTML, "line one")

	for _, viewer := range []*models.User{nil, other, admin} {
		_, err := svc.Get(ctx, viewer, p.ID)
		assertStatus(t, err, http.StatusNotFound)
	}
	_, err = svc.Get(ctx, nil, "00000000-0000-0000-0000-000000000000")
	assertStatus(t, err, http.StatusNotFound)

	_, err = NewModerationService(store, &recordingNotifications{}).Approve(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, nil, p.ID)
	assert.NoError(t, err)
}

func TestPoemService_UpdateAndDeleteRequireOwnership(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	other := newUser(t, store, "Bo", "bo@example.com", models.RoleUser)
	svc := NewPoemService(store)
	p := publishPoem(t, store, author, "Mine", "old")

	_, err := svc.Update(ctx, other, p.ID, PoemInput{Title: "x", Content: "y"})
	assertStatus(t, err, http.StatusForbidden)
	assertStatus(t, svc.Delete(ctx, other, p.ID), http.StatusForbidden)

	updated, err := svc.Update(ctx, author, p.ID, PoemInput{Title: "Renamed", Content: "new", Tags: []string{"new"}})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, models.StatusPublished, updated.Status)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "new", updated.Tags[0].Name)

	require.NoError(t, svc.Delete(ctx, author, p.ID))
	_, err = svc.Get(ctx, author, p.ID)
	assertStatus(t, err, http.StatusNotFound)
}

func TestPoemService_ListPublishedOnlyShowsPublished(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	author := newUser(t, store, "Ada", "ada@example.com", models.RoleUser)
	svc := NewPoemService(store)

	publishPoem(t, store, author, "Public", "sea")
	submitPoem(t, store, author, "Pending", "sea")

	poems, page, err := svc.ListPublished(ctx, db.PoemFilter{Status: models.StatusSubmitted, Tag: "sea"})
	require.NoError(t, err)
	require.Len(t, poems, 1)
	assert.Equal(t, "Public", poems[0].Title)
	assert.Equal(t, "line one\nline two", poems[0].Excerpt)
	assert.EqualValues(t, 1, page.Total)

	mine, _, err := svc.ListMine(ctx, author, "", db.Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, _, err = svc.ListMine(ctx, author, "ARCHIVED", db.Page{})
	assertStatus(t, err, http.StatusBadRequest)
}
