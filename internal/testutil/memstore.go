// Package testutil holds test doubles shared by service and handler tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"poetica/internal/db"
	"poetica/internal/models"
)

type pair struct {
	userID string
	poemID string
}

// MemStore is an in-memory db.Store with the same semantics as the gorm
// repositories, including cascades and rating re-aggregation.
type MemStore struct {
	mu            sync.Mutex
	users         map[string]models.User
	poems         map[string]models.Poem
	poemTags      map[string][]string
	tags          map[string]models.Tag
	ratings       map[pair]models.StarRating
	likes         map[pair]time.Time
	comments      map[string]models.Comment
	announcements map[string]models.Announcement
	settings      models.SiteSettings
	seq           time.Duration
}

var _ db.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:         map[string]models.User{},
		poems:         map[string]models.Poem{},
		poemTags:      map[string][]string{},
		tags:          map[string]models.Tag{},
		ratings:       map[pair]models.StarRating{},
		likes:         map[pair]time.Time{},
		comments:      map[string]models.Comment{},
		announcements: map[string]models.Announcement{},
		settings:      models.SiteSettings{ID: models.SiteSettingsID},
	}
}

// now returns strictly increasing timestamps so ordering is deterministic.
func (s *MemStore) now() time.Time {
	s.seq += time.Millisecond
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(s.seq)
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func paginate[T any](items []T, page db.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Users

func (s *MemStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return db.ErrDuplicate
		}
	}
	user.ID = newID(user.ID)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *MemStore) findUser(match func(models.User) bool) *models.User {
	for _, u := range s.users {
		if match(u) {
			cp := u
			return &cp
		}
	}
	return nil
}

func (s *MemStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(func(u models.User) bool { return u.ID == id }), nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(func(u models.User) bool { return u.Email == email }), nil
}

func (s *MemStore) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(func(u models.User) bool { return u.ResetToken != nil && *u.ResetToken == tokenHash }), nil
}

func (s *MemStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email && u.ID != user.ID {
			return db.ErrDuplicate
		}
	}
	user.UpdatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

func (s *MemStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return db.ErrNotFound
	}

	rated := map[string]bool{}
	for k := range s.ratings {
		if k.userID == id {
			rated[k.poemID] = true
			delete(s.ratings, k)
		}
	}
	for k := range s.likes {
		if k.userID == id {
			delete(s.likes, k)
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, cid)
		}
	}
	for pid, p := range s.poems {
		if p.AuthorID == id {
			s.deletePoemLocked(pid)
		}
	}
	delete(s.users, id)

	for pid := range rated {
		if _, ok := s.poems[pid]; ok {
			s.recomputeLocked(pid)
		}
	}
	return nil
}

func (s *MemStore) ListUsers(ctx context.Context, page db.Page) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return paginate(users, page), int64(len(users)), nil
}

func (s *MemStore) ListAuthors(ctx context.Context, featuredOnly bool, page db.Page) ([]db.AuthorSummary, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for _, p := range s.poems {
		if p.Status == models.StatusPublished {
			counts[p.AuthorID]++
		}
	}
	authors := make([]db.AuthorSummary, 0, len(counts))
	for uid, n := range counts {
		u := s.users[uid]
		if featuredOnly && !u.Featured {
			continue
		}
		authors = append(authors, db.AuthorSummary{User: u, PoemCount: n})
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].PoemCount != authors[j].PoemCount {
			return authors[i].PoemCount > authors[j].PoemCount
		}
		return authors[i].Name < authors[j].Name
	})
	return paginate(authors, page), int64(len(authors)), nil
}

func (s *MemStore) CountPublishedPoems(ctx context.Context, authorID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.poems {
		if p.AuthorID == authorID && p.Status == models.StatusPublished {
			n++
		}
	}
	return n, nil
}

// Poems

func (s *MemStore) setTagsLocked(poemID string, names []string) []models.Tag {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	tags := make([]models.Tag, 0, len(sorted))
	for _, name := range sorted {
		tag, ok := s.tags[name]
		if !ok {
			tag = models.Tag{ID: uuid.NewString(), Name: name}
			s.tags[name] = tag
		}
		tags = append(tags, tag)
	}
	s.poemTags[poemID] = sorted
	return tags
}

func (s *MemStore) CreatePoem(ctx context.Context, poem *models.Poem, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[poem.AuthorID]; !ok {
		return db.ErrNotFound
	}
	poem.ID = newID(poem.ID)
	poem.CreatedAt = s.now()
	poem.UpdatedAt = poem.CreatedAt
	poem.Tags = s.setTagsLocked(poem.ID, tags)

	stored := *poem
	stored.Author = nil
	stored.Tags = nil
	s.poems[poem.ID] = stored
	return nil
}

// hydrateLocked returns a copy of the stored poem with author, tags and counts.
func (s *MemStore) hydrateLocked(p models.Poem) models.Poem {
	if u, ok := s.users[p.AuthorID]; ok {
		p.Author = &u
	}
	p.Tags = make([]models.Tag, 0, len(s.poemTags[p.ID]))
	for _, name := range s.poemTags[p.ID] {
		p.Tags = append(p.Tags, s.tags[name])
	}
	p.LikeCount, p.CommentCount = 0, 0
	for k := range s.likes {
		if k.poemID == p.ID {
			p.LikeCount++
		}
	}
	for _, c := range s.comments {
		if c.PoemID == p.ID {
			p.CommentCount++
		}
	}
	return p
}

func (s *MemStore) GetPoem(ctx context.Context, id string) (*models.Poem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.poems[id]
	if !ok {
		return nil, nil
	}
	h := s.hydrateLocked(p)
	return &h, nil
}

func (s *MemStore) UpdatePoem(ctx context.Context, poem *models.Poem, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.poems[poem.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.Title = poem.Title
	stored.Content = poem.Content
	stored.UpdatedAt = s.now()
	s.poems[poem.ID] = stored
	poem.Tags = s.setTagsLocked(poem.ID, tags)
	return nil
}

func (s *MemStore) TransitionPoem(ctx context.Context, id string, t db.Transition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.poems[id]
	if !ok || p.Status != t.From {
		return false, nil
	}
	p.Status = t.To
	switch {
	case t.ClearPublishedAt:
		p.PublishedAt = nil
	case t.PublishAt != nil && p.PublishedAt == nil:
		at := *t.PublishAt
		p.PublishedAt = &at
	}
	p.UpdatedAt = s.now()
	s.poems[id] = p
	return true, nil
}

func (s *MemStore) deletePoemLocked(id string) {
	if s.settings.FeaturedPoemID != nil && *s.settings.FeaturedPoemID == id {
		s.settings.FeaturedPoemID = nil
		s.settings.FeaturedAt = nil
	}
	for k := range s.ratings {
		if k.poemID == id {
			delete(s.ratings, k)
		}
	}
	for k := range s.likes {
		if k.poemID == id {
			delete(s.likes, k)
		}
	}
	for cid, c := range s.comments {
		if c.PoemID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.poemTags, id)
	delete(s.poems, id)
}

func (s *MemStore) DeletePoem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poems[id]; !ok {
		return db.ErrNotFound
	}
	s.deletePoemLocked(id)
	return nil
}

func (s *MemStore) matches(p models.Poem, f db.PoemFilter) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.AuthorID != "" && p.AuthorID != f.AuthorID {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(strings.ToLower(p.Content), q) {
			return false
		}
	}
	if f.Tag != "" {
		want := strings.ToLower(strings.TrimSpace(f.Tag))
		found := false
		for _, name := range s.poemTags[p.ID] {
			if name == want {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *MemStore) ListPoems(ctx context.Context, f db.PoemFilter) ([]models.Poem, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poems := make([]models.Poem, 0)
	for _, p := range s.poems {
		if s.matches(p, f) {
			poems = append(poems, s.hydrateLocked(p))
		}
	}

	sort.Slice(poems, func(i, j int) bool {
		a, b := poems[i], poems[j]
		switch f.Sort {
		case db.SortRating:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
			if a.RatingCount != b.RatingCount {
				return a.RatingCount > b.RatingCount
			}
			return a.CreatedAt.After(b.CreatedAt)
		case db.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if (a.PublishedAt == nil) != (b.PublishedAt == nil) {
			return a.PublishedAt != nil
		}
		if a.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return paginate(poems, f.Page), int64(len(poems)), nil
}

func (s *MemStore) ListTags(ctx context.Context) ([]db.TagCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{}
	for pid, names := range s.poemTags {
		if s.poems[pid].Status != models.StatusPublished {
			continue
		}
		for _, name := range names {
			counts[name]++
		}
	}
	out := make([]db.TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, db.TagCount{ID: s.tags[name].ID, Name: name, PoemCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PoemCount != out[j].PoemCount {
			return out[i].PoemCount > out[j].PoemCount
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemStore) Stats(ctx context.Context) (*db.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &db.Stats{
		Users:    int64(len(s.users)),
		Comments: int64(len(s.comments)),
		Ratings:  int64(len(s.ratings)),
		Likes:    int64(len(s.likes)),
		Poems: map[models.PoemStatus]int64{
			models.StatusSubmitted: 0,
			models.StatusPublished: 0,
			models.StatusRejected:  0,
		},
	}
	for _, p := range s.poems {
		stats.Poems[p.Status]++
	}
	return stats, nil
}

// Ratings

func (s *MemStore) recomputeLocked(poemID string) db.RatingAggregate {
	var sum, n int
	for k, r := range s.ratings {
		if k.poemID == poemID {
			sum += r.Rating
			n++
		}
	}
	agg := db.RatingAggregate{RatingCount: n}
	if n > 0 {
		agg.AverageRating = float64(sum) / float64(n)
	}
	p := s.poems[poemID]
	p.AverageRating = agg.AverageRating
	p.RatingCount = agg.RatingCount
	s.poems[poemID] = p
	return agg
}

func (s *MemStore) UpsertRating(ctx context.Context, userID, poemID string, value int) (db.RatingAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poems[poemID]; !ok {
		return db.RatingAggregate{}, db.ErrNotFound
	}
	k := pair{userID, poemID}
	r, ok := s.ratings[k]
	if !ok {
		r = models.StarRating{ID: uuid.NewString(), UserID: userID, PoemID: poemID, CreatedAt: s.now()}
	}
	r.Rating = value
	r.UpdatedAt = s.now()
	s.ratings[k] = r
	return s.recomputeLocked(poemID), nil
}

func (s *MemStore) DeleteRating(ctx context.Context, userID, poemID string) (db.RatingAggregate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poems[poemID]; !ok {
		return db.RatingAggregate{}, false, db.ErrNotFound
	}
	k := pair{userID, poemID}
	_, found := s.ratings[k]
	delete(s.ratings, k)
	return s.recomputeLocked(poemID), found, nil
}

func (s *MemStore) GetUserRating(ctx context.Context, userID, poemID string) (*models.StarRating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[pair{userID, poemID}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// Likes

func (s *MemStore) AddLike(ctx context.Context, userID, poemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poems[poemID]; !ok {
		return db.ErrNotFound
	}
	k := pair{userID, poemID}
	if _, ok := s.likes[k]; !ok {
		s.likes[k] = s.now()
	}
	return nil
}

func (s *MemStore) RemoveLike(ctx context.Context, userID, poemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.likes, pair{userID, poemID})
	return nil
}

func (s *MemStore) LikeState(ctx context.Context, userID, poemID string) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k := range s.likes {
		if k.poemID == poemID {
			count++
		}
	}
	_, liked := s.likes[pair{userID, poemID}]
	return liked && userID != "", count, nil
}

// Comments

func (s *MemStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poems[comment.PoemID]; !ok {
		return db.ErrNotFound
	}
	comment.ID = newID(comment.ID)
	comment.CreatedAt = s.now()
	comment.UpdatedAt = comment.CreatedAt
	stored := *comment
	stored.Author = nil
	s.comments[comment.ID] = stored
	return nil
}

func (s *MemStore) withAuthorLocked(c models.Comment) models.Comment {
	if u, ok := s.users[c.AuthorID]; ok {
		c.Author = &u
	}
	return c
}

func (s *MemStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	c = s.withAuthorLocked(c)
	return &c, nil
}

func (s *MemStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[comment.ID]; !ok {
		return db.ErrNotFound
	}
	comment.UpdatedAt = s.now()
	stored := *comment
	stored.Author = nil
	s.comments[comment.ID] = stored
	return nil
}

func (s *MemStore) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *MemStore) ListComments(ctx context.Context, poemID string, page db.Page) ([]models.Comment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.PoemID == poemID {
			out = append(out, s.withAuthorLocked(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, page), int64(len(out)), nil
}

// Site settings

func (s *MemStore) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.settings
	return &cp, nil
}

func (s *MemStore) SetFeaturedPoem(ctx context.Context, poemID *string, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if poemID != nil {
		if _, ok := s.poems[*poemID]; !ok {
			return db.ErrNotFound
		}
		id := *poemID
		poemID = &id
	}
	s.settings.FeaturedPoemID = poemID
	s.settings.FeaturedAt = at
	s.settings.UpdatedAt = s.now()
	return nil
}

// Announcements

func (s *MemStore) ListAnnouncements(ctx context.Context, visibleAt *time.Time, page db.Page) ([]models.Announcement, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Announcement, 0)
	for _, a := range s.announcements {
		if visibleAt != nil && !a.VisibleAt(*visibleAt) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if (a.PublishedAt == nil) != (b.PublishedAt == nil) {
			return a.PublishedAt != nil
		}
		if a.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return paginate(out, page), int64(len(out)), nil
}

func (s *MemStore) GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MemStore) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = newID(a.ID)
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.announcements[a.ID] = *a
	return nil
}

func (s *MemStore) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.UpdatedAt = s.now()
	s.announcements[a.ID] = *a
	return nil
}

func (s *MemStore) DeleteAnnouncement(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}
