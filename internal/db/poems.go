package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poetica/internal/models"
)

// PoemRepository provides poem, tag and moderation queries
type PoemRepository struct {
	*Repository
}

// resolveTags finds or creates tags by name inside tx.
func resolveTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	if len(names) == 0 {
		return tags, nil
	}

	fresh := make([]models.Tag, 0, len(names))
	for _, name := range names {
		fresh = append(fresh, models.Tag{Name: name})
	}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create tags: %w", err)
	}
	if err := tx.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	return tags, nil
}

func (r *PoemRepository) CreatePoem(ctx context.Context, poem *models.Poem, tags []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := resolveTags(tx, tags)
		if err != nil {
			return err
		}
		poem.Tags = resolved
		return translate(tx.Omit("Author", "Tags.*").Create(poem).Error)
	})
}

func (r *PoemRepository) GetPoem(ctx context.Context, id string) (*models.Poem, error) {
	if !validID(id) {
		return nil, nil
	}
	var poem models.Poem
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Where("id = ?", id).
		First(&poem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	poems := []*models.Poem{&poem}
	if err := r.fillCounts(ctx, poems); err != nil {
		return nil, err
	}
	return &poem, nil
}

// UpdatePoem writes title and content and replaces the tag set in one transaction.
func (r *PoemRepository) UpdatePoem(ctx context.Context, poem *models.Poem, tags []string) error {
	if !validID(poem.ID) {
		return ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Poem{}).Where("id = ?", poem.ID).
			Updates(map[string]interface{}{"title": poem.Title, "content": poem.Content})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		resolved, err := resolveTags(tx, tags)
		if err != nil {
			return err
		}
		if err := tx.Model(poem).Association("Tags").Replace(resolved); err != nil {
			return fmt.Errorf("replace tags: %w", err)
		}
		poem.Tags = resolved
		return nil
	})
}

// TransitionPoem applies t with a conditional update, so two moderators
// racing on the same poem cannot both succeed. It reports whether the row
// was still in t.From.
func (r *PoemRepository) TransitionPoem(ctx context.Context, id string, t Transition) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	updates := map[string]interface{}{"status": t.To}
	switch {
	case t.ClearPublishedAt:
		updates["published_at"] = nil
	case t.PublishAt != nil:
		updates["published_at"] = gorm.Expr("COALESCE(published_at, ?)", *t.PublishAt)
	}

	res := r.db.WithContext(ctx).Model(&models.Poem{}).
		Where("id = ? AND status = ?", id, t.From).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeletePoem clears the featured pointer if it targets the poem, then deletes
// it. Comments, ratings, likes and tag links go with it through FK cascades.
func (r *PoemRepository) DeletePoem(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SiteSettings{}).
			Where("id = ? AND featured_poem_id = ?", models.SiteSettingsID, id).
			Updates(map[string]interface{}{"featured_poem_id": nil, "featured_at": nil}).Error; err != nil {
			return fmt.Errorf("clear featured poem: %w", err)
		}

		res := tx.Delete(&models.Poem{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PoemRepository) filtered(ctx context.Context, f PoemFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Poem{})
	if f.Status != "" {
		q = q.Where("poems.status = ?", f.Status)
	}
	if f.AuthorID != "" {
		q = q.Where("poems.author_id = ?", f.AuthorID)
	}
	if f.Query != "" {
		pattern := containsPattern(f.Query)
		q = q.Where("(poems.title ILIKE ? OR poems.content ILIKE ?)", pattern, pattern)
	}
	if f.Tag != "" {
		q = q.Where("EXISTS (SELECT 1 FROM poem_tags JOIN tags ON tags.id = poem_tags.tag_id WHERE poem_tags.poem_id = poems.id AND tags.name = ?)",
			strings.ToLower(strings.TrimSpace(f.Tag)))
	}
	return q
}

func orderFor(sort PoemSort) string {
	switch sort {
	case SortRating:
		return "poems.average_rating DESC, poems.rating_count DESC, poems.created_at DESC"
	case SortOldest:
		return "poems.created_at ASC"
	}
	return "poems.published_at DESC NULLS LAST, poems.created_at DESC"
}

func (r *PoemRepository) ListPoems(ctx context.Context, f PoemFilter) ([]models.Poem, int64, error) {
	if f.AuthorID != "" && !validID(f.AuthorID) {
		return []models.Poem{}, 0, nil
	}
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var poems []models.Poem
	q := r.filtered(ctx, f).
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Order(orderFor(f.Sort))
	if err := paginate(q, f.Page).Find(&poems).Error; err != nil {
		return nil, 0, err
	}

	ptrs := make([]*models.Poem, len(poems))
	for i := range poems {
		ptrs[i] = &poems[i]
	}
	if err := r.fillCounts(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	return poems, total, nil
}

type poemCount struct {
	PoemID string
	Count  int64
}

// fillCounts batch-loads like and comment counts for the given poems.
func (r *PoemRepository) fillCounts(ctx context.Context, poems []*models.Poem) error {
	if len(poems) == 0 {
		return nil
	}
	ids := make([]string, len(poems))
	for i, p := range poems {
		ids[i] = p.ID
	}

	countBy := func(model interface{}) (map[string]int64, error) {
		var rows []poemCount
		if err := r.db.WithContext(ctx).Model(model).
			Select("poem_id, COUNT(*) AS count").
			Where("poem_id IN ?", ids).
			Group("poem_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		out := make(map[string]int64, len(rows))
		for _, row := range rows {
			out[row.PoemID] = row.Count
		}
		return out, nil
	}

	likes, err := countBy(&models.Like{})
	if err != nil {
		return fmt.Errorf("count likes: %w", err)
	}
	comments, err := countBy(&models.Comment{})
	if err != nil {
		return fmt.Errorf("count comments: %w", err)
	}
	for _, p := range poems {
		p.LikeCount = likes[p.ID]
		p.CommentCount = comments[p.ID]
	}
	return nil
}

func (r *PoemRepository) ListTags(ctx context.Context) ([]TagCount, error) {
	var tags []TagCount
	err := r.db.WithContext(ctx).Table("tags").
		Select("tags.id, tags.name, COUNT(poems.id) AS poem_count").
		Joins("JOIN poem_tags ON poem_tags.tag_id = tags.id").
		Joins("JOIN poems ON poems.id = poem_tags.poem_id AND poems.status = ?", models.StatusPublished).
		Group("tags.id, tags.name").
		Order("poem_count DESC, tags.name ASC").
		Scan(&tags).Error
	return tags, err
}

func (r *PoemRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Poems: map[models.PoemStatus]int64{}}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Comment{}).Count(&stats.Comments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.StarRating{}).Count(&stats.Ratings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Like{}).Count(&stats.Likes).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Status models.PoemStatus
		Count  int64
	}
	if err := db.Model(&models.Poem{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range []models.PoemStatus{models.StatusSubmitted, models.StatusPublished, models.StatusRejected} {
		stats.Poems[s] = 0
	}
	for _, row := range rows {
		stats.Poems[row.Status] = row.Count
	}
	return stats, nil
}
