package db

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Repositories bundles every repository into one Store.
type Repositories struct {
	*UserRepository
	*PoemRepository
	*RatingRepository
	*LikeRepository
	*CommentRepository
	*SettingsRepository
	*AnnouncementRepository
}

var _ Store = (*Repositories)(nil)

// NewRepositories creates all repositories over one connection
func NewRepositories(db *gorm.DB) *Repositories {
	repo := NewRepository(db)
	return &Repositories{
		UserRepository:         &UserRepository{Repository: repo},
		PoemRepository:         &PoemRepository{Repository: repo},
		RatingRepository:       &RatingRepository{Repository: repo},
		LikeRepository:         &LikeRepository{Repository: repo},
		CommentRepository:      &CommentRepository{Repository: repo},
		SettingsRepository:     &SettingsRepository{Repository: repo},
		AnnouncementRepository: &AnnouncementRepository{Repository: repo},
	}
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// validID reports whether id can match a uuid key column. Postgres rejects
// malformed uuids outright, so callers treat them as missing rows.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

func paginate(q *gorm.DB, page Page) *gorm.DB {
	page = page.Normalize()
	return q.Offset(page.Offset()).Limit(page.Limit)
}
