package sessions

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Session{})
}

// Since returns a subject's sessions scheduled within [since, now], oldest
// first.
func (r *Repository) Since(ctx context.Context, subjectID uint, since time.Time) ([]Session, error) {
	var list []Session
	result := r.db.WithContext(ctx).
		Where("subject_id = ? AND scheduled_at >= ?", subjectID, since).
		Order("scheduled_at asc").
		Find(&list)
	return list, result.Error
}
