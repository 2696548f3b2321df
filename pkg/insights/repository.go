package insights

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("weekly insight not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&WeeklyInsight{})
}

// LatestFor returns the most recently generated insight for a subject.
func (r *Repository) LatestFor(ctx context.Context, subjectID uint) (*WeeklyInsight, error) {
	var insight WeeklyInsight
	result := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("generated_at desc").
		First(&insight)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &insight, result.Error
}

// Append inserts a new insight. Existing insights are never updated.
func (r *Repository) Append(ctx context.Context, insight *WeeklyInsight) error {
	return r.db.WithContext(ctx).Create(insight).Error
}

// History returns a subject's insights, newest first.
func (r *Repository) History(ctx context.Context, subjectID uint, limit int) ([]WeeklyInsight, error) {
	if limit <= 0 {
		limit = 12
	}
	var list []WeeklyInsight
	result := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("generated_at desc").
		Limit(limit).
		Find(&list)
	return list, result.Error
}
