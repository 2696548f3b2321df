package consent

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNoRecord = errors.New("no consent record")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Record{}, &AuditEntry{})
}

// Latest returns the most recent consent record for (subjectID, purpose).
func (r *Repository) Latest(ctx context.Context, subjectID uint, purpose string) (*Record, error) {
	var rec Record
	result := r.db.WithContext(ctx).
		Where("subject_id = ? AND purpose = ?", subjectID, purpose).
		Order("recorded_at desc").
		First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNoRecord
	}
	return &rec, result.Error
}

// AuditTrail returns consent actions for a subject, newest first. Both
// tables are written by the external consent API; this engine only reads.
func (r *Repository) AuditTrail(ctx context.Context, subjectID uint, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []AuditEntry
	result := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries)
	return entries, result.Error
}
